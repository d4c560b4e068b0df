package redact

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactor_String(t *testing.T) {
	r := New("s3cr3t-db-pass", "ab", "")

	tests := []struct {
		name     string
		in       string
		contains []string
		absent   []string
	}{
		{
			name:   "configured secret",
			in:     "dial postgres://app:s3cr3t-db-pass@db/app failed",
			absent: []string{"s3cr3t-db-pass"},
		},
		{
			name:     "token assignment",
			in:       "env TOKEN=abcdef123 YT_API_KEY=zzz9 exit 1",
			contains: []string{"TOKEN=***", "YT_API_KEY=***"},
			absent:   []string{"abcdef123", "zzz9"},
		},
		{
			name:     "password in query string",
			in:       "GET https://x.test/?user=a&password=hunter22&x=1",
			contains: []string{"password=***", "&x=1"},
			absent:   []string{"hunter22"},
		},
		{
			name:     "bearer header",
			in:       "request failed: Authorization: Bearer eyJhbGciOi.J9.sig",
			contains: []string{"Authorization: Bearer ***"},
			absent:   []string{"eyJhbGciOi"},
		},
		{
			name:     "basic header lowercase",
			in:       "authorization: basic dXNlcjpwYXNz",
			contains: []string{"authorization: basic ***"},
			absent:   []string{"dXNlcjpwYXNz"},
		},
		{
			name:     "key as a name segment",
			in:       "STRIPE_KEY=sk_live_abc123 key=k1v2 SIGNING.KEY.V2=q9q9",
			contains: []string{"STRIPE_KEY=***", "key=***", "SIGNING.KEY.V2=***"},
			absent:   []string{"sk_live_abc123", "k1v2", "q9q9"},
		},
		{
			name:     "key inside a word is not a credential",
			in:       "monkey=banana keyboard=qwerty",
			contains: []string{"monkey=banana", "keyboard=qwerty"},
		},
		{
			name:     "short secret ignored",
			in:       "about tab",
			contains: []string{"about tab"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.String(tt.in)
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
			for _, a := range tt.absent {
				assert.NotContains(t, out, a)
			}
		})
	}
}

func TestRedactor_NilSafe(t *testing.T) {
	var r *Redactor
	assert.Equal(t, "SECRET=***", r.String("SECRET=value"))
}

func TestRedactor_Payload(t *testing.T) {
	r := New("topsecretvalue")

	t.Run("json stays valid", func(t *testing.T) {
		in := json.RawMessage(`{"stderr":"ACCESS_TOKEN=abc123 topsecretvalue","code":1}`)
		out := r.Payload(in, DefaultMaxPayload)
		require.True(t, json.Valid(out))
		assert.NotContains(t, string(out), "abc123")
		assert.NotContains(t, string(out), "topsecretvalue")
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, r.Payload(nil, 100))
	})

	t.Run("secret with json-escaped characters", func(t *testing.T) {
		r := New("p&ss<word>\"q")
		in, err := json.Marshal(map[string]any{
			"err":        "login failed with p&ss<word>\"q",
			"p&ss<word>\"q": []any{"p&ss<word>\"q", 3},
		})
		require.NoError(t, err)

		out := r.Payload(in, DefaultMaxPayload)
		require.True(t, json.Valid(out))
		var m map[string]any
		require.NoError(t, json.Unmarshal(out, &m))
		assert.Equal(t, "login failed with ***", m["err"])
		assert.Equal(t, []any{"***", float64(3)}, m["***"])
		assert.NotContains(t, string(out), "ss")
	})

	t.Run("invalid json stored as string", func(t *testing.T) {
		out := r.Payload(json.RawMessage(`not json topsecretvalue`), DefaultMaxPayload)
		var s string
		require.NoError(t, json.Unmarshal(out, &s))
		assert.Equal(t, "not json ***", s)
	})

	t.Run("oversized multibyte stays under cap", func(t *testing.T) {
		in, err := json.Marshal(map[string]string{"log": strings.Repeat("字", 20000)})
		require.NoError(t, err)
		out := r.Payload(in, DefaultMaxPayload)
		assert.LessOrEqual(t, len(out), DefaultMaxPayload)
		var m map[string]any
		require.NoError(t, json.Unmarshal(out, &m))
		assert.Equal(t, true, m["truncated"])
		assert.Equal(t, float64(len(in)), m["original_size"])
		preview, _ := m["preview"].(string)
		assert.True(t, utf8.ValidString(preview))
		assert.True(t, strings.HasSuffix(preview, "(truncated)"))
	})

	t.Run("oversized", func(t *testing.T) {
		in, _ := json.Marshal(map[string]string{"log": strings.Repeat("x", 500)})
		out := r.Payload(in, 100)
		require.True(t, json.Valid(out))
		var m map[string]any
		require.NoError(t, json.Unmarshal(out, &m))
		assert.Equal(t, true, m["truncated"])
		assert.LessOrEqual(t, len(out), 100)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	out := Truncate(strings.Repeat("é", 100), 30)
	assert.Equal(t, 30, len([]rune(out)))
	assert.True(t, strings.HasSuffix(out, "(truncated)"))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestTruncateBytes(t *testing.T) {
	assert.Equal(t, "short", TruncateBytes("short", 10))
	out := TruncateBytes(strings.Repeat("字", 100), 40)
	assert.LessOrEqual(t, len(out), 40)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, truncatedSuffix))
	assert.Equal(t, "", TruncateBytes(strings.Repeat("x", 20), 5))
}

func TestRedactor_Message(t *testing.T) {
	r := New()
	out := r.Message("PASSWORD=hunter2 "+strings.Repeat("a", 50), 20)
	assert.NotContains(t, out, "hunter2")
	assert.LessOrEqual(t, len([]rune(out)), 20)
}
