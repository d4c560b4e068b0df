// Package redact 在持久化前屏蔽错误文本与结构化载荷中的敏感信息。
package redact

import (
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// Mask 替换敏感内容的占位符
	Mask = "***"

	// DefaultMaxMessage 事件消息最大长度（字符）
	DefaultMaxMessage = 2000

	// DefaultMaxPayload 结构化载荷序列化后的最大字节数
	DefaultMaxPayload = 16 * 1024

	truncatedSuffix = "... (truncated)"

	// minSecretLen 过短的值不作为字面量屏蔽，否则会误伤正常文本
	minSecretLen = 4
)

var (
	// assignmentRegex NAME=value 形式的凭据赋值（NAME 中包含敏感关键字，KEY 需作为独立分段出现）
	assignmentRegex = regexp.MustCompile(`(?i)\b([A-Z0-9_.-]*(?:TOKEN|SECRET|PASSWORD|PASSWD|PWD|APIKEY|ACCESSKEY|PRIVATEKEY|COOKIE|CREDENTIALS?|AUTH)[A-Z0-9_.-]*|(?:[A-Z0-9_.-]*[_.-])?KEY(?:[_.-][A-Z0-9_.-]*)?)(\s*=\s*)("[^"]*"|'[^']*'|[^\s"'&;,]+)`)

	// authHeaderRegex Authorization: Bearer/Basic <token>
	authHeaderRegex = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*"?\s*(?:bearer|basic))\s+[A-Za-z0-9._~+/=-]+`)
)

// Redactor 按配置的密钥列表与通用模式做脱敏
type Redactor struct {
	secrets []string
}

// New 创建 Redactor。secrets 为需要按字面量屏蔽的值（例如数据库密码、API token）。
func New(secrets ...string) *Redactor {
	seen := make(map[string]struct{}, len(secrets))
	out := make([]string, 0, len(secrets))
	for _, s := range secrets {
		s = strings.TrimSpace(s)
		if len(s) < minSecretLen {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	// 先替换较长的值，避免短值是长值子串时留下残片
	sort.Slice(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return &Redactor{secrets: out}
}

// String 屏蔽文本中的敏感信息
func (r *Redactor) String(s string) string {
	if s == "" {
		return s
	}
	if r != nil {
		for _, secret := range r.secrets {
			s = strings.ReplaceAll(s, secret, Mask)
		}
	}
	s = authHeaderRegex.ReplaceAllString(s, "${1} "+Mask)
	s = assignmentRegex.ReplaceAllString(s, "${1}${2}"+Mask)
	return s
}

// Message 脱敏并截断到 max 个字符
func (r *Redactor) Message(s string, max int) string {
	return Truncate(r.String(s), max)
}

// Payload 对 JSON 载荷脱敏并限制大小。
// 合法 JSON 逐个字符串值（含对象键）脱敏后重新编码；否则整体作为 JSON 字符串保存。
// 超出 max 字节时只保留预览。
func (r *Redactor) Payload(raw json.RawMessage, max int) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	if max <= 0 {
		max = DefaultMaxPayload
	}

	var out []byte
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err == nil && !dec.More() {
		out, err = encode(r.walk(v))
		if err != nil {
			out = nil
		}
	}
	if out == nil {
		out, _ = encode(r.String(string(raw)))
	}
	if len(out) <= max {
		return out
	}
	return r.envelope(out, max)
}

// walk 递归脱敏所有字符串
func (r *Redactor) walk(v any) any {
	switch t := v.(type) {
	case string:
		return r.String(t)
	case []any:
		for i := range t {
			t[i] = r.walk(t[i])
		}
		return t
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[r.String(k)] = r.walk(val)
		}
		return m
	default:
		return v
	}
}

// envelope 生成 {truncated, original_size, preview}，保证编码后不超过 max 字节
func (r *Redactor) envelope(full []byte, max int) json.RawMessage {
	text := string(full)
	n := max / 2
	for {
		preview := TruncateBytes(text, n)
		b, err := encode(map[string]any{
			"truncated":     true,
			"original_size": len(full),
			"preview":       preview,
		})
		if err != nil {
			return nil
		}
		if len(b) <= max || n == 0 {
			return b
		}
		n -= len(b) - max
		if n < 0 {
			n = 0
		}
	}
}

// encode 编码 JSON，不转义 HTML 字符，保证屏蔽结果与明文比对一致
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// TruncateBytes 按字节截断到 max 以内（不拆分 UTF-8 字符），超出部分以后缀标记
func TruncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	keep := max - len(truncatedSuffix)
	if keep <= 0 {
		return ""
	}
	for keep > 0 && !utf8.RuneStart(s[keep]) {
		keep--
	}
	return s[:keep] + truncatedSuffix
}

// Truncate 按字符截断，超出部分以后缀标记
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	keep := max - utf8.RuneCountInString(truncatedSuffix)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return string(runes[:keep]) + truncatedSuffix
}
