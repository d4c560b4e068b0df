package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/fetchhub/internal/orchestrator"
	asynqx "github.com/azhengyongqin/fetchhub/internal/queue"
	"github.com/azhengyongqin/fetchhub/internal/server/dto"
	workers "github.com/azhengyongqin/fetchhub/internal/worker"
)

type stubRecoverer struct {
	recovered int
	res       orchestrator.DrainResult
	err       error
}

func (s *stubRecoverer) RecoverAndDrain(context.Context) (int, orchestrator.DrainResult, error) {
	return s.recovered, s.res, s.err
}

func (s *stubRecoverer) MaxWorkers() int { return 4 }

func doRecover(t *testing.T, rec Recoverer) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAdminHandler(rec, workers.NewRegistry(), nil, nil, asynqx.RecoverParams{})
	r.POST("/admin/recover", h.Recover)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/recover", nil))
	return w
}

func TestRecover_PartialFailureKeepsCounts(t *testing.T) {
	rec := &stubRecoverer{
		recovered: 1,
		res:       orchestrator.DrainResult{Active: 1, Started: 2},
		err: &orchestrator.RecoverError{Err: errors.Join(
			errors.New("force fail task 7: database is locked"),
			errors.New("release stale claims: database is locked"),
		)},
	}

	w := doRecover(t, rec)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.RecoverResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Recovered)
	assert.Equal(t, 2, resp.Started)
	assert.Equal(t, 3, resp.Active)
	assert.Equal(t, []string{
		"force fail task 7: database is locked",
		"release stale claims: database is locked",
	}, resp.Errors)
}

func TestRecover_DrainFailureIsInternalError(t *testing.T) {
	w := doRecover(t, &stubRecoverer{err: errors.New("count active workers: connection refused")})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRecover_Clean(t *testing.T) {
	w := doRecover(t, &stubRecoverer{res: orchestrator.DrainResult{Started: 1}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "errors")
}
