package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/louisbranch/kindred/internal/platform/errors"
	"github.com/stretchr/testify/require"
)

func newTestHandler(runner Runner, token string) http.Handler {
	h := NewHandler(runner, token, nil)
	h.clock = func() time.Time { return time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC) }
	return h.Routes()
}

func TestDailyTickUsesTodayByDefault(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	rec := httptest.NewRecorder()
	newTestHandler(runner, "").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cron/daily-tick", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var summary Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Equal(t, "2026-10-16", summary.RunDate)
	require.Equal(t, 1, summary.Processed)

	calls := runner.calls()
	require.Len(t, calls, 1)
	require.True(t, calls[0].Equal(time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)))
}

func TestDailyTickAcceptsExplicitDate(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	rec := httptest.NewRecorder()
	newTestHandler(runner, "").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cron/daily-tick?date=2026-10-01", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	calls := runner.calls()
	require.Len(t, calls, 1)
	require.True(t, calls[0].Equal(time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDailyTickRejectsBadDate(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	rec := httptest.NewRecorder()
	newTestHandler(runner, "").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cron/daily-tick?date=10/01/2026", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, apperrors.CodeInvalidRunDate, body.Code)
	require.Empty(t, runner.calls())
}

func TestDailyTickRequiresBearerToken(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	handler := newTestHandler(runner, "s3cret")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cron/daily-tick", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/cron/daily-tick", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/cron/daily-tick", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, runner.calls(), 1)
}

func TestDailyTickMapsBatchErrors(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: apperrors.New(apperrors.CodeBatchInProgress, "a daily batch is already running")}
	rec := httptest.NewRecorder()
	newTestHandler(runner, "").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cron/daily-tick", nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, apperrors.CodeBatchInProgress, body.Code)
}

func TestDailyTickRejectsGet(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestHandler(&fakeRunner{}, "").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cron/daily-tick", nil))

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestHandler(&fakeRunner{}, "").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
