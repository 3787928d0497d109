package app

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/kindred/internal/platform/errors"
	"github.com/louisbranch/kindred/internal/platform/logging"
	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
	"go.uber.org/zap"
)

// Runner executes one daily batch.
type Runner interface {
	Run(ctx context.Context, runDate time.Time) (Summary, error)
}

// Handler serves the cron trigger and liveness endpoints.
type Handler struct {
	runner Runner
	token  string
	logger *zap.Logger
	clock  func() time.Time
}

// NewHandler builds the HTTP surface. An empty token disables bearer checks.
func NewHandler(runner Runner, token string, logger *zap.Logger) *Handler {
	return &Handler{
		runner: runner,
		token:  strings.TrimSpace(token),
		logger: logging.OrNop(logger),
		clock:  time.Now,
	}
}

// Routes returns the handler mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /cron/daily-tick", h.handleDailyTick)
	mux.HandleFunc("/cron/daily-tick", h.handleMethodNotAllowed)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return mux
}

type errorResponse struct {
	Code  apperrors.Code `json:"code"`
	Error string         `json:"error"`
}

func (h *Handler) handleDailyTick(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, apperrors.New(apperrors.CodeUnauthenticated, "missing or invalid bearer token"))
		return
	}
	runDate := domain.Day(h.clock())
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := domain.ParseDateKey(raw)
		if err != nil {
			writeError(w, apperrors.Wrap(apperrors.CodeInvalidRunDate, "date must be YYYY-MM-DD", err))
			return
		}
		runDate = parsed
	}

	summary, err := h.runner.Run(r.Context(), runDate)
	if err != nil {
		h.logger.Error("daily tick failed", zap.String("run_date", domain.DateKey(runDate)), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	writeError(w, apperrors.New(apperrors.CodeMethodNotAllow, "use POST"))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.token == "" {
		return true
	}
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return false
	}
	given := strings.TrimSpace(header[len(prefix):])
	return subtle.ConstantTimeCompare([]byte(given), []byte(h.token)) == 1
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperrors.HTTPStatus(err), errorResponse{Code: apperrors.CodeOf(err), Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}
