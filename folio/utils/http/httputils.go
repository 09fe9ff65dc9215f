package httputils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"folio/folio/utils/apperr"
	"folio/folio/utils/logging"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.ErrorLogger.Error("write json response", zap.Error(err))
	}
}

// WriteError renders err as {"error": msg}. Internal causes are logged, never
// sent to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	status := e.Kind.Status()
	if status >= http.StatusInternalServerError {
		logging.ErrorLogger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.String("kind", e.Kind.String()),
			zap.Error(e))
	}
	WriteJSON(w, status, map[string]string{"error": e.Message})
}

func SetRateLimitHeaders(w http.ResponseWriter, limit, remaining int) {
	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(limit))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(remaining))
}
