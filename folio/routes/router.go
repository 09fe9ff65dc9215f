package routes

import (
	"time"

	"folio/folio/config"
	"folio/folio/controllers"
	"folio/folio/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Controllers struct {
	Health  *controllers.HealthController
	Chat    *controllers.ChatController
	Summary *controllers.SummaryController
}

// summaryTimeoutMargin keeps the route deadline behind the upstream client's,
// so the handler writes the gateway failure before chi gives up with a 504.
const summaryTimeoutMargin = 5 * time.Second

func summaryRouteTimeout(cfg config.Config) time.Duration {
	t := cfg.SummaryTimeout
	if t <= 0 {
		t = 60 * time.Second
	}
	return t + summaryTimeoutMargin
}

// NewRouter mounts every endpoint. There is no global timeout: the chat
// stream stays open as long as the upstream keeps sending.
func NewRouter(cfg config.Config, ctrls Controllers) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CORS())

	r.Mount("/health", HealthRoutes(ctrls.Health))
	r.Mount("/chat", ChatRoutes(ctrls.Chat, cfg))
	r.Mount("/summarize", SummaryRoutes(ctrls.Summary, summaryRouteTimeout(cfg)))
	return r
}
