package routes

import (
	"time"

	"folio/folio/controllers"
	"folio/folio/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SummaryRoutes is public: articles are summarized for anonymous readers.
func SummaryRoutes(ctrl *controllers.SummaryController, timeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Options("/", middlewares.Preflight)
	r.With(middleware.Timeout(timeout)).Post("/", ctrl.HandleSummarize)
	return r
}
