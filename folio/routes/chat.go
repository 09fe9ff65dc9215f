package routes

import (
	"folio/folio/config"
	"folio/folio/controllers"
	"folio/folio/middlewares"

	"github.com/go-chi/chi/v5"
)

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Options("/", middlewares.Preflight)
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))
		// POST /chat : relay the upstream SSE stream
		gr.Post("/", ctrl.Relay)
	})
	// websocket authenticates with the token in its first frame
	r.Get("/ws", ctrl.ChatSocket(cfg))
	return r
}
