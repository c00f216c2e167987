package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/seunghwan-dev/chingu/backend/internal/handler/chat"
	"github.com/seunghwan-dev/chingu/backend/internal/handler/pages"
	wsHandler "github.com/seunghwan-dev/chingu/backend/internal/handler/ws"
	middlewarePkg "github.com/seunghwan-dev/chingu/backend/internal/middleware"
	"github.com/seunghwan-dev/chingu/backend/internal/observability"
	chatService "github.com/seunghwan-dev/chingu/backend/internal/service/chat"
	"github.com/seunghwan-dev/chingu/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. pagesHandler may be nil
// when the web shell directory is absent (API-only deployments).
func NewRouter(chatSvc *chatService.Service, metrics *observability.Metrics, pagesHandler *pages.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatH := chatHandler.New(chatSvc, metrics)
	wsH := wsHandler.New(chatSvc, metrics)

	r.Route("/api", func(api chi.Router) {
		chatH.RegisterRoutes(api)
		wsH.RegisterRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	r.Handle("/metrics", observability.MetricsHandler())

	if pagesHandler != nil {
		pagesHandler.RegisterRoutes(r)
	}

	return r
}
