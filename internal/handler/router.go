package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/mindcheck/backend/internal/handler/conversation"
	"github.com/zhouzirui/mindcheck/backend/internal/handler/questionnaire"
	"github.com/zhouzirui/mindcheck/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/mindcheck/backend/internal/middleware"
	questionnaireService "github.com/zhouzirui/mindcheck/backend/internal/service/questionnaire"
	"github.com/zhouzirui/mindcheck/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(svc *questionnaireService.Service, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	r.Get("/healthz", handleHealth)

	questionnaireHandler := questionnaire.New(svc)
	streamHandler := stream.New(svc)
	conversationHandler := conversation.New(svc)

	r.Route("/api", func(api chi.Router) {
		questionnaireHandler.RegisterRoutes(api)

		// Transcript stream for browser clients
		streamHandler.RegisterRoutes(api)

		// Start and answer over a single socket
		conversationHandler.RegisterRoutes(api)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
