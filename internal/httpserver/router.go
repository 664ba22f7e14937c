package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"supportchat/internal/blob"
	"supportchat/internal/bot"
	"supportchat/internal/config"
	"supportchat/internal/domain"
	"supportchat/internal/security"
	"supportchat/internal/service"
)

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
func NewRouter(
	cfg *config.Config,
	repo domain.MessageRepository,
	blobs *blob.Store,
	encryptor *security.Encryptor,
	provider bot.ReplyProvider,
) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Services
	locks := service.NewLocks()
	storeSvc := service.NewStoreService(
		repo, blobs, encryptor, locks,
		cfg.MaxAttachmentBytes,
		time.Duration(cfg.AppendTimeoutSeconds)*time.Second,
	)
	presenceSvc := service.NewPresenceService(repo)
	responderSvc := service.NewResponderService(
		storeSvc, repo, provider, locks,
		time.Duration(cfg.IdleWindowSeconds)*time.Second,
		cfg.BotFallbackText,
	)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": cfg.AppName,
			"version": "1.0.0",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/messages", handleAppendMessage(storeSvc))

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", handleListConversations(storeSvc))
			r.Route("/{participantID}", func(r chi.Router) {
				r.Get("/messages", handleListMessages(storeSvc, responderSvc))
				r.Post("/read", handleMarkRead(storeSvc))
				r.Get("/presence", handleGetPresence(presenceSvc))
				r.Delete("/", handleDeleteConversation(storeSvc))
			})
		})

		r.Get("/presence", handleListPresence(presenceSvc, responderSvc))

		r.Mount("/uploads", UploadRoutes(blobs, cfg.MaxAttachmentBytes))
	})

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrStorage):
		// Appends never partially advance the sequence, so the caller can
		// retry the same request.
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
