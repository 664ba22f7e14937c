package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"supportchat/internal/domain"
	"supportchat/internal/service"
)

// handleListPresence serves the admin dashboard. Listing presence is an
// admin-facing read, so the idle sweep runs first and any overdue bot
// replies show up in the unread counts it returns.
func handleListPresence(presenceSvc *service.PresenceService, responderSvc *service.ResponderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responderSvc.CheckAll(r.Context())

		snaps, err := presenceSvc.ListPresence(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if snaps == nil {
			snaps = []*domain.PresenceSnapshot{}
		}
		writeJSON(w, http.StatusOK, snaps)
	}
}

func handleGetPresence(presenceSvc *service.PresenceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participantID := chi.URLParam(r, "participantID")

		snap, err := presenceSvc.GetPresence(r.Context(), participantID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
