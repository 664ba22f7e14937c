package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"supportchat/internal/domain"
	"supportchat/internal/service"
)

func handleListConversations(storeSvc *service.StoreService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := storeSvc.ListParticipants(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, map[string][]string{"participants": ids})
	}
}

type markReadRequest struct {
	Reader string `json:"reader"`
}

func handleMarkRead(storeSvc *service.StoreService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participantID := chi.URLParam(r, "participantID")

		var req markReadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := storeSvc.MarkRead(r.Context(), participantID, domain.Reader(req.Reader)); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDeleteConversation(storeSvc *service.StoreService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participantID := chi.URLParam(r, "participantID")

		if err := storeSvc.DeleteConversation(r.Context(), participantID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
