package httpserver

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"supportchat/internal/domain"
	"supportchat/internal/service"
)

type appendMessageRequest struct {
	ParticipantID string             `json:"participant_id"`
	Author        string             `json:"author"`
	Body          string             `json:"body"`
	Attachment    *domain.Attachment `json:"attachment"`
}

func handleAppendMessage(storeSvc *service.StoreService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		msg, err := storeSvc.AppendMessage(r.Context(), service.AppendInput{
			ParticipantID: req.ParticipantID,
			Author:        domain.Author(req.Author),
			Body:          req.Body,
			Attachment:    req.Attachment,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

func handleListMessages(storeSvc *service.StoreService, responderSvc *service.ResponderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participantID := chi.URLParam(r, "participantID")

		after := int64(0)
		if v := r.URL.Query().Get("after"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid after parameter"})
				return
			}
			after = n
		}

		// An admin viewing the conversation is the poll that drives the
		// idle check; run it first so an overdue bot reply is already in
		// the list the admin receives. Its failure never fails the read.
		if domain.Reader(r.URL.Query().Get("reader")) == domain.ReaderAdmin {
			if _, err := responderSvc.MaybeRespond(r.Context(), participantID); err != nil {
				log.Printf("idle check for %s: %v", participantID, err)
			}
		}

		msgs, err := storeSvc.ListMessages(r.Context(), participantID, after)
		if err != nil {
			writeError(w, err)
			return
		}
		if msgs == nil {
			msgs = []*domain.Message{}
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}
