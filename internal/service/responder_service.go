package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"supportchat/internal/bot"
	"supportchat/internal/domain"
)

// ResponderService posts one bot reply when the admin has been silent for
// the idle window. It is invoked from admin-facing read paths; the
// read-decide-append sequence runs under the conversation lock, so
// concurrent pollers can never post twice for the same pending streak.
type ResponderService struct {
	store    *StoreService
	repo     domain.MessageRepository
	provider bot.ReplyProvider
	locks    *Locks

	idleWindow time.Duration
	fallback   string
	now        func() time.Time
}

func NewResponderService(
	store *StoreService,
	repo domain.MessageRepository,
	provider bot.ReplyProvider,
	locks *Locks,
	idleWindow time.Duration,
	fallback string,
) *ResponderService {
	return &ResponderService{
		store:      store,
		repo:       repo,
		provider:   provider,
		locks:      locks,
		idleWindow: idleWindow,
		fallback:   fallback,
		now:        time.Now,
	}
}

// MaybeRespond checks one conversation and appends at most one bot reply.
// It reports whether a reply was posted. Provider failures are absorbed
// into the fallback text; only storage failures are returned.
func (s *ResponderService) MaybeRespond(ctx context.Context, participantID string) (bool, error) {
	if strings.TrimSpace(participantID) == "" {
		return false, fmt.Errorf("%w: participant id is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.Acquire(participantID)
	defer unlock()

	tail, err := s.repo.UnansweredTail(ctx, participantID)
	if err != nil {
		return false, storageErr("load unanswered tail", err)
	}
	// Empty tail: no conversation, or an admin/bot message already has the
	// last word. Either way the participant is not waiting on us.
	if len(tail) == 0 {
		return false, nil
	}

	// A burst of participant messages is one pending turn; the clock
	// starts at the first unanswered message, not the latest.
	pendingSince := tail[0].CreatedAt
	if s.now().Sub(pendingSince) < s.idleWindow {
		return false, nil
	}

	s.store.decrypt(tail)
	text, err := s.provider.Reply(ctx, tail)
	if err != nil {
		log.Printf("reply provider for %s: %v: %v", participantID, domain.ErrProvider, err)
		text = s.fallback
	}
	if text == "" {
		text = s.fallback
	}

	if _, err := s.store.append(ctx, AppendInput{
		ParticipantID: participantID,
		Author:        domain.AuthorBot,
		Body:          text,
	}); err != nil {
		return false, err
	}
	return true, nil
}

// CheckAll runs the idle check for every known conversation. Individual
// failures are logged and do not stop the sweep; the poll that triggered
// it must never fail because of the bot.
func (s *ResponderService) CheckAll(ctx context.Context) {
	ids, err := s.repo.ListParticipants(ctx)
	if err != nil {
		log.Printf("idle sweep: list participants: %v", err)
		return
	}
	for _, id := range ids {
		if _, err := s.MaybeRespond(ctx, id); err != nil {
			log.Printf("idle sweep: %s: %v", id, err)
		}
	}
}
