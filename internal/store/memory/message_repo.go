// Package memory provides an in-memory MessageRepository, used by tests
// and for ephemeral deployments where durability is not required.
package memory

import (
	"context"
	"sort"
	"sync"

	"supportchat/internal/domain"
)

type MessageRepo struct {
	mu    sync.RWMutex
	convs map[string][]*domain.Message
}

func NewMessageRepo() *MessageRepo {
	return &MessageRepo{convs: map[string][]*domain.Message{}}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Append(ctx context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.convs[m.ParticipantID]
	m.Sequence = int64(len(log)) + 1
	if n := len(log); n > 0 && m.CreatedAt.Before(log[n-1].CreatedAt) {
		m.CreatedAt = log[n-1].CreatedAt
	}

	stored := *m
	if m.Attachment != nil {
		att := *m.Attachment
		stored.Attachment = &att
	}
	r.convs[m.ParticipantID] = append(log, &stored)
	return nil
}

func (r *MessageRepo) ListAfter(ctx context.Context, participantID string, afterSequence int64) ([]*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var res []*domain.Message
	for _, m := range r.convs[participantID] {
		if m.Sequence > afterSequence {
			res = append(res, copyMessage(m))
		}
	}
	return res, nil
}

func (r *MessageRepo) MarkRead(ctx context.Context, participantID string, reader domain.Reader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.convs[participantID] {
		switch reader {
		case domain.ReaderAdmin:
			if m.Author == domain.AuthorParticipant {
				m.ReadByAdmin = true
			}
		case domain.ReaderParticipant:
			if m.Author == domain.AuthorAdmin || m.Author == domain.AuthorBot {
				m.ReadByParticipant = true
			}
		}
	}
	return nil
}

func (r *MessageRepo) UnansweredTail(ctx context.Context, participantID string) ([]*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log := r.convs[participantID]
	start := 0
	for i, m := range log {
		if m.Author != domain.AuthorParticipant {
			start = i + 1
		}
	}
	var res []*domain.Message
	for _, m := range log[start:] {
		res = append(res, copyMessage(m))
	}
	return res, nil
}

func (r *MessageRepo) DeleteConversation(ctx context.Context, participantID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log, ok := r.convs[participantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var refs []string
	for _, m := range log {
		if m.Attachment != nil {
			refs = append(refs, m.Attachment.Ref)
		}
	}
	delete(r.convs, participantID)
	return refs, nil
}

func (r *MessageRepo) ListParticipants(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.convs))
	for id := range r.convs {
		ids = append(ids, id)
	}
	// Ascending, matching the durable backend.
	sort.Strings(ids)
	return ids, nil
}

func (r *MessageRepo) Stats(ctx context.Context) ([]*domain.PresenceSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*domain.PresenceSnapshot, 0, len(r.convs))
	for id := range r.convs {
		res = append(res, r.statsLocked(id))
	}
	return res, nil
}

func (r *MessageRepo) StatsFor(ctx context.Context, participantID string) (*domain.PresenceSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statsLocked(participantID), nil
}

func (r *MessageRepo) statsLocked(participantID string) *domain.PresenceSnapshot {
	s := &domain.PresenceSnapshot{ParticipantID: participantID}
	for _, m := range r.convs[participantID] {
		switch {
		case m.Author == domain.AuthorParticipant && !m.ReadByAdmin:
			s.UnreadForAdmin++
		case m.Author != domain.AuthorParticipant && !m.ReadByParticipant:
			s.UnreadForParticipant++
		}
	}
	if log := r.convs[participantID]; len(log) > 0 {
		t := log[len(log)-1].CreatedAt
		s.LastActivityAt = &t
	}
	return s
}

func copyMessage(m *domain.Message) *domain.Message {
	c := *m
	if m.Attachment != nil {
		att := *m.Attachment
		c.Attachment = &att
	}
	return &c
}
