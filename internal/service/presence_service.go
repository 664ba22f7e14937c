package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"supportchat/internal/domain"
)

// PresenceService derives unread counts and recency from the message log.
// Snapshots are computed on demand and never persisted.
type PresenceService struct {
	repo domain.MessageRepository
}

func NewPresenceService(repo domain.MessageRepository) *PresenceService {
	return &PresenceService{repo: repo}
}

func (s *PresenceService) GetPresence(ctx context.Context, participantID string) (*domain.PresenceSnapshot, error) {
	if strings.TrimSpace(participantID) == "" {
		return nil, fmt.Errorf("%w: participant id is required", domain.ErrInvalidInput)
	}
	snap, err := s.repo.StatsFor(ctx, participantID)
	if err != nil {
		return nil, storageErr("get presence", err)
	}
	return snap, nil
}

// ListPresence returns one snapshot per known participant, most recently
// active first. This is the ordering the admin's conversation list shows.
func (s *PresenceService) ListPresence(ctx context.Context) ([]*domain.PresenceSnapshot, error) {
	snaps, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, storageErr("list presence", err)
	}
	sort.Slice(snaps, func(i, j int) bool {
		a, b := snaps[i].LastActivityAt, snaps[j].LastActivityAt
		switch {
		case a == nil && b == nil:
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		}
		return snaps[i].ParticipantID < snaps[j].ParticipantID
	})
	return snaps, nil
}
