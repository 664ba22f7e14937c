package domain

import (
	"context"
)

// MessageRepository defines persistence operations for conversation logs.
//
// Append assigns Sequence (strictly increasing per conversation) and may
// push CreatedAt forward so it never decreases within a conversation.
// Callers are expected to serialize operations on the same participantID;
// the repository does not lock.
type MessageRepository interface {
	Append(ctx context.Context, m *Message) error
	ListAfter(ctx context.Context, participantID string, afterSequence int64) ([]*Message, error)
	MarkRead(ctx context.Context, participantID string, reader Reader) error
	// UnansweredTail returns, in sequence order, the participant messages
	// that follow the last admin- or bot-authored message. Empty when the
	// admin has the last word or no conversation exists.
	UnansweredTail(ctx context.Context, participantID string) ([]*Message, error)
	// DeleteConversation removes the log and returns the attachment refs
	// of the removed messages so the caller can delete the blobs.
	DeleteConversation(ctx context.Context, participantID string) ([]string, error)
	ListParticipants(ctx context.Context) ([]string, error)
	// Stats computes one unordered presence snapshot per known participant.
	Stats(ctx context.Context) ([]*PresenceSnapshot, error)
	StatsFor(ctx context.Context, participantID string) (*PresenceSnapshot, error)
}
