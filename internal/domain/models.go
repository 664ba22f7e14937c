package domain

import "time"

// Author identifies which party wrote a message.
type Author string

const (
	AuthorParticipant Author = "participant"
	AuthorAdmin       Author = "admin"
	AuthorBot         Author = "bot"
)

// Valid reports whether a is one of the three known authors.
func (a Author) Valid() bool {
	switch a {
	case AuthorParticipant, AuthorAdmin, AuthorBot:
		return true
	}
	return false
}

// Reader identifies which side of a conversation is viewing it.
// The bot never reads; it only writes on the admin's behalf.
type Reader string

const (
	ReaderAdmin       Reader = "admin"
	ReaderParticipant Reader = "participant"
)

func (r Reader) Valid() bool {
	return r == ReaderAdmin || r == ReaderParticipant
}

// Attachment references a stored blob attached to a message.
type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Ref  string `json:"ref"`
}

// Message is a single entry in a conversation log. Messages are immutable
// after append except for the two read flags, which the store flips when
// the counterpart views the conversation.
type Message struct {
	ParticipantID     string      `json:"participant_id"`
	Sequence          int64       `json:"sequence"`
	Author            Author      `json:"author"`
	Body              string      `json:"body"`
	Attachment        *Attachment `json:"attachment,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	ReadByAdmin       bool        `json:"read_by_admin"`
	ReadByParticipant bool        `json:"read_by_participant"`
}

// PresenceSnapshot is the derived per-conversation summary shown on the
// admin dashboard. It is recomputed from the log on demand, never stored.
type PresenceSnapshot struct {
	ParticipantID        string     `json:"participant_id"`
	UnreadForAdmin       int        `json:"unread_for_admin"`
	UnreadForParticipant int        `json:"unread_for_participant"`
	LastActivityAt       *time.Time `json:"last_activity_at,omitempty"`
}
