// Package bot produces the text of automated replies. Providers are
// pluggable: a fixed string, a keyword rule table, or an external
// text-generation service. The idle responder treats them uniformly and
// falls back to a fixed string when a provider fails.
package bot

import (
	"context"

	"supportchat/internal/domain"
)

// ReplyProvider produces the reply text for an unanswered participant
// tail. tail is the pending streak of participant messages, oldest first,
// and is never empty.
type ReplyProvider interface {
	Reply(ctx context.Context, tail []*domain.Message) (string, error)
}

// Static always replies with the same text.
type Static struct {
	Text string
}

func NewStatic(text string) *Static {
	return &Static{Text: text}
}

func (s *Static) Reply(ctx context.Context, tail []*domain.Message) (string, error) {
	return s.Text, nil
}
