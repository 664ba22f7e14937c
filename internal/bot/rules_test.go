package bot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportchat/internal/bot"
	"supportchat/internal/domain"
)

func tail(bodies ...string) []*domain.Message {
	msgs := make([]*domain.Message, len(bodies))
	for i, b := range bodies {
		msgs[i] = &domain.Message{Author: domain.AuthorParticipant, Body: b}
	}
	return msgs
}

func TestRules(t *testing.T) {
	r, err := bot.NewRules([]bot.Rule{
		{Keyword: "refund", Reply: "Refunds take 3-5 business days."},
		{Keyword: "price", Reply: "See our pricing page."},
	}, "We will get back to you shortly.")
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("MatchesKeyword", func(t *testing.T) {
		reply, err := r.Reply(ctx, tail("how do I get a REFUND?"))
		require.NoError(t, err)
		assert.Equal(t, "Refunds take 3-5 business days.", reply)
	})

	t.Run("TableOrderWins", func(t *testing.T) {
		// Both keywords occur; the earlier rule in table order is chosen.
		reply, err := r.Reply(ctx, tail("what's the price of a refund?"))
		require.NoError(t, err)
		assert.Equal(t, "Refunds take 3-5 business days.", reply)
	})

	t.Run("ScansWholeTail", func(t *testing.T) {
		reply, err := r.Reply(ctx, tail("hello", "anyone?", "I need the price list"))
		require.NoError(t, err)
		assert.Equal(t, "See our pricing page.", reply)
	})

	t.Run("DefaultWhenNoMatch", func(t *testing.T) {
		reply, err := r.Reply(ctx, tail("just saying hi"))
		require.NoError(t, err)
		assert.Equal(t, "We will get back to you shortly.", reply)
	})
}

func TestNewRulesRejectsEmpty(t *testing.T) {
	_, err := bot.NewRules(nil, "fallback")
	assert.Error(t, err)

	_, err = bot.NewRules([]bot.Rule{{Keyword: "  ", Reply: "x"}}, "fallback")
	assert.Error(t, err)
}

func TestParseRules(t *testing.T) {
	rules, err := bot.ParseRules("refund=Refunds take 3-5 days; price = See pricing ;")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, bot.Rule{Keyword: "refund", Reply: "Refunds take 3-5 days"}, rules[0])
	assert.Equal(t, bot.Rule{Keyword: "price", Reply: "See pricing"}, rules[1])

	_, err = bot.ParseRules("no separator here")
	assert.Error(t, err)

	_, err = bot.ParseRules(" ; ; ")
	assert.Error(t, err)
}
