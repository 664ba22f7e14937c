package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportchat/internal/domain"
	"supportchat/internal/store/sqlite"
)

func newRepo(t *testing.T) *sqlite.MessageRepo {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(db))
	return sqlite.NewMessageRepo(db)
}

func appendMsg(t *testing.T, repo *sqlite.MessageRepo, participantID string, author domain.Author, body string, at time.Time) *domain.Message {
	t.Helper()
	m := &domain.Message{
		ParticipantID:     participantID,
		Author:            author,
		Body:              body,
		CreatedAt:         at,
		ReadByAdmin:       author != domain.AuthorParticipant,
		ReadByParticipant: author == domain.AuthorParticipant,
	}
	require.NoError(t, repo.Append(context.Background(), m))
	return m
}

func TestAppendAssignsSequence(t *testing.T) {
	repo := newRepo(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	m1 := appendMsg(t, repo, "alice", domain.AuthorParticipant, "one", now)
	m2 := appendMsg(t, repo, "alice", domain.AuthorParticipant, "two", now.Add(time.Second))
	other := appendMsg(t, repo, "bob", domain.AuthorParticipant, "hi", now)

	assert.Equal(t, int64(1), m1.Sequence)
	assert.Equal(t, int64(2), m2.Sequence)
	assert.Equal(t, int64(1), other.Sequence)
}

func TestAppendClampsCreatedAt(t *testing.T) {
	repo := newRepo(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	appendMsg(t, repo, "alice", domain.AuthorParticipant, "one", now)
	m2 := appendMsg(t, repo, "alice", domain.AuthorParticipant, "two", now.Add(-time.Minute))

	assert.False(t, m2.CreatedAt.Before(now))
}

func TestListAfter(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, body := range []string{"one", "two", "three"} {
		appendMsg(t, repo, "alice", domain.AuthorParticipant, body, now.Add(time.Duration(i)*time.Second))
	}

	msgs, err := repo.ListAfter(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Body)
	assert.Equal(t, domain.AuthorParticipant, msgs[0].Author)

	msgs, err = repo.ListAfter(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "three", msgs[0].Body)

	msgs, err = repo.ListAfter(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestAttachmentRoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	m := &domain.Message{
		ParticipantID: "alice",
		Author:        domain.AuthorParticipant,
		Attachment:    &domain.Attachment{Name: "doc.pdf", Size: 2048, Ref: "blob-1.pdf"},
		CreatedAt:     now,
	}
	require.NoError(t, repo.Append(ctx, m))

	msgs, err := repo.ListAfter(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].Attachment)
	assert.Equal(t, "doc.pdf", msgs[0].Attachment.Name)
	assert.Equal(t, int64(2048), msgs[0].Attachment.Size)
	assert.Equal(t, "blob-1.pdf", msgs[0].Attachment.Ref)
}

func TestMarkReadFlipsCounterpartFlags(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	appendMsg(t, repo, "alice", domain.AuthorParticipant, "hi", now)
	appendMsg(t, repo, "alice", domain.AuthorAdmin, "hello", now.Add(time.Second))
	appendMsg(t, repo, "alice", domain.AuthorBot, "auto", now.Add(2*time.Second))

	require.NoError(t, repo.MarkRead(ctx, "alice", domain.ReaderAdmin))
	require.NoError(t, repo.MarkRead(ctx, "alice", domain.ReaderParticipant))

	msgs, err := repo.ListAfter(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for _, m := range msgs {
		assert.True(t, m.ReadByAdmin, "seq %d", m.Sequence)
		assert.True(t, m.ReadByParticipant, "seq %d", m.Sequence)
	}
}

func TestUnansweredTail(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	appendMsg(t, repo, "alice", domain.AuthorParticipant, "hello", now)
	appendMsg(t, repo, "alice", domain.AuthorAdmin, "hi", now.Add(time.Second))
	appendMsg(t, repo, "alice", domain.AuthorParticipant, "are you there?", now.Add(2*time.Second))
	appendMsg(t, repo, "alice", domain.AuthorParticipant, "hello??", now.Add(3*time.Second))

	tail, err := repo.UnansweredTail(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "are you there?", tail[0].Body)
	assert.Equal(t, "hello??", tail[1].Body)

	// A bot reply closes the streak.
	appendMsg(t, repo, "alice", domain.AuthorBot, "auto", now.Add(4*time.Second))
	tail, err = repo.UnansweredTail(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, tail)

	tail, err = repo.UnansweredTail(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, tail)
}

func TestDeleteConversation(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	appendMsg(t, repo, "alice", domain.AuthorParticipant, "hi", now)
	m := &domain.Message{
		ParticipantID: "alice",
		Author:        domain.AuthorParticipant,
		Attachment:    &domain.Attachment{Name: "doc.pdf", Size: 1, Ref: "blob-2.pdf"},
		CreatedAt:     now.Add(time.Second),
	}
	require.NoError(t, repo.Append(ctx, m))

	refs, err := repo.DeleteConversation(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"blob-2.pdf"}, refs)

	msgs, err := repo.ListAfter(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = repo.DeleteConversation(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStats(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	appendMsg(t, repo, "alice", domain.AuthorParticipant, "one", now)
	appendMsg(t, repo, "alice", domain.AuthorParticipant, "two", now.Add(time.Second))
	appendMsg(t, repo, "alice", domain.AuthorAdmin, "reply", now.Add(2*time.Second))
	appendMsg(t, repo, "bob", domain.AuthorParticipant, "hey", now.Add(3*time.Second))

	snaps, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	byID := map[string]*domain.PresenceSnapshot{}
	for _, s := range snaps {
		byID[s.ParticipantID] = s
	}

	require.Contains(t, byID, "alice")
	assert.Equal(t, 2, byID["alice"].UnreadForAdmin)
	assert.Equal(t, 1, byID["alice"].UnreadForParticipant)
	require.NotNil(t, byID["alice"].LastActivityAt)
	assert.True(t, byID["alice"].LastActivityAt.Equal(now.Add(2*time.Second)))

	single, err := repo.StatsFor(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, single.UnreadForAdmin)

	empty, err := repo.StatsFor(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.UnreadForAdmin)
	assert.Nil(t, empty.LastActivityAt)
}
