package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"supportchat/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Append(ctx context.Context, m *domain.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var lastSeq int64
	var lastCreated sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT seq, created_at FROM messages
		WHERE participant_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, m.ParticipantID).Scan(&lastSeq, &lastCreated)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("last message: %w", err)
	}

	m.Sequence = lastSeq + 1
	// created_at never decreases within a conversation, even if the wall
	// clock steps backwards between appends.
	if lastCreated.Valid && m.CreatedAt.Before(lastCreated.Time) {
		m.CreatedAt = lastCreated.Time
	}

	var name, ref *string
	var size *int64
	if m.Attachment != nil {
		name, size, ref = &m.Attachment.Name, &m.Attachment.Size, &m.Attachment.Ref
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (participant_id, seq, author, body, attachment_name, attachment_size, attachment_ref, created_at, read_by_admin, read_by_participant)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ParticipantID,
		m.Sequence,
		string(m.Author),
		m.Body,
		name,
		size,
		ref,
		m.CreatedAt,
		m.ReadByAdmin,
		m.ReadByParticipant,
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *MessageRepo) ListAfter(ctx context.Context, participantID string, afterSequence int64) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT participant_id, seq, author, body, attachment_name, attachment_size, attachment_ref, created_at, read_by_admin, read_by_participant
		FROM messages
		WHERE participant_id = ? AND seq > ?
		ORDER BY seq ASC
	`, participantID, afterSequence)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *MessageRepo) MarkRead(ctx context.Context, participantID string, reader domain.Reader) error {
	var query string
	switch reader {
	case domain.ReaderAdmin:
		query = `UPDATE messages SET read_by_admin = 1 WHERE participant_id = ? AND author = 'participant' AND read_by_admin = 0`
	case domain.ReaderParticipant:
		query = `UPDATE messages SET read_by_participant = 1 WHERE participant_id = ? AND author IN ('admin', 'bot') AND read_by_participant = 0`
	default:
		return fmt.Errorf("%w: unknown reader %q", domain.ErrInvalidInput, reader)
	}
	if _, err := r.db.ExecContext(ctx, query, participantID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (r *MessageRepo) UnansweredTail(ctx context.Context, participantID string) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT participant_id, seq, author, body, attachment_name, attachment_size, attachment_ref, created_at, read_by_admin, read_by_participant
		FROM messages
		WHERE participant_id = ?
		  AND seq > COALESCE((
			SELECT MAX(seq) FROM messages
			WHERE participant_id = ? AND author != 'participant'
		  ), 0)
		ORDER BY seq ASC
	`, participantID, participantID)
	if err != nil {
		return nil, fmt.Errorf("unanswered tail: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *MessageRepo) DeleteConversation(ctx context.Context, participantID string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT attachment_ref FROM messages
		WHERE participant_id = ? AND attachment_ref IS NOT NULL
	`, participantID)
	if err != nil {
		return nil, fmt.Errorf("select attachment refs: %w", err)
	}
	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan ref: %w", err)
		}
		refs = append(refs, ref)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refs: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE participant_id = ?`, participantID)
	if err != nil {
		return nil, fmt.Errorf("delete messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return refs, nil
}

func (r *MessageRepo) ListParticipants(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT participant_id FROM messages ORDER BY participant_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *MessageRepo) Stats(ctx context.Context) ([]*domain.PresenceSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, statsQuery+` GROUP BY participant_id`)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()

	var res []*domain.PresenceSnapshot
	for rows.Next() {
		s, err := scanStat(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r *MessageRepo) StatsFor(ctx context.Context, participantID string) (*domain.PresenceSnapshot, error) {
	row := r.db.QueryRowContext(ctx, statsQuery+` WHERE participant_id = ? GROUP BY participant_id`, participantID)
	s, err := scanStat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.PresenceSnapshot{ParticipantID: participantID}, nil
	}
	return s, err
}

// created_at is non-decreasing with seq, so the bare created_at column in
// a MAX(seq) aggregate is the latest activity. Selecting the bare column
// (rather than MAX(created_at)) keeps its DATETIME decltype so the driver
// scans it as time.Time.
const statsQuery = `
	SELECT participant_id,
		SUM(CASE WHEN author = 'participant' AND read_by_admin = 0 THEN 1 ELSE 0 END),
		SUM(CASE WHEN author IN ('admin', 'bot') AND read_by_participant = 0 THEN 1 ELSE 0 END),
		MAX(seq),
		created_at
	FROM messages`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStat(row rowScanner) (*domain.PresenceSnapshot, error) {
	s := &domain.PresenceSnapshot{}
	var maxSeq int64
	var last sql.NullTime
	if err := row.Scan(&s.ParticipantID, &s.UnreadForAdmin, &s.UnreadForParticipant, &maxSeq, &last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan stat: %w", err)
	}
	if last.Valid {
		t := last.Time
		s.LastActivityAt = &t
	}
	return s, nil
}

func scanMessages(rows *sql.Rows) ([]*domain.Message, error) {
	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		var author string
		var name, ref sql.NullString
		var size sql.NullInt64
		if err := rows.Scan(
			&m.ParticipantID,
			&m.Sequence,
			&author,
			&m.Body,
			&name,
			&size,
			&ref,
			&m.CreatedAt,
			&m.ReadByAdmin,
			&m.ReadByParticipant,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Author = domain.Author(author)
		if ref.Valid {
			m.Attachment = &domain.Attachment{Name: name.String, Size: size.Int64, Ref: ref.String}
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
