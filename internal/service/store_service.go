package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"supportchat/internal/blob"
	"supportchat/internal/domain"
	"supportchat/internal/security"
)

// StoreService is the conversation store: a durable, append-only message
// log per participant plus read-state mutation. All mutations and reads
// for one conversation run under that conversation's lock.
type StoreService struct {
	repo      domain.MessageRepository
	blobs     *blob.Store
	encryptor *security.Encryptor // nil disables at-rest encryption
	locks     *Locks

	maxAttachmentBytes int64
	writeTimeout       time.Duration
	now                func() time.Time
}

func NewStoreService(
	repo domain.MessageRepository,
	blobs *blob.Store,
	encryptor *security.Encryptor,
	locks *Locks,
	maxAttachmentBytes int64,
	writeTimeout time.Duration,
) *StoreService {
	return &StoreService{
		repo:               repo,
		blobs:              blobs,
		encryptor:          encryptor,
		locks:              locks,
		maxAttachmentBytes: maxAttachmentBytes,
		writeTimeout:       writeTimeout,
		now:                time.Now,
	}
}

type AppendInput struct {
	ParticipantID string
	Author        domain.Author
	Body          string
	Attachment    *domain.Attachment
}

func (s *StoreService) AppendMessage(ctx context.Context, in AppendInput) (*domain.Message, error) {
	if err := validateAppend(in); err != nil {
		return nil, err
	}
	if in.Attachment != nil && in.Attachment.Size > s.maxAttachmentBytes {
		return nil, fmt.Errorf("%w: attachment exceeds %d bytes", domain.ErrInvalidInput, s.maxAttachmentBytes)
	}

	unlock := s.locks.Acquire(in.ParticipantID)
	defer unlock()
	return s.append(ctx, in)
}

// append persists a validated message. The caller must hold the
// conversation lock.
func (s *StoreService) append(ctx context.Context, in AppendInput) (*domain.Message, error) {
	body := in.Body
	stored := body
	if s.encryptor != nil && body != "" {
		enc, err := s.encryptor.Encrypt(body)
		if err != nil {
			return nil, fmt.Errorf("encrypt body: %w", err)
		}
		stored = enc
	}

	m := &domain.Message{
		ParticipantID: in.ParticipantID,
		Author:        in.Author,
		Body:          stored,
		Attachment:    in.Attachment,
		CreatedAt:     s.now().UTC(),
		// A message is read by its own author and unread by the
		// counterpart; bot replies count as the admin side.
		ReadByAdmin:       in.Author != domain.AuthorParticipant,
		ReadByParticipant: in.Author == domain.AuthorParticipant,
	}

	wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	if err := s.repo.Append(wctx, m); err != nil {
		return nil, storageErr("append message", err)
	}

	m.Body = body
	return m, nil
}

func (s *StoreService) ListMessages(ctx context.Context, participantID string, afterSequence int64) ([]*domain.Message, error) {
	if strings.TrimSpace(participantID) == "" {
		return nil, fmt.Errorf("%w: participant id is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.Acquire(participantID)
	defer unlock()

	msgs, err := s.repo.ListAfter(ctx, participantID, afterSequence)
	if err != nil {
		return nil, storageErr("list messages", err)
	}
	s.decrypt(msgs)
	return msgs, nil
}

func (s *StoreService) MarkRead(ctx context.Context, participantID string, reader domain.Reader) error {
	if strings.TrimSpace(participantID) == "" {
		return fmt.Errorf("%w: participant id is required", domain.ErrInvalidInput)
	}
	if !reader.Valid() {
		return fmt.Errorf("%w: unknown reader %q", domain.ErrInvalidInput, reader)
	}

	unlock := s.locks.Acquire(participantID)
	defer unlock()

	if err := s.repo.MarkRead(ctx, participantID, reader); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return err
		}
		return storageErr("mark read", err)
	}
	return nil
}

func (s *StoreService) DeleteConversation(ctx context.Context, participantID string) error {
	if strings.TrimSpace(participantID) == "" {
		return fmt.Errorf("%w: participant id is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.Acquire(participantID)
	defer unlock()

	refs, err := s.repo.DeleteConversation(ctx, participantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return storageErr("delete conversation", err)
	}
	if s.blobs != nil && len(refs) > 0 {
		// The log is already gone; orphaned blobs are logged, not fatal.
		if err := s.blobs.Remove(refs...); err != nil {
			log.Printf("removing attachment blobs for %s: %v", participantID, err)
		}
	}
	return nil
}

func (s *StoreService) ListParticipants(ctx context.Context) ([]string, error) {
	ids, err := s.repo.ListParticipants(ctx)
	if err != nil {
		return nil, storageErr("list participants", err)
	}
	return ids, nil
}

func validateAppend(in AppendInput) error {
	if strings.TrimSpace(in.ParticipantID) == "" {
		return fmt.Errorf("%w: participant id is required", domain.ErrInvalidInput)
	}
	if !in.Author.Valid() {
		return fmt.Errorf("%w: unknown author %q", domain.ErrInvalidInput, in.Author)
	}
	if strings.TrimSpace(in.Body) == "" && in.Attachment == nil {
		return fmt.Errorf("%w: message needs a body or an attachment", domain.ErrInvalidInput)
	}
	if in.Attachment != nil && in.Attachment.Ref == "" {
		return fmt.Errorf("%w: attachment ref is required", domain.ErrInvalidInput)
	}
	return nil
}

func (s *StoreService) decrypt(msgs []*domain.Message) {
	if s.encryptor == nil {
		return
	}
	for _, m := range msgs {
		if m.Body == "" {
			continue
		}
		if plain, err := s.encryptor.Decrypt(m.Body); err == nil {
			m.Body = plain
		}
		// On decrypt failure the raw body passes through, matching the
		// store's behavior for logs written before encryption was enabled.
	}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStorage, err)
}
