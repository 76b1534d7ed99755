package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appoutbox "condobook/internal/app/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// OutboxStore keeps outbox records in the app_outbox table. Add writes
// through the transaction of the calling unit.
type OutboxStore struct {
	db *gorm.DB
}

func NewOutboxStore(db *gorm.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	now := time.Now().UTC()
	m := outboxModel{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt.UTC(),
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       stateNew,
		NextAttempt: now,
		CreatedAt:   now,
	}
	return conn(ctx, s.db).Create(&m).Error
}

func (s *OutboxStore) Flush(context.Context) error {
	return nil
}

// Claim picks the oldest due record. SKIP LOCKED lets several workers claim
// in parallel without handing out the same record twice.
func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*appoutbox.Delivery, error) {
	var claimed *appoutbox.Delivery
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m outboxModel
		now := time.Now().UTC()
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("state IN ? AND next_attempt <= ?", []string{stateNew, stateFailed}, now).
			Order("next_attempt ASC").
			First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Model(&outboxModel{}).Where("id = ?", m.ID).Updates(map[string]any{
			"state":      stateClaimed,
			"claimed_by": workerID,
			"claimed_at": now,
		}).Error; err != nil {
			return err
		}
		claimed = &appoutbox.Delivery{
			EventRecord: appoutbox.EventRecord{
				ID:         m.ID,
				Name:       m.Name,
				Payload:    m.Payload,
				OccurredAt: m.OccurredAt.UTC(),
				Aggregate:  m.Aggregate,
				Headers:    m.Headers,
			},
			Attempts: m.Attempts,
		}
		return nil
	})
	return claimed, err
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).Updates(map[string]any{
		"state":   stateSent,
		"sent_at": time.Now().UTC(),
	}).Error
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return s.db.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).Updates(map[string]any{
		"state":        stateFailed,
		"next_attempt": next.UTC(),
		"last_error":   errMsg,
		"attempts":     gorm.Expr("attempts + 1"),
	}).Error
}

var (
	_ appoutbox.Outbox = (*OutboxStore)(nil)
	_ appoutbox.Relay  = (*OutboxStore)(nil)
)
