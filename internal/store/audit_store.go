package store

import (
	"context"
	"time"

	"eduauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditStore struct{ db *gorm.DB }

func (s *Store) Audits() *AuditStore { return &AuditStore{db: s.DB} }

func (as *AuditStore) Record(ctx context.Context, log *domain.AuditLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	return as.db.WithContext(ctx).Create(log).Error
}

func (as *AuditStore) ListByUser(ctx context.Context, userID domain.UserID, limit int) ([]domain.AuditLog, error) {
	var logs []domain.AuditLog
	err := as.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
