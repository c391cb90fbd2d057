package store

import (
	"context"
	"time"

	"eduauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FactorStore struct{ db *gorm.DB }

func (s *Store) Factors() *FactorStore { return &FactorStore{db: s.DB} }

// Upsert enrolls a factor kind for a user. Re-enrolling an existing kind is a
// no-op thanks to the (user_id, kind) unique index.
func (fs *FactorStore) Upsert(ctx context.Context, f *domain.AuthFactor) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	return fs.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}},
		DoNothing: true,
	}).Create(f).Error
}

func (fs *FactorStore) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.AuthFactor, error) {
	var factors []domain.AuthFactor
	err := fs.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&factors).Error
	return factors, err
}

func (fs *FactorStore) DeleteByUserAndKind(ctx context.Context, userID domain.UserID, kind domain.FactorKind) error {
	return fs.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, kind).
		Delete(&domain.AuthFactor{}).Error
}

// RequireForSession creates one pending row per enrolled factor. Called in
// the same transaction as primary-credential success so the pending set is
// visible before any second-factor submission is evaluated.
func (fs *FactorStore) RequireForSession(ctx context.Context, sessionID domain.SessionID, factors []domain.AuthFactor) error {
	if len(factors) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]domain.SessionAuthFactor, 0, len(factors))
	for _, f := range factors {
		rows = append(rows, domain.SessionAuthFactor{
			SessionID: sessionID,
			FactorID:  f.ID,
			Kind:      f.Kind,
			CreatedAt: now,
		})
	}
	return fs.db.WithContext(ctx).Create(&rows).Error
}

func (fs *FactorStore) PendingBySession(ctx context.Context, sessionID domain.SessionID) ([]domain.SessionAuthFactor, error) {
	var rows []domain.SessionAuthFactor
	err := fs.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Find(&rows).Error
	return rows, err
}

// Satisfy removes the pending row for a kind. Idempotent: a kind that is not
// pending deletes zero rows and that is not an error.
func (fs *FactorStore) Satisfy(ctx context.Context, sessionID domain.SessionID, kind domain.FactorKind) error {
	return fs.db.WithContext(ctx).
		Where("session_id = ? AND kind = ?", sessionID, kind).
		Delete(&domain.SessionAuthFactor{}).Error
}

// PurgeForSessions drops pending rows owned by dead sessions.
func (fs *FactorStore) PurgeForSessions(ctx context.Context, sessionIDs []domain.SessionID) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	tx := fs.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Delete(&domain.SessionAuthFactor{})
	return tx.RowsAffected, tx.Error
}
