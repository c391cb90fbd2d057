package store

import (
	"context"
	"time"

	"eduauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BackupTokenStore struct{ db *gorm.DB }

func (s *Store) BackupTokens() *BackupTokenStore { return &BackupTokenStore{db: s.DB} }

// Replace swaps the user's whole pool for a fresh one. The pool is bounded;
// callers never grow it incrementally.
func (bs *BackupTokenStore) Replace(ctx context.Context, userID domain.UserID, hashes [][]byte) error {
	if err := bs.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.BackupToken{}).Error; err != nil {
		return err
	}
	now := time.Now().UTC()
	rows := make([]domain.BackupToken, 0, len(hashes))
	for _, h := range hashes {
		rows = append(rows, domain.BackupToken{
			ID:        uuid.New(),
			UserID:    userID,
			TokenHash: h,
			CreatedAt: now,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return bs.db.WithContext(ctx).Create(&rows).Error
}

func (bs *BackupTokenStore) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.BackupToken, error) {
	var rows []domain.BackupToken
	err := bs.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	return rows, err
}

func (bs *BackupTokenStore) CountByUser(ctx context.Context, userID domain.UserID) (int64, error) {
	var n int64
	err := bs.db.WithContext(ctx).Model(&domain.BackupToken{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

// Consume deletes the token row. The delete keyed by primary key is the
// single-use guard: of two concurrent submissions of the same token, exactly
// one sees RowsAffected == 1.
func (bs *BackupTokenStore) Consume(ctx context.Context, id domain.TokenID) (bool, error) {
	tx := bs.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.BackupToken{})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}
