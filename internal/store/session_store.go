package store

import (
	"context"
	"time"

	"eduauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionStore struct{ db *gorm.DB }

func (s *Store) Sessions() *SessionStore { return &SessionStore{db: s.DB} }

func (ss *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	if sess.RefreshID == uuid.Nil {
		sess.RefreshID = uuid.New()
	}
	return ss.db.WithContext(ctx).Create(sess).Error
}

func (ss *SessionStore) GetByID(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	var sess domain.Session
	if err := ss.db.WithContext(ctx).First(&sess, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (ss *SessionStore) GetByRefreshID(ctx context.Context, rid uuid.UUID) (*domain.Session, error) {
	var sess domain.Session
	if err := ss.db.WithContext(ctx).First(&sess, "refresh_id = ?", rid).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (ss *SessionStore) Rotate(ctx context.Context, id domain.SessionID, refreshID uuid.UUID, expiresAt time.Time, ip, ua string) error {
	return ss.db.WithContext(ctx).Model(&domain.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"refresh_id": refreshID,
			"expires_at": expiresAt,
			"ip":         ip,
			"user_agent": ua,
		}).Error
}

func (ss *SessionStore) Revoke(ctx context.Context, id domain.SessionID, at time.Time) error {
	return ss.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Update("revoked_at", at).Error
}

func (ss *SessionStore) RevokeAllForUser(ctx context.Context, userID domain.UserID, at time.Time) (int64, error) {
	tx := ss.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", at)
	return tx.RowsAffected, tx.Error
}

// ListDead returns ids of sessions that expired or were revoked before the
// cutoff, for the purge job.
func (ss *SessionStore) ListDead(ctx context.Context, cutoff time.Time, limit int) ([]domain.SessionID, error) {
	var ids []domain.SessionID
	err := ss.db.WithContext(ctx).Model(&domain.Session{}).
		Where("expires_at < ? OR revoked_at < ?", cutoff, cutoff).
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (ss *SessionStore) DeleteByIDs(ctx context.Context, ids []domain.SessionID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := ss.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&domain.Session{})
	return tx.RowsAffected, tx.Error
}
