package store

import (
	"context"

	"eduauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

func (u *UserStore) Create(ctx context.Context, usr *domain.User) error {
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	return u.db.WithContext(ctx).Create(usr).Error
}

func (u *UserStore) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).Scopes(Visible).First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).Scopes(Visible).First(&user, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (u *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).Scopes(Visible).First(&user, "username = ?", username).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (u *UserStore) SetActive(ctx context.Context, userID domain.UserID, active bool) error {
	return u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Update("is_active", active).Error
}

// SetOtpSecret installs (or clears) the user's OTP enrollment secret and
// resets the replay guard.
func (u *UserStore) SetOtpSecret(ctx context.Context, userID domain.UserID, secret []byte) error {
	return u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"otp_secret": secret, "last_otp_step": nil}).Error
}

// AdvanceOtpStep moves the user's last accepted time-step forward, but only
// if the presented step is strictly greater than the recorded one. The
// conditional update is the replay guard: concurrent submissions of the same
// code race on it and exactly one wins.
func (u *UserStore) AdvanceOtpStep(ctx context.Context, userID domain.UserID, step int64) (bool, error) {
	tx := u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND (last_otp_step IS NULL OR last_otp_step < ?)", userID, step).
		Update("last_otp_step", step)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}
