package store

import (
	"context"

	"eduauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TeacherStore struct{ db *gorm.DB }

func (s *Store) Teachers() *TeacherStore { return &TeacherStore{db: s.DB} }

// visible excludes profiles whose owning user is soft-deleted.
func (ts *TeacherStore) visible(ctx context.Context) *gorm.DB {
	return ts.db.WithContext(ctx).Model(&domain.Teacher{}).
		Joins("JOIN users ON users.id = teachers.user_id").
		Where("users.is_active = ?", true)
}

func (ts *TeacherStore) Create(ctx context.Context, t *domain.Teacher) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return ts.db.WithContext(ctx).Create(t).Error
}

func (ts *TeacherStore) GetByID(ctx context.Context, id domain.TeacherID) (*domain.Teacher, error) {
	var t domain.Teacher
	if err := ts.visible(ctx).First(&t, "teachers.id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (ts *TeacherStore) GetByUserID(ctx context.Context, userID domain.UserID) (*domain.Teacher, error) {
	var t domain.Teacher
	if err := ts.visible(ctx).First(&t, "teachers.user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (ts *TeacherStore) SetSchool(ctx context.Context, id domain.TeacherID, schoolID *domain.SchoolID) error {
	return ts.db.WithContext(ctx).Model(&domain.Teacher{}).
		Where("id = ?", id).
		Update("school_id", schoolID).Error
}
