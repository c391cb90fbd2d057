package store

import (
	"context"

	"eduauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentStore struct{ db *gorm.DB }

func (s *Store) Students() *StudentStore { return &StudentStore{db: s.DB} }

func (ss *StudentStore) visible(ctx context.Context) *gorm.DB {
	return ss.db.WithContext(ctx).Model(&domain.Student{}).
		Joins("JOIN users ON users.id = students.user_id").
		Where("users.is_active = ?", true)
}

func (ss *StudentStore) Create(ctx context.Context, st *domain.Student) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	return ss.db.WithContext(ctx).Create(st).Error
}

func (ss *StudentStore) GetByUserID(ctx context.Context, userID domain.UserID) (*domain.Student, error) {
	var st domain.Student
	if err := ss.visible(ctx).First(&st, "students.user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (ss *StudentStore) SetClass(ctx context.Context, id domain.StudentID, classID *domain.ClassID) error {
	return ss.db.WithContext(ctx).Model(&domain.Student{}).
		Where("id = ?", id).
		Update("class_id", classID).Error
}

func (ss *StudentStore) SetPendingClassRequest(ctx context.Context, id domain.StudentID, classID *domain.ClassID) error {
	return ss.db.WithContext(ctx).Model(&domain.Student{}).
		Where("id = ?", id).
		Update("pending_class_request_id", classID).Error
}
