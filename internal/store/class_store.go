package store

import (
	"context"

	"eduauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClassStore struct{ db *gorm.DB }

func (s *Store) Classes() *ClassStore { return &ClassStore{db: s.DB} }

func (cs *ClassStore) Create(ctx context.Context, class *domain.Class) error {
	if class.ID == uuid.Nil {
		class.ID = uuid.New()
	}
	return cs.db.WithContext(ctx).Create(class).Error
}

func (cs *ClassStore) GetByID(ctx context.Context, id domain.ClassID) (*domain.Class, error) {
	var class domain.Class
	if err := cs.db.WithContext(ctx).Scopes(Visible).First(&class, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &class, nil
}

func (cs *ClassStore) ListByTeacher(ctx context.Context, teacherID domain.TeacherID) ([]domain.Class, error) {
	var classes []domain.Class
	err := cs.db.WithContext(ctx).Scopes(Visible).
		Where("teacher_id = ?", teacherID).
		Find(&classes).Error
	return classes, err
}

func (cs *ClassStore) Deactivate(ctx context.Context, id domain.ClassID) error {
	return cs.db.WithContext(ctx).Model(&domain.Class{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
