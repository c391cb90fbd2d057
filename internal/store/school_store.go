package store

import (
	"context"

	"eduauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SchoolStore struct{ db *gorm.DB }

func (s *Store) Schools() *SchoolStore { return &SchoolStore{db: s.DB} }

func (ss *SchoolStore) Create(ctx context.Context, school *domain.School) error {
	if school.ID == uuid.Nil {
		school.ID = uuid.New()
	}
	return ss.db.WithContext(ctx).Create(school).Error
}

func (ss *SchoolStore) GetByID(ctx context.Context, id domain.SchoolID) (*domain.School, error) {
	var school domain.School
	if err := ss.db.WithContext(ctx).Scopes(Visible).First(&school, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &school, nil
}

// Deactivate soft-deletes the school. The row stays for teachers that still
// reference it, but no default read will return it.
func (ss *SchoolStore) Deactivate(ctx context.Context, id domain.SchoolID) error {
	return ss.db.WithContext(ctx).Model(&domain.School{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
