package impl

import (
	"context"
	"errors"

	"eduauth/internal/domain"
	"eduauth/internal/store"
)

// identityReader is the narrow read surface the identity graph needs. Every
// method already applies soft-delete visibility; a hidden row surfaces as
// store.ErrRecordNotFound.
type identityReader interface {
	TeacherByUserID(ctx context.Context, userID domain.UserID) (*domain.Teacher, error)
	TeacherByID(ctx context.Context, id domain.TeacherID) (*domain.Teacher, error)
	StudentByUserID(ctx context.Context, userID domain.UserID) (*domain.Student, error)
	SchoolByID(ctx context.Context, id domain.SchoolID) (*domain.School, error)
	ClassByID(ctx context.Context, id domain.ClassID) (*domain.Class, error)
}

type IdentityServiceImpl struct {
	Reader identityReader
}

func NewIdentityServiceImpl(st *store.Store) *IdentityServiceImpl {
	return &IdentityServiceImpl{Reader: gormIdentityAdapter{store: st}}
}

type gormIdentityAdapter struct {
	store *store.Store
}

func (g gormIdentityAdapter) TeacherByUserID(ctx context.Context, userID domain.UserID) (*domain.Teacher, error) {
	return g.store.Teachers().GetByUserID(ctx, userID)
}

func (g gormIdentityAdapter) TeacherByID(ctx context.Context, id domain.TeacherID) (*domain.Teacher, error) {
	return g.store.Teachers().GetByID(ctx, id)
}

func (g gormIdentityAdapter) StudentByUserID(ctx context.Context, userID domain.UserID) (*domain.Student, error) {
	return g.store.Students().GetByUserID(ctx, userID)
}

func (g gormIdentityAdapter) SchoolByID(ctx context.Context, id domain.SchoolID) (*domain.School, error) {
	return g.store.Schools().GetByID(ctx, id)
}

func (g gormIdentityAdapter) ClassByID(ctx context.Context, id domain.ClassID) (*domain.Class, error) {
	return g.store.Classes().GetByID(ctx, id)
}

// absent collapses "row hidden or missing" into a nil result.
func absent(err error) bool {
	return errors.Is(err, store.ErrRecordNotFound)
}

func (s *IdentityServiceImpl) ResolveTeacher(ctx context.Context, userID domain.UserID) (*domain.Teacher, error) {
	t, err := s.Reader.TeacherByUserID(ctx, userID)
	if err != nil {
		if absent(err) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (s *IdentityServiceImpl) ResolveStudent(ctx context.Context, userID domain.UserID) (*domain.Student, error) {
	st, err := s.Reader.StudentByUserID(ctx, userID)
	if err != nil {
		if absent(err) {
			return nil, nil
		}
		return nil, err
	}
	return st, nil
}

// ResolveRole prefers the teacher profile when both exist; the transitional
// schema allows the overlap but it never leaks past this boundary.
func (s *IdentityServiceImpl) ResolveRole(ctx context.Context, userID domain.UserID) (domain.Role, error) {
	t, err := s.ResolveTeacher(ctx, userID)
	if err != nil {
		return domain.Role{}, err
	}
	if t != nil {
		return domain.Role{Kind: domain.RoleTeacher, Teacher: t}, nil
	}
	st, err := s.ResolveStudent(ctx, userID)
	if err != nil {
		return domain.Role{}, err
	}
	if st != nil {
		return domain.Role{Kind: domain.RoleStudent, Student: st}, nil
	}
	return domain.Role{Kind: domain.RoleUnaffiliated}, nil
}

// ResolveSchool walks teacher -> school, or student -> class -> owning
// teacher -> school. Any missing or soft-deleted link resolves to nil.
func (s *IdentityServiceImpl) ResolveSchool(ctx context.Context, userID domain.UserID) (*domain.School, error) {
	role, err := s.ResolveRole(ctx, userID)
	if err != nil {
		return nil, err
	}

	var schoolID *domain.SchoolID
	switch role.Kind {
	case domain.RoleTeacher:
		schoolID = role.Teacher.SchoolID
	case domain.RoleStudent:
		if role.Student.ClassID == nil {
			return nil, nil
		}
		class, err := s.Reader.ClassByID(ctx, *role.Student.ClassID)
		if err != nil {
			if absent(err) {
				return nil, nil
			}
			return nil, err
		}
		owner, err := s.Reader.TeacherByID(ctx, class.TeacherID)
		if err != nil {
			if absent(err) {
				return nil, nil
			}
			return nil, err
		}
		schoolID = owner.SchoolID
	default:
		return nil, nil
	}

	if schoolID == nil {
		return nil, nil
	}
	school, err := s.Reader.SchoolByID(ctx, *schoolID)
	if err != nil {
		if absent(err) {
			return nil, nil
		}
		return nil, err
	}
	return school, nil
}

// ResolveClass is meaningful for students only.
func (s *IdentityServiceImpl) ResolveClass(ctx context.Context, userID domain.UserID) (*domain.Class, error) {
	st, err := s.ResolveStudent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil || st.ClassID == nil {
		return nil, nil
	}
	class, err := s.Reader.ClassByID(ctx, *st.ClassID)
	if err != nil {
		if absent(err) {
			return nil, nil
		}
		return nil, err
	}
	return class, nil
}
