package service

import (
	"context"

	"eduauth/internal/domain"
)

// IdentityService is a read-only view over the user/teacher/student/class/
// school graph. Every hop applies soft-delete visibility; a broken or hidden
// link yields nil, never an error.
type IdentityService interface {
	ResolveRole(ctx context.Context, userID domain.UserID) (domain.Role, error)
	ResolveTeacher(ctx context.Context, userID domain.UserID) (*domain.Teacher, error)
	ResolveStudent(ctx context.Context, userID domain.UserID) (*domain.Student, error)
	ResolveSchool(ctx context.Context, userID domain.UserID) (*domain.School, error)
	ResolveClass(ctx context.Context, userID domain.UserID) (*domain.Class, error)
}
