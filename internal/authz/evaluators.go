package authz

import (
	"context"
	"errors"

	"eduauth/internal/domain"
	"eduauth/internal/service"
	"eduauth/internal/store"
)

// sessionReader resolves a session to its user.
type sessionReader interface {
	GetByID(ctx context.Context, id domain.SessionID) (*domain.Session, error)
}

// Deps carries the collaborators every evaluator needs.
type Deps struct {
	Auth     service.AuthService
	Identity service.IdentityService
	Sessions sessionReader
}

func NewDeps(auth service.AuthService, identity service.IdentityService, st *store.Store) Deps {
	return Deps{Auth: auth, Identity: identity, Sessions: st.Sessions()}
}

// userID maps the session to its user, or reports a denial when the session
// is unknown.
func (d Deps) userID(ctx context.Context, sessionID domain.SessionID) (domain.UserID, bool, error) {
	sess, err := d.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return domain.UserID{}, false, nil
		}
		return domain.UserID{}, false, err
	}
	return sess.UserID, true, nil
}

// IsAuthenticated admits sessions with no outstanding second factors.
type IsAuthenticated struct {
	Deps Deps
}

func (e IsAuthenticated) Name() string { return "is_authenticated" }

func (e IsAuthenticated) Evaluate(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	return e.Deps.Auth.IsAuthenticated(ctx, sessionID)
}

// InSchool admits authenticated users whose identity graph resolves to a
// school: a teacher's own school, or a student's class's teacher's school.
// A nil SchoolID means any school.
type InSchool struct {
	Deps     Deps
	SchoolID *domain.SchoolID
}

func (e InSchool) Name() string { return "in_school" }

func (e InSchool) Evaluate(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	ok, err := e.Deps.Auth.IsAuthenticated(ctx, sessionID)
	if err != nil || !ok {
		return false, err
	}
	userID, ok, err := e.Deps.userID(ctx, sessionID)
	if err != nil || !ok {
		return false, err
	}
	school, err := e.Deps.Identity.ResolveSchool(ctx, userID)
	if err != nil {
		return false, err
	}
	if school == nil {
		return false, nil
	}
	return e.SchoolID == nil || *e.SchoolID == school.ID, nil
}

// IsIndependent admits authenticated users with neither a teacher nor a
// student profile. Note this is a different population from "independent
// student" (a student profile with no class); the two checks deliberately
// stay separate.
type IsIndependent struct {
	Deps Deps
}

func (e IsIndependent) Name() string { return "is_independent" }

func (e IsIndependent) Evaluate(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	ok, err := e.Deps.Auth.IsAuthenticated(ctx, sessionID)
	if err != nil || !ok {
		return false, err
	}
	userID, ok, err := e.Deps.userID(ctx, sessionID)
	if err != nil || !ok {
		return false, err
	}
	role, err := e.Deps.Identity.ResolveRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role.IsUnaffiliated(), nil
}

// IsTeacher admits authenticated users with a teacher profile, optionally
// narrowed to admins or to teachers attached to a school.
type IsTeacher struct {
	Deps          Deps
	RequireAdmin  bool
	RequireSchool bool
}

func (e IsTeacher) Name() string { return "is_teacher" }

func (e IsTeacher) Evaluate(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	ok, err := e.Deps.Auth.IsAuthenticated(ctx, sessionID)
	if err != nil || !ok {
		return false, err
	}
	userID, ok, err := e.Deps.userID(ctx, sessionID)
	if err != nil || !ok {
		return false, err
	}
	teacher, err := e.Deps.Identity.ResolveTeacher(ctx, userID)
	if err != nil {
		return false, err
	}
	if teacher == nil {
		return false, nil
	}
	if e.RequireAdmin && !teacher.IsAdmin {
		return false, nil
	}
	if e.RequireSchool && teacher.SchoolID == nil {
		return false, nil
	}
	return true, nil
}

// IsStudent admits authenticated users with a student profile.
type IsStudent struct {
	Deps Deps
}

func (e IsStudent) Name() string { return "is_student" }

func (e IsStudent) Evaluate(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	ok, err := e.Deps.Auth.IsAuthenticated(ctx, sessionID)
	if err != nil || !ok {
		return false, err
	}
	userID, ok, err := e.Deps.userID(ctx, sessionID)
	if err != nil || !ok {
		return false, err
	}
	student, err := e.Deps.Identity.ResolveStudent(ctx, userID)
	if err != nil {
		return false, err
	}
	return student != nil, nil
}
