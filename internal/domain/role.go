package domain

// RoleKind discriminates the resolved role of a user.
type RoleKind int

const (
	RoleUnaffiliated RoleKind = iota
	RoleTeacher
	RoleStudent
)

// Role is the resolved identity of a user: exactly one variant is populated.
// The underlying schema permits a user to own both profiles (a transitional
// state); resolution prefers the teacher profile and the ambiguity never
// leaks past this boundary.
type Role struct {
	Kind    RoleKind
	Teacher *Teacher
	Student *Student
}

func (r Role) IsTeacher() bool { return r.Kind == RoleTeacher }
func (r Role) IsStudent() bool { return r.Kind == RoleStudent }
func (r Role) IsUnaffiliated() bool { return r.Kind == RoleUnaffiliated }
