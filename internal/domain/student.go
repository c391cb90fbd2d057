package domain

import "time"

// Student is a user's student profile. A nil ClassID means an independent
// learner. PendingClassRequestID tracks an open request to join a class.
type Student struct {
	ID                    StudentID `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	UserID                UserID    `gorm:"type:uuid;uniqueIndex:ux_students_user" db:"user_id" json:"userId"`
	ClassID               *ClassID  `gorm:"type:uuid;index" db:"class_id" json:"classId"`
	PendingClassRequestID *ClassID  `gorm:"type:uuid" db:"pending_class_request_id" json:"pendingClassRequestId"`
	CreatedAt             time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (Student) TableName() string { return "students" }

// IsIndependent reports whether the student is enrolled in no class.
func (s *Student) IsIndependent() bool { return s.ClassID == nil }
