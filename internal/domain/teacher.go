package domain

import "time"

// Teacher is a user's teacher profile. A nil SchoolID means the teacher has
// not joined a school yet.
type Teacher struct {
	ID          TeacherID  `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	UserID      UserID     `gorm:"type:uuid;uniqueIndex:ux_teachers_user" db:"user_id" json:"userId"`
	SchoolID    *SchoolID  `gorm:"type:uuid;index" db:"school_id" json:"schoolId"`
	IsAdmin     bool       `gorm:"not null;default:false" db:"is_admin" json:"isAdmin"`
	InvitedByID *TeacherID `gorm:"type:uuid" db:"invited_by_id" json:"invitedById"`
	CreatedAt   time.Time  `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (Teacher) TableName() string { return "teachers" }
