package domain

import "time"

type Class struct {
	ID          ClassID    `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Name        string     `gorm:"type:text;not null" db:"name" json:"name"`
	AccessCode  string     `gorm:"type:text" db:"access_code" json:"accessCode"`
	TeacherID   TeacherID  `gorm:"type:uuid;index;not null" db:"teacher_id" json:"teacherId"`
	CreatedByID *TeacherID `gorm:"type:uuid" db:"created_by_id" json:"createdById"`
	IsActive    bool       `gorm:"not null;default:true" db:"is_active" json:"isActive"`
	CreatedAt   time.Time  `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (Class) TableName() string { return "classes" }
