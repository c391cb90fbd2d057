package domain

import "time"

type School struct {
	ID        SchoolID  `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Name      string    `gorm:"type:text;not null" db:"name" json:"name"`
	Postcode  string    `gorm:"type:text" db:"postcode" json:"postcode"`
	Country   string    `gorm:"type:text" db:"country" json:"country"`
	IsActive  bool      `gorm:"not null;default:true" db:"is_active" json:"isActive"`
	CreatedAt time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (School) TableName() string { return "schools" }
