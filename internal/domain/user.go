package domain

import "time"

type User struct {
	ID        UserID    `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Email     string    `gorm:"type:citext;uniqueIndex:ux_users_email" db:"email" json:"email"`
	Username  string    `gorm:"type:citext;uniqueIndex:ux_users_username" db:"username" json:"username"`
	FirstName string    `gorm:"type:text" db:"first_name" json:"firstName"`
	LastName  string    `gorm:"type:text" db:"last_name" json:"lastName"`
	IsActive  bool      `gorm:"not null;default:true" db:"is_active" json:"isActive"`
	CreatedAt time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`

	// OTP enrollment state. Secret is set when the otp factor is enabled.
	// LastOtpStep records the last accepted TOTP time-step so a code can
	// never verify twice for the same window.
	OtpSecret   []byte `gorm:"type:bytea" db:"otp_secret" json:"-"`
	LastOtpStep *int64 `db:"last_otp_step" json:"-"`
}

func (User) TableName() string { return "users" }
