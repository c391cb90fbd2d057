package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session records a login. SchoolID and ClassID capture the identity context
// that was active at login time, for auditing only; permission checks always
// re-resolve the live identity graph.
type Session struct {
	ID        SessionID  `gorm:"type:uuid;primaryKey" db:"id"`
	UserID    UserID     `gorm:"type:uuid;index" db:"user_id"`
	RefreshID uuid.UUID  `gorm:"type:uuid;uniqueIndex:ux_sessions_refreshid" db:"refresh_id"`
	SchoolID  *SchoolID  `gorm:"type:uuid" db:"school_id"`
	ClassID   *ClassID   `gorm:"type:uuid" db:"class_id"`
	LoginAt   time.Time  `gorm:"not null" db:"login_at"`
	ExpiresAt time.Time  `gorm:"not null" db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	IP        string     `gorm:"type:inet" db:"ip"`
	UserAgent string     `gorm:"type:text" db:"user_agent"`
}

func (Session) TableName() string { return "sessions" }

// Live reports whether the session itself is usable at the given time.
// It says nothing about pending second factors.
func (s *Session) Live(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
