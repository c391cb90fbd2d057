package domain

import "time"

type FactorKind string

const (
	FactorOTP         FactorKind = "otp"
	FactorBackupToken FactorKind = "backup_token"
)

// MaxBackupTokens bounds the per-user backup token pool.
const MaxBackupTokens = 10

// AuthFactor declares that a user has an enrolled second factor of a given
// kind. One row per (user, kind).
type AuthFactor struct {
	ID        FactorID   `gorm:"type:uuid;primaryKey" db:"id"`
	UserID    UserID     `gorm:"type:uuid;uniqueIndex:ux_auth_factors_user_kind" db:"user_id"`
	Kind      FactorKind `gorm:"type:text;uniqueIndex:ux_auth_factors_user_kind;not null" db:"kind"`
	CreatedAt time.Time  `gorm:"not null" db:"created_at"`
}

func (AuthFactor) TableName() string { return "auth_factors" }

// SessionAuthFactor means the session still owes verification of the linked
// factor. The row is deleted when the factor is satisfied; a session with any
// remaining rows is not fully authenticated.
type SessionAuthFactor struct {
	SessionID SessionID  `gorm:"type:uuid;primaryKey" db:"session_id"`
	FactorID  FactorID   `gorm:"type:uuid;primaryKey" db:"factor_id"`
	Kind      FactorKind `gorm:"type:text;not null" db:"kind"`
	CreatedAt time.Time  `gorm:"not null" db:"created_at"`
}

func (SessionAuthFactor) TableName() string { return "session_auth_factors" }

// BackupToken is a single-use fallback secret. Only the hash is stored; the
// row is hard-deleted the moment the token verifies.
type BackupToken struct {
	ID        TokenID   `gorm:"type:uuid;primaryKey" db:"id"`
	UserID    UserID    `gorm:"type:uuid;index" db:"user_id"`
	TokenHash []byte    `gorm:"type:bytea;not null" db:"token_hash"`
	CreatedAt time.Time `gorm:"not null" db:"created_at"`
}

func (BackupToken) TableName() string { return "backup_tokens" }
