package service

import (
	"context"

	"eduauth/internal/domain"
)

type MFAService interface {
	// EnableOTP stores the enrollment secret and registers the otp factor.
	EnableOTP(ctx context.Context, userID domain.UserID, secret string) error

	DisableFactor(ctx context.Context, userID domain.UserID, kind domain.FactorKind) error

	// GenerateBackupTokens replaces the user's pool with a fresh, full one
	// and returns the plaintexts exactly once.
	GenerateBackupTokens(ctx context.Context, userID domain.UserID) ([]string, error)
}
