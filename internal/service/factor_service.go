package service

import (
	"context"

	"eduauth/internal/domain"
)

// FactorService is the registry of second factors owed by a session.
type FactorService interface {
	// Pending lists the factor kinds the session still owes.
	Pending(ctx context.Context, sessionID domain.SessionID) ([]domain.FactorKind, error)

	// Require creates one pending row per factor the user has enrolled.
	Require(ctx context.Context, sessionID domain.SessionID, userID domain.UserID) error

	// Satisfy clears a pending kind. Satisfying a kind that is not pending
	// is a no-op.
	Satisfy(ctx context.Context, sessionID domain.SessionID, kind domain.FactorKind) error
}
