package service

import (
	"context"

	"eduauth/internal/domain"
	"eduauth/internal/dto"
)

type AuthService interface {
	// Login checks the primary credential. On success it creates a session
	// with its required second factors and returns either pending factor
	// kinds or tokens.
	Login(ctx context.Context, r dto.LoginRequest, ip, ua string) (*dto.LoginResponse, error)

	// SubmitSecondFactor verifies one pending factor for the session.
	SubmitSecondFactor(ctx context.Context, r dto.SecondFactorRequest, ip, ua string) (*dto.LoginResponse, error)

	// IsAuthenticated recomputes the session's state from its pending
	// factor rows; it is never a stored flag.
	IsAuthenticated(ctx context.Context, sessionID domain.SessionID) (bool, error)

	Logout(ctx context.Context, sessionID domain.SessionID) error
}
