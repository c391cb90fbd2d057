package service

import (
	"context"

	"eduauth/internal/domain"
	"eduauth/internal/dto"
)

type TokenService interface {
	// Issue mints access+refresh tokens for a fully authenticated session.
	Issue(ctx context.Context, user *domain.User, sess *domain.Session) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string, ip, ua string) (*dto.TokenResponse, error)
	RevokeSession(ctx context.Context, sessionID domain.SessionID) error
	// ParseAccess validates an access token and returns the session and
	// user it is bound to.
	ParseAccess(tokenStr string) (domain.SessionID, domain.UserID, error)
}
