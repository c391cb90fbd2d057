package impl

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eduauth/internal/domain"
	"eduauth/internal/dto"
	"eduauth/internal/netutil"
	"eduauth/internal/observability/metrics"
	"eduauth/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenConfig struct {
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	SigningKey []byte // HS256 secret
}

type AccessClaims struct {
	SID      string `json:"sid"` // session id
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	SID                  string `json:"sid"`
	TokenUse             string `json:"token_use"`
	jwt.RegisteredClaims        // jti == refresh_id
}

// TokenServiceImpl mints HS256 access/refresh token pairs for fully
// authenticated sessions. The refresh token is bound to the session row via
// its rotating refresh id.
type TokenServiceImpl struct {
	cfg   TokenConfig
	store *store.Store
}

func NewTokenServiceHS256(cfg TokenConfig, st *store.Store) *TokenServiceImpl {
	return &TokenServiceImpl{cfg: cfg, store: st}
}

func (t *TokenServiceImpl) Issue(ctx context.Context, user *domain.User, sess *domain.Session) (*dto.TokenResponse, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("issue", result).Inc()
	}()
	now := time.Now().UTC()

	access, err := t.signAccess(user.ID, sess, now)
	if err != nil {
		result = "failure"
		return nil, err
	}
	refresh, err := t.signRefresh(user.ID, sess, now)
	if err != nil {
		result = "failure"
		return nil, err
	}

	slog.Info("issued tokens", "session_id", sess.ID, "user_id", user.ID)

	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(t.cfg.AccessTTL.Seconds()),
	}, nil
}

// Refresh validates the refresh JWT, checks session state, rotates the
// refresh id, and returns new tokens.
func (t *TokenServiceImpl) Refresh(ctx context.Context, refreshToken string, ip, ua string) (*dto.TokenResponse, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("refresh", result).Inc()
	}()
	ip = normalizeIP(ip)
	ua = netutil.TruncateUserAgent(ua)
	now := time.Now().UTC()

	claims, err := t.parseRefresh(refreshToken)
	if err != nil {
		result = "failure"
		return nil, errors.New("invalid token")
	}
	refreshID, err := uuid.Parse(claims.ID)
	if err != nil {
		result = "failure"
		return nil, errors.New("invalid token")
	}

	sess, err := t.store.Sessions().GetByRefreshID(ctx, refreshID)
	if err != nil {
		result = "failure"
		return nil, errors.New("invalid token")
	}
	if !sess.Live(now) {
		result = "failure"
		return nil, domain.ErrSessionExpired
	}

	newRID := uuid.New()
	newExp := now.Add(t.cfg.RefreshTTL)
	if err := t.store.Sessions().Rotate(ctx, sess.ID, newRID, newExp, ip, ua); err != nil {
		result = "failure"
		return nil, err
	}
	sess.RefreshID = newRID
	sess.ExpiresAt = newExp

	accessJWT, err := t.signAccess(sess.UserID, sess, now)
	if err != nil {
		result = "failure"
		return nil, err
	}
	refreshJWT, err := t.signRefresh(sess.UserID, sess, now)
	if err != nil {
		result = "failure"
		return nil, err
	}

	slog.Info("refreshed tokens", "session_id", sess.ID, "user_id", sess.UserID)

	return &dto.TokenResponse{
		AccessToken:  accessJWT,
		RefreshToken: refreshJWT,
		ExpiresIn:    int64(t.cfg.AccessTTL.Seconds()),
	}, nil
}

func (t *TokenServiceImpl) RevokeSession(ctx context.Context, sessionID domain.SessionID) error {
	return t.store.Sessions().Revoke(ctx, sessionID, time.Now().UTC())
}

// ParseAccess validates an access JWT and extracts the session and user ids
// for request guards.
func (t *TokenServiceImpl) ParseAccess(tokenStr string) (domain.SessionID, domain.UserID, error) {
	claims := &AccessClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.cfg.SigningKey, nil
	})
	if err != nil || !tok.Valid {
		return uuid.Nil, uuid.Nil, errors.New("invalid token")
	}
	if claims.Issuer != t.cfg.Issuer || !containsAudience(claims.Audience, t.cfg.Audience) {
		return uuid.Nil, uuid.Nil, errors.New("invalid token")
	}
	if claims.TokenUse != "access" {
		return uuid.Nil, uuid.Nil, errors.New("invalid token")
	}
	sid, err := uuid.Parse(claims.SID)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("invalid token")
	}
	sub, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("invalid token")
	}
	return sid, sub, nil
}

func (t *TokenServiceImpl) signAccess(userID domain.UserID, sess *domain.Session, now time.Time) (string, error) {
	claims := AccessClaims{
		SID:      sess.ID.String(),
		TokenUse: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{t.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.cfg.SigningKey)
}

func (t *TokenServiceImpl) signRefresh(userID domain.UserID, sess *domain.Session, now time.Time) (string, error) {
	claims := RefreshClaims{
		SID:      sess.ID.String(),
		TokenUse: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{t.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        sess.RefreshID.String(), // bind JWT to the session row
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.cfg.SigningKey)
}

func (t *TokenServiceImpl) parseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.cfg.SigningKey, nil
	})
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Issuer != t.cfg.Issuer {
		return nil, errors.New("bad issuer")
	}
	if !containsAudience(claims.Audience, t.cfg.Audience) {
		return nil, errors.New("bad audience")
	}
	if claims.TokenUse != "refresh" {
		return nil, errors.New("bad token use")
	}
	return claims, nil
}

func containsAudience(aud jwt.ClaimStrings, expected string) bool {
	for _, a := range aud {
		if a == expected {
			return true
		}
	}
	return false
}
