package impl

import (
	"context"
	"time"

	"eduauth/internal/domain"
	"eduauth/internal/otp"
	"eduauth/internal/store"
)

type otpUserStore interface {
	AdvanceOtpStep(ctx context.Context, userID domain.UserID, step int64) (bool, error)
}

// OTPVerifier checks time-based one-time codes. A code verifies at most once
// per time-step: the conditional step advance doubles as the replay guard.
type OTPVerifier struct {
	Users otpUserStore
}

func NewOTPVerifier(st *store.Store) *OTPVerifier {
	return &OTPVerifier{Users: gormOtpUserAdapter{store: st}}
}

type gormOtpUserAdapter struct {
	store *store.Store
}

func (g gormOtpUserAdapter) AdvanceOtpStep(ctx context.Context, userID domain.UserID, step int64) (bool, error) {
	return g.store.Users().AdvanceOtpStep(ctx, userID, step)
}

func (v *OTPVerifier) Kind() domain.FactorKind { return domain.FactorOTP }

func (v *OTPVerifier) Satisfies() domain.FactorKind { return domain.FactorOTP }

func (v *OTPVerifier) Verify(ctx context.Context, user *domain.User, secret string, now time.Time) (bool, error) {
	if user == nil || len(user.OtpSecret) == 0 {
		return false, nil
	}
	step, ok := otp.Validate(user.OtpSecret, secret, now)
	if !ok {
		return false, nil
	}
	// The code matched; accept only if the step is strictly newer than the
	// last accepted one. A lost race here is a replay.
	return v.Users.AdvanceOtpStep(ctx, user.ID, step)
}
