package service

import (
	"context"
	"time"

	"eduauth/internal/domain"
)

// SecondFactorVerifier checks one kind of presented secret. A verification
// miss of any cause (wrong code, replay, consumed token, malformed input) is
// ok == false; the error return is reserved for store failures.
//
// Kind is the kind a client presents; Satisfies is the enrolled factor a
// success clears. They differ for backup tokens, which stand in for the
// one-time-code factor.
type SecondFactorVerifier interface {
	Kind() domain.FactorKind
	Satisfies() domain.FactorKind
	Verify(ctx context.Context, user *domain.User, secret string, now time.Time) (ok bool, err error)
}
