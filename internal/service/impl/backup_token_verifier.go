package impl

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"strings"
	"time"

	"eduauth/internal/domain"
	"eduauth/internal/store"
)

type backupTokenStore interface {
	ListByUser(ctx context.Context, userID domain.UserID) ([]domain.BackupToken, error)
	Consume(ctx context.Context, id domain.TokenID) (bool, error)
}

// BackupTokenVerifier checks single-use fallback tokens. A token stands in
// for the one-time-code factor; its row is deleted the moment it verifies,
// so a concurrent or repeated submission of the same value fails.
type BackupTokenVerifier struct {
	Tokens backupTokenStore
}

func NewBackupTokenVerifier(st *store.Store) *BackupTokenVerifier {
	return &BackupTokenVerifier{Tokens: gormBackupTokenAdapter{store: st}}
}

type gormBackupTokenAdapter struct {
	store *store.Store
}

func (g gormBackupTokenAdapter) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.BackupToken, error) {
	return g.store.BackupTokens().ListByUser(ctx, userID)
}

func (g gormBackupTokenAdapter) Consume(ctx context.Context, id domain.TokenID) (bool, error) {
	return g.store.BackupTokens().Consume(ctx, id)
}

func (v *BackupTokenVerifier) Kind() domain.FactorKind { return domain.FactorBackupToken }

func (v *BackupTokenVerifier) Satisfies() domain.FactorKind { return domain.FactorOTP }

// HashBackupToken is the canonical digest stored for, and compared against,
// backup token plaintexts.
func HashBackupToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

func (v *BackupTokenVerifier) Verify(ctx context.Context, user *domain.User, secret string, now time.Time) (bool, error) {
	secret = strings.TrimSpace(secret)
	if user == nil || secret == "" {
		return false, nil
	}
	pool, err := v.Tokens.ListByUser(ctx, user.ID)
	if err != nil {
		return false, err
	}
	presented := HashBackupToken(secret)
	for _, token := range pool {
		if subtle.ConstantTimeCompare(token.TokenHash, presented) == 1 {
			// Delete-on-use; losing the race to a concurrent submission
			// of the same token means this attempt fails.
			return v.Tokens.Consume(ctx, token.ID)
		}
	}
	return false, nil
}
