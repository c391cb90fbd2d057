package impl

import (
	"context"
	"crypto/rand"
	"fmt"

	"eduauth/internal/domain"
	"eduauth/internal/otp"
	"eduauth/internal/store"
)

const backupTokenLength = 8

// Unambiguous charset for tokens a user may have to type from paper.
const backupTokenCharset = "abcdefghjkmnpqrstuvwxyz23456789"

type MFAServiceImpl struct {
	Store *store.Store
}

func NewMFAServiceImpl(st *store.Store) *MFAServiceImpl {
	return &MFAServiceImpl{Store: st}
}

// EnableOTP installs the enrollment secret and registers the otp factor.
// Sessions opened before enrollment keep their state; only future logins owe
// the new factor.
func (m *MFAServiceImpl) EnableOTP(ctx context.Context, userID domain.UserID, secret string) error {
	raw, err := otp.DecodeSecret(secret)
	if err != nil || len(raw) == 0 {
		return ErrEmptySecret
	}
	return m.Store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Users().SetOtpSecret(ctx, userID, raw); err != nil {
			return err
		}
		return tx.Factors().Upsert(ctx, &domain.AuthFactor{
			UserID: userID,
			Kind:   domain.FactorOTP,
		})
	})
}

func (m *MFAServiceImpl) DisableFactor(ctx context.Context, userID domain.UserID, kind domain.FactorKind) error {
	return m.Store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Factors().DeleteByUserAndKind(ctx, userID, kind); err != nil {
			return err
		}
		if kind == domain.FactorOTP {
			// Drop the secret and the now-useless bypass pool with it.
			if err := tx.Users().SetOtpSecret(ctx, userID, nil); err != nil {
				return err
			}
			return tx.BackupTokens().Replace(ctx, userID, nil)
		}
		return nil
	})
}

// GenerateBackupTokens replaces the user's pool with a fresh, full one. The
// plaintexts are returned exactly once; only hashes are stored. The tokens
// stand in for the otp factor, so that factor must be enrolled first.
func (m *MFAServiceImpl) GenerateBackupTokens(ctx context.Context, userID domain.UserID) ([]string, error) {
	plaintexts := make([]string, 0, domain.MaxBackupTokens)
	hashes := make([][]byte, 0, domain.MaxBackupTokens)
	for i := 0; i < domain.MaxBackupTokens; i++ {
		token, err := randomToken(backupTokenLength)
		if err != nil {
			return nil, err
		}
		plaintexts = append(plaintexts, token)
		hashes = append(hashes, HashBackupToken(token))
	}

	err := m.Store.WithTx(ctx, func(tx *store.Store) error {
		enrolled, err := tx.Factors().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		hasOTP := false
		for _, f := range enrolled {
			if f.Kind == domain.FactorOTP {
				hasOTP = true
				break
			}
		}
		if !hasOTP {
			return domain.ErrFactorNotEnrolled
		}
		return tx.BackupTokens().Replace(ctx, userID, hashes)
	})
	if err != nil {
		return nil, err
	}
	return plaintexts, nil
}

func randomToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = backupTokenCharset[int(b)%len(backupTokenCharset)]
	}
	return string(out), nil
}
