package impl

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"eduauth/internal/domain"
	"eduauth/internal/dto"
	"eduauth/internal/events"
	"eduauth/internal/netutil"
	"eduauth/internal/observability/metrics"
	"eduauth/internal/observability/middleware"
	"eduauth/internal/service"
	"eduauth/internal/store"

	"github.com/google/uuid"
)

// AuthServiceImpl is the session authentication state machine. The state is
// never stored: a session is fully authenticated exactly when it has no
// pending factor rows left.
type AuthServiceImpl struct {
	Store           dataStore
	PasswordService service.PasswordService
	Identity        service.IdentityService
	Factors         service.FactorService
	Tokens          service.TokenService
	SessionTTL      time.Duration

	// Now is the clock source; tests pin it.
	Now func() time.Time

	verifiers map[domain.FactorKind]service.SecondFactorVerifier
}

func NewAuthServiceImpl(
	st *store.Store,
	passwordService service.PasswordService,
	identity service.IdentityService,
	factors service.FactorService,
	tokens service.TokenService,
	sessionTTL time.Duration,
	verifiers ...service.SecondFactorVerifier,
) *AuthServiceImpl {
	a := &AuthServiceImpl{
		Store:           gormStoreAdapter{store: st},
		PasswordService: passwordService,
		Identity:        identity,
		Factors:         factors,
		Tokens:          tokens,
		SessionTTL:      sessionTTL,
		Now:             func() time.Time { return time.Now().UTC() },
		verifiers:       make(map[domain.FactorKind]service.SecondFactorVerifier, len(verifiers)),
	}
	for _, v := range verifiers {
		a.verifiers[v.Kind()] = v
	}
	return a
}

type dataStore interface {
	WithTx(ctx context.Context, fn func(tx storeTx) error) error
}

type storeTx interface {
	Users() userStore
	Credentials() credentialStore
	Sessions() sessionStore
	Factors() factorTxStore
	Audits() auditStore
}

type userStore interface {
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type credentialStore interface {
	UpsertPassword(ctx context.Context, c *domain.PasswordCredential) error
	GetPasswordByUserID(ctx context.Context, userID domain.UserID) (*domain.PasswordCredential, error)
}

type sessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id domain.SessionID) (*domain.Session, error)
}

type factorTxStore interface {
	EnrolledByUser(ctx context.Context, userID domain.UserID) ([]domain.AuthFactor, error)
	RequireForSession(ctx context.Context, sessionID domain.SessionID, factors []domain.AuthFactor) error
}

type auditStore interface {
	Record(ctx context.Context, log *domain.AuditLog) error
}

type gormStoreAdapter struct {
	store *store.Store
}

func (g gormStoreAdapter) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(gormTxAdapter{tx: tx})
	})
}

type gormTxAdapter struct {
	tx *store.Store
}

func (g gormTxAdapter) Users() userStore { return g.tx.Users() }

func (g gormTxAdapter) Credentials() credentialStore { return g.tx.Credentials() }

func (g gormTxAdapter) Sessions() sessionStore { return g.tx.Sessions() }

func (g gormTxAdapter) Factors() factorTxStore { return gormFactorTxAdapter{tx: g.tx} }

func (g gormTxAdapter) Audits() auditStore { return g.tx.Audits() }

type gormFactorTxAdapter struct {
	tx *store.Store
}

func (g gormFactorTxAdapter) EnrolledByUser(ctx context.Context, userID domain.UserID) ([]domain.AuthFactor, error) {
	return g.tx.Factors().ListByUser(ctx, userID)
}

func (g gormFactorTxAdapter) RequireForSession(ctx context.Context, sessionID domain.SessionID, factors []domain.AuthFactor) error {
	return g.tx.Factors().RequireForSession(ctx, sessionID, factors)
}

// Login checks the primary credential. A failed attempt creates nothing; a
// successful one creates the session and all of its required factor rows in
// one transaction, so the pending set is visible before any second-factor
// submission can be evaluated against it.
func (a *AuthServiceImpl) Login(ctx context.Context, r dto.LoginRequest, ip, ua string) (*dto.LoginResponse, error) {
	if r.EmailOrUsername == "" || r.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	result := "failure"
	defer func() {
		metrics.AuthLoginsTotal.WithLabelValues(result).Inc()
	}()
	ip = normalizeIP(ip)
	ua = netutil.TruncateUserAgent(ua)

	var out *dto.LoginResponse

	err := a.Store.WithTx(ctx, func(tx storeTx) error {
		// 1) load active user by email or username
		var user *domain.User
		var err error
		if looksLikeEmail(r.EmailOrUsername) {
			user, err = tx.Users().GetByEmail(ctx, r.EmailOrUsername)
		} else {
			user, err = tx.Users().GetByUsername(ctx, r.EmailOrUsername)
		}
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrInvalidCredentials // don't leak which field failed
			}
			return err
		}

		// 2) verify the stored password credential
		cred, err := tx.Credentials().GetPasswordByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrInvalidCredentials
			}
			return err
		}
		rehashNeeded, ok := a.PasswordService.Verify(r.Password, cred)
		if !ok {
			return domain.ErrInvalidCredentials
		}

		// 3) transparent rehash on policy upgrade
		if rehashNeeded {
			newHash, newSalt, newParamsJSON, algo, ver, err := a.PasswordService.Hash(r.Password)
			if err != nil {
				return err
			}
			cred.Algo = algo
			cred.Hash = newHash
			cred.Salt = newSalt
			cred.ParamsJSON = newParamsJSON
			cred.PasswordVer = ver
			cred.UpdatedAt = a.Now()
			if err := tx.Credentials().UpsertPassword(ctx, cred); err != nil {
				return err
			}
		}

		// 4) capture the identity context active at login, for auditing
		var schoolID *domain.SchoolID
		var classID *domain.ClassID
		if school, err := a.Identity.ResolveSchool(ctx, user.ID); err != nil {
			return err
		} else if school != nil {
			schoolID = &school.ID
		}
		if class, err := a.Identity.ResolveClass(ctx, user.ID); err != nil {
			return err
		} else if class != nil {
			classID = &class.ID
		}

		// 5) create the session and require every enrolled factor
		now := a.Now()
		sess := &domain.Session{
			ID:        uuid.New(),
			UserID:    user.ID,
			RefreshID: uuid.New(),
			SchoolID:  schoolID,
			ClassID:   classID,
			LoginAt:   now,
			ExpiresAt: now.Add(a.SessionTTL),
			IP:        ip,
			UserAgent: ua,
		}
		if err := tx.Sessions().Create(ctx, sess); err != nil {
			return err
		}
		enrolled, err := tx.Factors().EnrolledByUser(ctx, user.ID)
		if err != nil {
			return err
		}
		if err := tx.Factors().RequireForSession(ctx, sess.ID, enrolled); err != nil {
			return err
		}

		a.recordAudit(ctx, tx, user.ID, "login", events.LoginSucceeded{
			SessionID: sess.ID.String(),
			UserID:    user.ID.String(),
			Pending:   factorKindStrings(enrolled),
			At:        now,
		}, ip, ua)

		out = &dto.LoginResponse{SessionID: sess.ID.String()}
		if len(enrolled) == 0 {
			tokens, err := a.Tokens.Issue(ctx, user, sess)
			if err != nil {
				return err
			}
			out.Tokens = tokens
		} else {
			out.PendingFactors = factorKindStrings(enrolled)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	result = "success"
	reqID := middleware.RequestIDFromContext(ctx)
	slog.Info("login", "session_id", out.SessionID, "pending_factors", len(out.PendingFactors), "request_id", reqID)
	return out, nil
}

// SubmitSecondFactor verifies one pending factor. A failed attempt consumes
// nothing and deletes no pending row; an unknown or unowed kind is rejected
// exactly like a bad secret.
func (a *AuthServiceImpl) SubmitSecondFactor(ctx context.Context, r dto.SecondFactorRequest, ip, ua string) (*dto.LoginResponse, error) {
	sessionID, err := uuid.Parse(strings.TrimSpace(r.SessionID))
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	kind := domain.FactorKind(r.Kind)
	result := "failure"
	defer func() {
		metrics.SecondFactorAttemptsTotal.WithLabelValues(string(kind), result).Inc()
	}()

	verifier, known := a.verifiers[kind]
	if !known {
		return nil, domain.ErrInvalidSecondFactor
	}

	var out *dto.LoginResponse

	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		sess, err := tx.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrSessionNotFound
			}
			return err
		}
		now := a.Now()
		if !sess.Live(now) {
			return domain.ErrSessionExpired
		}
		user, err := tx.Users().GetByID(ctx, sess.UserID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrUserDisabled
			}
			return err
		}

		pending, err := a.Factors.Pending(ctx, sess.ID)
		if err != nil {
			return err
		}
		if !containsKind(pending, verifier.Satisfies()) {
			return domain.ErrInvalidSecondFactor
		}

		ok, err := verifier.Verify(ctx, user, r.Secret, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidSecondFactor
		}

		if err := a.Factors.Satisfy(ctx, sess.ID, verifier.Satisfies()); err != nil {
			return err
		}
		remaining, err := a.Factors.Pending(ctx, sess.ID)
		if err != nil {
			return err
		}

		a.recordAudit(ctx, tx, user.ID, "second_factor", events.SecondFactorVerified{
			SessionID: sess.ID.String(),
			UserID:    user.ID.String(),
			Kind:      string(kind),
			Remaining: len(remaining),
			At:        now,
		}, normalizeIP(ip), netutil.TruncateUserAgent(ua))

		out = &dto.LoginResponse{SessionID: sess.ID.String()}
		if len(remaining) == 0 {
			tokens, err := a.Tokens.Issue(ctx, user, sess)
			if err != nil {
				return err
			}
			out.Tokens = tokens
		} else {
			out.PendingFactors = kindStrings(remaining)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	result = "success"
	slog.Info("second factor verified", "session_id", out.SessionID, "kind", kind, "remaining", len(out.PendingFactors))
	return out, nil
}

// IsAuthenticated recomputes the session state from live data. The answer is
// never cached on the session row, since a concurrent satisfy can change it
// without the row itself changing.
func (a *AuthServiceImpl) IsAuthenticated(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	authenticated := false
	err := a.Store.WithTx(ctx, func(tx storeTx) error {
		sess, err := tx.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if !sess.Live(a.Now()) {
			return nil
		}
		pending, err := a.Factors.Pending(ctx, sess.ID)
		if err != nil {
			return err
		}
		authenticated = len(pending) == 0
		return nil
	})
	return authenticated, err
}

// Logout revokes the session. Logging out an unknown session is a no-op.
func (a *AuthServiceImpl) Logout(ctx context.Context, sessionID domain.SessionID) error {
	return a.Store.WithTx(ctx, func(tx storeTx) error {
		sess, err := tx.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := a.Tokens.RevokeSession(ctx, sessionID); err != nil {
			return err
		}
		a.recordAudit(ctx, tx, sess.UserID, "logout", events.SessionRevoked{
			SessionID: sess.ID.String(),
			UserID:    sess.UserID.String(),
			At:        a.Now(),
		}, "", "")
		return nil
	})
}

func (a *AuthServiceImpl) recordAudit(ctx context.Context, tx storeTx, userID domain.UserID, action string, event any, ip, ua string) {
	metadata, err := json.Marshal(event)
	if err != nil {
		metadata = nil
	}
	log := &domain.AuditLog{
		UserID:    &userID,
		Action:    action,
		Metadata:  metadata,
		IP:        ip,
		UserAgent: ua,
	}
	// Audit writes ride the surrounding transaction but are not fatal.
	if err := tx.Audits().Record(ctx, log); err != nil {
		slog.Warn("audit record failed", "action", action, "error", err)
	}
}

func looksLikeEmail(s string) bool { return strings.ContainsRune(s, '@') }

func containsKind(kinds []domain.FactorKind, kind domain.FactorKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func kindStrings(kinds []domain.FactorKind) []string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, string(k))
	}
	return out
}

func factorKindStrings(factors []domain.AuthFactor) []string {
	out := make([]string, 0, len(factors))
	for _, f := range factors {
		out = append(out, string(f.Kind))
	}
	return out
}

func normalizeIP(ip string) string {
	if normalized, ok := netutil.NormalizeIP(ip); ok {
		return normalized
	}
	return strings.TrimSpace(ip)
}
