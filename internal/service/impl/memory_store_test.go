package impl

import (
	"context"
	"sync"
	"time"

	"eduauth/internal/domain"
	"eduauth/internal/dto"
	"eduauth/internal/store"

	"github.com/google/uuid"
)

// memoryStore backs the state-machine tests with the same narrow interfaces
// the gorm adapters satisfy. Inactive users are invisible, matching the
// store's visibility scope.
type memoryStore struct {
	mu sync.Mutex

	users       map[uuid.UUID]*domain.User
	emailIndex  map[string]uuid.UUID
	usernameIdx map[string]uuid.UUID
	credentials map[uuid.UUID]*domain.PasswordCredential
	sessions    map[uuid.UUID]*domain.Session
	enrolled    map[uuid.UUID][]domain.AuthFactor
	pending     map[uuid.UUID][]domain.SessionAuthFactor
	backup      map[uuid.UUID][]domain.BackupToken
	audits      []domain.AuditLog
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       make(map[uuid.UUID]*domain.User),
		emailIndex:  make(map[string]uuid.UUID),
		usernameIdx: make(map[string]uuid.UUID),
		credentials: make(map[uuid.UUID]*domain.PasswordCredential),
		sessions:    make(map[uuid.UUID]*domain.Session),
		enrolled:    make(map[uuid.UUID][]domain.AuthFactor),
		pending:     make(map[uuid.UUID][]domain.SessionAuthFactor),
		backup:      make(map[uuid.UUID][]domain.BackupToken),
	}
}

func (m *memoryStore) addUser(user *domain.User, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	if user.Email != "" {
		m.emailIndex[user.Email] = user.ID
	}
	if user.Username != "" {
		m.usernameIdx[user.Username] = user.ID
	}
	m.credentials[user.ID] = &domain.PasswordCredential{
		ID:     uuid.New(),
		UserID: user.ID,
		Algo:   "plain-test",
		Hash:   []byte(password),
	}
}

func (m *memoryStore) enroll(userID uuid.UUID, kind domain.FactorKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrolled[userID] = append(m.enrolled[userID], domain.AuthFactor{
		ID:     uuid.New(),
		UserID: userID,
		Kind:   kind,
	})
}

func (m *memoryStore) addBackupTokens(userID uuid.UUID, hashes [][]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range hashes {
		m.backup[userID] = append(m.backup[userID], domain.BackupToken{
			ID:        uuid.New(),
			UserID:    userID,
			TokenHash: h,
		})
	}
}

func (m *memoryStore) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *memoryStore) backupCount(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.backup[userID])
}

// ---- dataStore ----

func (m *memoryStore) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	return fn(memoryTx{store: m})
}

type memoryTx struct {
	store *memoryStore
}

func (t memoryTx) Users() userStore             { return memoryUserStore{store: t.store} }
func (t memoryTx) Credentials() credentialStore { return memoryCredentialStore{store: t.store} }
func (t memoryTx) Sessions() sessionStore       { return memorySessionStore{store: t.store} }
func (t memoryTx) Factors() factorTxStore       { return memoryFactorStore{store: t.store} }
func (t memoryTx) Audits() auditStore           { return memoryAuditStore{store: t.store} }

type memoryUserStore struct{ store *memoryStore }

func (s memoryUserStore) get(id uuid.UUID) (*domain.User, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	user, ok := s.store.users[id]
	if !ok || !user.IsActive {
		return nil, store.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (s memoryUserStore) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return s.get(id)
}

func (s memoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.store.mu.Lock()
	id, ok := s.store.emailIndex[email]
	s.store.mu.Unlock()
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return s.get(id)
}

func (s memoryUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.store.mu.Lock()
	id, ok := s.store.usernameIdx[username]
	s.store.mu.Unlock()
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return s.get(id)
}

type memoryCredentialStore struct{ store *memoryStore }

func (s memoryCredentialStore) GetPasswordByUserID(ctx context.Context, userID domain.UserID) (*domain.PasswordCredential, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	cred, ok := s.store.credentials[userID]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copied := *cred
	return &copied, nil
}

func (s memoryCredentialStore) UpsertPassword(ctx context.Context, c *domain.PasswordCredential) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	copied := *c
	s.store.credentials[c.UserID] = &copied
	return nil
}

type memorySessionStore struct{ store *memoryStore }

func (s memorySessionStore) Create(ctx context.Context, sess *domain.Session) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	copied := *sess
	s.store.sessions[sess.ID] = &copied
	return nil
}

func (s memorySessionStore) GetByID(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	sess, ok := s.store.sessions[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copied := *sess
	return &copied, nil
}

type memoryFactorStore struct{ store *memoryStore }

func (s memoryFactorStore) EnrolledByUser(ctx context.Context, userID domain.UserID) ([]domain.AuthFactor, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return append([]domain.AuthFactor(nil), s.store.enrolled[userID]...), nil
}

func (s memoryFactorStore) RequireForSession(ctx context.Context, sessionID domain.SessionID, factors []domain.AuthFactor) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, f := range factors {
		s.store.pending[sessionID] = append(s.store.pending[sessionID], domain.SessionAuthFactor{
			SessionID: sessionID,
			FactorID:  f.ID,
			Kind:      f.Kind,
		})
	}
	return nil
}

func (s memoryFactorStore) PendingBySession(ctx context.Context, sessionID domain.SessionID) ([]domain.SessionAuthFactor, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return append([]domain.SessionAuthFactor(nil), s.store.pending[sessionID]...), nil
}

func (s memoryFactorStore) Satisfy(ctx context.Context, sessionID domain.SessionID, kind domain.FactorKind) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	kept := s.store.pending[sessionID][:0]
	for _, row := range s.store.pending[sessionID] {
		if row.Kind != kind {
			kept = append(kept, row)
		}
	}
	s.store.pending[sessionID] = kept
	return nil
}

type memoryAuditStore struct{ store *memoryStore }

func (s memoryAuditStore) Record(ctx context.Context, log *domain.AuditLog) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.audits = append(s.store.audits, *log)
	return nil
}

// memoryFactorRegistry adapts memoryStore to the registry's factorStore.
type memoryFactorRegistry struct{ store *memoryStore }

func (r memoryFactorRegistry) EnrolledByUser(ctx context.Context, userID domain.UserID) ([]domain.AuthFactor, error) {
	return memoryFactorStore{store: r.store}.EnrolledByUser(ctx, userID)
}

func (r memoryFactorRegistry) RequireForSession(ctx context.Context, sessionID domain.SessionID, factors []domain.AuthFactor) error {
	return memoryFactorStore{store: r.store}.RequireForSession(ctx, sessionID, factors)
}

func (r memoryFactorRegistry) PendingBySession(ctx context.Context, sessionID domain.SessionID) ([]domain.SessionAuthFactor, error) {
	return memoryFactorStore{store: r.store}.PendingBySession(ctx, sessionID)
}

func (r memoryFactorRegistry) Satisfy(ctx context.Context, sessionID domain.SessionID, kind domain.FactorKind) error {
	return memoryFactorStore{store: r.store}.Satisfy(ctx, sessionID, kind)
}

// memoryOtpUsers implements the OTP verifier's conditional step advance.
type memoryOtpUsers struct{ store *memoryStore }

func (s memoryOtpUsers) AdvanceOtpStep(ctx context.Context, userID domain.UserID, step int64) (bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	user, ok := s.store.users[userID]
	if !ok {
		return false, nil
	}
	if user.LastOtpStep != nil && *user.LastOtpStep >= step {
		return false, nil
	}
	user.LastOtpStep = &step
	return true, nil
}

// memoryBackupTokens implements delete-on-use.
type memoryBackupTokens struct{ store *memoryStore }

func (s memoryBackupTokens) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.BackupToken, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return append([]domain.BackupToken(nil), s.store.backup[userID]...), nil
}

func (s memoryBackupTokens) Consume(ctx context.Context, id domain.TokenID) (bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for userID, pool := range s.store.backup {
		for i, token := range pool {
			if token.ID == id {
				s.store.backup[userID] = append(pool[:i:i], pool[i+1:]...)
				return true, nil
			}
		}
	}
	return false, nil
}

// ---- stubs ----

type stubPasswordService struct{}

func (stubPasswordService) Hash(password string) (hash, salt, paramsJSON []byte, algo string, ver int, err error) {
	return []byte(password), nil, nil, "plain-test", 1, nil
}

func (stubPasswordService) Verify(password string, cred *domain.PasswordCredential) (rehashNeeded bool, ok bool) {
	return false, cred != nil && string(cred.Hash) == password
}

type stubTokenService struct {
	issued  int
	revoked []domain.SessionID
}

func (s *stubTokenService) Issue(ctx context.Context, user *domain.User, sess *domain.Session) (*dto.TokenResponse, error) {
	s.issued++
	return &dto.TokenResponse{
		AccessToken:  "access-" + sess.ID.String(),
		RefreshToken: "refresh-" + sess.RefreshID.String(),
		ExpiresIn:    900,
	}, nil
}

func (s *stubTokenService) Refresh(ctx context.Context, refreshToken string, ip, ua string) (*dto.TokenResponse, error) {
	return nil, domain.ErrSessionNotFound
}

func (s *stubTokenService) RevokeSession(ctx context.Context, sessionID domain.SessionID) error {
	s.revoked = append(s.revoked, sessionID)
	return nil
}

func (s *stubTokenService) ParseAccess(tokenStr string) (domain.SessionID, domain.UserID, error) {
	return uuid.Nil, uuid.Nil, domain.ErrSessionNotFound
}

// stubIdentityService answers the login-time context capture with fixed ids.
type stubIdentityService struct {
	school *domain.School
	class  *domain.Class
}

func (s stubIdentityService) ResolveRole(ctx context.Context, userID domain.UserID) (domain.Role, error) {
	return domain.Role{}, nil
}

func (s stubIdentityService) ResolveTeacher(ctx context.Context, userID domain.UserID) (*domain.Teacher, error) {
	return nil, nil
}

func (s stubIdentityService) ResolveStudent(ctx context.Context, userID domain.UserID) (*domain.Student, error) {
	return nil, nil
}

func (s stubIdentityService) ResolveSchool(ctx context.Context, userID domain.UserID) (*domain.School, error) {
	return s.school, nil
}

func (s stubIdentityService) ResolveClass(ctx context.Context, userID domain.UserID) (*domain.Class, error) {
	return s.class, nil
}

func pinnedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
