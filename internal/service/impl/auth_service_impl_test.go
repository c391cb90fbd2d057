package impl

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"eduauth/internal/domain"
	"eduauth/internal/dto"
	"eduauth/internal/observability/metrics"
	"eduauth/internal/otp"
	"eduauth/internal/service"

	"github.com/google/uuid"
)

func TestMain(m *testing.M) {
	metrics.MustRegister("eduauth-test")
	os.Exit(m.Run())
}

var testClock = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAuthService(m *memoryStore) (*AuthServiceImpl, *stubTokenService) {
	tokens := &stubTokenService{}
	a := &AuthServiceImpl{
		Store:           m,
		PasswordService: stubPasswordService{},
		Identity:        stubIdentityService{},
		Factors:         &FactorServiceImpl{Factors: memoryFactorRegistry{store: m}},
		Tokens:          tokens,
		SessionTTL:      time.Hour,
		Now:             pinnedClock(testClock),
		verifiers: map[domain.FactorKind]service.SecondFactorVerifier{
			domain.FactorOTP:         &OTPVerifier{Users: memoryOtpUsers{store: m}},
			domain.FactorBackupToken: &BackupTokenVerifier{Tokens: memoryBackupTokens{store: m}},
		},
	}
	return a, tokens
}

func newActiveUser(email, username string) *domain.User {
	return &domain.User{ID: uuid.New(), Email: email, Username: username, IsActive: true}
}

func TestLoginWithoutFactorsIssuesTokens(t *testing.T) {
	m := newMemoryStore()
	user := newActiveUser("alice@example.com", "alice")
	m.addUser(user, "hunter2")
	a, tokens := newTestAuthService(m)

	out, err := a.Login(context.Background(), dto.LoginRequest{
		EmailOrUsername: "alice@example.com",
		Password:        "hunter2",
	}, "192.0.2.1", "test-agent")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if out.Tokens == nil {
		t.Fatal("expected tokens for a user without second factors")
	}
	if len(out.PendingFactors) != 0 {
		t.Fatalf("expected no pending factors, got %v", out.PendingFactors)
	}
	if tokens.issued != 1 {
		t.Fatalf("expected 1 token issue, got %d", tokens.issued)
	}

	sessionID := uuid.MustParse(out.SessionID)
	authed, err := a.IsAuthenticated(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("IsAuthenticated: %v", err)
	}
	if !authed {
		t.Fatal("session with no pending factors must report authenticated")
	}
}

func TestLoginByUsername(t *testing.T) {
	m := newMemoryStore()
	user := newActiveUser("bob@example.com", "bob")
	m.addUser(user, "hunter2")
	a, _ := newTestAuthService(m)

	out, err := a.Login(context.Background(), dto.LoginRequest{
		EmailOrUsername: "bob",
		Password:        "hunter2",
	}, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if out.Tokens == nil {
		t.Fatal("expected tokens")
	}
}

func TestLoginWrongPasswordCreatesNothing(t *testing.T) {
	m := newMemoryStore()
	m.addUser(newActiveUser("alice@example.com", "alice"), "hunter2")
	a, tokens := newTestAuthService(m)

	_, err := a.Login(context.Background(), dto.LoginRequest{
		EmailOrUsername: "alice@example.com",
		Password:        "wrong",
	}, "", "")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if m.sessionCount() != 0 {
		t.Fatalf("failed login must create no session, found %d", m.sessionCount())
	}
	if tokens.issued != 0 {
		t.Fatalf("failed login must issue no tokens, issued %d", tokens.issued)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	m := newMemoryStore()
	a, _ := newTestAuthService(m)

	_, err := a.Login(context.Background(), dto.LoginRequest{
		EmailOrUsername: "nobody@example.com",
		Password:        "hunter2",
	}, "", "")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginInactiveUserRejected(t *testing.T) {
	m := newMemoryStore()
	user := newActiveUser("gone@example.com", "gone")
	user.IsActive = false
	m.addUser(user, "hunter2")
	a, _ := newTestAuthService(m)

	_, err := a.Login(context.Background(), dto.LoginRequest{
		EmailOrUsername: "gone@example.com",
		Password:        "hunter2",
	}, "", "")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for inactive user, got %v", err)
	}
}

func TestLoginRecordsIdentityContext(t *testing.T) {
	m := newMemoryStore()
	user := newActiveUser("carol@example.com", "carol")
	m.addUser(user, "hunter2")
	a, _ := newTestAuthService(m)
	school := &domain.School{ID: uuid.New(), Name: "Hill Valley High"}
	a.Identity = stubIdentityService{school: school}

	out, err := a.Login(context.Background(), dto.LoginRequest{
		EmailOrUsername: "carol@example.com",
		Password:        "hunter2",
	}, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	sess := m.sessions[uuid.MustParse(out.SessionID)]
	if sess.SchoolID == nil || *sess.SchoolID != school.ID {
		t.Fatal("session must capture the school active at login")
	}
}

func TestLoginWithOTPFactorIsPending(t *testing.T) {
	m := newMemoryStore()
	user := newActiveUser("dave@example.com", "dave")
	user.OtpSecret = []byte("12345678901234567890")
	m.addUser(user, "hunter2")
	m.enroll(user.ID, domain.FactorOTP)
	a, tokens := newTestAuthService(m)

	out, err := a.Login(context.Background(), dto.LoginRequest{
		EmailOrUsername: "dave@example.com",
		Password:        "hunter2",
	}, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if out.Tokens != nil {
		t.Fatal("no tokens may be issued while a factor is pending")
	}
	if len(out.PendingFactors) != 1 || out.PendingFactors[0] != "otp" {
		t.Fatalf("expected pending [otp], got %v", out.PendingFactors)
	}
	if tokens.issued != 0 {
		t.Fatalf("expected 0 token issues, got %d", tokens.issued)
	}

	authed, err := a.IsAuthenticated(context.Background(), uuid.MustParse(out.SessionID))
	if err != nil {
		t.Fatalf("IsAuthenticated: %v", err)
	}
	if authed {
		t.Fatal("session owing a factor must not report authenticated")
	}
}

func TestSubmitSecondFactorOTP(t *testing.T) {
	m := newMemoryStore()
	secret := []byte("12345678901234567890")
	user := newActiveUser("erin@example.com", "erin")
	user.OtpSecret = secret
	m.addUser(user, "hunter2")
	m.enroll(user.ID, domain.FactorOTP)
	a, _ := newTestAuthService(m)

	login, err := a.Login(context.Background(), dto.LoginRequest{
		EmailOrUsername: "erin@example.com",
		Password:        "hunter2",
	}, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	good := otp.TOTP(secret, testClock)
	bad := "000000"
	if bad == good {
		bad = "000001"
	}

	// A wrong code consumes nothing.
	_, err = a.SubmitSecondFactor(context.Background(), dto.SecondFactorRequest{
		SessionID: login.SessionID,
		Kind:      "otp",
		Secret:    bad,
	}, "", "")
	if !errors.Is(err, domain.ErrInvalidSecondFactor) {
		t.Fatalf("expected ErrInvalidSecondFactor, got %v", err)
	}
	authed, _ := a.IsAuthenticated(context.Background(), uuid.MustParse(login.SessionID))
	if authed {
		t.Fatal("failed submission must leave the factor pending")
	}

	// The right code satisfies the factor and issues tokens.
	out, err := a.SubmitSecondFactor(context.Background(), dto.SecondFactorRequest{
		SessionID: login.SessionID,
		Kind:      "otp",
		Secret:    good,
	}, "", "")
	if err != nil {
		t.Fatalf("SubmitSecondFactor: %v", err)
	}
	if out.Tokens == nil {
		t.Fatal("expected tokens after the last factor is satisfied")
	}
	authed, _ = a.IsAuthenticated(context.Background(), uuid.MustParse(login.SessionID))
	if !authed {
		t.Fatal("session must be authenticated after the last factor")
	}
}

func TestOTPCodeNeverVerifiesTwicePerStep(t *testing.T) {
	m := newMemoryStore()
	secret := []byte("12345678901234567890")
	user := newActiveUser("frank@example.com", "frank")
	user.OtpSecret = secret
	m.addUser(user, "hunter2")
	m.enroll(user.ID, domain.FactorOTP)
	a, _ := newTestAuthService(m)

	code := otp.TOTP(secret, testClock)
	ctx := context.Background()

	first, err := a.Login(ctx, dto.LoginRequest{EmailOrUsername: "frank", Password: "hunter2"}, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := a.SubmitSecondFactor(ctx, dto.SecondFactorRequest{
		SessionID: first.SessionID, Kind: "otp", Secret: code,
	}, "", ""); err != nil {
		t.Fatalf("first submission: %v", err)
	}

	// A second session within the same time-step replays the same code.
	second, err := a.Login(ctx, dto.LoginRequest{EmailOrUsername: "frank", Password: "hunter2"}, "", "")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	_, err = a.SubmitSecondFactor(ctx, dto.SecondFactorRequest{
		SessionID: second.SessionID, Kind: "otp", Secret: code,
	}, "", "")
	if !errors.Is(err, domain.ErrInvalidSecondFactor) {
		t.Fatalf("replayed code must be rejected, got %v", err)
	}

	// The next time-step yields a fresh accepting code.
	a.Now = pinnedClock(testClock.Add(otp.StepSeconds * time.Second))
	next := otp.TOTP(secret, testClock.Add(otp.StepSeconds*time.Second))
	if _, err := a.SubmitSecondFactor(ctx, dto.SecondFactorRequest{
		SessionID: second.SessionID, Kind: "otp", Secret: next,
	}, "", ""); err != nil {
		t.Fatalf("next-step code: %v", err)
	}
}

func TestBackupTokenSatisfiesOTPOnce(t *testing.T) {
	m := newMemoryStore()
	user := newActiveUser("grace@example.com", "grace")
	user.OtpSecret = []byte("12345678901234567890")
	m.addUser(user, "hunter2")
	m.enroll(user.ID, domain.FactorOTP)
	m.addBackupTokens(user.ID, [][]byte{
		HashBackupToken("aaaa2222"),
		HashBackupToken("bbbb3333"),
	})
	a, _ := newTestAuthService(m)
	ctx := context.Background()

	first, err := a.Login(ctx, dto.LoginRequest{EmailOrUsername: "grace", Password: "hunter2"}, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	out, err := a.SubmitSecondFactor(ctx, dto.SecondFactorRequest{
		SessionID: first.SessionID, Kind: "backup_token", Secret: "aaaa2222",
	}, "", "")
	if err != nil {
		t.Fatalf("backup token submission: %v", err)
	}
	if out.Tokens == nil {
		t.Fatal("backup token must satisfy the pending otp factor")
	}
	if got := m.backupCount(user.ID); got != 1 {
		t.Fatalf("used token must be deleted, pool has %d", got)
	}

	second, err := a.Login(ctx, dto.LoginRequest{EmailOrUsername: "grace", Password: "hunter2"}, "", "")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	_, err = a.SubmitSecondFactor(ctx, dto.SecondFactorRequest{
		SessionID: second.SessionID, Kind: "backup_token", Secret: "aaaa2222",
	}, "", "")
	if !errors.Is(err, domain.ErrInvalidSecondFactor) {
		t.Fatalf("reused backup token must be rejected, got %v", err)
	}
	if got := m.backupCount(user.ID); got != 1 {
		t.Fatalf("failed submission must not touch the pool, has %d", got)
	}
}

func TestSubmitSecondFactorUnknownKind(t *testing.T) {
	m := newMemoryStore()
	user := newActiveUser("henry@example.com", "henry")
	user.OtpSecret = []byte("12345678901234567890")
	m.addUser(user, "hunter2")
	m.enroll(user.ID, domain.FactorOTP)
	a, _ := newTestAuthService(m)

	login, err := a.Login(context.Background(), dto.LoginRequest{EmailOrUsername: "henry", Password: "hunter2"}, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	_, err = a.SubmitSecondFactor(context.Background(), dto.SecondFactorRequest{
		SessionID: login.SessionID, Kind: "sms", Secret: "123456",
	}, "", "")
	if !errors.Is(err, domain.ErrInvalidSecondFactor) {
		t.Fatalf("unknown kind must be rejected like a bad secret, got %v", err)
	}
}

func TestSubmitSecondFactorNotOwed(t *testing.T) {
	m := newMemoryStore()
	user := newActiveUser("iris@example.com", "iris")
	user.OtpSecret = []byte("12345678901234567890")
	m.addUser(user, "hunter2")
	// No enrollment, so the session never owes otp.
	a, _ := newTestAuthService(m)

	login, err := a.Login(context.Background(), dto.LoginRequest{EmailOrUsername: "iris", Password: "hunter2"}, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	code := otp.TOTP(user.OtpSecret, testClock)
	_, err = a.SubmitSecondFactor(context.Background(), dto.SecondFactorRequest{
		SessionID: login.SessionID, Kind: "otp", Secret: code,
	}, "", "")
	if !errors.Is(err, domain.ErrInvalidSecondFactor) {
		t.Fatalf("a factor the session does not owe must be rejected, got %v", err)
	}
}

func TestSubmitSecondFactorExpiredSession(t *testing.T) {
	m := newMemoryStore()
	user := newActiveUser("judy@example.com", "judy")
	user.OtpSecret = []byte("12345678901234567890")
	m.addUser(user, "hunter2")
	m.enroll(user.ID, domain.FactorOTP)
	a, _ := newTestAuthService(m)
	a.SessionTTL = -time.Minute

	login, err := a.Login(context.Background(), dto.LoginRequest{EmailOrUsername: "judy", Password: "hunter2"}, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	code := otp.TOTP(user.OtpSecret, testClock)
	_, err = a.SubmitSecondFactor(context.Background(), dto.SecondFactorRequest{
		SessionID: login.SessionID, Kind: "otp", Secret: code,
	}, "", "")
	if !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestSubmitSecondFactorUnknownSession(t *testing.T) {
	m := newMemoryStore()
	a, _ := newTestAuthService(m)

	_, err := a.SubmitSecondFactor(context.Background(), dto.SecondFactorRequest{
		SessionID: uuid.NewString(), Kind: "otp", Secret: "123456",
	}, "", "")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	_, err = a.SubmitSecondFactor(context.Background(), dto.SecondFactorRequest{
		SessionID: "not-a-uuid", Kind: "otp", Secret: "123456",
	}, "", "")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("malformed session id must map to ErrSessionNotFound, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	m := newMemoryStore()
	user := newActiveUser("kate@example.com", "kate")
	m.addUser(user, "hunter2")
	a, tokens := newTestAuthService(m)

	login, err := a.Login(context.Background(), dto.LoginRequest{EmailOrUsername: "kate", Password: "hunter2"}, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	sessionID := uuid.MustParse(login.SessionID)
	if err := a.Logout(context.Background(), sessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(tokens.revoked) != 1 || tokens.revoked[0] != sessionID {
		t.Fatalf("expected session %s revoked, got %v", sessionID, tokens.revoked)
	}

	// Logging out an unknown session is a no-op.
	if err := a.Logout(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Logout of unknown session: %v", err)
	}
}
