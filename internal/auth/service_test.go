package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pranaynookala001/securedocs/internal/audit"
	"github.com/pranaynookala001/securedocs/internal/models"
	"github.com/pranaynookala001/securedocs/internal/password"
	"github.com/pranaynookala001/securedocs/internal/store"
	"github.com/pranaynookala001/securedocs/internal/threat"
	"github.com/pranaynookala001/securedocs/internal/token"
)

// --- fakes ---

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User

	byIdentifierCalls int
	incrementCalls    int
	recordLoginCalls  int
	setLockCalls      int

	incrementErr error
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[uuid.UUID]*models.User{}}
}

func (m *memUsers) add(u *models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return u
}

func (m *memUsers) ByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byIdentifierCalls++
	for _, u := range m.users {
		if u.Username == identifier || u.Email == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) ByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) EmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) IncrementFailedLogins(_ context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incrementCalls++
	if m.incrementErr != nil {
		return 0, m.incrementErr
	}
	u, ok := m.users[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	u.FailedLoginAttempts++
	return u.FailedLoginAttempts, nil
}

func (m *memUsers) RecordLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordLoginCalls++
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &at
	return nil
}

func (m *memUsers) SetLock(_ context.Context, id uuid.UUID, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLockCalls++
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.LockedUntil = &until
	return nil
}

func (m *memUsers) ClearLock(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.LockedUntil = nil
	u.FailedLoginAttempts = 0
	return nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = &at
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.Session

	createCalls int
	rotateCalls int
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[uuid.UUID]*models.Session{}}
}

func (m *memSessions) Create(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	m.sessions[session.ID] = session
	return nil
}

func (m *memSessions) ByTokenHash(_ context.Context, digest string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.IsActive && s.RefreshTokenHash == digest {
			cp := *s
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memSessions) Rotate(_ context.Context, id uuid.UUID, oldDigest, newDigest string, expiresAt, activityAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotateCalls++
	s, ok := m.sessions[id]
	if !ok || !s.IsActive || s.RefreshTokenHash != oldDigest {
		return false, nil
	}
	s.RefreshTokenHash = newDigest
	s.ExpiresAt = expiresAt
	s.LastActivityAt = &activityAt
	return true, nil
}

func (m *memSessions) Deactivate(_ context.Context, userID uuid.UUID, digest string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && s.RefreshTokenHash == digest && s.IsActive {
			s.IsActive = false
			return true, nil
		}
	}
	return false, nil
}

type fakeGate struct {
	tier     threat.Tier
	failures []string
	err      error
}

func (g *fakeGate) Classify(context.Context, string) threat.Tier { return g.tier }

func (g *fakeGate) RecordFailure(_ context.Context, ip string) error {
	g.failures = append(g.failures, ip)
	return g.err
}

type memAuditStore struct {
	mu   sync.Mutex
	rows []*models.AuditLog
}

func (m *memAuditStore) Append(_ context.Context, record *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, record)
	return nil
}

func (m *memAuditStore) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.Action
	}
	return out
}

// --- fixture ---

type fixture struct {
	svc      *Service
	users    *memUsers
	sessions *memSessions
	gate     *fakeGate
	trail    *memAuditStore
	hasher   *password.Hasher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hasher, err := password.New(password.Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}

	tokens, err := token.NewManager(token.Config{
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
		Issuer:     "securedocs",
		Audience:   "securedocs-clients",
		AccessTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	users := newMemUsers()
	sessions := newMemSessions()
	gate := &fakeGate{tier: threat.TierLow}
	trail := &memAuditStore{}

	svc := NewService(
		users,
		sessions,
		audit.NewRecorder(trail, nil, zerolog.Nop()),
		gate,
		hasher,
		tokens,
		nil,
		zerolog.Nop(),
		DefaultConfig(),
	)
	return &fixture{svc: svc, users: users, sessions: sessions, gate: gate, trail: trail, hasher: hasher}
}

func (f *fixture) seedUser(t *testing.T, username, pass string) *models.User {
	t.Helper()
	hash, err := f.hasher.Hash(pass)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return f.users.add(&models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         models.RoleViewer,
		IsActive:     true,
	})
}

func requireFailure(t *testing.T, fail *Failure, kind FailureKind, message string) {
	t.Helper()
	if fail == nil {
		t.Fatal("expected a failure, got success")
	}
	if fail.Kind != kind {
		t.Fatalf("failure kind = %v, want %v", fail.Kind, kind)
	}
	if fail.Message != message {
		t.Fatalf("failure message = %q, want %q", fail.Message, message)
	}
}

// --- login ---

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "alice", "Passw0rd!")

	pair, got, fail := f.svc.Login(context.Background(), "alice", "Passw0rd!", "203.0.113.9", "go-test")
	if fail != nil {
		t.Fatalf("login failed: %v", fail)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if pair.ExpiresIn != 3600 {
		t.Fatalf("expiresIn = %d, want 3600", pair.ExpiresIn)
	}
	if got.ID != user.ID {
		t.Fatalf("returned user %s, want %s", got.ID, user.ID)
	}
	if got.LastLoginAt == nil {
		t.Fatal("last login not recorded")
	}
	if f.sessions.createCalls != 1 {
		t.Fatalf("session creates = %d, want 1", f.sessions.createCalls)
	}

	actions := f.trail.actions()
	if len(actions) != 1 || actions[0] != audit.ActionLoginSuccess {
		t.Fatalf("audit trail = %v, want exactly [Login_Success]", actions)
	}
}

func TestLoginByEmail(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "Passw0rd!")

	_, _, fail := f.svc.Login(context.Background(), "alice@example.com", "Passw0rd!", "203.0.113.9", "")
	if fail != nil {
		t.Fatalf("login by email failed: %v", fail)
	}
}

func TestLoginUnknownUserAndWrongPasswordAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "Passw0rd!")

	_, _, unknownFail := f.svc.Login(context.Background(), "nobody", "whatever1", "203.0.113.9", "")
	_, _, wrongFail := f.svc.Login(context.Background(), "alice", "wrong-pass", "203.0.113.9", "")

	requireFailure(t, unknownFail, FailureUnauthorized, msgInvalidCredentials)
	requireFailure(t, wrongFail, FailureUnauthorized, msgInvalidCredentials)
	if unknownFail.Message != wrongFail.Message {
		t.Fatal("unknown-user and wrong-password messages must be identical")
	}
}

func TestLoginWrongPasswordIncrementsAndAudits(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "alice", "Passw0rd!")

	_, _, fail := f.svc.Login(context.Background(), "alice", "wrong-pass", "203.0.113.9", "")
	requireFailure(t, fail, FailureUnauthorized, msgInvalidCredentials)

	if f.users.incrementCalls != 1 {
		t.Fatalf("increment calls = %d, want 1", f.users.incrementCalls)
	}
	if f.users.users[user.ID].FailedLoginAttempts != 1 {
		t.Fatalf("failed attempts = %d, want 1", f.users.users[user.ID].FailedLoginAttempts)
	}
	if len(f.gate.failures) != 1 {
		t.Fatalf("gate failures = %d, want 1", len(f.gate.failures))
	}

	actions := f.trail.actions()
	if len(actions) != 1 || actions[0] != audit.ActionLoginFailed {
		t.Fatalf("audit trail = %v, want exactly [Login_Failed]", actions)
	}
}

func TestLoginLocksAtThreshold(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "alice", "Passw0rd!")

	var fail *Failure
	for i := 0; i < 5; i++ {
		_, _, fail = f.svc.Login(context.Background(), "alice", "wrong-pass", "203.0.113.9", "")
	}
	requireFailure(t, fail, FailureUnauthorized, msgLockedTooMany)

	if f.users.setLockCalls != 1 {
		t.Fatalf("lock calls = %d, want 1", f.users.setLockCalls)
	}
	if f.users.users[user.ID].LockedUntil == nil {
		t.Fatal("lock not set")
	}

	// Correct password while locked still fails, pre-verification.
	calls := f.users.incrementCalls
	_, _, fail = f.svc.Login(context.Background(), "alice", "Passw0rd!", "203.0.113.9", "")
	requireFailure(t, fail, FailureUnauthorized, msgAccountLocked)
	if f.users.incrementCalls != calls {
		t.Fatal("locked branch must not touch the failure counter")
	}
}

func TestLoginAfterLockExpiry(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "alice", "Passw0rd!")
	past := time.Now().Add(-time.Minute)
	user.LockedUntil = &past
	user.FailedLoginAttempts = 5

	_, _, fail := f.svc.Login(context.Background(), "alice", "Passw0rd!", "203.0.113.9", "")
	if fail != nil {
		t.Fatalf("login after lock expiry failed: %v", fail)
	}
	if f.users.users[user.ID].FailedLoginAttempts != 0 {
		t.Fatal("success must reset the failure counter")
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "alice", "Passw0rd!")
	user.IsActive = false

	_, _, fail := f.svc.Login(context.Background(), "alice", "Passw0rd!", "203.0.113.9", "")
	requireFailure(t, fail, FailureUnauthorized, msgAccountInactive)

	actions := f.trail.actions()
	if len(actions) != 1 || actions[0] != audit.ActionLoginBlockedInactive {
		t.Fatalf("audit trail = %v, want exactly [Login_Blocked_Inactive]", actions)
	}
}

func TestLoginThreatBlockSkipsAccountLookup(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "Passw0rd!")
	f.gate.tier = threat.TierHigh

	_, _, fail := f.svc.Login(context.Background(), "alice", "Passw0rd!", "198.51.100.7", "")
	requireFailure(t, fail, FailureUnauthorized, msgTemporarilyBlocked)

	if f.users.byIdentifierCalls != 0 {
		t.Fatalf("account lookups = %d, want 0 under a blocking tier", f.users.byIdentifierCalls)
	}

	actions := f.trail.actions()
	if len(actions) != 1 || actions[0] != audit.ActionLoginBlockedThreat {
		t.Fatalf("audit trail = %v, want exactly [Login_Blocked_Threat]", actions)
	}
}

func TestLoginGateErrorDoesNotBreakFailurePath(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "Passw0rd!")
	f.gate.err = errors.New("redis down")

	_, _, fail := f.svc.Login(context.Background(), "alice", "wrong-pass", "203.0.113.9", "")
	requireFailure(t, fail, FailureUnauthorized, msgInvalidCredentials)
}

func TestLoginCounterStoreErrorIsInternal(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "Passw0rd!")
	f.users.incrementErr = errors.New("connection reset")

	_, _, fail := f.svc.Login(context.Background(), "alice", "wrong-pass", "203.0.113.9", "")
	requireFailure(t, fail, FailureInternal, msgInternal)
}

// --- register ---

func TestRegisterIssuesTokensAndViewerRole(t *testing.T) {
	f := newFixture(t)

	pair, user, fail := f.svc.Register(context.Background(), RegisterInput{
		Username:  "bob",
		Email:     "bob@example.com",
		Password:  "Passw0rd!",
		FirstName: "Bob",
		LastName:  "Jones",
	}, "203.0.113.9", "go-test")
	if fail != nil {
		t.Fatalf("register failed: %v", fail)
	}
	if user.Role != models.RoleViewer {
		t.Fatalf("role = %s, want Viewer", user.Role)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}

	// New user can log in with the chosen password.
	_, _, fail = f.svc.Login(context.Background(), "bob", "Passw0rd!", "203.0.113.9", "")
	if fail != nil {
		t.Fatalf("login after register failed: %v", fail)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "Passw0rd!")

	_, _, fail := f.svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "other@example.com", Password: "Passw0rd!",
	}, "", "")
	requireFailure(t, fail, FailureInvalidOperation, "username already exists")

	_, _, fail = f.svc.Register(context.Background(), RegisterInput{
		Username: "alice2", Email: "alice@example.com", Password: "Passw0rd!",
	}, "", "")
	requireFailure(t, fail, FailureInvalidOperation, "email already exists")
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	f := newFixture(t)

	_, _, fail := f.svc.Register(context.Background(), RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "short",
	}, "", "")
	if fail == nil || fail.Kind != FailureInvalidOperation {
		t.Fatalf("short password: got %v, want InvalidOperation failure", fail)
	}
}

// --- refresh ---

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "Passw0rd!")

	first, _, fail := f.svc.Login(context.Background(), "alice", "Passw0rd!", "203.0.113.9", "")
	if fail != nil {
		t.Fatalf("login: %v", fail)
	}

	second, _, fail := f.svc.Refresh(context.Background(), first.RefreshToken, "203.0.113.9")
	if fail != nil {
		t.Fatalf("refresh: %v", fail)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("rotation must produce a new refresh token")
	}
	if second.AccessToken == "" {
		t.Fatal("expected a fresh access token")
	}

	// The consumed token is dead.
	_, _, fail = f.svc.Refresh(context.Background(), first.RefreshToken, "203.0.113.9")
	requireFailure(t, fail, FailureUnauthorized, msgInvalidRefreshToken)

	// The rotated token still works.
	_, _, fail = f.svc.Refresh(context.Background(), second.RefreshToken, "203.0.113.9")
	if fail != nil {
		t.Fatalf("refresh with rotated token: %v", fail)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	f := newFixture(t)

	_, _, fail := f.svc.Refresh(context.Background(), "never-issued", "203.0.113.9")
	requireFailure(t, fail, FailureUnauthorized, msgInvalidRefreshToken)
}

func TestRefreshExpiredSession(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "Passw0rd!")

	pair, _, fail := f.svc.Login(context.Background(), "alice", "Passw0rd!", "203.0.113.9", "")
	if fail != nil {
		t.Fatalf("login: %v", fail)
	}
	for _, s := range f.sessions.sessions {
		s.ExpiresAt = time.Now().Add(-time.Minute)
	}

	_, _, fail = f.svc.Refresh(context.Background(), pair.RefreshToken, "203.0.113.9")
	requireFailure(t, fail, FailureUnauthorized, msgInvalidRefreshToken)
}

func TestRefreshLockedAccount(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "alice", "Passw0rd!")

	pair, _, fail := f.svc.Login(context.Background(), "alice", "Passw0rd!", "203.0.113.9", "")
	if fail != nil {
		t.Fatalf("login: %v", fail)
	}
	until := time.Now().Add(time.Hour)
	f.users.users[user.ID].LockedUntil = &until

	_, _, fail = f.svc.Refresh(context.Background(), pair.RefreshToken, "203.0.113.9")
	requireFailure(t, fail, FailureUnauthorized, msgAccountNotUsable)
}

// --- logout ---

func TestLogoutRevokesAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "alice", "Passw0rd!")

	pair, _, fail := f.svc.Login(context.Background(), "alice", "Passw0rd!", "203.0.113.9", "")
	if fail != nil {
		t.Fatalf("login: %v", fail)
	}

	revoked, lfail := f.svc.Logout(context.Background(), user.ID, pair.RefreshToken, "203.0.113.9")
	if lfail != nil {
		t.Fatalf("logout: %v", lfail)
	}
	if !revoked {
		t.Fatal("first logout must revoke")
	}

	// Second logout with the same token succeeds without revoking.
	revoked, lfail = f.svc.Logout(context.Background(), user.ID, pair.RefreshToken, "203.0.113.9")
	if lfail != nil {
		t.Fatalf("repeat logout: %v", lfail)
	}
	if revoked {
		t.Fatal("repeat logout must be a no-op")
	}

	// The revoked token no longer refreshes.
	_, _, rfail := f.svc.Refresh(context.Background(), pair.RefreshToken, "203.0.113.9")
	requireFailure(t, rfail, FailureUnauthorized, msgInvalidRefreshToken)
}

func TestLogoutDoesNotCrossAccounts(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "Passw0rd!")
	other := f.seedUser(t, "mallory", "Passw0rd!")

	pair, _, fail := f.svc.Login(context.Background(), "alice", "Passw0rd!", "203.0.113.9", "")
	if fail != nil {
		t.Fatalf("login: %v", fail)
	}

	revoked, lfail := f.svc.Logout(context.Background(), other.ID, pair.RefreshToken, "203.0.113.9")
	if lfail != nil || revoked {
		t.Fatalf("cross-account logout revoked=%v fail=%v, want no-op", revoked, lfail)
	}
}

// --- change password ---

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "alice", "Passw0rd!")

	if fail := f.svc.ChangePassword(context.Background(), user.ID, "Passw0rd!", "N3wSecret!"); fail != nil {
		t.Fatalf("change password: %v", fail)
	}

	_, _, fail := f.svc.Login(context.Background(), "alice", "N3wSecret!", "203.0.113.9", "")
	if fail != nil {
		t.Fatalf("login with new password: %v", fail)
	}
	_, _, fail = f.svc.Login(context.Background(), "alice", "Passw0rd!", "203.0.113.9", "")
	requireFailure(t, fail, FailureUnauthorized, msgInvalidCredentials)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "alice", "Passw0rd!")

	fail := f.svc.ChangePassword(context.Background(), user.ID, "not-it-at-all", "N3wSecret!")
	requireFailure(t, fail, FailureInvalidOperation, msgWrongCurrentPass)
}

func TestChangePasswordUnknownUser(t *testing.T) {
	f := newFixture(t)

	fail := f.svc.ChangePassword(context.Background(), uuid.New(), "x", "y")
	requireFailure(t, fail, FailureNotFound, "user not found")
}

// --- admin lock / unlock ---

func TestAdminLockAndUnlock(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, "root", "Passw0rd!")
	user := f.seedUser(t, "alice", "Passw0rd!")

	if fail := f.svc.LockUser(context.Background(), admin.ID, user.ID, "policy violation"); fail != nil {
		t.Fatalf("lock: %v", fail)
	}
	_, _, fail := f.svc.Login(context.Background(), "alice", "Passw0rd!", "203.0.113.9", "")
	requireFailure(t, fail, FailureUnauthorized, msgAccountLocked)

	if ufail := f.svc.UnlockUser(context.Background(), admin.ID, user.ID); ufail != nil {
		t.Fatalf("unlock: %v", ufail)
	}
	_, _, fail = f.svc.Login(context.Background(), "alice", "Passw0rd!", "203.0.113.9", "")
	if fail != nil {
		t.Fatalf("login after unlock: %v", fail)
	}
}

// --- validate / current user ---

func TestValidate(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "Passw0rd!")

	pair, _, fail := f.svc.Login(context.Background(), "alice", "Passw0rd!", "203.0.113.9", "")
	if fail != nil {
		t.Fatalf("login: %v", fail)
	}

	if !f.svc.Validate(pair.AccessToken) {
		t.Fatal("issued token must validate")
	}
	if f.svc.Validate("not.a.jwt") {
		t.Fatal("garbage must not validate")
	}
}

func TestCurrentUser(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "alice", "Passw0rd!")

	got, fail := f.svc.CurrentUser(context.Background(), user.ID)
	if fail != nil {
		t.Fatalf("current user: %v", fail)
	}
	if got.Username != "alice" {
		t.Fatalf("username = %q, want alice", got.Username)
	}

	_, fail = f.svc.CurrentUser(context.Background(), uuid.New())
	requireFailure(t, fail, FailureNotFound, "user not found")
}
