// Package auth is the session lifecycle core: credential verification,
// token issuance and rotation, account lockout, and the audit and
// threat-detection hooks that gate login.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pranaynookala001/securedocs/internal/audit"
	"github.com/pranaynookala001/securedocs/internal/metrics"
	"github.com/pranaynookala001/securedocs/internal/models"
	"github.com/pranaynookala001/securedocs/internal/password"
	"github.com/pranaynookala001/securedocs/internal/store"
	"github.com/pranaynookala001/securedocs/internal/threat"
	"github.com/pranaynookala001/securedocs/internal/token"
)

const entityAuthentication = "Authentication"
const entityUser = "User"

// UserStore is the account persistence the service depends on.
type UserStore interface {
	ByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	ByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// IncrementFailedLogins must be atomic with respect to concurrent
	// callers and return the post-increment count.
	IncrementFailedLogins(ctx context.Context, id uuid.UUID) (int, error)
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SetLock(ctx context.Context, id uuid.UUID, until time.Time) error
	ClearLock(ctx context.Context, id uuid.UUID) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, at time.Time) error
}

// SessionStore is the refresh-grant persistence the service depends on.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	ByTokenHash(ctx context.Context, digest string) (*models.Session, error)
	// Rotate must be a compare-and-swap on the old digest.
	Rotate(ctx context.Context, id uuid.UUID, oldDigest, newDigest string, expiresAt, activityAt time.Time) (bool, error)
	Deactivate(ctx context.Context, userID uuid.UUID, digest string) (bool, error)
}

// Config holds the lockout and token lifetime policy.
type Config struct {
	LockoutThreshold int
	LockoutDuration  time.Duration
	RefreshTTL       time.Duration
}

// DefaultConfig returns the production policy: five strikes, one-hour
// lock, thirty-day refresh grants.
func DefaultConfig() Config {
	return Config{
		LockoutThreshold: 5,
		LockoutDuration:  time.Hour,
		RefreshTTL:       30 * 24 * time.Hour,
	}
}

// TokenPair is a successful authentication result.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// RegisterInput carries the registration request fields.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Service is the session manager. All operations are request-scoped
// and safe for concurrent use; the only cross-request mutable state is
// what the stores hold.
type Service struct {
	users    UserStore
	sessions SessionStore
	audit    *audit.Recorder
	gate     threat.Gate
	hasher   *password.Hasher
	tokens   *token.Manager
	metrics  *metrics.Auth
	log      zerolog.Logger
	cfg      Config
	now      func() time.Time
}

// NewService wires the session manager.
func NewService(
	users UserStore,
	sessions SessionStore,
	recorder *audit.Recorder,
	gate threat.Gate,
	hasher *password.Hasher,
	tokens *token.Manager,
	auth *metrics.Auth,
	log zerolog.Logger,
	cfg Config,
) *Service {
	if cfg.LockoutThreshold <= 0 {
		cfg.LockoutThreshold = DefaultConfig().LockoutThreshold
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = DefaultConfig().LockoutDuration
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultConfig().RefreshTTL
	}
	return &Service{
		users:    users,
		sessions: sessions,
		audit:    recorder,
		gate:     gate,
		hasher:   hasher,
		tokens:   tokens,
		metrics:  auth,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Login verifies credentials and issues a token pair. Branch order is
// fixed: threat gate, account lookup, lock check, active check,
// password check, issuance. Exactly one audit record is written per
// branch, after the store mutation for that branch and before return.
func (s *Service) Login(ctx context.Context, identifier, pass, ip, userAgent string) (*TokenPair, *models.User, *Failure) {
	now := s.now()

	tier := s.gate.Classify(ctx, ip)
	if tier.Blocking() {
		s.metrics.LoginBlocked(tier.String())
		s.audit.Record(ctx, audit.Event{
			Actor:         audit.ActorAnonymous,
			Action:        audit.ActionLoginBlockedThreat,
			EntityType:    entityAuthentication,
			Severity:      audit.SeverityWarning,
			Description:   "login blocked at threat tier " + tier.String(),
			IP:            ip,
			UserAgent:     userAgent,
			SecurityEvent: true,
		})
		// No account lookup: existence must not leak under active abuse.
		return nil, nil, unauthorized(msgTemporarilyBlocked)
	}

	user, err := s.users.ByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.noteFailedOrigin(ctx, ip)
			s.metrics.LoginFailure()
			s.audit.Record(ctx, audit.Event{
				Actor:         audit.ActorAnonymous,
				Action:        audit.ActionLoginFailed,
				EntityType:    entityAuthentication,
				Severity:      audit.SeverityWarning,
				Description:   "failed login attempt: unknown identifier",
				IP:            ip,
				UserAgent:     userAgent,
				SecurityEvent: true,
				Metadata:      map[string]string{"identifier": identifier},
			})
			return nil, nil, unauthorized(msgInvalidCredentials)
		}
		return nil, nil, s.internalFailure(err, "login: account lookup")
	}

	if user.Locked(now) {
		s.audit.Record(ctx, audit.Event{
			Actor:         user.ID.String(),
			Action:        audit.ActionLoginBlockedLocked,
			EntityType:    entityAuthentication,
			Severity:      audit.SeverityWarning,
			Description:   "login attempt for locked account",
			IP:            ip,
			UserAgent:     userAgent,
			SecurityEvent: true,
		})
		return nil, nil, unauthorized(msgAccountLocked)
	}

	if !user.IsActive {
		s.audit.Record(ctx, audit.Event{
			Actor:       user.ID.String(),
			Action:      audit.ActionLoginBlockedInactive,
			EntityType:  entityAuthentication,
			Severity:    audit.SeverityWarning,
			Description: "login attempt for inactive account",
			IP:          ip,
			UserAgent:   userAgent,
		})
		return nil, nil, unauthorized(msgAccountInactive)
	}

	ok, err := s.hasher.Verify(pass, user.PasswordHash)
	if err != nil {
		return nil, nil, s.internalFailure(err, "login: password verify")
	}
	if !ok {
		return nil, nil, s.failLogin(ctx, user, ip, userAgent)
	}

	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, nil, s.internalFailure(err, "login: record login")
	}
	user.FailedLoginAttempts = 0
	user.LastLoginAt = &now

	pair, fail := s.issuePair(ctx, user, ip, userAgent)
	if fail != nil {
		return nil, nil, fail
	}

	s.metrics.LoginSuccess()
	s.audit.Record(ctx, audit.Event{
		Actor:       user.ID.String(),
		Action:      audit.ActionLoginSuccess,
		EntityType:  entityAuthentication,
		Description: "successful login for " + user.Username,
		IP:          ip,
		UserAgent:   userAgent,
	})
	return pair, user, nil
}

// failLogin handles the wrong-password branch: atomic counter bump,
// threshold check, lockout, audit.
func (s *Service) failLogin(ctx context.Context, user *models.User, ip, userAgent string) *Failure {
	s.noteFailedOrigin(ctx, ip)

	count, err := s.users.IncrementFailedLogins(ctx, user.ID)
	if err != nil {
		return s.internalFailure(err, "login: increment failed attempts")
	}

	s.metrics.LoginFailure()
	s.audit.Record(ctx, audit.Event{
		Actor:         user.ID.String(),
		Action:        audit.ActionLoginFailed,
		EntityType:    entityAuthentication,
		Severity:      audit.SeverityWarning,
		Description:   "failed login attempt: password mismatch",
		IP:            ip,
		UserAgent:     userAgent,
		SecurityEvent: true,
		Metadata:      map[string]string{"identifier": user.Username},
	})

	if count >= s.cfg.LockoutThreshold {
		until := s.now().Add(s.cfg.LockoutDuration)
		if err := s.users.SetLock(ctx, user.ID, until); err != nil {
			return s.internalFailure(err, "login: set lock")
		}
		s.metrics.Lockout()
		s.audit.Record(ctx, audit.Event{
			Actor:         user.ID.String(),
			Action:        audit.ActionUserLocked,
			EntityType:    entityUser,
			Severity:      audit.SeverityWarning,
			Description:   "account locked: too many failed login attempts",
			IP:            ip,
			UserAgent:     userAgent,
			SecurityEvent: true,
		})
		return unauthorized(msgLockedTooMany)
	}

	return unauthorized(msgInvalidCredentials)
}

// Register creates an account with least-privilege defaults and logs
// the new user straight in.
func (s *Service) Register(ctx context.Context, input RegisterInput, ip, userAgent string) (*TokenPair, *models.User, *Failure) {
	taken, err := s.users.UsernameExists(ctx, input.Username)
	if err != nil {
		return nil, nil, s.internalFailure(err, "register: username check")
	}
	if taken {
		return nil, nil, invalidOperation("username already exists")
	}

	taken, err = s.users.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, nil, s.internalFailure(err, "register: email check")
	}
	if taken {
		return nil, nil, invalidOperation("email already exists")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooShort) {
			return nil, nil, invalidOperation(err.Error())
		}
		return nil, nil, s.internalFailure(err, "register: hash password")
	}

	user := &models.User{
		ID:            uuid.New(),
		Username:      input.Username,
		Email:         input.Email,
		PasswordHash:  hash,
		Role:          models.RoleViewer,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		IsActive:      true,
		EmailVerified: false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost a race with a concurrent registration.
			return nil, nil, invalidOperation("username or email already exists")
		}
		return nil, nil, s.internalFailure(err, "register: create user")
	}

	s.metrics.Registration()
	s.audit.Record(ctx, audit.Event{
		Actor:       user.ID.String(),
		Action:      audit.ActionUserRegistered,
		EntityType:  entityUser,
		EntityID:    &user.ID,
		Description: "new user registered: " + user.Username,
		IP:          ip,
		UserAgent:   userAgent,
	})

	pair, fail := s.issuePair(ctx, user, ip, userAgent)
	if fail != nil {
		return nil, nil, fail
	}
	return pair, user, nil
}

// Refresh rotates the presented refresh grant and issues a fresh
// access token. A rotated-away or unknown token fails with one generic
// message: holders cannot distinguish expired, revoked, and never-issued.
func (s *Service) Refresh(ctx context.Context, refreshToken, ip string) (*TokenPair, *models.User, *Failure) {
	now := s.now()

	session, err := s.sessions.ByTokenHash(ctx, token.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.RefreshFailure()
			return nil, nil, unauthorized(msgInvalidRefreshToken)
		}
		return nil, nil, s.internalFailure(err, "refresh: session lookup")
	}
	if session.Expired(now) {
		s.metrics.RefreshFailure()
		return nil, nil, unauthorized(msgInvalidRefreshToken)
	}

	user, err := s.users.ByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.RefreshFailure()
			return nil, nil, unauthorized(msgInvalidRefreshToken)
		}
		return nil, nil, s.internalFailure(err, "refresh: account lookup")
	}
	if !user.IsActive || user.Locked(now) {
		s.metrics.RefreshFailure()
		return nil, nil, unauthorized(msgAccountNotUsable)
	}

	newValue, newDigest, err := token.NewRefreshToken()
	if err != nil {
		return nil, nil, s.internalFailure(err, "refresh: generate token")
	}

	rotated, err := s.sessions.Rotate(
		ctx,
		session.ID,
		session.RefreshTokenHash,
		newDigest,
		now.Add(s.cfg.RefreshTTL),
		now,
	)
	if err != nil {
		return nil, nil, s.internalFailure(err, "refresh: rotate session")
	}
	if !rotated {
		// The digest moved between lookup and swap: a concurrent
		// refresh won, and this presentation is a replay.
		s.metrics.RefreshFailure()
		return nil, nil, unauthorized(msgInvalidRefreshToken)
	}

	access, err := s.tokens.Issue(user)
	if err != nil {
		return nil, nil, s.internalFailure(err, "refresh: sign access token")
	}

	s.metrics.RefreshSuccess()
	s.audit.Record(ctx, audit.Event{
		Actor:       user.ID.String(),
		Action:      audit.ActionTokenRefreshed,
		EntityType:  entityAuthentication,
		Description: "refresh token rotated",
		IP:          ip,
	})

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: newValue,
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
	}, user, nil
}

// Logout revokes the account's session holding the refresh token.
// Revoking an already dead token is a successful no-op; the returned
// bool reports whether anything was actually invalidated.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, refreshToken, ip string) (bool, *Failure) {
	revoked, err := s.sessions.Deactivate(ctx, userID, token.HashRefreshToken(refreshToken))
	if err != nil {
		return false, s.internalFailure(err, "logout: deactivate session")
	}
	if revoked {
		s.audit.Record(ctx, audit.Event{
			Actor:       userID.String(),
			Action:      audit.ActionLogoutSuccess,
			EntityType:  entityAuthentication,
			Description: "user logged out",
			IP:          ip,
		})
	}
	return revoked, nil
}

// ChangePassword re-verifies the current password before accepting the
// new one. A wrong current password is a typed, caller-visible failure
// distinct from login failures: the caller is already authenticated.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) *Failure {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("user not found")
		}
		return s.internalFailure(err, "change password: account lookup")
	}

	ok, err := s.hasher.Verify(current, user.PasswordHash)
	if err != nil {
		return s.internalFailure(err, "change password: verify current")
	}
	if !ok {
		return invalidOperation(msgWrongCurrentPass)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooShort) {
			return invalidOperation(err.Error())
		}
		return s.internalFailure(err, "change password: hash new")
	}

	now := s.now()
	if err := s.users.UpdatePasswordHash(ctx, userID, hash, now); err != nil {
		return s.internalFailure(err, "change password: update hash")
	}

	s.audit.Record(ctx, audit.Event{
		Actor:       userID.String(),
		Action:      audit.ActionPasswordChanged,
		EntityType:  entityUser,
		EntityID:    &user.ID,
		Description: "password changed",
	})
	return nil
}

// Validate checks an access token statelessly: signature, issuer,
// audience, expiry. No store access.
func (s *Service) Validate(tokenStr string) bool {
	return s.tokens.Validate(tokenStr)
}

// CurrentUser loads the profile behind an authenticated request.
func (s *Service) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, *Failure) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("user not found")
		}
		return nil, s.internalFailure(err, "current user: lookup")
	}
	return user, nil
}

// LockUser is the administrative lock: one lockout period from now.
func (s *Service) LockUser(ctx context.Context, actor, userID uuid.UUID, reason string) *Failure {
	if _, err := s.users.ByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("user not found")
		}
		return s.internalFailure(err, "lock user: lookup")
	}

	until := s.now().Add(s.cfg.LockoutDuration)
	if err := s.users.SetLock(ctx, userID, until); err != nil {
		return s.internalFailure(err, "lock user: set lock")
	}

	s.audit.Record(ctx, audit.Event{
		Actor:         actor.String(),
		Action:        audit.ActionUserLocked,
		EntityType:    entityUser,
		EntityID:      &userID,
		Severity:      audit.SeverityWarning,
		Description:   "user locked: " + reason,
		SecurityEvent: true,
	})
	return nil
}

// UnlockUser clears the lock and the failure counter.
func (s *Service) UnlockUser(ctx context.Context, actor, userID uuid.UUID) *Failure {
	if _, err := s.users.ByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("user not found")
		}
		return s.internalFailure(err, "unlock user: lookup")
	}

	if err := s.users.ClearLock(ctx, userID); err != nil {
		return s.internalFailure(err, "unlock user: clear lock")
	}

	s.audit.Record(ctx, audit.Event{
		Actor:       actor.String(),
		Action:      audit.ActionUserUnlocked,
		EntityType:  entityUser,
		EntityID:    &userID,
		Description: "user unlocked by administrator",
	})
	return nil
}

// issuePair creates the session row and signs the access token. The
// session commit happens before the caller's success audit record, so
// a success response always implies both writes were attempted in
// order.
func (s *Service) issuePair(ctx context.Context, user *models.User, ip, userAgent string) (*TokenPair, *Failure) {
	refreshValue, refreshDigest, err := token.NewRefreshToken()
	if err != nil {
		return nil, s.internalFailure(err, "issue: generate refresh token")
	}

	now := s.now()
	session := &models.Session{
		ID:               uuid.New(),
		UserID:           user.ID,
		RefreshTokenHash: refreshDigest,
		ExpiresAt:        now.Add(s.cfg.RefreshTTL),
		IPAddress:        ip,
		UserAgent:        userAgent,
		DeviceInfo:       "Web",
		IsActive:         true,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, s.internalFailure(err, "issue: create session")
	}

	access, err := s.tokens.Issue(user)
	if err != nil {
		return nil, s.internalFailure(err, "issue: sign access token")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshValue,
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// noteFailedOrigin feeds the threat gate. Gate unavailability is an
// availability concern, not a correctness one, so it is logged and the
// login flow continues.
func (s *Service) noteFailedOrigin(ctx context.Context, ip string) {
	if err := s.gate.RecordFailure(ctx, ip); err != nil {
		s.log.Warn().Err(err).Str("ip", ip).Msg("threat gate failure count not recorded")
	}
}

// internalFailure logs the cause with context and returns the opaque
// internal failure handed to callers.
func (s *Service) internalFailure(err error, op string) *Failure {
	s.log.Error().Err(err).Str("op", op).Msg("session manager internal error")
	return internal(err)
}
