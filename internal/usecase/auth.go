package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
	"github.com/Rohit29052007/seed-track-flow/internal/core/port"
	"github.com/Rohit29052007/seed-track-flow/internal/infra/security"
	"github.com/Rohit29052007/seed-track-flow/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided username or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the account is disabled.
	ErrInactiveAccount = errors.New("account is not active")
	// ErrUsernameTaken indicates the username or email is already registered.
	ErrUsernameTaken = errors.New("username or email already registered")
	// ErrSessionNotFound indicates the referenced session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionInactive indicates the session was revoked or has expired.
	ErrSessionInactive = errors.New("session is no longer active")
)

// Attempt outcome labels used for metrics.
const (
	outcomeSuccess            = "success"
	outcomeBlocked            = "blocked"
	outcomeInvalidCredentials = "invalid_credentials"
	outcomeRejected           = "rejected"
	outcomeError              = "error"
)

// AuthMetrics receives per-outcome attempt counts. Satisfied by the telemetry
// provider.
type AuthMetrics interface {
	CountAuthAttempt(operation, outcome string)
}

// TooManyAttemptsError signals that the limiter refused the operation. RetryAfter
// tells the caller how long the block still holds.
type TooManyAttemptsError struct {
	Operation  string
	RetryAfter time.Duration
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf("too many %s attempts, retry in %s", e.Operation, e.RetryAfter.Round(time.Second))
}

// SignUpInput carries a registration request.
type SignUpInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// SignInInput carries a login request.
type SignInInput struct {
	Username  string
	Password  string
	IP        string
	UserAgent string
}

// SignInResult is returned on a successful login.
type SignInResult struct {
	AccessToken string
	SessionID   string
	User        domain.User
	ExpiresAt   time.Time
}

// AuthService coordinates registration, login and logout flows, with the
// attempt limiters and the session watcher enforcing abuse and idleness
// policy.
type AuthService struct {
	users      port.UserRepository
	sessions   port.SessionRepository
	events     port.EventPublisher
	signIn     *AttemptLimiter
	signUp     *AttemptLimiter
	watcher    *SessionWatcher
	tokens     *security.TokenManager
	passwords  *security.PasswordValidator
	metrics    AuthMetrics
	logger     *zap.Logger
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users port.UserRepository,
	sessions port.SessionRepository,
	events port.EventPublisher,
	signIn *AttemptLimiter,
	signUp *AttemptLimiter,
	watcher *SessionWatcher,
	tokens *security.TokenManager,
	passwords *security.PasswordValidator,
	sessionTTL time.Duration,
	logger *zap.Logger,
) (*AuthService, error) {
	if users == nil || sessions == nil {
		return nil, errors.New("auth service requires user and session repositories")
	}
	if signIn == nil || signUp == nil {
		return nil, errors.New("auth service requires attempt limiters")
	}
	if watcher == nil {
		return nil, errors.New("auth service requires a session watcher")
	}
	if tokens == nil {
		return nil, errors.New("auth service requires a token manager")
	}
	if sessionTTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthService{
		users:      users,
		sessions:   sessions,
		events:     events,
		signIn:     signIn,
		signUp:     signUp,
		watcher:    watcher,
		tokens:     tokens,
		passwords:  passwords,
		logger:     logger,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}, nil
}

// WithClock overrides the time source. Intended for tests.
func (s *AuthService) WithClock(clock func() time.Time) *AuthService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// WithMetrics registers an attempt outcome counter.
func (s *AuthService) WithMetrics(metrics AuthMetrics) *AuthService {
	s.metrics = metrics
	return s
}

func (s *AuthService) countAttempt(operation, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.CountAuthAttempt(operation, outcome)
}

// SignUp registers a new tracker account. Registration attempts are limited
// per source IP so a single host cannot flood the user table.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput, sourceIP string) (domain.User, error) {
	outcome := outcomeRejected
	defer func() { s.countAttempt(s.signUp.Operation(), outcome) }()

	if s.signUp.IsBlocked(ctx, sourceIP) {
		outcome = outcomeBlocked
		return domain.User{}, &TooManyAttemptsError{
			Operation:  s.signUp.Operation(),
			RetryAfter: s.signUp.BlockedTimeRemaining(ctx, sourceIP),
		}
	}
	s.signUp.RecordAttempt(ctx, sourceIP)

	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" {
		return domain.User{}, fmt.Errorf("username is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, fmt.Errorf("a valid email is required")
	}
	role := input.Role
	if role == "" {
		role = domain.RoleFarmer
	}
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("unknown role %q", input.Role)
	}

	// With no injected policy, build the default one seeded with the user's
	// own identifiers so zxcvbn penalizes passwords derived from them.
	validator := s.passwords
	if validator == nil {
		validator = security.DefaultPasswordValidator(username, email)
	}
	if err := validator.Validate(input.Password); err != nil {
		return domain.User{}, err
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		outcome = outcomeError
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		RegisteredAt: s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.User{}, ErrUsernameTaken
		}
		outcome = outcomeError
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	s.publishRegistered(ctx, user)

	outcome = outcomeSuccess
	user.PasswordHash = ""
	return user, nil
}

// SignIn validates credentials and opens a watched session. Every attempt is
// recorded against the username, successful ones included, and a successful
// login clears the counter.
func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (SignInResult, error) {
	outcome := outcomeRejected
	defer func() { s.countAttempt(s.signIn.Operation(), outcome) }()

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return SignInResult{}, fmt.Errorf("username is required")
	}
	if input.Password == "" {
		return SignInResult{}, fmt.Errorf("password is required")
	}

	if s.signIn.IsBlocked(ctx, username) {
		outcome = outcomeBlocked
		return SignInResult{}, &TooManyAttemptsError{
			Operation:  s.signIn.Operation(),
			RetryAfter: s.signIn.BlockedTimeRemaining(ctx, username),
		}
	}
	if !s.signIn.RecordAttempt(ctx, username) {
		outcome = outcomeBlocked
		return SignInResult{}, &TooManyAttemptsError{
			Operation:  s.signIn.Operation(),
			RetryAfter: s.signIn.BlockedTimeRemaining(ctx, username),
		}
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			outcome = outcomeInvalidCredentials
			return SignInResult{}, ErrInvalidCredentials
		}
		outcome = outcomeError
		return SignInResult{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		outcome = outcomeError
		return SignInResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		outcome = outcomeInvalidCredentials
		return SignInResult{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		return SignInResult{}, ErrInactiveAccount
	}

	now := s.now().UTC()
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		LastSeen:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if input.IP != "" {
		ip := input.IP
		session.IP = &ip
	}
	if input.UserAgent != "" {
		ua := input.UserAgent
		session.UserAgent = &ua
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		outcome = outcomeError
		return SignInResult{}, fmt.Errorf("create session: %w", err)
	}

	if err := s.watcher.Watch(session); err != nil {
		outcome = outcomeError
		return SignInResult{}, fmt.Errorf("watch session: %w", err)
	}

	token, err := s.tokens.Issue(*user, session.ID)
	if err != nil {
		s.watcher.Unwatch(session.ID)
		outcome = outcomeError
		return SignInResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.signIn.Clear(ctx, username)
	outcome = outcomeSuccess

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("update last login", zap.Error(err))
	}

	result := SignInResult{
		AccessToken: token,
		SessionID:   session.ID,
		User:        *user,
		ExpiresAt:   session.ExpiresAt,
	}
	result.User.PasswordHash = ""
	result.User.LastLogin = &now
	return result, nil
}

// SignOut revokes the session and stops its idle watch.
func (s *AuthService) SignOut(ctx context.Context, sessionID, reason string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if reason == "" {
		reason = "sign_out"
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("lookup session: %w", err)
	}

	now := s.now().UTC()
	if err := s.sessions.Revoke(ctx, sessionID, now, reason); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	s.watcher.Unwatch(sessionID)

	// A clean sign-out also releases the user's sign-in attempt record; only
	// the sign-in operation's storage is touched.
	if user, err := s.users.GetByID(ctx, session.UserID); err == nil {
		s.signIn.Clear(ctx, user.Username)
	} else {
		s.logger.Warn("clear sign-in attempts", zap.Error(err))
	}

	if s.events != nil {
		event := domain.SessionRevokedEvent{
			SessionID: sessionID,
			UserID:    session.UserID,
			Reason:    reason,
			RevokedAt: now,
		}
		if err := s.events.PublishSessionRevoked(ctx, event); err != nil {
			s.logger.Warn("publish session revoked", zap.Error(err))
		}
	}

	return nil
}

// ValidateAccess parses the access token and confirms the backing session is
// still alive. On success the session's last_seen is stamped and the idle
// watch refreshed, so every authenticated request counts as activity.
func (s *AuthService) ValidateAccess(ctx context.Context, tokenString string) (*security.AccessClaims, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if !session.IsActive(s.now()) {
		return nil, ErrSessionInactive
	}

	// Activity is persisted best-effort; the in-memory watch is what actually
	// enforces the idle timeout.
	if err := s.sessions.Touch(ctx, claims.SessionID, s.now().UTC()); err != nil {
		s.logger.Warn("persist session activity", zap.Error(err))
	}
	s.watcher.Touch(claims.SessionID)

	return claims, nil
}

func (s *AuthService) publishRegistered(ctx context.Context, user domain.User) {
	if s.events == nil {
		return
	}
	event := domain.UserRegisteredEvent{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Role:         user.Role,
		RegisteredAt: user.RegisteredAt,
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Warn("publish user registered", zap.Error(err))
	}
}
