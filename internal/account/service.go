package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/todoapi/auth/password"
	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/observability"
	"github.com/kbukum/todoapi/resilience"
	"github.com/kbukum/todoapi/util"
	"github.com/kbukum/todoapi/validation"
)

const (
	serviceName    = "account"
	maxEmailLength = 255
)

// Operation outcomes recorded on spans and metrics.
const (
	statusOK           = "ok"
	statusInvalid      = "invalid"
	statusConflict     = "conflict"
	statusUnauthorized = "unauthorized"
	statusError        = "error"
)

// Credentials is the register and login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) validate() error {
	return validation.New().
		Required("email", c.Email).
		MaxLength("email", c.Email, maxEmailLength).
		NonEmpty("password", c.Password).
		Validate()
}

// Session is returned by a successful Register or Login.
type Session struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// PasswordHasher hashes and checks passwords off the request path.
// *password.Pool implements it.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Compare(ctx context.Context, plaintext, hash string) (bool, error)
	CompareDummy(ctx context.Context, plaintext string) error
}

// TokenIssuer signs a token for a user id. *jwt.UserTokenService
// implements it.
type TokenIssuer interface {
	IssueToken(userID string) (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records operation counters and durations.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service implements Register and Login.
type Service struct {
	users   UserDirectory
	hasher  PasswordHasher
	tokens  TokenIssuer
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewService creates a Service.
func NewService(users UserDirectory, hasher PasswordHasher, tokens TokenIssuer, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	s := &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log.WithComponent(serviceName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user and returns a session for it.
func (s *Service) Register(ctx context.Context, creds Credentials) (session *Session, err error) {
	ctx, op := observability.StartOperation(ctx, serviceName, "account.register", s.metrics)
	defer func() { endOperation(ctx, op, err) }()

	if err := creds.validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, creds.Password)
	if err != nil {
		return nil, hashError(err)
	}

	user, err := s.users.Insert(ctx, creds.Email, hash)
	if errors.Is(err, ErrUniquenessViolation) {
		s.log.WithContext(ctx).Info("Registration rejected", logger.Fields(
			"email", util.MaskEmail(creds.Email),
			"reason", "duplicate",
		))
		return nil, apperrors.AlreadyExists("user").WithCause(err)
	}
	if err != nil {
		return nil, storageError(err)
	}
	op.SetUserID(user.ID)

	session, err = s.newSession(user)
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("User registered", logger.Fields(
		"user_id", user.ID,
		"email", util.MaskEmail(user.Email),
	))
	return session, nil
}

// Login checks creds and returns a session. Unknown emails and wrong
// passwords fail with the same InvalidCredentials error.
func (s *Service) Login(ctx context.Context, creds Credentials) (session *Session, err error) {
	ctx, op := observability.StartOperation(ctx, serviceName, "account.login", s.metrics)
	defer func() { endOperation(ctx, op, err) }()

	if err := creds.validate(); err != nil {
		return nil, err
	}

	user, err := s.users.SelectByEmail(ctx, creds.Email)
	if errors.Is(err, ErrUserNotFound) {
		if err := s.hasher.CompareDummy(ctx, creds.Password); err != nil {
			return nil, hashError(err)
		}
		return nil, s.rejectLogin(ctx, creds.Email, "unknown_email")
	}
	if err != nil {
		return nil, storageError(err)
	}

	ok, err := s.hasher.Compare(ctx, creds.Password, user.Hash)
	if err != nil {
		return nil, hashError(err)
	}
	if !ok {
		return nil, s.rejectLogin(ctx, creds.Email, "wrong_password")
	}
	op.SetUserID(user.ID)

	return s.newSession(user)
}

func (s *Service) rejectLogin(ctx context.Context, email, reason string) error {
	s.log.WithContext(ctx).Info("Login rejected", logger.Fields(
		"email", util.MaskEmail(email),
		"reason", reason,
	))
	return apperrors.InvalidCredentials()
}

func (s *Service) newSession(user *User) (*Session, error) {
	token, err := s.tokens.IssueToken(user.ID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("issue token: %w", err))
	}
	return &Session{ID: user.ID, Email: user.Email, Token: token}, nil
}

// hashError maps password pool failures. Input errors are the caller's;
// a saturated pool is a temporary 503.
func hashError(err error) error {
	switch {
	case password.IsInputError(err):
		return apperrors.InvalidInput("password", inputReason(err)).WithCause(err)
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
		return apperrors.ServiceUnavailable("authentication service").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.Timeout("password check").WithCause(err)
	default:
		return apperrors.Internal(err)
	}
}

func inputReason(err error) string {
	switch {
	case errors.Is(err, password.ErrInvalidEncoding):
		return "password must be valid UTF-8"
	case errors.Is(err, password.ErrPasswordTooLong):
		return "password must be at most 72 bytes"
	default:
		return "password is too short"
	}
}

func storageError(err error) error {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	return apperrors.DatabaseError(err)
}

func endOperation(ctx context.Context, op *observability.Operation, err error) {
	status := outcome(err)
	if status == statusError {
		op.End(ctx, status, err)
		return
	}
	op.End(ctx, status, nil)
}

func outcome(err error) string {
	if err == nil {
		return statusOK
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return statusError
	}
	switch appErr.Code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeMissingField:
		return statusInvalid
	case apperrors.ErrCodeAlreadyExists:
		return statusConflict
	case apperrors.ErrCodeInvalidCredentials:
		return statusUnauthorized
	default:
		return statusError
	}
}
