package account

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/todoapi/auth/jwt"
	"github.com/kbukum/todoapi/auth/password"
	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/observability"
	"github.com/kbukum/todoapi/resilience"
)

const testSecret = "account-test-secret-0123456789abcdef"

type memoryDirectory struct {
	mu      sync.Mutex
	byEmail map[string]*User
	err     error
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{byEmail: make(map[string]*User)}
}

func (d *memoryDirectory) SelectByEmail(_ context.Context, email string) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	u, ok := d.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *memoryDirectory) Insert(_ context.Context, email, hash string) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	if _, ok := d.byEmail[email]; ok {
		return nil, ErrUniquenessViolation
	}
	u := &User{ID: uuid.NewString(), Email: email, Hash: hash}
	d.byEmail[email] = u
	cp := *u
	return &cp, nil
}

func newTestPool(t *testing.T) *password.Pool {
	t.Helper()
	pool, err := password.NewPool(password.NewBcryptHasher(password.WithCost(4)), password.Config{})
	require.NoError(t, err)
	return pool
}

func newTestTokens(t *testing.T) *jwt.UserTokenService {
	t.Helper()
	tokens, err := jwt.NewUserTokenService(jwt.Config{Secret: testSecret})
	require.NoError(t, err)
	return tokens
}

type fixture struct {
	svc    *Service
	dir    *memoryDirectory
	tokens *jwt.UserTokenService
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dir := newMemoryDirectory()
	tokens := newTestTokens(t)
	return &fixture{
		svc:    NewService(dir, newTestPool(t), tokens, logger.Nop(), opts...),
		dir:    dir,
		tokens: tokens,
	}
}

func requireAppError(t *testing.T, err error, code apperrors.ErrorCode, status int) *apperrors.AppError {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.HTTPStatus)
	return appErr
}

func TestRegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creds := Credentials{Email: "a@b.com", Password: "pw123"}

	registered, err := f.svc.Register(ctx, creds)
	require.NoError(t, err)
	assert.NotEmpty(t, registered.ID)
	assert.Equal(t, "a@b.com", registered.Email)
	assert.NotEmpty(t, registered.Token)

	loggedIn, err := f.svc.Login(ctx, creds)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, loggedIn.ID)

	claims, err := f.tokens.Verify(loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
}

func TestRegister_StoresHashNotPlaintext(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), Credentials{Email: "a@b.com", Password: "pw123"})
	require.NoError(t, err)

	stored := f.dir.byEmail["a@b.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "pw123", stored.Hash)
	assert.NotContains(t, stored.Hash, "pw123")
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, Credentials{Email: "a@b.com", Password: "first"})
	require.NoError(t, err)
	firstHash := f.dir.byEmail["a@b.com"].Hash

	_, err = f.svc.Register(ctx, Credentials{Email: "a@b.com", Password: "second"})
	appErr := requireAppError(t, err, apperrors.ErrCodeAlreadyExists, 409)
	assert.NotContains(t, appErr.Message, "a@b.com")

	assert.Equal(t, firstHash, f.dir.byEmail["a@b.com"].Hash)
	_, err = f.svc.Login(ctx, Credentials{Email: "a@b.com", Password: "first"})
	assert.NoError(t, err)
}

func TestRegister_EmailIsCaseSensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, Credentials{Email: "A@b.com", Password: "pw"})
	require.NoError(t, err)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
	}{
		{"missing email", Credentials{Password: "pw"}},
		{"missing password", Credentials{Email: "a@b.com"}},
		{"blank email", Credentials{Email: "   ", Password: "pw"}},
		{"empty", Credentials{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Register(context.Background(), tc.creds)
			requireAppError(t, err, apperrors.ErrCodeInvalidInput, 400)

			_, err = f.svc.Login(context.Background(), tc.creds)
			requireAppError(t, err, apperrors.ErrCodeInvalidInput, 400)

			assert.Empty(t, f.dir.byEmail)
		})
	}
}

func TestRegister_WhitespacePasswordIsAccepted(t *testing.T) {
	f := newFixture(t)
	creds := Credentials{Email: "a@b.com", Password: "   "}

	_, err := f.svc.Register(context.Background(), creds)
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), creds)
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), Credentials{Email: "a@b.com", Password: "  "})
	requireAppError(t, err, apperrors.ErrCodeInvalidCredentials, 401)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	f := newFixture(t)
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'x'
	}
	_, err := f.svc.Register(context.Background(), Credentials{Email: "a@b.com", Password: string(long)})
	requireAppError(t, err, apperrors.ErrCodeInvalidInput, 400)
	assert.Empty(t, f.dir.byEmail)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, Credentials{Email: "a@b.com", Password: "pw123"})
	require.NoError(t, err)

	_, wrongPassword := f.svc.Login(ctx, Credentials{Email: "a@b.com", Password: "nope"})
	_, unknownEmail := f.svc.Login(ctx, Credentials{Email: "nobody@b.com", Password: "pw123"})

	a := requireAppError(t, wrongPassword, apperrors.ErrCodeInvalidCredentials, 401)
	b := requireAppError(t, unknownEmail, apperrors.ErrCodeInvalidCredentials, 401)
	assert.Equal(t, a.ToResponse(), b.ToResponse())
}

func TestStorageFailure(t *testing.T) {
	f := newFixture(t)
	f.dir.err = errors.New("connection refused")
	creds := Credentials{Email: "a@b.com", Password: "pw123"}

	_, err := f.svc.Register(context.Background(), creds)
	appErr := requireAppError(t, err, apperrors.ErrCodeDatabaseError, 500)
	assert.NotContains(t, appErr.ToResponse().Error.Message, "connection refused")

	_, err = f.svc.Login(context.Background(), creds)
	requireAppError(t, err, apperrors.ErrCodeDatabaseError, 500)
}

func TestStorageAppErrorPassesThrough(t *testing.T) {
	f := newFixture(t)
	f.dir.err = apperrors.ServiceUnavailable("database")

	_, err := f.svc.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	requireAppError(t, err, apperrors.ErrCodeServiceUnavailable, 503)
}

type failingIssuer struct{}

func (failingIssuer) IssueToken(string) (string, error) { return "", errors.New("signing failed") }

func TestRegister_TokenFailureIsInternal(t *testing.T) {
	svc := NewService(newMemoryDirectory(), newTestPool(t), failingIssuer{}, logger.Nop())
	_, err := svc.Register(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	requireAppError(t, err, apperrors.ErrCodeInternal, 500)
}

func TestHashError(t *testing.T) {
	tests := []struct {
		err  error
		code apperrors.ErrorCode
	}{
		{password.ErrInvalidEncoding, apperrors.ErrCodeInvalidInput},
		{password.ErrPasswordTooLong, apperrors.ErrCodeInvalidInput},
		{resilience.ErrBulkheadFull, apperrors.ErrCodeServiceUnavailable},
		{context.Canceled, apperrors.ErrCodeTimeout},
		{password.ErrMalformedHash, apperrors.ErrCodeInternal},
	}
	for _, tc := range tests {
		appErr, ok := apperrors.AsAppError(hashError(tc.err))
		require.True(t, ok)
		assert.Equal(t, tc.code, appErr.Code, "for %v", tc.err)
	}
}

func TestOperationMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	require.NoError(t, err)

	f := newFixture(t, WithMetrics(metrics))
	ctx := context.Background()
	creds := Credentials{Email: "a@b.com", Password: "pw"}
	_, _ = f.svc.Register(ctx, creds)
	_, _ = f.svc.Register(ctx, creds)
	_, _ = f.svc.Login(ctx, Credentials{Email: "a@b.com", Password: "bad"})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "operation.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				counts[status.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), counts[statusOK])
	assert.Equal(t, int64(1), counts[statusConflict])
	assert.Equal(t, int64(1), counts[statusUnauthorized])
}
