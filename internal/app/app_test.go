package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/todoapi/auth/jwt"
	"github.com/kbukum/todoapi/bootstrap"
	"github.com/kbukum/todoapi/component"
	"github.com/kbukum/todoapi/config"
	"github.com/kbukum/todoapi/database"
	"github.com/kbukum/todoapi/database/migration"
	dbtest "github.com/kbukum/todoapi/database/testutil"
	"github.com/kbukum/todoapi/internal/migrations"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/testutil"
)

const testSecret = "app-test-secret-0123456789abcdefghij"

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *Config {
	cfg := &Config{}
	cfg.Name = ServiceName
	cfg.Environment = "test"
	cfg.Database = dbtest.Config()
	cfg.Auth.JWT.Secret = testSecret
	cfg.Auth.Password.BcryptCost = 4
	cfg.ApplyDefaults()
	return cfg
}

func newHandler(t *testing.T, cfg *Config) http.Handler {
	t.Helper()
	db := dbtest.NewComponent(migration.Hook(migrations.FS, migrations.Path, logger.Nop()))
	testutil.T(t).Setup(db)

	srv, err := NewServer(cfg, Deps{
		DB: db.DB(),
		Health: func(ctx context.Context) []component.Health {
			return []component.Health{db.Health(ctx)}
		},
		Logger: logger.Nop(),
	})
	require.NoError(t, err)
	return srv.Handler()
}

type client struct {
	t *testing.T
	h http.Handler
}

func (c client) do(method, path, body, authorization string) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)

	var decoded map[string]any
	if strings.HasPrefix(strings.TrimSpace(rr.Body.String()), "{") {
		require.NoError(c.t, json.Unmarshal(rr.Body.Bytes(), &decoded))
	}
	return rr, decoded
}

func verifier(t *testing.T, secret string, now func() time.Time) *jwt.UserTokenService {
	t.Helper()
	svc, err := jwt.NewUserTokenService(jwt.Config{Secret: secret}, jwt.WithClock(now))
	require.NoError(t, err)
	return svc
}

func TestScenario(t *testing.T) {
	c := client{t: t, h: newHandler(t, testConfig())}
	creds := `{"email":"a@b.com","password":"pw123"}`

	rr, registered := c.do(http.MethodPost, "/api/auth/register", creds, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	id, _ := registered["id"].(string)
	require.NotEmpty(t, id)
	require.NotEmpty(t, registered["token"])

	rr, loggedIn := c.do(http.MethodPost, "/api/auth/login", creds, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	token := loggedIn["token"].(string)

	claims, err := verifier(t, testSecret, time.Now).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)

	rr, created := c.do(http.MethodPost, "/api/todos", `{"task":"buy milk"}`, "Bearer "+token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, id, created["user_id"])

	rr, _ = c.do(http.MethodGet, "/api/todos", "", "Bearer "+token)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["user_id"])

	rr, body := c.do(http.MethodGet, "/api/todos", "", "Bearer "+token[:len(token)-1])
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])
}

func TestGateRejections(t *testing.T) {
	cfg := testConfig()
	c := client{t: t, h: newHandler(t, cfg)}

	rr, registered := c.do(http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)
	id := registered["id"].(string)

	foreign, err := verifier(t, "some-other-secret-0123456789abcdefghij", time.Now).IssueToken(id)
	require.NoError(t, err)

	ttl := cfg.Auth.JWT.AccessTokenTTL
	issuedAt := time.Now().Add(-ttl - time.Minute)
	expired, err := verifier(t, testSecret, func() time.Time { return issuedAt }).IssueToken(id)
	require.NoError(t, err)

	tests := map[string]string{
		"absent header":  "",
		"wrong scheme":   "Basic " + registered["token"].(string),
		"foreign secret": "Bearer " + foreign,
		"expired":        "Bearer " + expired,
		"garbage":        "Bearer not.a.token",
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			rr, body := c.do(http.MethodGet, "/api/todos", "", header)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])
		})
	}
}

func TestAuthRoutesErrors(t *testing.T) {
	c := client{t: t, h: newHandler(t, testConfig())}
	creds := `{"email":"a@b.com","password":"pw"}`

	rr, _ := c.do(http.MethodPost, "/api/auth/register", creds, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr, _ = c.do(http.MethodPost, "/api/auth/register", creds, "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr, _ = c.do(http.MethodPost, "/api/auth/register", `{"email":"x@b.com"}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	wrong, _ := c.do(http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"nope"}`, "")
	unknown, _ := c.do(http.MethodPost, "/api/auth/login", `{"email":"z@b.com","password":"pw"}`, "")
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.RateLimitPerMinute = 2
	c := client{t: t, h: newHandler(t, cfg)}

	for i := 0; i < 2; i++ {
		rr, _ := c.do(http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"pw"}`, "")
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	}
	rr, _ := c.do(http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"pw"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}

func TestAuthRateLimitIgnoresForwardedFor(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.RateLimitPerMinute = 2
	h := newHandler(t, cfg)

	codes := make([]int, 0, 5)
	for i := 1; i <= 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"a@b.com","password":"pw"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.RemoteAddr = "203.0.113.7:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{
		http.StatusUnauthorized, http.StatusUnauthorized,
		http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)
}

func TestShippedConfigRequiresSecret(t *testing.T) {
	shipped := filepath.Join("..", "..", "cmd", "todoapi", "config.yml")
	missingEnv := config.WithEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load(config.WithConfigFile(shipped), missingEnv)
	require.NoError(t, err)
	cfg.ApplyDefaults()
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret")

	t.Setenv("AUTH_JWT_SECRET", "change-me")
	cfg, err = Load(config.WithConfigFile(shipped), missingEnv)
	require.NoError(t, err)
	cfg.ApplyDefaults()
	require.Error(t, cfg.Validate(), "a short placeholder secret must be refused")

	t.Setenv("AUTH_JWT_SECRET", strings.Repeat("k", 32))
	cfg, err = Load(config.WithConfigFile(shipped), missingEnv)
	require.NoError(t, err)
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestSystemEndpointsAndNotFound(t *testing.T) {
	c := client{t: t, h: newHandler(t, testConfig())}

	for _, path := range []string{"/health", "/readiness", "/liveness", "/info", "/version", "/metrics"} {
		rr, _ := c.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	rr, body := c.do(http.MethodGet, "/api/nothing-here", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	cfg := &Config{}
	cfg.Name = ServiceName
	cfg.ApplyDefaults()

	assert.Equal(t, database.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWT.AccessTokenTTL)
	assert.Equal(t, 12, cfg.Auth.Password.BcryptCost)
	assert.Equal(t, 8080, cfg.Server.Port)

	err := cfg.Validate()
	require.Error(t, err, "missing DSN and secret must fail")

	valid := testConfig()
	require.NoError(t, valid.Validate())

	valid.Auth.JWT.Secret = ""
	require.Error(t, valid.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := `
name: todoapi
environment: staging
server:
  port: 9090
database:
  driver: sqlite
  dsn: file::memory:
auth:
  jwt:
    secret: from-file
    access_token_ttl: 2h
  password:
    bcrypt_cost: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("AUTH_JWT_SECRET", "from-env")

	cfg, err := Load(config.WithConfigFile(path), config.WithEnvFile(filepath.Join(dir, "missing.env")))
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, database.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.Auth.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.JWT.AccessTokenTTL)
	assert.Equal(t, 10, cfg.Auth.Password.BcryptCost)
}

func TestMigrate(t *testing.T) {
	cfg := testConfig()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "todoapi.db")
	opts := []bootstrap.Option{bootstrap.WithLogger(logger.Nop()), bootstrap.WithSummaryOutput(io.Discard)}
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, cfg, MigrateUp, opts...))
	require.NoError(t, Migrate(ctx, cfg, MigrateVersion, opts...))

	db, err := database.Open(ctx, cfg.Database, logger.Nop())
	require.NoError(t, err)
	v, dirty, err := migration.Version(db, migrations.FS, migrations.Path)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
	assert.False(t, dirty)
	require.NoError(t, db.Close())

	require.NoError(t, Migrate(ctx, cfg, MigrateDown, opts...))
	assert.Error(t, Migrate(ctx, cfg, "sideways", opts...))
}

func TestNew_RegistersInfrastructure(t *testing.T) {
	cfg := testConfig()
	a, err := New(cfg, bootstrap.WithLogger(logger.Nop()), bootstrap.WithSummaryOutput(io.Discard))
	require.NoError(t, err)

	assert.NotNil(t, a.Components.Get("observability"))
	assert.NotNil(t, a.Components.Get("database"))
	assert.Nil(t, a.Components.Get("http-server"), "server is registered during configure")
}
