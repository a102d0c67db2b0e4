package middleware_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/todoapi/auth"
	"github.com/kbukum/todoapi/auth/authctx"
	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/server/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	e := gin.New()
	e.Use(mw...)
	return e
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apperrors.ErrorBody {
	t.Helper()
	var resp apperrors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v (%s)", err, rr.Body.String())
	}
	return resp.Error
}

// ---------------------------------------------------------------------------
// Recovery
// ---------------------------------------------------------------------------

func TestRecovery_NoPanic(t *testing.T) {
	e := newEngine(middleware.Recovery(logger.Nop()))
	e.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRecovery_Panic(t *testing.T) {
	e := newEngine(middleware.Recovery(logger.Nop()))
	e.GET("/test", func(*gin.Context) { panic("test panic") })

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	body := decodeError(t, rr)
	if body.Code != apperrors.ErrCodeInternal {
		t.Fatalf("unexpected code: %s", body.Code)
	}
	if strings.Contains(body.Message, "test panic") {
		t.Fatal("panic value leaked to the client")
	}
}

// ---------------------------------------------------------------------------
// RequestID
// ---------------------------------------------------------------------------

func TestRequestID_GeneratesID(t *testing.T) {
	var seen string
	e := newEngine(middleware.RequestID())
	e.GET("/", func(c *gin.Context) {
		seen = logger.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	got := rr.Header().Get(middleware.HeaderRequestID)
	if got == "" {
		t.Fatal("expected X-Request-Id in response headers")
	}
	if seen != got {
		t.Fatalf("context request id %q != header %q", seen, got)
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := newEngine(middleware.RequestID())
	e.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(middleware.HeaderRequestID, "my-custom-id")
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)

	if got := rr.Header().Get(middleware.HeaderRequestID); got != "my-custom-id" {
		t.Fatalf("expected my-custom-id, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

type subject string

func (s subject) GetUserID() string { return string(s) }

var errBadToken = errors.New("signature mismatch")

func stubValidator(calls *int32) auth.TokenValidator {
	return auth.TokenValidatorFunc(func(token string) (any, error) {
		atomic.AddInt32(calls, 1)
		if token == "good" {
			return subject("user-1"), nil
		}
		return nil, errBadToken
	})
}

func authEngine(calls *int32, reached *bool) *gin.Engine {
	e := newEngine(middleware.Auth(middleware.AuthConfig{
		Validator: stubValidator(calls),
		SkipPaths: []string{"/api/auth"},
		Logger:    logger.Nop(),
	}))
	handler := func(c *gin.Context) {
		*reached = true
		id, _ := authctx.UserID(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user": id, "gin_user": c.GetString(middleware.ContextKeyUserID)})
	}
	e.GET("/api/todos", handler)
	e.POST("/api/auth/login", handler)
	return e
}

func TestAuth_Admits(t *testing.T) {
	var calls int32
	var reached bool
	e := authEngine(&calls, &reached)

	req := httptest.NewRequest(http.MethodGet, "/api/todos", http.NoBody)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || !reached {
		t.Fatalf("expected admission, got %d", rr.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["user"] != "user-1" || body["gin_user"] != "user-1" {
		t.Fatalf("identity not propagated: %v", body)
	}
}

func TestAuth_SchemeIsCaseInsensitive(t *testing.T) {
	var calls int32
	var reached bool
	e := authEngine(&calls, &reached)

	req := httptest.NewRequest(http.MethodGet, "/api/todos", http.NoBody)
	req.Header.Set("Authorization", "bearer good")
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestAuth_Rejects(t *testing.T) {
	tests := []struct {
		name          string
		header        string
		wantMessage   string
		wantValidated bool
	}{
		{"missing header", "", "Authentication required.", false},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "Invalid authentication token.", false},
		{"no token", "Bearer", "Invalid authentication token.", false},
		{"blank token", "Bearer   ", "Invalid authentication token.", false},
		{"invalid token", "Bearer forged", "Invalid authentication token.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			var reached bool
			e := authEngine(&calls, &reached)

			req := httptest.NewRequest(http.MethodGet, "/api/todos", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			e.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			if reached {
				t.Fatal("downstream handler ran for a rejected request")
			}
			body := decodeError(t, rr)
			if body.Code != apperrors.ErrCodeUnauthorized {
				t.Errorf("unexpected code %s", body.Code)
			}
			if body.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMessage)
			}
			if strings.Contains(rr.Body.String(), errBadToken.Error()) {
				t.Error("validator reason leaked to the client")
			}
			if (atomic.LoadInt32(&calls) > 0) != tt.wantValidated {
				t.Errorf("validator calls = %d", calls)
			}
		})
	}
}

func TestAuth_SkipPaths(t *testing.T) {
	var calls int32
	var reached bool
	e := authEngine(&calls, &reached)

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", http.NoBody))

	if rr.Code != http.StatusOK || !reached {
		t.Fatalf("expected skip path to pass, got %d", rr.Code)
	}
	if calls != 0 {
		t.Fatal("validator should not run on skipped paths")
	}
}

// ---------------------------------------------------------------------------
// RateLimit
// ---------------------------------------------------------------------------

func TestRateLimit_SlidingWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e := newEngine(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerMinute: 2,
		Now:               func() time.Time { return now },
	}))
	e.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		return rr
	}

	for i := 0; i < 2; i++ {
		if rr := do(); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}

	rr := do()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rr.Header().Get("Retry-After"))
	}
	if body := decodeError(t, rr); body.Code != apperrors.ErrCodeRateLimited {
		t.Errorf("unexpected code %s", body.Code)
	}

	now = now.Add(61 * time.Second)
	if rr := do(); rr.Code != http.StatusOK {
		t.Fatalf("expected window to slide, got %d", rr.Code)
	}
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	e := newEngine(middleware.RateLimit(middleware.RateLimitConfig{RequestsPerMinute: 1}))
	e.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, ip := range []string{"10.0.0.1:1234", "10.0.0.2:1234"} {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.RemoteAddr = ip
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", ip, rr.Code)
		}
	}
}

// ---------------------------------------------------------------------------
// CORS / BodySizeLimit / Chain
// ---------------------------------------------------------------------------

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestCORS_AllowedOrigin(t *testing.T) {
	h := middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: []string{"https://app.example.com"},
		AllowedMethods: []string{"GET", "POST"},
	})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
		t.Fatalf("unexpected allow-methods %q", got)
	}
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	h := middleware.CORS(middleware.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Origin", "https://evil.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin, got %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := middleware.CORS(middleware.CORSConfig{AllowedOrigins: []string{"*"}})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/todos", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestBodySizeLimit(t *testing.T) {
	var readErr error
	h := middleware.BodySizeLimit("8B")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	if readErr == nil {
		t.Fatal("expected oversized body to fail")
	}

	readErr = nil
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123")))
	if readErr != nil {
		t.Fatalf("unexpected error: %v", readErr)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := middleware.Chain(mark("a"), mark("b"), mark("c"))(okHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if strings.Join(order, ",") != "a,b,c" {
		t.Fatalf("unexpected order %v", order)
	}
}
