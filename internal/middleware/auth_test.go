package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riverlog/riverlog/internal/auth"
	"github.com/riverlog/riverlog/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTokenStore serves a fixed token set and records last-used stamps.
type fakeTokenStore struct {
	tokens      []*model.Token
	prefixCalls int
	lastUsedCtx context.Context
	stamped     chan string
}

func (f *fakeTokenStore) GetTokensByPrefix(_ context.Context, _ string) ([]*model.Token, error) {
	f.prefixCalls++
	return f.tokens, nil
}

func (f *fakeTokenStore) UpdateTokenLastUsed(ctx context.Context, id string) error {
	f.lastUsedCtx = ctx
	f.stamped <- id
	return nil
}

// fakeAuthCache is an in-memory AuthContextCache.
type fakeAuthCache struct {
	entries map[string]*model.AuthContext
}

func newFakeAuthCache() *fakeAuthCache {
	return &fakeAuthCache{entries: make(map[string]*model.AuthContext)}
}

func (f *fakeAuthCache) GetAuthContext(_ context.Context, cacheKey string) (*model.AuthContext, error) {
	return f.entries[cacheKey], nil
}

func (f *fakeAuthCache) SetAuthContext(_ context.Context, cacheKey string, ac *model.AuthContext) error {
	f.entries[cacheKey] = ac
	return nil
}

func TestAuthenticate_NoCredentialPassesThrough(t *testing.T) {
	t.Parallel()

	// Repository and cache are nil on purpose: an anonymous request must
	// never reach either.
	mw := Authenticate(AuthConfig{Logger: discardLogger()})

	var sawAuth bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = auth.AuthFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rivers/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if sawAuth {
		t.Error("anonymous request must not carry an auth context")
	}
}

func TestAuthenticate_MalformedTokenRejected(t *testing.T) {
	t.Parallel()

	mw := Authenticate(AuthConfig{Logger: discardLogger()})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run for a malformed token")
	})

	tests := []struct {
		name   string
		header string
	}{
		{"not_a_token", "Bearer garbage"},
		{"wrong_scheme_prefix", "Bearer pk_live_abc123_0123456789abcdef0123456789abcdef"},
		{"truncated", "Bearer rl_live_abc123_0123"},
		{"token_scheme", "Token garbage"},
		{"bare_header", "garbage"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/rivers/", nil)
			req.Header.Set("Authorization", test.header)

			rec := httptest.NewRecorder()
			mw(next).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "UNAUTHORIZED") {
				t.Errorf("unexpected body: %s", rec.Body.String())
			}
		})
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	t.Parallel()

	generated, err := auth.GenerateToken(auth.EnvTest)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	store := &fakeTokenStore{
		tokens: []*model.Token{{
			ID:          "tok-001",
			UserID:      "user-001",
			TokenHash:   generated.Hash,
			TokenPrefix: generated.Prefix,
		}},
		stamped: make(chan string, 1),
	}
	cache := newFakeAuthCache()

	mw := Authenticate(AuthConfig{Logger: discardLogger(), Repository: store, Cache: cache})

	var got *model.AuthContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.AuthFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	reqCtx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rivers/", nil).WithContext(reqCtx)
	req.Header.Set("Authorization", "Bearer "+generated.Plaintext)

	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	cancel()

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got == nil || got.UserID != "user-001" || got.TokenID != "tok-001" {
		t.Fatalf("auth context = %+v, want user-001/tok-001", got)
	}

	// The resolved context is cached under the token's quick hash.
	if cache.entries[auth.QuickHash(generated.Plaintext)] == nil {
		t.Error("auth context should be cached after verification")
	}

	// last_used_at is stamped off the request path, on a context that
	// survives the request's cancellation.
	select {
	case id := <-store.stamped:
		if id != "tok-001" {
			t.Errorf("stamped token = %s, want tok-001", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("UpdateTokenLastUsed was never called")
	}
	if err := store.lastUsedCtx.Err(); err != nil {
		t.Errorf("last-used stamp context already done: %v", err)
	}
}

func TestAuthenticate_CacheHitSkipsStore(t *testing.T) {
	t.Parallel()

	generated, err := auth.GenerateToken(auth.EnvTest)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	store := &fakeTokenStore{stamped: make(chan string, 1)}
	cache := newFakeAuthCache()
	cache.entries[auth.QuickHash(generated.Plaintext)] = &model.AuthContext{
		TokenID:     "tok-001",
		TokenPrefix: generated.Prefix,
		UserID:      "user-001",
	}

	mw := Authenticate(AuthConfig{Logger: discardLogger(), Repository: store, Cache: cache})

	var got *model.AuthContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.AuthFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rivers/", nil)
	req.Header.Set("Authorization", "Bearer "+generated.Plaintext)

	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got == nil || got.UserID != "user-001" {
		t.Fatalf("auth context = %+v, want cached user-001", got)
	}
	if store.prefixCalls != 0 {
		t.Errorf("prefix lookups = %d, want 0 on cache hit", store.prefixCalls)
	}
}

func TestAuthenticate_UnknownTokenRejected(t *testing.T) {
	t.Parallel()

	generated, err := auth.GenerateToken(auth.EnvTest)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	// Well-formed token, but the store has no candidates for its prefix.
	store := &fakeTokenStore{stamped: make(chan string, 1)}
	cache := newFakeAuthCache()

	mw := Authenticate(AuthConfig{Logger: discardLogger(), Repository: store, Cache: cache})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run for an unknown token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rivers/", nil)
	req.Header.Set("Authorization", "Bearer "+generated.Plaintext)

	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestExtractToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"bearer", "Bearer rl_live_abc123_secret", "rl_live_abc123_secret"},
		{"token_scheme", "Token rl_live_abc123_secret", "rl_live_abc123_secret"},
		{"bare_value", "rl_live_abc123_secret", "rl_live_abc123_secret"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			}
			if got := extractToken(req); got != test.want {
				t.Errorf("extractToken() = %q, want %q", got, test.want)
			}
		})
	}
}
