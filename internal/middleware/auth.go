package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/riverlog/riverlog/internal/auth"
	"github.com/riverlog/riverlog/internal/model"
)

// minAuthDuration is the minimum time to spend verifying a presented
// credential, to flatten timing differences between failure modes.
const minAuthDuration = 200 * time.Millisecond

// lastUsedTimeout bounds the detached last_used_at stamp.
const lastUsedTimeout = 5 * time.Second

// TokenStore is the subset of the repository used to resolve tokens.
type TokenStore interface {
	GetTokensByPrefix(ctx context.Context, prefix string) ([]*model.Token, error)
	UpdateTokenLastUsed(ctx context.Context, id string) error
}

// AuthContextCache caches resolved auth contexts between requests.
type AuthContextCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, ac *model.AuthContext) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger     *slog.Logger
	Repository TokenStore
	Cache      AuthContextCache
}

// Authenticate returns a middleware that resolves bearer tokens.
//
// Requests without a credential pass through unauthenticated; the access
// policy decides per action whether that is acceptable (listing is open).
// A presented credential must be valid: malformed or unknown tokens are
// rejected with 401 even on open routes.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				// Anonymous request, no record store access.
				next.ServeHTTP(w, r)
				return
			}

			startTime := time.Now()
			defer func() {
				elapsed := time.Since(startTime)
				if elapsed < minAuthDuration {
					time.Sleep(minAuthDuration - elapsed)
				}
			}()

			parsed, err := auth.ParseToken(token)
			if err != nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_format"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			// Check cache first
			cacheKey := auth.QuickHash(token)
			authCtx, _ := cfg.Cache.GetAuthContext(r.Context(), cacheKey)

			if authCtx == nil {
				authCtx = cfg.verifyToken(w, r, token, parsed.Prefix, cacheKey)
				if authCtx == nil {
					return
				}
			}

			cfg.Logger.Info("authentication successful",
				slog.String("token_id", authCtx.TokenID),
				slog.String("token_prefix", authCtx.TokenPrefix),
				slog.String("user_id", authCtx.UserID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// verifyToken looks up candidate tokens by prefix and verifies the
// presented credential against each hash. Returns nil after writing a 401
// if no candidate matches.
func (cfg AuthConfig) verifyToken(w http.ResponseWriter, r *http.Request, token, prefix, cacheKey string) *model.AuthContext {
	tokens, err := cfg.Repository.GetTokensByPrefix(r.Context(), prefix)
	if err != nil {
		cfg.Logger.Error("database error during auth",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		writeAuthError(w)
		return nil
	}

	var matched *model.Token
	for _, t := range tokens {
		match, err := auth.VerifyPassword(token, t.TokenHash)
		if err != nil {
			continue
		}
		if match {
			matched = t
			break
		}
	}

	if matched == nil {
		cfg.Logger.Warn("authentication failed",
			slog.String("reason", "invalid_token"),
			slog.String("ip", r.RemoteAddr),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		writeAuthError(w)
		return nil
	}

	authCtx := &model.AuthContext{
		TokenID:     matched.ID,
		TokenPrefix: matched.TokenPrefix,
		UserID:      matched.UserID,
	}

	_ = cfg.Cache.SetAuthContext(r.Context(), cacheKey, authCtx)

	// Stamp last_used_at off the request path. The request context is
	// canceled when the response is written, so the stamp runs on its own
	// bounded context.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), lastUsedTimeout)
		defer cancel()
		_ = cfg.Repository.UpdateTokenLastUsed(ctx, matched.ID)
	}()

	return authCtx
}

// extractToken extracts the bearer token from the request.
// Supports "Authorization: Bearer <token>" and "Authorization: Token <token>".
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if strings.HasPrefix(header, "Token ") {
		return strings.TrimPrefix(header, "Token ")
	}
	return header
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing token","code":"UNAUTHORIZED"}`))
}
