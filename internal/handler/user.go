package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/riverlog/riverlog/internal/auth"
	"github.com/riverlog/riverlog/internal/handler/dto"
	"github.com/riverlog/riverlog/internal/model"
	"github.com/riverlog/riverlog/internal/service"
)

// AccountService is the subset of the account service used by the handler.
type AccountService interface {
	CreateUser(ctx context.Context, input service.CreateUserInput) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	IssueToken(ctx context.Context, userID string) (string, *model.Token, error)
	RevokeToken(ctx context.Context, tokenID string) error
}

// AuthCache invalidates cached auth contexts when a token is revoked.
type AuthCache interface {
	DeleteAuthContext(ctx context.Context, cacheKey string) error
}

// UserHandler handles signup, token issuance and token revocation.
type UserHandler struct {
	svc    AccountService
	cache  AuthCache
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc AccountService, cache AuthCache, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		cache:  cache,
		logger: logger,
	}
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, err := h.svc.CreateUser(r.Context(), service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleAccountError(w, err)
		return
	}

	h.logger.Info("user_created",
		"user_id", user.ID,
		"email", user.Email,
	)

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Token handles POST /api/v1/users/token. On valid credentials it issues
// a bearer token whose plaintext is shown exactly once.
func (h *UserHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleAccountError(w, err)
		return
	}

	plaintext, token, err := h.svc.IssueToken(r.Context(), user.ID)
	if err != nil {
		h.handleAccountError(w, err)
		return
	}

	h.logger.Info("token_issued",
		"token_id", token.ID,
		"token_prefix", token.TokenPrefix,
		"user_id", user.ID,
	)

	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: plaintext})
}

// Revoke handles DELETE /api/v1/users/token. It revokes the token the
// request authenticated with and drops its cached auth context, so the
// credential stops working immediately.
func (h *UserHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	if err := h.svc.RevokeToken(r.Context(), authCtx.TokenID); err != nil {
		h.handleAccountError(w, err)
		return
	}

	if token := bearerToken(r); token != "" && h.cache != nil {
		if err := h.cache.DeleteAuthContext(r.Context(), auth.QuickHash(token)); err != nil {
			h.logger.Warn("failed to invalidate auth cache",
				"token_id", authCtx.TokenID,
				"error", err,
			)
		}
	}

	h.logger.Info("token_revoked",
		"token_id", authCtx.TokenID,
		"user_id", authCtx.UserID,
	)

	w.WriteHeader(http.StatusNoContent)
}

// bearerToken returns the credential presented on the request, without
// the Authorization scheme prefix.
func bearerToken(r *http.Request) string {
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

// handleAccountError maps account service errors to HTTP responses.
func (h *UserHandler) handleAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmailRequired):
		writeValidationError(w, map[string]string{"email": "this field is required"})
	case errors.Is(err, service.ErrPasswordRequired):
		writeValidationError(w, map[string]string{"password": "this field is required"})
	case errors.Is(err, service.ErrEmailExists):
		writeError(w, http.StatusConflict, "EMAIL_EXISTS", "Email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, service.ErrTokenNotFound):
		writeError(w, http.StatusNotFound, "TOKEN_NOT_FOUND", "Token not found or already revoked")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
