// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/riverlog/riverlog/internal/auth"
	"github.com/riverlog/riverlog/internal/model"
	"github.com/riverlog/riverlog/internal/repository"
)

// Account service errors.
var (
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenNotFound      = errors.New("token not found")
)

// NormalizeEmail lower-cases only the domain segment of an email address.
// The local part keeps its casing: "Test2@Example.COM" -> "Test2@example.com".
func NormalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// AccountService handles user accounts and token issuance.
type AccountService struct {
	repo *repository.Repository
}

// NewAccountService creates a new AccountService.
func NewAccountService(repo *repository.Repository) *AccountService {
	return &AccountService{repo: repo}
}

// CreateUserInput defines input for creating a user.
type CreateUserInput struct {
	Email       string
	Password    string
	IsStaff     bool
	IsSuperuser bool
}

// CreateUser creates a new user. The email domain is normalized to lower
// case and the password is stored as an argon2id hash, never in plaintext.
func (s *AccountService) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error) {
	if input.Email == "" {
		return nil, ErrEmailRequired
	}
	if input.Password == "" {
		return nil, ErrPasswordRequired
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        NormalizeEmail(input.Email),
		PasswordHash: hash,
		IsStaff:      input.IsStaff,
		IsSuperuser:  input.IsSuperuser,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return user, nil
}

// CreateSuperuser creates a user with staff and superuser flags set.
func (s *AccountService) CreateSuperuser(ctx context.Context, email, password string) (*model.User, error) {
	return s.CreateUser(ctx, CreateUserInput{
		Email:       email,
		Password:    password,
		IsStaff:     true,
		IsSuperuser: true,
	})
}

// Authenticate verifies a credential pair and returns the matching user.
// Returns ErrInvalidCredentials for unknown emails and wrong passwords
// alike, so callers cannot tell the two apart.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// IssueToken creates a new bearer token for a user. The plaintext is
// returned once and only its hash is stored.
func (s *AccountService) IssueToken(ctx context.Context, userID string) (string, *model.Token, error) {
	generated, err := auth.GenerateToken(auth.EnvLive)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	token := &model.Token{
		ID:          ulid.Make().String(),
		UserID:      userID,
		TokenHash:   generated.Hash,
		TokenPrefix: generated.Prefix,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.CreateToken(ctx, token); err != nil {
		return "", nil, err
	}

	return generated.Plaintext, token, nil
}

// RevokeToken marks a token revoked. Unknown and already-revoked tokens
// both report ErrTokenNotFound, so callers cannot tell the two apart.
func (s *AccountService) RevokeToken(ctx context.Context, tokenID string) error {
	token, err := s.repo.GetTokenByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrTokenNotFound
		}
		return err
	}

	if token.IsRevoked() {
		return ErrTokenNotFound
	}

	if err := s.repo.RevokeToken(ctx, token.ID); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrTokenNotFound
		}
		return err
	}

	return nil
}
