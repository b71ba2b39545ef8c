//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/riverlog/riverlog/internal/testutil"
)

func newTokenTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repo
}

func TestIntegrationTokenRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newTokenTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("paddler"))
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	token := testutil.NewTestToken(t, user.ID)
	if err := repo.CreateToken(ctx, token); err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	retrieved, err := repo.GetTokenByID(ctx, token.ID)
	if err != nil {
		t.Fatalf("GetTokenByID failed: %v", err)
	}
	if retrieved.UserID != user.ID {
		t.Errorf("UserID mismatch: got %q, want %q", retrieved.UserID, user.ID)
	}
	if retrieved.TokenHash != token.TokenHash {
		t.Errorf("TokenHash mismatch")
	}
	if retrieved.IsRevoked() {
		t.Error("fresh token should not be revoked")
	}
}

func TestIntegrationTokenRepository_GetByPrefixSkipsRevoked(t *testing.T) {
	ctx, repo := newTokenTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("paddler"))
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	active := testutil.NewTestToken(t, user.ID)
	revoked := testutil.NewTestToken(t, user.ID)
	revoked.ID = active.ID + "-r"
	revoked.TokenHash = active.TokenHash + "-r"

	if err := repo.CreateToken(ctx, active); err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if err := repo.CreateToken(ctx, revoked); err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if err := repo.RevokeToken(ctx, revoked.ID); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}

	tokens, err := repo.GetTokensByPrefix(ctx, active.TokenPrefix)
	if err != nil {
		t.Fatalf("GetTokensByPrefix failed: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("expected 1 active token, got %d", len(tokens))
	}
	if tokens[0].ID != active.ID {
		t.Errorf("ID = %q, want %q", tokens[0].ID, active.ID)
	}
}

func TestIntegrationTokenRepository_UpdateLastUsed(t *testing.T) {
	ctx, repo := newTokenTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("paddler"))
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	token := testutil.NewTestToken(t, user.ID)
	if err := repo.CreateToken(ctx, token); err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	if err := repo.UpdateTokenLastUsed(ctx, token.ID); err != nil {
		t.Fatalf("UpdateTokenLastUsed failed: %v", err)
	}

	retrieved, err := repo.GetTokenByID(ctx, token.ID)
	if err != nil {
		t.Fatalf("GetTokenByID failed: %v", err)
	}
	if retrieved.LastUsedAt == nil {
		t.Error("LastUsedAt should be stamped")
	}
}

func TestIntegrationTokenRepository_GetMissing(t *testing.T) {
	ctx, repo := newTokenTestEnv(t)

	if _, err := repo.GetTokenByID(ctx, "token-does-not-exist"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
}
