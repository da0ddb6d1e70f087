package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

func newUserFixture() (*UserService, *stubUserRepo, *stubIdentityCache) {
	repo := newStubUserRepo()
	cache := newStubIdentityCache()
	return NewUserService(repo, cache, "test-secret", time.Hour, zerolog.Nop()), repo, cache
}

func registerInput(email string) ports.RegisterUserInput {
	return ports.RegisterUserInput{
		Name:     "Tech One",
		Email:    email,
		Password: "initial-pass-123",
		Role:     domain.RoleTechnician,
	}
}

func TestRegister_NormalizesEmailAndForcesPasswordChange(t *testing.T) {
	svc, _, _ := newUserFixture()

	user, err := svc.Register(context.Background(), registerInput("Tech.One@Example.COM"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "tech.one@example.com" {
		t.Fatalf("stored email must be normalized, got %q", user.Email)
	}
	if !user.MustChangePassword {
		t.Fatalf("admin-created accounts must start with a temporary password")
	}
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput("dup@example.com")); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, registerInput("DUP@example.com"))
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("case variants are the same address, expected ErrDuplicateEmail, got %v", err)
	}
}

func TestRegister_InvalidRoleRejected(t *testing.T) {
	svc, _, _ := newUserFixture()
	input := registerInput("x@example.com")
	input.Role = domain.Role("superuser")
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogin_CaseInsensitiveEmail(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput("tech@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, user, err := svc.Login(ctx, "TECH@Example.Com", "initial-pass-123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Email != "tech@example.com" {
		t.Fatalf("wrong user resolved")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("issued token must verify: %v", err)
	}
	if claims["email"] != "tech@example.com" {
		t.Fatalf("token carries normalized email, got %v", claims["email"])
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput("tech@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := svc.Login(ctx, "tech@example.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestChangePassword_ClearsFlagAndInvalidatesCache(t *testing.T) {
	svc, repo, cache := newUserFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput("tech@example.com"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	cache.Set(ctx, user)

	if err := svc.ChangePassword(ctx, user.ID, "initial-pass-123", "fresh-pass-456"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	stored, _ := repo.FindByID(ctx, user.ID)
	if stored.MustChangePassword {
		t.Fatalf("flag must clear after a self-service password change")
	}
	if _, ok := cache.Get(ctx, user.Email); ok {
		t.Fatalf("identity cache entry must be invalidated synchronously")
	}

	if _, _, err := svc.Login(ctx, user.Email, "fresh-pass-456"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := svc.Login(ctx, user.Email, "initial-pass-123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working")
	}
}

func TestChangePassword_RequiresCurrentPassword(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput("tech@example.com"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	err = svc.ChangePassword(ctx, user.ID, "not-it", "fresh-pass-456")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUpdateUser_WhitelistProjection(t *testing.T) {
	svc, repo, cache := newUserFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput("tech@example.com"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	cache.Set(ctx, user)

	updated, err := svc.UpdateUser(ctx, user.ID, map[string]any{
		"name":          "New Name",
		"role":          "manager",
		"email":         "hijack@example.com",
		"password_hash": "evil",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "New Name" || updated.Role != domain.RoleManager {
		t.Fatalf("whitelisted fields must apply: %+v", updated)
	}
	if updated.Email != "tech@example.com" {
		t.Fatalf("email is not admin-writable, got %q", updated.Email)
	}

	stored, _ := repo.FindByID(ctx, user.ID)
	if stored.PasswordHash == "evil" {
		t.Fatalf("password_hash must never be patchable")
	}
	if _, ok := cache.Get(ctx, user.Email); ok {
		t.Fatalf("update must invalidate the identity cache entry")
	}
}

func TestUpdateUser_InvalidRoleValue(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput("tech@example.com"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.UpdateUser(ctx, user.ID, map[string]any{"role": "root"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
