package service

import (
	"adaptive_learning_backend/internal/util"
	"context"
	"errors"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.auth.Register("Ada", "ada@example.com", "12345"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("short password: %v", err)
	}
	user, err := env.auth.Register(" Ada ", " Ada@Example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if user.Email != "ada@example.com" || user.Name != "Ada" || user.PasswordHash == "secret1" {
		t.Fatalf("user = %+v", user)
	}
	if _, err := env.auth.Register("Other", "ADA@example.com", "secret1"); !errors.Is(err, util.ErrEmailRegistered) {
		t.Fatalf("duplicate: %v", err)
	}

	if _, _, err := env.auth.Login("ada@example.com", "wrong-pass"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, _, err := env.auth.Login("nobody@example.com", "secret1"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v", err)
	}
	token, logged, err := env.auth.Login("ADA@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := util.ParseJWT(token, "test-secret")
	if err != nil || claims.UserID != logged.ID {
		t.Fatalf("claims = %+v, %v", claims, err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.auth.Register("Ada", "ada@example.com", "secret1"); err != nil {
		t.Fatal(err)
	}

	token, err := env.auth.ForgotPassword(ctx, "missing@example.com")
	if err != nil || token != "" {
		t.Fatalf("unknown email must not issue a token: %q %v", token, err)
	}

	token, err = env.auth.ForgotPassword(ctx, "ada@example.com")
	if err != nil || token == "" {
		t.Fatalf("token = %q, %v", token, err)
	}
	if err := env.auth.ResetPassword(ctx, token, "123"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("short new password: %v", err)
	}
	if err := env.auth.ResetPassword(ctx, token, "newsecret"); err != nil {
		t.Fatal(err)
	}
	if err := env.auth.ResetPassword(ctx, token, "another1"); !errors.Is(err, util.ErrInvalidResetToken) {
		t.Fatalf("reused token: %v", err)
	}

	if _, _, err := env.auth.Login("ada@example.com", "secret1"); err == nil {
		t.Fatal("old password still accepted")
	}
	if _, _, err := env.auth.Login("ada@example.com", "newsecret"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ada, _ := env.auth.Register("Ada", "ada@example.com", "secret1")
	env.auth.Register("Bob", "bob@example.com", "secret1")

	empty := "  "
	if _, err := env.user.UpdateProfile(ada.ID, ProfileUpdate{Name: &empty}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("empty name: %v", err)
	}
	taken := "BOB@example.com"
	if _, err := env.user.UpdateProfile(ada.ID, ProfileUpdate{Email: &taken}); !errors.Is(err, util.ErrEmailRegistered) {
		t.Fatalf("taken email: %v", err)
	}
	own := "ada@example.com"
	name := "Ada Lovelace"
	updated, err := env.user.UpdateProfile(ada.ID, ProfileUpdate{Name: &name, Email: &own})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Ada Lovelace" {
		t.Fatalf("name = %q", updated.Name)
	}
	if _, err := env.user.UpdateProfile(999, ProfileUpdate{Name: &name}); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("missing user: %v", err)
	}
}
