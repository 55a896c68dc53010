package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/config"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/pkg/jwt"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

type fakeBlacklist struct {
	jti string
	ttl time.Duration
}

func (f *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	f.jti, f.ttl = jti, ttl
	return nil
}

func setupTestAuthService() (AuthService, *jwt.Manager, *fakeBlacklist, *mockRepos) {
	m := newMockRepos()
	mgr := jwt.NewManager(&config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Hour})
	bl := &fakeBlacklist{}
	return NewAuthService(m.repository(), mgr, bl, zap.NewNop()), mgr, bl, m
}

func TestAuth_CreateUserAndLogin(t *testing.T) {
	svc, mgr, _, m := setupTestAuthService()
	ctx := context.Background()
	emp := m.seedEmployee("E1", "")

	user, err := svc.CreateUser(ctx, &dto.CreateUserRequest{
		Username: "e1", Password: "password123", Role: "employee", EmployeeID: &emp,
	}, "user-admin")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if m.users.users[user.ID].PasswordHash == "password123" {
		t.Error("password stored in clear text")
	}

	tok, err := svc.Login(ctx, &dto.LoginRequest{Username: "e1", Password: "password123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if tok.ExpiresIn != 3600 || tok.User.ID != user.ID {
		t.Errorf("unexpected token response %+v", tok)
	}
	claims, err := mgr.ParseToken(tok.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != "employee" || claims.EmployeeID != emp {
		t.Errorf("unexpected claims %+v", claims)
	}

	me, err := svc.Me(ctx, user.ID)
	if err != nil || me.Username != "e1" {
		t.Errorf("Me = %+v, %v", me, err)
	}
}

func TestAuth_LoginFailures(t *testing.T) {
	svc, _, _, m := setupTestAuthService()
	ctx := context.Background()
	if _, err := svc.CreateUser(ctx, &dto.CreateUserRequest{Username: "hr", Password: "password123", Role: "hr"}, "user-admin"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "hr", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: got %v", err)
	}

	m.users.users["user-hr"].IsActive = false
	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "hr", Password: "password123"}); !errors.Is(err, ErrUserDisabled) {
		t.Errorf("disabled user: got %v", err)
	}
}

func TestAuth_CreateUserErrors(t *testing.T) {
	svc, _, _, _ := setupTestAuthService()
	ctx := context.Background()
	req := &dto.CreateUserRequest{Username: "hr", Password: "password123", Role: "hr"}
	if _, err := svc.CreateUser(ctx, req, "user-admin"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := svc.CreateUser(ctx, req, "user-admin"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}

	missing := "emp-missing"
	_, err := svc.CreateUser(ctx, &dto.CreateUserRequest{Username: "x1", Password: "password123", Role: "employee", EmployeeID: &missing}, "user-admin")
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("expected not found for unknown employee, got %v", err)
	}
}

func TestAuth_Logout(t *testing.T) {
	svc, mgr, bl, _ := setupTestAuthService()
	ctx := context.Background()

	tok, _ := mgr.GenerateAccessToken("user-hr", "hr", "")
	claims, err := mgr.ParseToken(tok)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if bl.jti != claims.ID || bl.ttl <= 0 || bl.ttl > time.Hour {
		t.Errorf("blacklisted %q for %v", bl.jti, bl.ttl)
	}

	noRedis := NewAuthService(newMockRepos().repository(), mgr, nil, zap.NewNop())
	if err := noRedis.Logout(ctx, claims); err != nil {
		t.Errorf("logout without a blacklist should be a no-op, got %v", err)
	}
}
