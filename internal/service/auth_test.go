package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/YK-03/SharePlate/internal/cache"
	"github.com/YK-03/SharePlate/internal/config"
	"github.com/YK-03/SharePlate/internal/model"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister(t *testing.T) {
	a := testAuth(t, testStore(t))
	ctx := context.Background()

	u, token, err := a.Register(ctx, RegisterInput{Email: "  Alice@Example.com ", Password: "long-enough", FirstName: "Alice"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "alice@example.com" || u.Role != model.RoleDonor || !u.IsActive || !u.NotificationsEnabled {
		t.Errorf("registered user = %+v", u)
	}
	if u.PasswordHash == "long-enough" || u.PasswordHash == "" {
		t.Error("password stored in clear")
	}
	if len(token) <= len(TokenPrefix) || token[:len(TokenPrefix)] != TokenPrefix {
		t.Errorf("token = %q", token)
	}

	_, _, err = a.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "long-enough"})
	var ce ConflictError
	if !errors.As(err, &ce) || ce.Field != "email" || !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate register: err = %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	a := testAuth(t, testStore(t))
	ctx := context.Background()

	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"short password", RegisterInput{Email: "a@example.com", Password: "short"}, "password"},
		{"bad email", RegisterInput{Email: "not-an-email", Password: "long-enough"}, "email"},
		{"missing email", RegisterInput{Password: "long-enough"}, "email"},
		{"bad role", RegisterInput{Email: "a@example.com", Password: "long-enough", Role: "admin"}, "role"},
		{"password over 72 bytes", RegisterInput{Email: "a@example.com", Password: strings.Repeat("x", 80)}, "password"},
		{"multibyte password over 72 bytes", RegisterInput{Email: "a@example.com", Password: strings.Repeat("é", 40)}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := a.Register(ctx, tt.in)
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Fields[0].Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Fields[0].Field, tt.field)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	a := testAuth(t, testStore(t))
	ctx := context.Background()
	mustRegister(t, a, "bob@example.com", model.RoleRecipient)

	res, err := a.Authenticate(ctx, "BOB@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if res.Role != model.RoleRecipient || res.Name != "bob@example.com" {
		t.Errorf("login result = %+v", res)
	}

	if _, err := a.Authenticate(ctx, "bob@example.com", "wrong"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := a.Authenticate(ctx, "nobody@example.com", "correct-horse"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestTokenLifecycle(t *testing.T) {
	a := testAuth(t, testStore(t))
	ctx := context.Background()

	u, token, err := a.Register(ctx, RegisterInput{Email: "c@example.com", Password: "long-enough"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := a.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("token resolved to user %d, want %d", got.ID, u.ID)
	}

	if _, err := a.ValidateToken(ctx, "garbage"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("bad prefix: err = %v", err)
	}
	if _, err := a.ValidateToken(ctx, TokenPrefix+"deadbeef"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("unknown token: err = %v", err)
	}

	if err := a.RevokeToken(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := a.ValidateToken(ctx, token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("revoked token: err = %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	a := testAuth(t, testStore(t))
	ctx := context.Background()
	u := mustRegister(t, a, "d@example.com", model.RoleDonor)

	token, err := a.IssueToken(ctx, u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := a.ValidateToken(ctx, token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expired token: err = %v", err)
	}
}

func TestRegisterPasswordAtBcryptLimit(t *testing.T) {
	a := testAuth(t, testStore(t))
	ctx := context.Background()

	password := strings.Repeat("x", 72)
	if _, _, err := a.Register(ctx, RegisterInput{Email: "max@example.com", Password: password}); err != nil {
		t.Fatalf("72-byte password rejected: %v", err)
	}
	if _, err := a.Authenticate(ctx, "max@example.com", password); err != nil {
		t.Errorf("authenticate: %v", err)
	}
}

type failingDeleteCache struct {
	*cache.MemoryCache
}

func (c failingDeleteCache) Delete(context.Context, string) error {
	return errors.New("redis: connection refused")
}

func TestTokenCleanupFailureIsLogged(t *testing.T) {
	store := testStore(t)
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })

	core, logs := observer.New(zapcore.WarnLevel)
	a := NewAuthService(store, failingDeleteCache{mem}, config.AuthConfig{TokenTTL: time.Hour, MinPasswordLength: 8}, zap.New(core).Sugar())
	a.cost = bcrypt.MinCost
	ctx := context.Background()

	u := mustRegister(t, a, "d@example.com", model.RoleDonor)
	token, err := a.IssueToken(ctx, u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := a.ValidateToken(ctx, token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expired token: err = %v", err)
	}
	if n := logs.FilterMessage("[AuthService] Failed to delete token").Len(); n != 1 {
		t.Errorf("delete failure warnings = %d, want 1", n)
	}
}

func TestListUsers(t *testing.T) {
	a := testAuth(t, testStore(t))
	ctx := context.Background()
	donor := mustRegister(t, a, "donor@example.com", model.RoleDonor)
	mustRegister(t, a, "v1@example.com", model.RoleVolunteer)
	mustRegister(t, a, "v2@example.com", model.RoleVolunteer)

	users, err := a.ListUsers(ctx, donor, model.UserFilter{Role: model.RoleVolunteer})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 volunteers, got %d", len(users))
	}

	if _, err := a.ListUsers(ctx, donor, model.UserFilter{Role: "admin"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad role filter: err = %v", err)
	}
	if _, err := a.ListUsers(ctx, nil, model.UserFilter{}); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous: err = %v", err)
	}
}
