package service

import (
	"context"
	"testing"
	"time"

	"github.com/YK-03/SharePlate/internal/cache"
	"github.com/YK-03/SharePlate/internal/config"
	"github.com/YK-03/SharePlate/internal/model"
	"github.com/YK-03/SharePlate/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

func testStore(t *testing.T) repository.Store {
	t.Helper()
	s, err := repository.NewSQLStore("sqlite", t.TempDir()+"/test.db", repository.SQLOptions{}, nil)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func testAuth(t *testing.T, store repository.Store) *AuthService {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })
	a := NewAuthService(store, c, config.AuthConfig{TokenTTL: time.Hour, MinPasswordLength: 8}, nil)
	a.cost = bcrypt.MinCost
	return a
}

func mustRegister(t *testing.T, a *AuthService, email string, role model.Role) *model.User {
	t.Helper()
	u, _, err := a.Register(context.Background(), RegisterInput{Email: email, Password: "correct-horse", Role: role})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}
