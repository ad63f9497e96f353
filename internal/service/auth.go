package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/YK-03/SharePlate/internal/cache"
	"github.com/YK-03/SharePlate/internal/config"
	"github.com/YK-03/SharePlate/internal/model"
	"github.com/YK-03/SharePlate/internal/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenPrefix is the prefix of every issued API token.
	TokenPrefix = "spt_"

	tokenKeyPrefix = "token:"

	// maxPasswordBytes is the longest input bcrypt accepts.
	maxPasswordBytes = 72
)

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Email       string     `json:"email" validate:"required,email,max=254"`
	Password    string     `json:"password" validate:"required"`
	FirstName   string     `json:"first_name" validate:"max=150"`
	LastName    string     `json:"last_name" validate:"max=150"`
	PhoneNumber string     `json:"phone_number" validate:"max=15"`
	Role        model.Role `json:"role" validate:"omitempty,oneof=donor recipient volunteer"`
}

// LoginResult is returned by Authenticate.
type LoginResult struct {
	Token string
	Role  model.Role
	Name  string
	User  *model.User
}

// AuthService owns user accounts and API tokens.
type AuthService struct {
	users    repository.UserRepository
	tokens   cache.Cache
	cfg      config.AuthConfig
	validate *validator.Validate
	log      *zap.SugaredLogger
	now      func() time.Time
	cost     int
}

// NewAuthService creates an auth service. Tokens live in tokens for cfg.TokenTTL.
func NewAuthService(users repository.UserRepository, tokens cache.Cache, cfg config.AuthConfig, log *zap.SugaredLogger) *AuthService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		cfg:      cfg,
		validate: newValidator(),
		log:      log.Named("auth"),
		now:      time.Now,
		cost:     cost,
	}
}

// Register creates a user and issues a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	const op = "service.Register"

	in.Email = model.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if err := validateStruct(s.validate, op, in); err != nil {
		return nil, "", err
	}
	if minLen := s.cfg.MinPasswordLength; len(in.Password) < minLen {
		return nil, "", invalid(op, "password",
			"This password is too short. It must contain at least "+strconv.Itoa(minLen)+" characters.")
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, "", invalid(op, "password",
			"Ensure this field has no more than "+strconv.Itoa(maxPasswordBytes)+" bytes.")
	}
	if in.Role == "" {
		in.Role = model.RoleDonor
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	user := &model.User{
		Email:                in.Email,
		PasswordHash:         hash,
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		Role:                 in.Role,
		PhoneNumber:          in.PhoneNumber,
		IsActive:             true,
		NotificationsEnabled: true,
		DateJoined:           s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ConflictError{Op: op, Field: "email", Message: "A user with that email already exists."}
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.IssueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.log.Infow("[AuthService] Registered user", "user_id", user.ID, "role", user.Role)
	return user, token, nil
}

// Authenticate checks credentials and issues a token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	const op = "service.Authenticate"
	failed := OpError{Op: op, Kind: ErrUnauthenticated, Msg: "Unable to log in with provided credentials."}

	user, err := s.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, failed
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive || !s.VerifyPassword(user, password) {
		return nil, failed
	}

	token, err := s.IssueToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Role: user.Role, Name: user.DisplayName(), User: user}, nil
}

// FindByEmail looks a user up by normalised email.
func (s *AuthService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, OpError{Op: "service.FindByEmail", Kind: ErrNotFound, Msg: "user not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("service.FindByEmail: %w", err)
	}
	return user, nil
}

// HashPassword returns the bcrypt hash of password.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the user's hash.
func (s *AuthService) VerifyPassword(user *model.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// IssueToken creates an opaque token for user and stores it in the cache.
func (s *AuthService) IssueToken(ctx context.Context, user *model.User) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := TokenPrefix + hex.EncodeToString(buf)

	now := s.now().UTC()
	data := model.TokenData{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialize token data: %w", err)
	}
	if err := s.tokens.Set(ctx, tokenKeyPrefix+token, raw, s.cfg.TokenTTL); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	s.log.Debugw("[AuthService] Issued token", "user_id", user.ID, "expires", data.ExpiresAt)
	return token, nil
}

// ValidateToken resolves token to its active user.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	const op = "service.ValidateToken"
	invalidToken := OpError{Op: op, Kind: ErrUnauthenticated, Msg: "Invalid token."}

	if !strings.HasPrefix(token, TokenPrefix) {
		return nil, invalidToken
	}

	key := tokenKeyPrefix + token
	raw, err := s.tokens.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, invalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var data model.TokenData
	if err := json.Unmarshal(raw, &data); err != nil {
		s.dropToken(ctx, key, "corrupt")
		return nil, invalidToken
	}
	if s.now().After(data.ExpiresAt) {
		s.dropToken(ctx, key, "expired")
		return nil, invalidToken
	}

	user, err := s.users.GetUserByID(ctx, data.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		return nil, OpError{Op: op, Kind: ErrUnauthenticated, Msg: "User inactive or deleted."}
	}
	return user, nil
}

// dropToken removes an unusable token entry, logging failures.
func (s *AuthService) dropToken(ctx context.Context, key, reason string) {
	if err := s.tokens.Delete(ctx, key); err != nil {
		s.log.Warnw("[AuthService] Failed to delete token", "reason", reason, "error", err)
	}
}

// RevokeToken deletes token. Revoking an unknown token is not an error.
func (s *AuthService) RevokeToken(ctx context.Context, token string) error {
	if err := s.tokens.Delete(ctx, tokenKeyPrefix+token); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ListUsers returns users matching filter.
func (s *AuthService) ListUsers(ctx context.Context, actor *model.User, filter model.UserFilter) ([]model.User, error) {
	const op = "service.ListUsers"

	if err := Authorize(actor, CapListUsers); err != nil {
		return nil, err
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, invalid(op, "role", "Must be one of: donor recipient volunteer.")
	}

	users, err := s.users.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}
