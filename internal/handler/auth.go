package handler

import (
	"net/http"
	"strings"

	"github.com/YK-03/SharePlate/internal/middleware"
	"github.com/YK-03/SharePlate/internal/model"
	"github.com/YK-03/SharePlate/internal/service"
	"github.com/YK-03/SharePlate/pkg/apierror"
	"github.com/YK-03/SharePlate/pkg/response"

	"go.uber.org/zap"
)

// AuthHandler handles account and token HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
	log  *zap.SugaredLogger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *service.AuthService, log *zap.SugaredLogger) *AuthHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &AuthHandler{auth: auth, log: log}
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
	Message string      `json:"message"`
}

// Register handles POST /api/v1/users/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, err)
		return
	}

	user, token, err := h.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Created(w, RegisterResponse{
		User:    user,
		Token:   token,
		Message: "User registered successfully.",
	})
}

// LoginRequest accepts the email under either "username" or "email".
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token string     `json:"token"`
	Role  model.Role `json:"role"`
	Name  string     `json:"name"`
}

// Login handles POST /api/v1/api-token-auth
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	email := strings.TrimSpace(req.Username)
	if email == "" {
		email = strings.TrimSpace(req.Email)
	}

	var missing []apierror.FieldError
	if email == "" {
		missing = append(missing, apierror.FieldError{Field: "username", Message: "This field is required."})
	}
	if req.Password == "" {
		missing = append(missing, apierror.FieldError{Field: "password", Message: "This field is required."})
	}
	if len(missing) > 0 {
		response.Error(w, apierror.ValidationError("", missing...))
		return
	}

	res, err := h.auth.Authenticate(r.Context(), email, req.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.OK(w, LoginResponse{Token: res.Token, Role: res.Role, Name: res.Name})
}

// Revoke handles POST /api/v1/auth/revoke
func (h *AuthHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r)
	if token == "" {
		response.Error(w, apierror.BadRequest("token required"))
		return
	}

	if err := h.auth.RevokeToken(r.Context(), token); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.OK(w, map[string]string{"status": "revoked"})
}

// ListUsers handles GET /api/v1/users?role=&email=
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.UserFilter{
		Role:  model.Role(strings.ToLower(strings.TrimSpace(q.Get("role")))),
		Email: strings.TrimSpace(q.Get("email")),
	}

	users, err := h.auth.ListUsers(r.Context(), middleware.UserFromContext(r.Context()), filter)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.List(w, users, len(users))
}
