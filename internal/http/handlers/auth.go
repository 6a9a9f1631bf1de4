package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/fruit-scanner-be/internal/auth"
	"github.com/hongminglow/fruit-scanner-be/internal/http/respond"
	"github.com/hongminglow/fruit-scanner-be/internal/middleware"
	"github.com/hongminglow/fruit-scanner-be/internal/models"
	"github.com/hongminglow/fruit-scanner-be/internal/models/dto"
	"github.com/hongminglow/fruit-scanner-be/internal/storage"
)

const (
	minNameLength     = 2
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes and newer versions refuse it.
	maxPasswordBytes = 72
	maxAuthBodyBytes = 1 << 20
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AuthHandler owns the signup, login, logout and me endpoints.
type AuthHandler struct {
	store     storage.UserStore
	tokens    *auth.TokenManager
	log       logrus.FieldLogger
	dummyHash string
	checkPass func(hash, password string) bool
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(store storage.UserStore, tokens *auth.TokenManager, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		store:     store,
		tokens:    tokens,
		log:       log,
		dummyHash: auth.DummyHash(),
		checkPass: auth.CheckPassword,
	}
}

// Register attaches auth routes to the mux. requireUser guards /api/me.
func (h *AuthHandler) Register(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /api/signup", h.handleSignup)
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.HandleFunc("POST /api/logout", h.handleLogout)
	mux.Handle("GET /api/me", requireUser(http.HandlerFunc(h.handleMe)))
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if err := validateSignup(name, req.Email, req.Password); err != nil {
		respond.Error(w, h.log, http.StatusBadRequest, err.Error())
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.WithError(err).Error("hash password")
		respond.Error(w, h.log, http.StatusInternalServerError, "failed to create user")
		return
	}

	created, err := h.store.CreateUser(r.Context(), models.User{
		Name:         name,
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, h.log, http.StatusConflict, "email already registered")
			return
		}
		h.log.WithError(err).Error("create user")
		respond.Error(w, h.log, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.respondWithToken(w, http.StatusCreated, created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.Error(w, h.log, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.store.FindByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Unknown emails pay the same bcrypt cost as a wrong password.
			h.checkPass(h.dummyHash, req.Password)
			respond.Unauthorized(w, h.log, "invalid credentials")
			return
		}
		h.log.WithError(err).Error("find user by email")
		respond.Error(w, h.log, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if !h.checkPass(user.PasswordHash, req.Password) {
		respond.Unauthorized(w, h.log, "invalid credentials")
		return
	}

	h.respondWithToken(w, http.StatusOK, user)
}

// Tokens are not persisted, so logout only acknowledges; the client drops the token.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, h.log, http.StatusOK, dto.MessageResponse{Message: "Logged out"})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Unauthorized(w, h.log, "not authenticated")
		return
	}
	respond.JSON(w, h.log, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user models.User) {
	token, err := h.tokens.Generate(user)
	if err != nil {
		h.log.WithError(err).WithField("user_id", user.ID).Error("generate token")
		respond.Error(w, h.log, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, h.log, status, dto.TokenResponse{AccessToken: token, TokenType: "bearer", User: user})
}

func (h *AuthHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, h.log, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		respond.Error(w, h.log, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func validateSignup(name, email, password string) error {
	if utf8.RuneCountInString(name) < minNameLength {
		return errors.New("name must be at least 2 characters")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("invalid email address")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return errors.New("password must be at least 6 characters")
	}
	if len(password) > maxPasswordBytes {
		return errors.New("password must be at most 72 bytes")
	}
	return nil
}
