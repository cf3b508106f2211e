package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"expense-tracker-api/internal/auth"
	"expense-tracker-api/internal/http/respond"
	"expense-tracker-api/internal/models"
	"expense-tracker-api/internal/models/dto"
	"expense-tracker-api/internal/storage"
)

const (
	maxFullNameLength = 200
	maxEmailLength    = 256
	minPasswordLength = 8
	maxPasswordLength = 64
)

// AuthHandler owns the register and login endpoints.
type AuthHandler struct {
	store  storage.UserStore
	tokens *auth.TokenManager
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(store storage.UserStore, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	email := normalizeEmail(req.Email)
	if err := validateRegistration(fullName, email, req.Password); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	digest, salt, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("hash password: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	user := models.User{
		ID:           uuid.New(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: digest,
		PasswordSalt: salt,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusBadRequest, "email already in use")
			return
		}
		log.Printf("create user: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	respond.JSON(w, http.StatusOK, dto.RegisterResponse{
		User:      dto.NewUserResponse(created),
		CreatedAt: created.CreatedAt,
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	// Missing user and digest mismatch must be indistinguishable to callers.
	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Printf("fetch user: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	if !auth.VerifyPassword(req.Password, user.PasswordHash, user.PasswordSalt) {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		log.Printf("issue token: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	respond.JSON(w, http.StatusOK, dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(fullName, email, password string) error {
	if fullName == "" || utf8.RuneCountInString(fullName) > maxFullNameLength {
		return errors.New("full name is required and must be at most 200 characters")
	}
	if email == "" || len(email) > maxEmailLength {
		return errors.New("a valid email address is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("a valid email address is required")
	}
	if n := utf8.RuneCountInString(password); n < minPasswordLength || n > maxPasswordLength {
		return errors.New("password must be between 8 and 64 characters")
	}
	return nil
}
