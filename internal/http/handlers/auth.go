package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/lzhoang/userbase-be/internal/auth"
	"github.com/lzhoang/userbase-be/internal/directory"
	"github.com/lzhoang/userbase-be/internal/http/respond"
	"github.com/lzhoang/userbase-be/internal/models/dto"
)

// AuthHandler owns the register, login, and token-verify endpoints.
type AuthHandler struct {
	users  *directory.Directory
	tokens *auth.TokenManager
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(users *directory.Directory, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/verify", h.handleVerify)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := h.users.Create(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		var vErr *directory.ValidationError
		switch {
		case errors.As(err, &vErr):
			respond.Error(w, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, directory.ErrDuplicateEmail):
			respond.Error(w, http.StatusBadRequest, "user with this email already exists")
		default:
			log.Printf("register error: %v", err)
			respond.Error(w, http.StatusInternalServerError, "server error during registration")
		}
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Printf("register: issue token for %s: %v", user.ID, err)
		respond.Error(w, http.StatusInternalServerError, "server error during registration")
		return
	}

	respond.JSON(w, http.StatusCreated, dto.AuthResponse{
		Message: "User registered successfully",
		User:    user,
		Token:   token,
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "please provide email and password")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidCredentials) {
			// Same message for unknown email and wrong password.
			respond.Error(w, http.StatusBadRequest, "invalid credentials")
			return
		}
		log.Printf("login error: %v", err)
		respond.Error(w, http.StatusInternalServerError, "server error during login")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Printf("login: issue token for %s: %v", user.ID, err)
		respond.Error(w, http.StatusInternalServerError, "server error during login")
		return
	}

	respond.JSON(w, http.StatusOK, dto.AuthResponse{
		Message: "Login successful",
		User:    user,
		Token:   token,
	})
}

// handleVerify reports whether the presented token is still usable. Unlike the
// guarded routes it answers with {valid:false} instead of a bare error body.
func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		respond.JSON(w, http.StatusUnauthorized, dto.VerifyResponse{Valid: false, Error: "no token provided"})
		return
	}

	userID, err := h.tokens.Verify(token)
	if err != nil {
		msg := "token is not valid"
		if errors.Is(err, auth.ErrTokenExpired) {
			msg = "token has expired"
		}
		respond.JSON(w, http.StatusUnauthorized, dto.VerifyResponse{Valid: false, Error: msg})
		return
	}

	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			respond.JSON(w, http.StatusUnauthorized, dto.VerifyResponse{Valid: false, Error: "token is not valid"})
			return
		}
		log.Printf("verify: resolve user %s: %v", userID, err)
		respond.Error(w, http.StatusInternalServerError, "server error during token verification")
		return
	}

	respond.JSON(w, http.StatusOK, dto.VerifyResponse{Valid: true, User: &user})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	token := strings.TrimSpace(value[len(bearer):])
	return token, token != ""
}
