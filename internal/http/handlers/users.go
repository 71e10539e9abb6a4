package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/lzhoang/userbase-be/internal/directory"
	"github.com/lzhoang/userbase-be/internal/http/respond"
	"github.com/lzhoang/userbase-be/internal/middleware"
	"github.com/lzhoang/userbase-be/internal/models"
	"github.com/lzhoang/userbase-be/internal/models/dto"
)

// UserHandler owns the authenticated user CRUD and password-change endpoints.
type UserHandler struct {
	users *directory.Directory
}

// NewUserHandler constructs the handler.
func NewUserHandler(users *directory.Directory) *UserHandler {
	return &UserHandler{users: users}
}

// Register attaches user routes to the mux behind the guard.
func (h *UserHandler) Register(mux *http.ServeMux, guard *middleware.Guard) {
	mux.Handle("GET /api/users", guard.Require(http.HandlerFunc(h.handleList)))
	mux.Handle("GET /api/users/{id}", guard.Require(http.HandlerFunc(h.handleGet)))
	mux.Handle("PUT /api/users/{id}", guard.Require(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /api/users/{id}", guard.Require(http.HandlerFunc(h.handleDelete)))
	mux.Handle("PUT /api/users/{id}/password", guard.Require(http.HandlerFunc(h.handleChangePassword)))
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.FindAll(r.Context())
	if err != nil {
		log.Printf("list users error: %v", err)
		respond.Error(w, http.StatusInternalServerError, "server error while fetching users")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(users),
		"data":    users,
	})
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("get user error: %v", err)
		respond.Error(w, http.StatusInternalServerError, "server error while fetching user")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    user,
	})
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.RequesterFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "no token, authorization denied")
		return
	}
	targetID := r.PathValue("id")
	if !selfOrAdmin(requester, targetID) {
		respond.Error(w, http.StatusForbidden, "you can only update your own profile")
		return
	}

	var req dto.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := h.users.Update(r.Context(), targetID, directory.Update{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		var vErr *directory.ValidationError
		switch {
		case errors.As(err, &vErr):
			respond.Error(w, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, directory.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "user not found")
		default:
			log.Printf("update user error: %v", err)
			respond.Error(w, http.StatusInternalServerError, "server error while updating user")
		}
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User updated successfully",
		"data":    user,
	})
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.RequesterFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "no token, authorization denied")
		return
	}
	if requester.Role != models.RoleAdmin {
		respond.Error(w, http.StatusForbidden, "admin access required to delete users")
		return
	}
	targetID := r.PathValue("id")
	if requester.ID == targetID {
		respond.Error(w, http.StatusBadRequest, "you cannot delete your own account")
		return
	}

	if err := h.users.Delete(r.Context(), targetID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("delete user error: %v", err)
		respond.Error(w, http.StatusInternalServerError, "server error while deleting user")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User deleted successfully",
	})
}

func (h *UserHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.RequesterFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "no token, authorization denied")
		return
	}

	var req dto.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		respond.Error(w, http.StatusBadRequest, "please provide current and new password")
		return
	}

	targetID := r.PathValue("id")
	if !selfOrAdmin(requester, targetID) {
		respond.Error(w, http.StatusForbidden, "you can only update your own password")
		return
	}

	requireCurrent := requester.Role != models.RoleAdmin
	err := h.users.ChangePassword(r.Context(), targetID, req.CurrentPassword, req.NewPassword, requireCurrent)
	if err != nil {
		var vErr *directory.ValidationError
		switch {
		case errors.As(err, &vErr):
			respond.Error(w, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, directory.ErrWrongPassword):
			respond.Error(w, http.StatusBadRequest, "current password is incorrect")
		case errors.Is(err, directory.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "user not found")
		default:
			log.Printf("change password error: %v", err)
			respond.Error(w, http.StatusInternalServerError, "server error while updating password")
		}
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password updated successfully",
	})
}

// selfOrAdmin is the shared authorization predicate for profile mutations.
func selfOrAdmin(requester models.PublicUser, targetID string) bool {
	return requester.ID == targetID || requester.Role == models.RoleAdmin
}
