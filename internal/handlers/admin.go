// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"otpgate/internal/audit"
	"otpgate/internal/auth"
	"otpgate/internal/models"
)

// Admin groups the administrative user management handlers. Every
// mutation is a read-modify-write against the shared user store, executed
// inside the service's per-identifier locks.
type Admin struct {
	service *auth.Service
	log     *audit.FileLog
}

// NewAdmin creates the admin handler group. log may be nil if the audit
// trail endpoint is not exposed.
func NewAdmin(service *auth.Service, log *audit.FileLog) *Admin {
	return &Admin{service: service, log: log}
}

// UsersList handles GET /admin/users.
func (h *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	if len(users) == 0 {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "No users found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Users fetched successfully",
		"users":   users,
	})
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

// UserCreate handles POST /admin/create-user.
func (h *Admin) UserCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.service.CreateUser(req.Email, req.Password, req.Name, models.Role(req.Role), requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User created successfully",
		"qrCode":  res.QRCode,
		"email":   res.Email,
		"role":    res.Role,
	})
}

type updateUserRequest struct {
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserUpdate handles PATCH /admin/update-user/{email}.
func (h *Admin) UserUpdate(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.UpdateUser(email, req.Password, models.Role(req.Role), requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    user,
	})
}

// UserDelete handles DELETE /admin/delete-user/{email}. Records are
// soft-deleted only.
func (h *Admin) UserDelete(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	if err := h.service.DeleteUser(email, requestMeta(r)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "User deleted successfully",
		"is_deleted": true,
	})
}

// UserReset handles PATCH /admin/reset-user/{email}, regenerating the
// TOTP secret and forcing re-enrollment.
func (h *Admin) UserReset(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	if err := h.service.ResetUser(email, requestMeta(r)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User OTP has been reset. User must reconfigure authenticator on next login.",
	})
}

// LogsList handles GET /admin/logs, returning the retained audit trail.
func (h *Admin) LogsList(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "Audit log not configured"})
		return
	}

	events := h.log.Events()
	if events == nil {
		events = []audit.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"logs": events})
}
