// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers exposes the JSON HTTP surface over the authentication
// service: the login/verify flow, cache diagnostics, and the
// administrative user CRUD.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"otpgate/internal/auth"
)

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// errorBody is the uniform JSON error payload.
type errorBody struct {
	Message         string `json:"message"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	IsRegistered    bool   `json:"isRegistered,omitempty"`
}

// writeError maps service errors onto HTTP statuses. Storage and internal
// failures are deliberately opaque to the client.
func writeError(w http.ResponseWriter, err error) {
	var ve *auth.ValidationError

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: ve.Msg})
	case errors.Is(err, auth.ErrInvalidCredential):
		writeJSON(w, http.StatusUnauthorized, errorBody{
			Message:      "Invalid email or password",
			IsRegistered: true,
		})
	case errors.Is(err, auth.ErrInvalidCode):
		writeJSON(w, http.StatusUnauthorized, errorBody{
			Message: "Invalid or expired TOTP. Please make sure your device time is synchronized.",
		})
	case errors.Is(err, auth.ErrAccountDeactivated):
		writeJSON(w, http.StatusForbidden, errorBody{
			Message:      "Your account is no longer active. Please reach out to our support team if you believe this is a mistake.",
			IsRegistered: true,
		})
	case errors.Is(err, auth.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Message: "User not found"})
	case errors.Is(err, auth.ErrUserExists):
		writeJSON(w, http.StatusConflict, errorBody{Message: "User already exists"})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Internal server error"})
	}
}

// decodeJSON parses the request body into dst, limiting its size.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return &auth.ValidationError{Msg: "Invalid JSON body"}
	}
	return nil
}
