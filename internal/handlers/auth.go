package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"otpgate/internal/auth"
	"otpgate/internal/middleware"
	"otpgate/internal/store"
)

// Auth groups the authentication flow handlers.
type Auth struct {
	service *auth.Service
}

// NewAuth creates the authentication handler group.
func NewAuth(service *auth.Service) *Auth {
	return &Auth{service: service}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message         string `json:"message"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	RequiresOTP     bool   `json:"requiresOtp"`
	QRCode          string `json:"qrCode,omitempty"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	IsRegistered    bool   `json:"isRegistered"`
}

// Login handles POST /auth/login. An unknown email registers a new
// account and returns its enrollment QR code with 201; a known email is
// password-checked.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.service.Login(req.Email, req.Password, requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := loginResponse{
		Email:           res.Email,
		Role:            string(res.Role),
		RequiresOTP:     res.RequiresOTP,
		QRCode:          res.QRCode,
		IsAuthenticated: res.Authenticated,
		IsRegistered:    res.Registered,
	}

	if !res.Authenticated {
		resp.Message = "User registered successfully"
		writeJSON(w, http.StatusCreated, resp)
		return
	}

	resp.Message = "Password valid, enter OTP"
	writeJSON(w, http.StatusOK, resp)
}

type verifyRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type verifyResponse struct {
	Message string     `json:"message"`
	User    verifyUser `json:"user"`
}

type verifyUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// VerifyOTP handles POST /auth/verify-otp, completing the second factor.
// An unknown email is rejected with the same status as a bad code so the
// endpoint does not disclose which identifiers exist.
func (h *Auth) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.service.VerifyCode(req.Email, req.Token, requestMeta(r))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeJSON(w, http.StatusUnauthorized, errorBody{Message: "Invalid user"})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Message: "Login successful",
		User:    verifyUser{Email: res.Email, Name: res.Name},
	})
}

// CacheDiagnostics handles GET /auth/cache-diagnosis. Query parameters:
// iterations (default 100) and mode (cached|bypass).
func (h *Auth) CacheDiagnostics(w http.ResponseWriter, r *http.Request) {
	iterations := 0
	if raw := r.URL.Query().Get("iterations"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, &auth.ValidationError{Msg: "iterations must be an integer"})
			return
		}
		iterations = n
	}

	mode := store.DiagMode(r.URL.Query().Get("mode"))
	if mode != "" && mode != store.DiagCached && mode != store.DiagBypass {
		writeError(w, &auth.ValidationError{Msg: "mode must be cached or bypass"})
		return
	}

	report, err := h.service.Diagnostics(iterations, mode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// requestMeta collects per-request audit metadata.
func requestMeta(r *http.Request) map[string]any {
	return map[string]any{"ip": middleware.ClientIP(r)}
}
