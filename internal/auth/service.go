// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth implements the credential verification state machine:
// login with password, TOTP challenge, enrollment-on-first-login, and the
// administrative record operations that share the same user store. Reads
// work on private repository snapshots; every state transition is
// persisted through the store's serialized update path, which discards
// the cache when a durable write fails.
package auth

import (
	"fmt"

	"otpgate/internal/audit"
	"otpgate/internal/models"
	"otpgate/internal/otp"
	"otpgate/internal/password"
	"otpgate/internal/store"
)

// minPasswordLen is the minimum accepted password length, enforced before
// any hashing work so malformed requests fail cheaply.
const minPasswordLen = 9

// Service orchestrates authentication over the user repository. It owns
// the admin allowlist (resolved once at startup, not per-request) and a
// per-identifier lock table serializing read-modify-write sequences.
type Service struct {
	users  *store.UserStore
	hasher *password.Hasher
	otp    *otp.Provider
	sink   audit.Sink
	admins map[string]struct{}
	locks  *keyedLocks
}

// NewService wires the state machine to its collaborators. adminEmails is
// the allowlist of identifiers that auto-provision with the admin role.
func NewService(users *store.UserStore, hasher *password.Hasher, provider *otp.Provider, sink audit.Sink, adminEmails []string) *Service {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e != "" {
			admins[e] = struct{}{}
		}
	}
	if sink == nil {
		sink = audit.NoOpSink{}
	}
	return &Service{
		users:  users,
		hasher: hasher,
		otp:    provider,
		sink:   sink,
		admins: admins,
		locks:  newKeyedLocks(),
	}
}

// LoginResult describes the outcome of a login attempt.
type LoginResult struct {
	Email         string
	Role          models.Role
	Registered    bool
	Authenticated bool
	RequiresOTP   bool
	QRCode        string // enrollment artifact, set while unverified
}

// VerifyResult identifies the user after a successful TOTP challenge.
type VerifyResult struct {
	Email string
	Name  string
}

// Login processes a password login. An unknown identifier is
// auto-provisioned — login doubles as signup — and receives an enrollment
// QR code instead of an error. Known identifiers have their password
// verified; soft-deleted records reject everything.
func (s *Service) Login(email, pass string, meta map[string]any) (*LoginResult, error) {
	if email == "" || pass == "" {
		s.emit(audit.ActionLogin, email, audit.StatusFailure, "missing_credentials", meta)
		return nil, validation("Email and Password are required fields")
	}
	if len(pass) < minPasswordLen {
		s.emit(audit.ActionLogin, email, audit.StatusFailure, "password_must_be_9_characters", meta)
		return nil, validation("Password must be at least 9 characters")
	}

	unlock := s.locks.lock(email)
	defer unlock()

	set, err := s.users.Read()
	if err != nil {
		s.emit(audit.ActionLogin, email, audit.StatusError, "storage_read_failed", meta)
		return nil, err
	}

	user := set.Get(email)
	if user == nil {
		return s.register(email, pass, meta)
	}

	if user.Deleted {
		s.emit(audit.ActionLogin, email, audit.StatusFailure, "user_deleted", meta)
		return nil, ErrAccountDeactivated
	}

	ok, err := s.hasher.Verify(pass, user.PasswordHash)
	if err != nil {
		s.emit(audit.ActionLogin, email, audit.StatusError, "corrupt_credential", meta)
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.emit(audit.ActionLogin, email, audit.StatusFailure, "invalid_password", meta)
		return nil, ErrInvalidCredential
	}

	s.emit(audit.ActionLogin, email, audit.StatusSuccess, "password_valid", withMeta(meta, "requires_otp", user.Verified))

	res := &LoginResult{
		Email:         email,
		Role:          user.Role,
		Registered:    true,
		Authenticated: true,
		RequiresOTP:   user.Verified,
	}
	if !user.Verified {
		// Still enrolling — hand the QR code back so the authenticator
		// can be registered before the first challenge.
		res.QRCode = user.QRCode
	}
	return res, nil
}

// register auto-provisions a record for an unknown identifier. The caller
// holds the identifier lock, so no other goroutine can create this email
// between the caller's existence check and the update.
func (s *Service) register(email, pass string, meta map[string]any) (*LoginResult, error) {
	user, err := s.provision(email, email, pass, s.roleFor(email))
	if err != nil {
		s.emit(audit.ActionLogin, email, audit.StatusError, "provision_failed", meta)
		return nil, err
	}

	err = s.users.Update(func(set *models.UserSet) (bool, error) {
		set.Put(user)
		return true, nil
	})
	if err != nil {
		s.emit(audit.ActionLogin, email, audit.StatusError, "storage_write_failed", meta)
		return nil, err
	}

	s.emit(audit.ActionLogin, email, audit.StatusSuccess, "auto_user_created", meta)

	return &LoginResult{
		Email:      email,
		Role:       user.Role,
		Registered: true,
		QRCode:     user.QRCode,
	}, nil
}

// VerifyCode processes the TOTP challenge. Success marks the record
// verified and persists it; failure leaves the record untouched.
func (s *Service) VerifyCode(email, code string, meta map[string]any) (*VerifyResult, error) {
	if email == "" || code == "" {
		s.emit(audit.ActionVerifyTOTP, email, audit.StatusFailure, "missing_fields", meta)
		return nil, validation("Email and token are required fields")
	}

	unlock := s.locks.lock(email)
	defer unlock()

	set, err := s.users.Read()
	if err != nil {
		s.emit(audit.ActionVerifyTOTP, email, audit.StatusError, "storage_read_failed", meta)
		return nil, err
	}

	user := set.Get(email)
	if user == nil {
		s.emit(audit.ActionVerifyTOTP, email, audit.StatusFailure, "user_not_found", meta)
		return nil, ErrUserNotFound
	}
	if user.Deleted {
		s.emit(audit.ActionVerifyTOTP, email, audit.StatusFailure, "user_deleted", meta)
		return nil, ErrAccountDeactivated
	}

	if !s.otp.VerifyCode(user.Secret, code) {
		s.emit(audit.ActionVerifyTOTP, email, audit.StatusFailure, "invalid_or_expired_totp", meta)
		return nil, ErrInvalidCode
	}

	if !user.Verified {
		err := s.users.Update(func(set *models.UserSet) (bool, error) {
			u := set.Get(email)
			if u == nil {
				return false, ErrUserNotFound
			}
			if u.Verified {
				return false, nil
			}
			u.Verified = true
			return true, nil
		})
		if err != nil {
			s.emit(audit.ActionVerifyTOTP, email, audit.StatusError, "storage_write_failed", meta)
			return nil, err
		}
	}

	s.emit(audit.ActionVerifyTOTP, email, audit.StatusSuccess, "otp_verified", meta)
	return &VerifyResult{Email: email, Name: user.Name}, nil
}

// Diagnostics runs the repository read benchmark. Operational insight
// only — never part of the authentication path.
func (s *Service) Diagnostics(iterations int, mode store.DiagMode) (*store.DiagReport, error) {
	return s.users.Diagnostics(iterations, mode)
}

// provision builds a complete record: hashed password, fresh TOTP secret,
// rendered enrollment QR code.
func (s *Service) provision(email, name, pass string, role models.Role) (*models.User, error) {
	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return nil, err
	}

	secret, uri, err := s.otp.GenerateSecret(email)
	if err != nil {
		return nil, err
	}

	qr, err := otp.QRCodeDataURL(uri)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = email
	}

	return &models.User{
		ID:           email,
		Name:         name,
		PasswordHash: hash,
		Secret:       secret,
		QRCode:       qr,
		Role:         role,
	}, nil
}

// roleFor resolves the role for a new identifier from the startup
// allowlist.
func (s *Service) roleFor(email string) models.Role {
	if _, ok := s.admins[email]; ok {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// emit sends an audit event. The sink is best-effort and never alters the
// operation outcome.
func (s *Service) emit(action, email, status, reason string, meta map[string]any) {
	s.sink.Emit(audit.Event{
		Action: action,
		Email:  email,
		Status: status,
		Reason: reason,
		Meta:   meta,
	})
}

// withMeta returns a copy of meta with one extra key set.
func withMeta(meta map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out[key] = value
	return out
}
