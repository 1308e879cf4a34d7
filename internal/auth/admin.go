// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// admin.go holds the administrative record operations. They are
// read-modify-write sequences against the same user store as the login
// path: per-identifier locks serialize work on one email, and the
// store's update path serializes the write step across identifiers.
package auth

import (
	"fmt"

	"otpgate/internal/audit"
	"otpgate/internal/models"
	"otpgate/internal/otp"
)

// UserInfo is the sanitized record view returned to administrators.
// Password hash, TOTP secret and QR code never leave the service.
type UserInfo struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	Verified bool        `json:"is_verified"`
	Deleted  bool        `json:"is_deleted"`
}

// CreateResult is returned from explicit admin creation. The QR code is
// shown once so the new user's authenticator can be enrolled.
type CreateResult struct {
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	QRCode string      `json:"qrCode"`
}

func info(u *models.User) UserInfo {
	return UserInfo{
		Email:    u.ID,
		Name:     u.Name,
		Role:     u.Role,
		Verified: u.Verified,
		Deleted:  u.Deleted,
	}
}

// ListUsers returns every record, soft-deleted included. Filtering is the
// caller's decision.
func (s *Service) ListUsers(meta map[string]any) (map[string]UserInfo, error) {
	set, err := s.users.Read()
	if err != nil {
		s.emit(audit.ActionGetUsers, "", audit.StatusError, "storage_read_failed", meta)
		return nil, err
	}

	out := make(map[string]UserInfo, set.Len())
	for email, u := range set.Users {
		out[email] = info(u)
	}

	s.emit(audit.ActionGetUsers, "", audit.StatusSuccess, "get_all_users", withMeta(meta, "count", len(out)))
	return out, nil
}

// CreateUser explicitly provisions a record with the given role. Unlike
// the login path, a duplicate identifier is an error here.
func (s *Service) CreateUser(email, pass, name string, role models.Role, meta map[string]any) (*CreateResult, error) {
	if email == "" || pass == "" || role == "" {
		s.emit(audit.ActionCreateUser, email, audit.StatusFailure, "missing_credentials", meta)
		return nil, validation("Email, Password and Role fields are required")
	}
	if len(pass) < minPasswordLen {
		s.emit(audit.ActionCreateUser, email, audit.StatusFailure, "password_must_be_9_characters", meta)
		return nil, validation("Password must be at least 9 characters")
	}
	if !models.ValidRole(role) {
		s.emit(audit.ActionCreateUser, email, audit.StatusFailure, "invalid_role", meta)
		return nil, validation("Invalid role provided")
	}

	unlock := s.locks.lock(email)
	defer unlock()

	set, err := s.users.Read()
	if err != nil {
		s.emit(audit.ActionCreateUser, email, audit.StatusError, "storage_read_failed", meta)
		return nil, err
	}

	if set.Get(email) != nil {
		s.emit(audit.ActionCreateUser, email, audit.StatusFailure, "user_already_exists", meta)
		return nil, ErrUserExists
	}

	user, err := s.provision(email, name, pass, role)
	if err != nil {
		s.emit(audit.ActionCreateUser, email, audit.StatusError, "provision_failed", meta)
		return nil, err
	}

	err = s.users.Update(func(set *models.UserSet) (bool, error) {
		set.Put(user)
		return true, nil
	})
	if err != nil {
		s.emit(audit.ActionCreateUser, email, audit.StatusError, "storage_write_failed", meta)
		return nil, err
	}

	s.emit(audit.ActionCreateUser, email, audit.StatusSuccess, "new_user_created", withMeta(meta, "has_2fa", true))
	return &CreateResult{Email: email, Role: role, QRCode: user.QRCode}, nil
}

// UpdateUser changes the password and/or role of an existing record.
// The password is re-hashed only when it actually changed.
func (s *Service) UpdateUser(email, pass string, role models.Role, meta map[string]any) (*UserInfo, error) {
	if email == "" {
		s.emit(audit.ActionUpdateUser, email, audit.StatusFailure, "missing_required_params", meta)
		return nil, validation("Email is required")
	}
	if pass != "" && len(pass) < minPasswordLen {
		s.emit(audit.ActionUpdateUser, email, audit.StatusFailure, "password_must_be_9_characters", meta)
		return nil, validation("Password must be at least 9 characters")
	}
	if role != "" && !models.ValidRole(role) {
		s.emit(audit.ActionUpdateUser, email, audit.StatusFailure, "invalid_role", meta)
		return nil, validation("Invalid role provided")
	}

	unlock := s.locks.lock(email)
	defer unlock()

	set, err := s.users.Read()
	if err != nil {
		s.emit(audit.ActionUpdateUser, email, audit.StatusError, "storage_read_failed", meta)
		return nil, err
	}

	user := set.Get(email)
	if user == nil {
		s.emit(audit.ActionUpdateUser, email, audit.StatusFailure, "user_not_found", meta)
		return nil, ErrUserNotFound
	}

	// Hash off the snapshot before entering the serialized update, so
	// the bcrypt work does not stall other writers.
	newHash := ""
	if pass != "" {
		same, err := s.hasher.Verify(pass, user.PasswordHash)
		if err != nil {
			// A hash bcrypt cannot parse is replaced outright.
			same = false
		}
		if !same {
			newHash, err = s.hasher.Hash(pass)
			if err != nil {
				s.emit(audit.ActionUpdateUser, email, audit.StatusError, "hash_failed", meta)
				return nil, fmt.Errorf("rehash password: %w", err)
			}
		}
	}
	newRole := role != "" && user.Role != role

	result := *user
	if newHash != "" || newRole {
		err := s.users.Update(func(set *models.UserSet) (bool, error) {
			u := set.Get(email)
			if u == nil {
				return false, ErrUserNotFound
			}
			if newHash != "" {
				u.PasswordHash = newHash
			}
			if newRole {
				u.Role = role
			}
			result = *u
			return true, nil
		})
		if err != nil {
			s.emit(audit.ActionUpdateUser, email, audit.StatusError, "storage_write_failed", meta)
			return nil, err
		}
	}

	s.emit(audit.ActionUpdateUser, email, audit.StatusSuccess, "user_updated", meta)
	v := info(&result)
	return &v, nil
}

// DeleteUser soft-deletes a record. The record is retained but rejects
// every future authentication attempt.
func (s *Service) DeleteUser(email string, meta map[string]any) error {
	if email == "" {
		s.emit(audit.ActionDeleteUser, email, audit.StatusFailure, "missing_required_params", meta)
		return validation("Email is required")
	}

	unlock := s.locks.lock(email)
	defer unlock()

	set, err := s.users.Read()
	if err != nil {
		s.emit(audit.ActionDeleteUser, email, audit.StatusError, "storage_read_failed", meta)
		return err
	}

	user := set.Get(email)
	if user == nil {
		s.emit(audit.ActionDeleteUser, email, audit.StatusFailure, "user_not_found", meta)
		return ErrUserNotFound
	}
	if user.Deleted {
		s.emit(audit.ActionDeleteUser, email, audit.StatusFailure, "user_already_removed", meta)
		return validation("User is already removed")
	}

	err = s.users.Update(func(set *models.UserSet) (bool, error) {
		u := set.Get(email)
		if u == nil {
			return false, ErrUserNotFound
		}
		u.Deleted = true
		return true, nil
	})
	if err != nil {
		s.emit(audit.ActionDeleteUser, email, audit.StatusError, "storage_write_failed", meta)
		return err
	}

	s.emit(audit.ActionDeleteUser, email, audit.StatusSuccess, "user_deleted_successfully", meta)
	return nil
}

// ResetUser regenerates the TOTP secret and enrollment QR code and forces
// the record back to unverified. The previous secret is never reused; the
// user must reconfigure their authenticator on next login.
func (s *Service) ResetUser(email string, meta map[string]any) error {
	if email == "" {
		s.emit(audit.ActionResetUser, email, audit.StatusFailure, "missing_required_params", meta)
		return validation("Email is required")
	}

	unlock := s.locks.lock(email)
	defer unlock()

	set, err := s.users.Read()
	if err != nil {
		s.emit(audit.ActionResetUser, email, audit.StatusError, "storage_read_failed", meta)
		return err
	}

	user := set.Get(email)
	if user == nil {
		s.emit(audit.ActionResetUser, email, audit.StatusFailure, "user_not_found", meta)
		return ErrUserNotFound
	}

	secret, uri, err := s.otp.GenerateSecret(email)
	if err != nil {
		s.emit(audit.ActionResetUser, email, audit.StatusError, "secret_generation_failed", meta)
		return err
	}
	qr, err := otp.QRCodeDataURL(uri)
	if err != nil {
		s.emit(audit.ActionResetUser, email, audit.StatusError, "qr_render_failed", meta)
		return err
	}

	err = s.users.Update(func(set *models.UserSet) (bool, error) {
		u := set.Get(email)
		if u == nil {
			return false, ErrUserNotFound
		}
		u.Secret = secret
		u.QRCode = qr
		u.Verified = false
		return true, nil
	})
	if err != nil {
		s.emit(audit.ActionResetUser, email, audit.StatusError, "storage_write_failed", meta)
		return err
	}

	s.emit(audit.ActionResetUser, email, audit.StatusSuccess, "user_reset", meta)
	return nil
}
