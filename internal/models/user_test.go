package models

import (
	"encoding/json"
	"testing"
)

func TestValidRole(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleUser, true},
		{Role("editor"), false},
		{Role(""), false},
		{Role("ADMIN"), false},
	}

	for _, tt := range tests {
		if got := ValidRole(tt.role); got != tt.want {
			t.Errorf("ValidRole(%q): got %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestUserSetGetPut(t *testing.T) {
	set := NewUserSet()

	if got := set.Get("a@x.com"); got != nil {
		t.Errorf("Get on empty set: got %v, want nil", got)
	}

	u := &User{ID: "a@x.com", Name: "A", Role: RoleUser}
	set.Put(u)

	if got := set.Get("a@x.com"); got != u {
		t.Error("Get should return the inserted record")
	}
	if set.Len() != 1 {
		t.Errorf("Len: got %d, want 1", set.Len())
	}

	// Put on a zero-value set must initialize the map.
	var zero UserSet
	zero.Put(u)
	if zero.Get("a@x.com") != u {
		t.Error("Put on zero-value set should initialize the map")
	}
}

func TestUserDocumentSchema(t *testing.T) {
	u := &User{
		ID:           "a@x.com",
		Name:         "A",
		PasswordHash: "$2a$10$hash",
		Secret:       "SECRET",
		QRCode:       "data:image/png;base64,xxx",
		Verified:     true,
		Deleted:      false,
		Role:         RoleAdmin,
	}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// The on-disk field names are a stable contract.
	for _, key := range []string{"id", "name", "password", "secret", "qrCode", "is_verified", "is_deleted", "role"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("document field %q missing", key)
		}
	}
}

func TestIsAdmin(t *testing.T) {
	if !(&User{Role: RoleAdmin}).IsAdmin() {
		t.Error("admin role should report IsAdmin")
	}
	if (&User{Role: RoleUser}).IsAdmin() {
		t.Error("user role should not report IsAdmin")
	}
}

func TestUserSetClone(t *testing.T) {
	set := NewUserSet()
	set.Put(&User{ID: "a@x.com", Name: "a", Role: RoleUser})

	clone := set.Clone()

	if clone == set {
		t.Fatal("clone must be a new set")
	}
	if clone.Get("a@x.com") == set.Get("a@x.com") {
		t.Fatal("clone must copy records, not share them")
	}

	clone.Get("a@x.com").Deleted = true
	clone.Put(&User{ID: "b@x.com"})

	if set.Get("a@x.com").Deleted {
		t.Error("field mutation reached the original")
	}
	if set.Get("b@x.com") != nil {
		t.Error("insert reached the original")
	}
	if set.Len() != 1 || clone.Len() != 2 {
		t.Errorf("lengths: original %d, clone %d", set.Len(), clone.Len())
	}
}
