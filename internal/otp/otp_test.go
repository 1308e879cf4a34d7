// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package otp

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestGenerateSecret(t *testing.T) {
	p := NewProvider("TestIssuer")

	secret, uri, err := p.GenerateSecret("a@x.com")
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	if secret == "" {
		t.Fatal("empty secret")
	}
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Errorf("uri: got %q, want otpauth://totp/ prefix", uri)
	}
	if !strings.Contains(uri, "TestIssuer") {
		t.Errorf("uri should carry the issuer: %q", uri)
	}
	if !strings.Contains(uri, "a%40x.com") && !strings.Contains(uri, "a@x.com") {
		t.Errorf("uri should carry the account label: %q", uri)
	}
}

func TestGenerateSecretNeverRepeats(t *testing.T) {
	p := NewProvider("TestIssuer")

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		secret, _, err := p.GenerateSecret("a@x.com")
		if err != nil {
			t.Fatalf("GenerateSecret: %v", err)
		}
		if seen[secret] {
			t.Fatal("secret repeated across generations")
		}
		seen[secret] = true
	}
}

func TestQRCodeDataURL(t *testing.T) {
	p := NewProvider("TestIssuer")
	_, uri, err := p.GenerateSecret("a@x.com")
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}

	dataURL, err := QRCodeDataURL(uri)
	if err != nil {
		t.Fatalf("QRCodeDataURL: %v", err)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		t.Fatalf("got %q..., want %q prefix", dataURL[:32], prefix)
	}

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Error("payload is not a PNG image")
	}
}

func TestVerifyCode(t *testing.T) {
	p := NewProvider("TestIssuer")
	secret, _, err := p.GenerateSecret("a@x.com")
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}

	code, err := totp.GenerateCode(secret, time.Now().UTC())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}

	if !p.VerifyCode(secret, code) {
		t.Error("current code should verify")
	}
	if !p.VerifyCode(secret, " "+code+" ") {
		t.Error("surrounding whitespace should be tolerated")
	}
	if p.VerifyCode(secret, "000000") && code != "000000" {
		t.Error("wrong code must not verify")
	}
}

func TestVerifyCodeDriftWindow(t *testing.T) {
	p := NewProvider("TestIssuer")
	secret, _, err := p.GenerateSecret("a@x.com")
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}

	// A code from 2 minutes ago is inside the ±3 minute window.
	stale, err := totp.GenerateCode(secret, time.Now().UTC().Add(-2*time.Minute))
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if !p.VerifyCode(secret, stale) {
		t.Error("code within the drift window should verify")
	}

	// A code from an hour ago is far outside it.
	old, err := totp.GenerateCode(secret, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if p.VerifyCode(secret, old) {
		t.Error("code outside the drift window must not verify")
	}
}

func TestVerifyCodeRejectsMalformed(t *testing.T) {
	p := NewProvider("TestIssuer")
	secret, _, err := p.GenerateSecret("a@x.com")
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}

	for _, code := range []string{"", "12345", "1234567", "12a456", "abcdef", "12 456"} {
		if p.VerifyCode(secret, code) {
			t.Errorf("malformed code %q must be rejected", code)
		}
	}
}
