// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package otp generates per-user TOTP secrets, renders enrollment QR
// codes, and verifies submitted codes against a drift tolerance window.
package otp

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode"

	potp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	// secretSize is the random secret length in bytes before base32
	// encoding. 20 bytes (160 bits) matches RFC 4226's recommendation.
	secretSize = 20

	// period is the TOTP time step in seconds.
	period = 30

	// skew is how many adjacent time steps either side of the current one
	// are accepted, tolerating up to ±3 minutes of clock drift between
	// the server and the user's device. Widening it further would grow
	// the replay-acceptance surface.
	skew = 6

	// qrSize is the pixel size of the rendered enrollment QR code.
	qrSize = 256
)

// Provider issues and verifies TOTP credentials under a fixed issuer name.
type Provider struct {
	issuer string
}

// NewProvider creates a Provider labelling enrollment URIs with issuer.
func NewProvider(issuer string) *Provider {
	if issuer == "" {
		issuer = "otpgate"
	}
	return &Provider{issuer: issuer}
}

// GenerateSecret produces a fresh random secret for the given account
// label and the otpauth:// enrollment URI encoding it.
func (p *Provider) GenerateSecret(label string) (secret, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      p.issuer,
		AccountName: label,
		SecretSize:  secretSize,
	})
	if err != nil {
		return "", "", fmt.Errorf("generate totp secret: %w", err)
	}
	return key.Secret(), key.URL(), nil
}

// QRCodeDataURL renders the enrollment URI as a scannable PNG QR code,
// returned as a base64 data URL ready for an <img> tag. Pure function —
// no side effects, no network.
func QRCodeDataURL(uri string) (string, error) {
	png, err := qrcode.Encode(uri, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// VerifyCode checks a submitted code against secret for the current time
// step and ±skew adjacent steps. Malformed or empty codes are rejected
// before any computation.
func (p *Provider) VerifyCode(secret, code string) bool {
	code = strings.TrimSpace(code)
	if !wellFormedCode(code) {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    period,
		Skew:      skew,
		Digits:    potp.DigitsSix,
		Algorithm: potp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// wellFormedCode reports whether code looks like a 6-digit TOTP value.
func wellFormedCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
