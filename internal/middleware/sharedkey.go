// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
)

// AppKeyHeader carries the shared application key on every API request.
// Clients send the key base64-encoded.
const AppKeyHeader = "X-APP-KEY"

// SharedKey gates every route behind a pre-shared application key. It is
// a perimeter check for the trusted admin frontend, not a user identity.
func SharedKey(key string) func(http.Handler) http.Handler {
	expected := []byte(base64.StdEncoding.EncodeToString([]byte(key)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(AppKeyHeader))
			if subtle.ConstantTimeCompare(got, expected) != 1 {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSONError emits a minimal JSON error body for middleware-level
// rejections.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"message":"` + message + `"}`))
}
