// Package otp implements RFC 4226 HOTP and RFC 6238 TOTP code generation
// for the one-time-code second factor.
package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const (
	// Digits is the code length.
	Digits = 6
	// StepSeconds is the TOTP time-step width.
	StepSeconds = 30
)

// Step maps a wall-clock instant to its TOTP time-step counter.
func Step(t time.Time) int64 {
	return t.Unix() / StepSeconds
}

// HOTP computes the RFC 4226 code for a counter value.
func HOTP(secret []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, secret)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	off := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[off:off+4]) & 0x7fffffff
	return fmt.Sprintf("%0*d", Digits, code%1000000)
}

// TOTP computes the code for the time-step containing t.
func TOTP(secret []byte, t time.Time) string {
	return HOTP(secret, Step(t))
}

// Validate checks a presented code against the current time-step and returns
// that step. The comparison is constant-time; any malformed input is simply
// a mismatch.
func Validate(secret []byte, code string, t time.Time) (step int64, ok bool) {
	step = Step(t)
	if len(secret) == 0 || len(code) != Digits {
		return step, false
	}
	expected := HOTP(secret, step)
	return step, subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1
}

// DecodeSecret parses a base32 enrollment secret, tolerating lowercase and
// missing padding.
func DecodeSecret(s string) ([]byte, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimRight(s, "=")
	return base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
}
