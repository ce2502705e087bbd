// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ids

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const devicePrefix = "device_"

var ErrInvalidToken = errors.New("invalid submission token")

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewDeviceID creates a client device identifier of the form
// device_<unix-ms>_<9 hex chars>. It is generated once per client and persisted.
func NewDeviceID(now time.Time) (string, error) {
	suffix, err := GenerateID(5)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d_%s", devicePrefix, now.UnixMilli(), suffix[:9]), nil
}

// IsGeneratedDeviceID reports whether id looks like one produced by NewDeviceID.
// The server never requires this; it only accepts non-empty identifiers.
func IsGeneratedDeviceID(id string) bool {
	rest, ok := strings.CutPrefix(id, devicePrefix)
	if !ok {
		return false
	}
	ms, suffix, ok := strings.Cut(rest, "_")
	if !ok || ms == "" || len(suffix) != 9 {
		return false
	}
	for _, c := range ms {
		if c < '0' || c > '9' {
			return false
		}
	}
	_, err := hex.DecodeString(suffix[:8])
	return err == nil
}

// NewSubmissionToken returns a fresh token identifying one submission attempt.
// Retries of the same attempt reuse the token so the server can recognize replays.
func NewSubmissionToken() string {
	return uuid.NewString()
}

// ParseSubmissionToken normalizes a client supplied token.
func ParseSubmissionToken(token string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return "", ErrInvalidToken
	}
	return id.String(), nil
}
