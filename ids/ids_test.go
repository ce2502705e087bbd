// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ids

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		wantLen int
	}{
		{"8 bytes", 8, 16},
		{"16 bytes", 16, 32},
		{"32 bytes", 32, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateID(tt.byteLen)
			if err != nil {
				t.Fatalf("GenerateID() error = %v", err)
			}
			if len(id) != tt.wantLen {
				t.Errorf("GenerateID() length = %d, want %d", len(id), tt.wantLen)
			}
		})
	}

	// Test randomness - should not produce duplicates
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateID(16)
		if err != nil {
			t.Fatalf("GenerateID() error on iteration %d: %v", i, err)
		}
		if seen[id] {
			t.Errorf("GenerateID() produced duplicate: %s", id)
		}
		seen[id] = true
	}
}

func TestNewDeviceID(t *testing.T) {
	now := time.UnixMilli(1760668800000)

	id, err := NewDeviceID(now)
	if err != nil {
		t.Fatalf("NewDeviceID() error = %v", err)
	}

	if !strings.HasPrefix(id, "device_1760668800000_") {
		t.Errorf("NewDeviceID() = %q, want device_<ms>_ prefix", id)
	}
	if !IsGeneratedDeviceID(id) {
		t.Errorf("IsGeneratedDeviceID(%q) = false", id)
	}

	other, err := NewDeviceID(now)
	if err != nil {
		t.Fatalf("NewDeviceID() error = %v", err)
	}
	if id == other {
		t.Error("NewDeviceID() produced the same ID twice for the same instant")
	}
}

func TestIsGeneratedDeviceID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"device_1760668800000_abcdef012", true},
		{"device_1_000000000", true},
		{"legacy", false},
		{"device_1", false},
		{"device__abcdef012", false},
		{"device_12x_abcdef012", false},
		{"device_1_abc", false},
		{"device_1_zzzzzzzzz", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsGeneratedDeviceID(tt.id); got != tt.want {
				t.Errorf("IsGeneratedDeviceID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestSubmissionToken(t *testing.T) {
	token := NewSubmissionToken()

	parsed, err := ParseSubmissionToken("  " + strings.ToUpper(token) + " ")
	if err != nil {
		t.Fatalf("ParseSubmissionToken() error = %v", err)
	}
	if parsed != token {
		t.Errorf("ParseSubmissionToken() = %q, want %q", parsed, token)
	}

	if _, err := ParseSubmissionToken("not-a-token"); err != ErrInvalidToken {
		t.Errorf("ParseSubmissionToken() error = %v, want %v", err, ErrInvalidToken)
	}

	if NewSubmissionToken() == token {
		t.Error("NewSubmissionToken() produced a duplicate")
	}
}
