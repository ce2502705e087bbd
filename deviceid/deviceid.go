// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package deviceid persists the scanner's device identifier between runs.
package deviceid

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/natefinch/atomic"

	"github.com/danielhkuo/quickly-validate/ids"
	"github.com/danielhkuo/quickly-validate/models"
)

const fileName = "device-id"

// DefaultPath returns the identifier file under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	return filepath.Join(dir, "quickly-validate", fileName), nil
}

// Load returns the identifier stored at path, creating and persisting a new
// one when the file is missing or empty.
func Load(path string) (string, error) {
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(b)); id != "" {
			if utf8.RuneCountInString(id) > models.MaxFieldLength {
				return "", fmt.Errorf("device id in %s exceeds %d characters", path, models.MaxFieldLength)
			}
			return id, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("failed to read device id: %w", err)
	}

	id, err := ids.NewDeviceID(time.Now())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create device id dir: %w", err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(id+"\n")); err != nil {
		return "", fmt.Errorf("failed to write device id: %w", err)
	}

	slog.Info("created device id", "device_id", id, "path", path)
	return id, nil
}
