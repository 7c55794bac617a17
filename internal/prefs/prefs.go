// Package prefs persists the handful of scalar client settings that
// outlive a session: the server address, the generated client identity,
// and the last-known-paired device id. Stored in
// ~/.config/tickerctl/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds the persisted scalar slots. Zero values mean "not set".
type Prefs struct {
	ServerURL string `toml:"server_url"`
	ClientID  string `toml:"client_id"`
	DeviceID  string `toml:"device_id"`
}

const defaultPrefsPath = "~/.config/tickerctl/prefs.toml"

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to the zero
// value if the file is missing or unreadable. A corrupt prefs file must
// never stop the app from starting.
func Load(path string) Prefs {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{}
	}

	var p Prefs

	file, err := os.Open(resolved)
	if err != nil {
		return Prefs{}
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Prefs{}
	}

	if err := toml.Unmarshal(bytes, &p); err != nil {
		return Prefs{}
	}

	p.ServerURL = strings.TrimSpace(p.ServerURL)
	p.ClientID = strings.TrimSpace(p.ClientID)
	p.DeviceID = strings.TrimSpace(p.DeviceID)
	return p
}

// Save writes preferences to the given path, creating directories as
// needed. The file carries the client identity token, so permissions
// are owner-only.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
