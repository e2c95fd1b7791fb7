package session

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// Legacy placeholder values older installs persisted. Seeing one means
// "use same-origin relative URLs": the stored value is cleared.
var legacyBaseURLs = map[string]bool{
	"http://localhost:8000": true,
	"http://127.0.0.1:8000": true,
	"http://localhost:8080": true,
	"http://127.0.0.1:8080": true,
}

// Settings is the persisted client configuration: a single service base
// URL. Empty means same-origin relative paths.
type Settings struct {
	mu   sync.Mutex
	path string
	data settingsFile
}

type settingsFile struct {
	BaseURL string `json:"base_url"`
}

// LoadSettings reads the settings file at path, creating directories as
// needed on save. A missing file and a legacy placeholder value both
// resolve to an empty base URL; the placeholder is cleared on disk.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{path: path}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		// Corrupt settings are not fatal, just start over.
		s.data = settingsFile{}
		return s, nil
	}

	if legacyBaseURLs[s.data.BaseURL] {
		s.data.BaseURL = ""
		_ = s.flush()
	}
	return s, nil
}

// DefaultSettingsPath places the settings file under the user config dir.
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "bookshop-assistant", "settings.json")
}

func (s *Settings) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.BaseURL
}

// SaveBaseURL validates and persists a new base URL. An empty value
// clears the setting back to same-origin behavior.
func (s *Settings) SaveBaseURL(raw string) error {
	if raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("địa chỉ máy chủ không hợp lệ: %q", raw)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.BaseURL = raw
	return s.flush()
}

func (s *Settings) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o644)
}
