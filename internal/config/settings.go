package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Settings is the user-editable application state: company identity printed
// on every order plus the default tax rate. Persisted as a single JSON blob
// and injected explicitly into whatever needs it; there is no singleton.
type Settings struct {
	CompanyName    string  `json:"companyName"`
	CompanyAddress string  `json:"companyAddress"`
	CompanyPhone   string  `json:"companyPhone"`
	CompanyEmail   string  `json:"companyEmail"`
	TaxRate        float64 `json:"taxRate"`
	CompanyLogo    string  `json:"companyLogo,omitempty"`
}

// DefaultSettings mirrors the factory defaults shipped with the desktop app.
func DefaultSettings() Settings {
	return Settings{
		CompanyName:    "Embroidery Company",
		CompanyAddress: "123 Stitch Lane, Fabric City, FC 12345",
		CompanyPhone:   "(555) 123-4567",
		CompanyEmail:   "orders@embroiderycompany.com",
		TaxRate:        7.5,
	}
}

// SettingsPath returns the well-known location of the settings blob under
// the user config dir. SETTINGS_PATH overrides it (tests, portable installs).
func SettingsPath() (string, error) {
	if p := os.Getenv("SETTINGS_PATH"); p != "" {
		return p, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "embpo", "settings.json"), nil
}

// LoadSettings reads the blob at path, falling back to defaults when the file
// is missing or unreadable. A corrupt blob is not fatal: the defaults win and
// the next save rewrites it.
func LoadSettings(path string) Settings {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultSettings()
	}
	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings()
	}
	return s
}

// SaveSettings writes the whole blob, creating parent directories as needed.
func SaveSettings(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
