package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsMissingFileFallsBackToDefaults(t *testing.T) {
	s := LoadSettings(filepath.Join(t.TempDir(), "nope", "settings.json"))
	if s.CompanyName != "Embroidery Company" {
		t.Fatalf("company = %q", s.CompanyName)
	}
	if s.TaxRate != 7.5 {
		t.Fatalf("tax rate = %f, want 7.5", s.TaxRate)
	}
}

func TestSaveAndLoadSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "settings.json")
	in := Settings{
		CompanyName:    "Stitch Works",
		CompanyAddress: "9 Needle Way",
		CompanyPhone:   "(555) 000-1111",
		CompanyEmail:   "po@stitchworks.test",
		TaxRate:        8.25,
	}
	if err := SaveSettings(path, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out := LoadSettings(path)
	if out != in {
		t.Fatalf("round trip mismatch: %#v", out)
	}
}

func TestLoadSettingsCorruptBlobFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := LoadSettings(path)
	if s != DefaultSettings() {
		t.Fatalf("expected defaults, got %#v", s)
	}
}

func TestLoadSettingsPartialBlobKeepsDefaultsForRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"companyName":"Override Co"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := LoadSettings(path)
	if s.CompanyName != "Override Co" {
		t.Fatalf("company = %q", s.CompanyName)
	}
	if s.TaxRate != 7.5 {
		t.Fatalf("tax rate default lost: %f", s.TaxRate)
	}
}

func TestSettingsPathOverride(t *testing.T) {
	t.Setenv("SETTINGS_PATH", "/tmp/custom.json")
	p, err := SettingsPath()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if p != "/tmp/custom.json" {
		t.Fatalf("path = %q", p)
	}
}
