package db

import "testing"

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"url form untouched", "postgres://u:p@localhost:5432/po", "postgres://u:p@localhost:5432/po"},
		{"sqlite file untouched", "file:embpo.db?_busy_timeout=5000", "file:embpo.db?_busy_timeout=5000"},
		{"quotes trimmed", `"postgres://u@h/db"`, "postgres://u@h/db"},
		{"kv gains sslmode", "host=localhost user=po dbname=po", "host=localhost user=po dbname=po sslmode=disable"},
		{"kv spaces collapsed", "host=localhost   user=po  dbname=po sslmode=require", "host=localhost user=po dbname=po sslmode=require"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDSN(tt.in); got != tt.want {
				t.Errorf("NormalizeDSN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsPostgres(t *testing.T) {
	for _, dsn := range []string{
		"postgres://u@h/db",
		"postgresql://u@h/db",
		"host=localhost dbname=po",
	} {
		if !IsPostgres(dsn) {
			t.Errorf("IsPostgres(%q) = false, want true", dsn)
		}
	}
	for _, dsn := range []string{
		"file:embpo.db",
		"embpo.db",
		"",
	} {
		if IsPostgres(dsn) {
			t.Errorf("IsPostgres(%q) = true, want false", dsn)
		}
	}
}

func TestMaskDSN(t *testing.T) {
	if got := maskDSN("host=h password=secret dbname=po"); got != "host=h password=*** dbname=po" {
		t.Errorf("maskDSN kv = %q", got)
	}
	if got := maskDSN("postgres://user:secret@h/db"); got != "postgres://***@h/db" {
		t.Errorf("maskDSN url = %q", got)
	}
}
