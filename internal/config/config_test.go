package config

import (
	"reflect"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "CORS_ORIGINS", "UPLOAD_DIR", "MAX_UPLOAD_MB", "LOG_JSON", "LOG_DEBUG"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	if cfg.Port != "8081" || cfg.UploadDir != "uploads/vendors" || cfg.MaxUploadMB != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxUploadBytes() != 10<<20 {
		t.Fatalf("unexpected upload bytes %d", cfg.MaxUploadBytes())
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"http://localhost:5173"}) {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.LogJSON || cfg.LogDebug {
		t.Fatal("logging flags should default to false")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", " https://tenders.example.com ,,http://localhost:5173")
	t.Setenv("MAX_UPLOAD_MB", "nope")
	t.Setenv("LOG_JSON", "true")

	cfg := FromEnv()

	if cfg.Port != "9000" || !cfg.LogJSON {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.MaxUploadMB != 10 {
		t.Fatalf("invalid size should fall back to default, got %d", cfg.MaxUploadMB)
	}
	want := []string{"http://localhost:5173", "https://tenders.example.com"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Fatalf("origins = %v, want %v", cfg.CORSOrigins, want)
	}
}
