package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"CV_CONVERTER", "CV_CONVERT_TIMEOUT", "CV_KEYWORD_LIMIT", "CV_INJECT_KEYWORDS", "CV_DEFAULT_VARIANT", "OBJECT_STORE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Converter != "soffice" {
		t.Fatalf("expected soffice, got %q", cfg.Converter)
	}
	if cfg.ConvertTimeout != 60*time.Second {
		t.Fatalf("expected 60s timeout, got %s", cfg.ConvertTimeout)
	}
	if cfg.KeywordLimit != 10 || !cfg.InjectKeywords || !cfg.OptimizeStatements {
		t.Fatalf("unexpected feature defaults: %+v", cfg)
	}
	if cfg.DefaultVariant != "ats" || cfg.ObjectStoreType != "local" || cfg.KeywordBackend != "tfidf" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CV_CONVERTER", "Pandoc")
	t.Setenv("CV_CONVERT_TIMEOUT", "15")
	t.Setenv("CV_KEYWORD_LIMIT", "25")
	t.Setenv("CV_INJECT_KEYWORDS", "false")
	t.Setenv("CV_DISABLE_TAGGER", "true")
	t.Setenv("CV_KEYWORD_BACKEND", "simple")
	t.Setenv("OBJECT_STORE", "S3")

	cfg := Load()
	if cfg.Converter != "pandoc" || cfg.ConvertTimeout != 15*time.Second || cfg.KeywordLimit != 25 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.InjectKeywords || !cfg.DisableTagger || cfg.KeywordBackend != "simple" || cfg.ObjectStoreType != "s3" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestGetDurationFormats(t *testing.T) {
	t.Setenv("X_TIMEOUT", "90s")
	if got := getDuration("X_TIMEOUT", time.Second); got != 90*time.Second {
		t.Fatalf("got %s", got)
	}
	t.Setenv("X_TIMEOUT", "soon")
	if got := getDuration("X_TIMEOUT", time.Second); got != time.Second {
		t.Fatalf("invalid value should fall back, got %s", got)
	}
}

func TestLoadEnvFilesDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CV_TEST_FROM_FILE=file\nCV_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("CV_TEST_PRESET", "env")
	t.Setenv("CV_TEST_FROM_FILE", "")
	os.Unsetenv("CV_TEST_FROM_FILE")

	loadEnvFiles(path, filepath.Join(dir, "missing.env"))
	if got := os.Getenv("CV_TEST_FROM_FILE"); got != "file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("CV_TEST_PRESET"); got != "env" {
		t.Fatalf("existing env should win, got %q", got)
	}
}
