package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIntAndSeconds(t *testing.T) {
	t.Setenv("GLAM_TEST_INT", "7")
	t.Setenv("GLAM_TEST_BAD", "-3")
	if got := Int("GLAM_TEST_INT", 1); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := Int("GLAM_TEST_BAD", 4); got != 4 {
		t.Fatalf("expected fallback 4, got %d", got)
	}
	if got := Seconds("GLAM_TEST_INT", time.Second); got != 7*time.Second {
		t.Fatalf("expected 7s, got %s", got)
	}
}

func TestBoolAndList(t *testing.T) {
	t.Setenv("GLAM_TEST_BOOL", "yes")
	if !Bool("GLAM_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	if Bool("GLAM_TEST_MISSING_BOOL", false) {
		t.Fatal("expected fallback false")
	}
	got := List("GLAM_TEST_MISSING_LIST", " a, ,b ")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected list: %v", got)
	}
}

func TestPortValidation(t *testing.T) {
	t.Setenv("GLAM_TEST_PORT", "70000")
	if _, err := Port("GLAM_TEST_PORT", "8080"); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("GLAM_DOTENV_A=from-file\nGLAM_DOTENV_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("GLAM_DOTENV_A", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("GLAM_DOTENV_B") })

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("GLAM_DOTENV_A"); got != "from-env" {
		t.Fatalf("expected env to win, got %q", got)
	}
	if got := os.Getenv("GLAM_DOTENV_B"); got != "from-file" {
		t.Fatalf("expected file value, got %q", got)
	}
}
