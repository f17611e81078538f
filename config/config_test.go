package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoadKeepsExistingVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("SNAKE_TEST_A=from-file\nSNAKE_TEST_B=42\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SNAKE_TEST_A", "from-env")
	t.Setenv("SNAKE_TEST_B", "")
	os.Unsetenv("SNAKE_TEST_B")

	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := String("SNAKE_TEST_A", ""); got != "from-env" {
		t.Fatalf("SNAKE_TEST_A = %q, want from-env", got)
	}
	n, err := Int("SNAKE_TEST_B", 0)
	if err != nil || n != 42 {
		t.Fatalf("SNAKE_TEST_B = %d, %v; want 42", n, err)
	}
}

func TestTypedLookups(t *testing.T) {
	t.Setenv("SNAKE_TEST_F", "2.5")
	t.Setenv("SNAKE_TEST_D", "150ms")
	t.Setenv("SNAKE_TEST_BAD", "many")

	if f, err := Float("SNAKE_TEST_F", 0); err != nil || f != 2.5 {
		t.Fatalf("Float = %v, %v", f, err)
	}
	if d, err := Duration("SNAKE_TEST_D", 0); err != nil || d != 150*time.Millisecond {
		t.Fatalf("Duration = %v, %v", d, err)
	}
	if n, err := Int("SNAKE_TEST_BAD", 7); err == nil || n != 7 {
		t.Fatalf("Int on bad value = %d, %v; want default and error", n, err)
	}
	if n, err := Int("SNAKE_TEST_UNSET", 7); err != nil || n != 7 {
		t.Fatalf("Int on unset = %d, %v; want default", n, err)
	}
}

func TestGetEnvVariable(t *testing.T) {
	if _, err := GetEnvVariable(""); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := GetEnvVariable("SNAKE_TEST_NEVER_SET"); err == nil {
		t.Fatalf("expected error for unset variable")
	}
}
