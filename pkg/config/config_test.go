package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "folio")
	s := sample{Count: 3}
	if err := Load(writeFile(t, "name: ${SAMPLE_NAME}\n"), &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "folio" || s.Count != 3 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	var s sample
	err := Load(writeFile(t, "nmae: typo\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	var s sample
	err := Load(writeFile(t, "count: -1\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	s := sample{Name: "default"}
	if err := Load(writeFile(t, ""), &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "default" {
		t.Errorf("name = %q", s.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}
