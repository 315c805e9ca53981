package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("LUMINA_TEST_NAME", "from-env")
	p := writeFile(t, "name: ${LUMINA_TEST_NAME}\nport: 9090\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "from-env" || s.Port != 9090 {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoad_Validates(t *testing.T) {
	p := writeFile(t, "name: x\nport: 0\n")
	var s sample
	if err := Load(p, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	s := sample{Port: 8080}
	if err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"), &s); err != nil {
		t.Fatalf("missing file with valid defaults: %v", err)
	}

	var bad sample
	if err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"), &bad); err == nil {
		t.Fatal("invalid defaults should fail validation")
	}
}

func TestLoadOrDefault_OverridesDefaults(t *testing.T) {
	p := writeFile(t, "port: 7000\n")
	s := sample{Name: "default", Port: 8080}
	if err := LoadOrDefault(p, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "default" || s.Port != 7000 {
		t.Errorf("loaded = %+v", s)
	}
}
