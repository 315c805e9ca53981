package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Import.Enabled() {
		t.Error("import should be disabled by default")
	}
}

func TestCryptoConfig_IterationFloor(t *testing.T) {
	cfg := CryptoConfig{Iterations: 1000}
	if err := cfg.Validate(); err == nil {
		t.Fatal("iterations below the floor should fail")
	}
	cfg.Iterations = 600000
	if err := cfg.Validate(); err != nil {
		t.Fatalf("high iteration count should pass: %v", err)
	}
}

func TestNotesConfig_Limits(t *testing.T) {
	cfg := NotesConfig{SearchLimit: 0, GraphNodeLimit: 10}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero search limit should fail")
	}
}

func TestImportConfig_WatchNeedsPath(t *testing.T) {
	cfg := ImportConfig{Watch: true}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "path is empty") {
		t.Fatalf("watch without path: %v", err)
	}
	cfg.Path = "./notes"
	if err := cfg.Validate(); err != nil || !cfg.Enabled() {
		t.Fatalf("watch with path: %v", err)
	}
}
