package internal

import (
	"strings"
	"testing"

	"github.com/starford/csaharvest/internal/extract"
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

func TestSourceConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	r := cfg.Source.Range()
	if r.FirstYear != 2017 || r.LastYear != 2025 || r.MaxWeeks != 28 {
		t.Errorf("range = %+v", r)
	}
}

func TestSourceConfig_URLTemplateNeedsPlaceholders(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Source.URLTemplate = "https://example.org/csa/week.html"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "{year}") {
		t.Errorf("err = %v, want placeholder error", err)
	}
}

func TestSourceConfig_YearOrder(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Source.FirstYear = 2024
	cfg.Source.LastYear = 2023
	if err := cfg.Validate(); err == nil {
		t.Error("last year before first year should fail")
	}
}

func TestCatalogConfig_DirRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Catalog.Dir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty catalog dir should fail")
	}
}

func TestAssembleOptions(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Source.MinCells = 4
	opts := cfg.AssembleOptions()
	if opts.HaulPicture != cfg.Catalog.HaulPicture || opts.RecipePicture != cfg.Catalog.RecipePicture {
		t.Errorf("pictures = %q %q", opts.HaulPicture, opts.RecipePicture)
	}
	if hc, ok := opts.Classifier.(extract.HeaderClassifier); !ok || hc.MinCells != 4 {
		t.Errorf("classifier = %#v", opts.Classifier)
	}
}
