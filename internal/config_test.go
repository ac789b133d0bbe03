package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/oxmenu/pkg/config"
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
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_EmptyModeWithTokenEnforces(t *testing.T) {
	cfg := AuthConfig{Token: "s3cret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeToken)
	}
}

func TestShippedConfig_TokenOnlyEnv(t *testing.T) {
	t.Setenv("SLACK_AUTH_MODE", "")
	t.Setenv("SLACK_TOKEN", "s3cret")

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(filepath.Join("..", "config", "config.yaml"), cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Slack.AuthEnabled() || cfg.Slack.Token != "s3cret" {
		t.Errorf("slack = %+v, want token mode", cfg.Slack)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token"}
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
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	loc, err := cfg.Menu.Location()
	if err != nil {
		t.Fatal(err)
	}
	if loc.String() != "Europe/Vienna" {
		t.Errorf("location = %s", loc)
	}
}

func TestFullConfig_SlackValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Slack.Mode = "token"
	err := cfg.Validate()
	if err == nil || !strings.HasPrefix(err.Error(), "slack:") {
		t.Fatalf("err = %v, want slack validation error", err)
	}
}

func TestMenuConfig_Invalid(t *testing.T) {
	cases := map[string]func(*Config){
		"no candidates":  func(c *Config) { c.Menu.Candidates = nil },
		"bad template":   func(c *Config) { c.Menu.Candidates = []string{"{+base/KW{week}"} },
		"bad timezone":   func(c *Config) { c.Menu.Timezone = "Mars/Olympus" },
		"no timeout":     func(c *Config) { c.Menu.FetchTimeout = 0 },
		"bad extractor":  func(c *Config) { c.Extractor.Kind = "ocr" },
		"no callback to": func(c *Config) { c.Callback.Timeout = 0 },
	}
	for name, mutate := range cases {
		cfg := NewDefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("OXMENU_TEST_SLACK_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  http:
    port: 9090
slack:
  mode: token
  token: ${OXMENU_TEST_SLACK_TOKEN}
menu:
  base_url: http://localhost:8081/menus
  candidates:
    - "{+base}/{year}/KW{week}.pdf"
  timezone: UTC
  fetch_timeout: 3s
extractor:
  kind: pdftotext
callback:
  timeout: 2s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("app = %+v", cfg.App)
	}
	if !cfg.Slack.AuthEnabled() || cfg.Slack.Token != "s3cret" {
		t.Errorf("slack = %+v", cfg.Slack)
	}
	if cfg.Menu.FetchTimeout != 3*time.Second || len(cfg.Menu.Candidates) != 1 {
		t.Errorf("menu = %+v", cfg.Menu)
	}
	if cfg.Menu.Footer == "" {
		t.Error("default footer lost")
	}
	if cfg.Extractor.Kind != "pdftotext" || cfg.Callback.Timeout != 2*time.Second {
		t.Errorf("extractor/callback = %+v %+v", cfg.Extractor, cfg.Callback)
	}
}
