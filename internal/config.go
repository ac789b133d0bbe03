package internal

import (
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/oxmenu/internal/daymenu"
	"github.com/starford/oxmenu/internal/extract"
	"github.com/starford/oxmenu/internal/source"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Slack     AuthConfig        `yaml:"slack"`
	Admin     AuthConfig        `yaml:"admin"`
	Menu      MenuConfig        `yaml:"menu"`
	Extractor ExtractorConfig   `yaml:"extractor"`
	Callback  CallbackConfig    `yaml:"callback"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Slack.Validate(); err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	if err := c.Admin.Validate(); err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	if err := c.Menu.Validate(); err != nil {
		return fmt.Errorf("menu: %w", err)
	}
	if err := c.Extractor.Validate(); err != nil {
		return fmt.Errorf("extractor: %w", err)
	}
	return c.Callback.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AuthConfig holds a shared-secret check.
//
// Mode controls how the secret is enforced:
//   - "disabled": every request is accepted, suitable for local dev.
//   - "token": requests must present Token; Token must be non-empty.
//
// An empty mode means "token" when a token is set and "disabled" otherwise,
// so a configured secret is never silently ignored.
//
// The slack section compares the form field "token", the admin section a
// Bearer Authorization header.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
		if c.Token != "" {
			c.Mode = AuthModeToken
		}
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when the secret is enforced.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// MenuConfig describes where and how weekly menus are looked up.
type MenuConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Candidates   []string      `yaml:"candidates"`
	Timezone     string        `yaml:"timezone"`
	Languages    []string      `yaml:"languages"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	MaxBytes     int64         `yaml:"max_document_bytes"`
	Footer       string        `yaml:"footer"`
	MirrorDir    string        `yaml:"mirror_dir"`
}

// Validate validates the menu configuration.
func (c *MenuConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Candidates, validation.Required),
		validation.Field(&c.FetchTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.MaxBytes, validation.Min(int64(0))),
	); err != nil {
		return err
	}
	if _, err := source.NewCandidates(c.BaseURL, c.Candidates); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the time zone in which "today" is evaluated.
func (c *MenuConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ExtractorConfig selects the document-to-text implementation.
type ExtractorConfig struct {
	Kind          string        `yaml:"kind"`
	PDFToTextPath string        `yaml:"pdftotext_path"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Validate validates the extractor configuration.
func (c *ExtractorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Kind, validation.Required, validation.In(extract.KindPDF, extract.KindPDFToText, extract.KindText)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// CallbackConfig configures delivery of deferred responses.
type CallbackConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the callback configuration.
func (c *CallbackConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Slack: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Admin: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Menu: MenuConfig{
			BaseURL:      source.DefaultBaseURL,
			Candidates:   append([]string(nil), source.DefaultTemplates...),
			Timezone:     "Europe/Vienna",
			FetchTimeout: 15 * time.Second,
			MaxBytes:     source.DefaultMaxBytes,
			Footer:       daymenu.DefaultFooter,
		},
		Extractor: ExtractorConfig{
			Kind:    extract.KindPDF,
			Timeout: 30 * time.Second,
		},
		Callback: CallbackConfig{
			Timeout: 10 * time.Second,
		},
	}
}
