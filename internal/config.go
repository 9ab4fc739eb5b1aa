package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Anki   AnkiConfig        `yaml:"anki"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Anki.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
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

// VaultConfig holds the location of the markdown vault.
//
// Folder restricts flashcard discovery to a subfolder of the vault; an
// empty folder scans the whole vault. Name identifies the vault in
// generated deep links and defaults to the root directory's base name.
type VaultConfig struct {
	Path   string `yaml:"path"`
	Folder string `yaml:"folder"`
	Name   string `yaml:"name"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AnkiConfig holds the remote store connection and sync policy.
//
// DeckPrefix is the root segment of every resolved deck name; it is
// required so a resolved deck is never empty. MaxCards bounds the number
// of cards a single run may extract (0 disables the check).
type AnkiConfig struct {
	Endpoint   string `yaml:"endpoint"`
	DeckPrefix string `yaml:"deck_prefix"`
	MaxCards   int    `yaml:"max_cards"`
}

// Validate validates the Anki configuration.
func (c *AnkiConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.DeckPrefix, validation.Required),
		validation.Field(&c.MaxCards, validation.Min(0)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
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

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
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
		Vault: VaultConfig{
			Path:   "./vault",
			Folder: "flashcards",
		},
		SQLite: SQLiteConfig{
			Path: "./mimir.db",
		},
		Anki: AnkiConfig{
			Endpoint:   "http://127.0.0.1:8765",
			DeckPrefix: "Mimir",
			MaxCards:   1000,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
