package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lumina/internal/encryption"
	"github.com/starford/lumina/internal/noteservice"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Crypto CryptoConfig      `yaml:"crypto"`
	Notes  NotesConfig       `yaml:"notes"`
	Import ImportConfig      `yaml:"import"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Crypto.Validate(); err != nil {
		return err
	}
	if err := c.Notes.Validate(); err != nil {
		return err
	}
	return c.Import.Validate()
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

// CryptoConfig holds note encryption settings.
//
// PasswordHash, when set, is a value printed by the hash-password command;
// every password used to encrypt or decrypt a note must match it.
type CryptoConfig struct {
	Iterations   int    `yaml:"iterations"`
	PasswordHash string `yaml:"password_hash"`
}

// Validate validates the crypto configuration.
func (c *CryptoConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Iterations, validation.Required, validation.Min(encryption.MinIterations)),
	)
}

// NotesConfig holds note service limits and behaviour.
type NotesConfig struct {
	SearchLimit    int  `yaml:"search_limit"`
	GraphNodeLimit int  `yaml:"graph_node_limit"`
	HashtagTags    bool `yaml:"hashtag_tags"`
}

// Validate validates the notes configuration.
func (c *NotesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SearchLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.GraphNodeLimit, validation.Required, validation.Min(1)),
	)
}

// ImportConfig holds the optional Markdown directory mirrored into the store.
// An empty Path disables importing.
type ImportConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the import configuration.
func (c *ImportConfig) Validate() error {
	if c.Watch && c.Path == "" {
		return fmt.Errorf("import: watch is set but path is empty")
	}
	return nil
}

// Enabled returns true when a directory is configured for import.
func (c *ImportConfig) Enabled() bool {
	return c.Path != ""
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
		SQLite: SQLiteConfig{
			Path: "./lumina.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Crypto: CryptoConfig{
			Iterations: encryption.MinIterations,
		},
		Notes: NotesConfig{
			SearchLimit:    noteservice.DefaultSearchLimit,
			GraphNodeLimit: noteservice.DefaultGraphNodeLimit,
			HashtagTags:    true,
		},
	}
}
