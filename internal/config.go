package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/smartnotes/internal/editor"
	"github.com/starford/smartnotes/internal/notes"
	"github.com/starford/smartnotes/internal/storage"
	"github.com/starford/smartnotes/internal/wikilink"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Editor  EditorConfig      `yaml:"editor"`
	Auth    AuthConfig        `yaml:"auth"`
	CORS    CORSConfig        `yaml:"cors"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Editor.Validate(); err != nil {
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
	// SSEHeartbeat is the interval between keep-alive comments on the events
	// stream. Zero disables them.
	SSEHeartbeat time.Duration `yaml:"sse_heartbeat"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.SSEHeartbeat, validation.Min(time.Duration(0))),
	)
}

// StorageConfig selects where the note index is persisted.
//
// Driver is one of:
//   - "fs" (default): one JSON file per key under Path.
//   - "sqlite": a kv table in the SQLite database at Path.
//   - "postgres": a kv table in the database at DSN; changes from other
//     processes arrive through LISTEN/NOTIFY.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
	Key    string `yaml:"key"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = storage.DriverFS
	}
	if c.Key == "" {
		c.Key = notes.DefaultKey
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(storage.DriverFS, storage.DriverSQLite, storage.DriverPostgres)),
		validation.Field(&c.Path, validation.When(c.Driver != storage.DriverPostgres, validation.Required)),
		validation.Field(&c.DSN, validation.When(c.Driver == storage.DriverPostgres, validation.Required)),
	)
}

// EditorConfig tunes editing sessions.
type EditorConfig struct {
	SaveDebounce    time.Duration `yaml:"save_debounce"`
	LinkLookback    int           `yaml:"link_lookback"`
	LinkSuggestions int           `yaml:"link_suggestions"`
}

// Validate validates the editor configuration.
func (c *EditorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SaveDebounce, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.LinkLookback, validation.Required, validation.Min(2)),
		validation.Field(&c.LinkSuggestions, validation.Required, validation.Min(1)),
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

// CORSConfig lists the browser origins allowed to call the API. An empty
// list disables CORS headers.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:         8080,
				SSEHeartbeat: 30 * time.Second,
			},
		},
		Storage: StorageConfig{
			Driver: storage.DriverFS,
			Path:   "./data",
			Key:    notes.DefaultKey,
		},
		Editor: EditorConfig{
			SaveDebounce:    editor.DefaultSaveDelay,
			LinkLookback:    wikilink.DefaultLookback,
			LinkSuggestions: wikilink.DefaultMaxSuggestions,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
