package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/filecat/internal/filter"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// State backends.
const (
	StateBackendSQLite = "sqlite"
	StateBackendFile   = "file"
	StateBackendMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Content   ContentConfig     `yaml:"content"`
	State     StateConfig       `yaml:"state"`
	Filter    FilterConfig      `yaml:"filter"`
	Reference FilterConfig      `yaml:"reference"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.State.Validate(); err != nil {
		return err
	}
	if err := c.Filter.Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if err := c.Reference.Validate(); err != nil {
		return fmt.Errorf("reference: %w", err)
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

// ContentConfig describes the content directory the catalog lists.
type ContentConfig struct {
	Path      string `yaml:"path"`
	Checksums bool   `yaml:"checksums"`
	Titles    bool   `yaml:"titles"`
	// Watch rebuilds the catalog on file changes.
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// StateConfig selects where expanded directories are persisted.
type StateConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Validate validates the state configuration.
func (c *StateConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(StateBackendSQLite, StateBackendFile, StateBackendMemory)),
		validation.Field(&c.Path, validation.When(c.Backend != StateBackendMemory, validation.Required)),
	)
}

// FilterConfig holds include and exclude patterns. An empty section means
// the built-in default for its use.
type FilterConfig struct {
	filter.Config `yaml:",inline"`
}

// Validate compiles the patterns so a bad one fails at startup.
func (c *FilterConfig) Validate() error {
	if c.IsZero() {
		return nil
	}
	_, err := filter.FromConfig(c.Config)
	return err
}

// Compile returns the compiled filter, or fallback when the section is
// empty.
func (c *FilterConfig) Compile(fallback *filter.Filter) (*filter.Filter, error) {
	if c.IsZero() {
		return fallback, nil
	}
	return filter.FromConfig(c.Config)
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
		return errors.New("auth: mode is \"token\" but token is empty")
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
		Content: ContentConfig{
			Path:     "./site",
			Titles:   true,
			Watch:    true,
			Debounce: 200 * time.Millisecond,
		},
		State: StateConfig{
			Backend: StateBackendSQLite,
			Path:    "./filecat.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
