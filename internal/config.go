package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/reportdesk/internal/catalog"
	"github.com/starford/reportdesk/internal/table"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Catalog CatalogConfig     `yaml:"catalog"`
	Files   FilesConfig       `yaml:"files"`
	Menu    MenuConfig        `yaml:"menu"`
	Table   TableConfig       `yaml:"table"`
	Session SessionConfig     `yaml:"session"`
	People  PeopleConfig      `yaml:"people"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.Files.Validate(); err != nil {
		return fmt.Errorf("files: %w", err)
	}
	if err := c.Table.Validate(); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := c.People.Validate(); err != nil {
		return fmt.Errorf("people: %w", err)
	}
	return nil
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

// CatalogConfig selects where reports are loaded from.
//
// Driver is one of:
//   - "yaml" (default): Path is a YAML file with a top-level "reports" list.
//   - "sqlite": Path is a SQLite database with a "reports" table.
//
// Watch reloads a YAML catalog when the file changes.
type CatalogConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Watch  bool   `yaml:"watch"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = catalog.DriverYAML
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(catalog.DriverYAML, catalog.DriverSQLite)),
		validation.Field(&c.Path, validation.Required),
	); err != nil {
		return err
	}
	if c.Watch && c.Driver != catalog.DriverYAML {
		return fmt.Errorf("watch is only supported for the %q driver", catalog.DriverYAML)
	}
	return nil
}

// FilesConfig holds the directory report files are served from.
type FilesConfig struct {
	Root string `yaml:"root"`
}

// Validate validates the files configuration.
func (c *FilesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// MenuConfig optionally points at a YAML menu definition. Empty uses the
// built-in admin menu.
type MenuConfig struct {
	Path string `yaml:"path"`
}

// TableConfig holds report table settings.
type TableConfig struct {
	PageSize int `yaml:"page_size"`
}

// Validate validates the table configuration.
func (c *TableConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(500)),
	)
}

// SessionConfig holds interactive session settings.
type SessionConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.IdleTimeout, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.SweepInterval, validation.Required, validation.Min(time.Second)),
	)
}

// PeopleConfig points at the remote people directory. An empty URL
// disables the people endpoint.
type PeopleConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the people configuration.
func (c *PeopleConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, is.URL),
		validation.Field(&c.Timeout, validation.Required, validation.Min(100*time.Millisecond)),
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
		Catalog: CatalogConfig{
			Driver: catalog.DriverYAML,
			Path:   "./catalog/reports.yaml",
			Watch:  true,
		},
		Files: FilesConfig{
			Root: "./files",
		},
		Table: TableConfig{
			PageSize: table.DefaultPageSize,
		},
		Session: SessionConfig{
			IdleTimeout:   30 * time.Minute,
			SweepInterval: time.Minute,
		},
		People: PeopleConfig{
			Timeout: 10 * time.Second,
		},
	}
}
