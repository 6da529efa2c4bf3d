package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/reportdesk/internal/catalog"
	"github.com/starford/reportdesk/internal/menu"
	"github.com/starford/reportdesk/internal/people"
	"github.com/starford/reportdesk/internal/reportservice"
	"github.com/starford/reportdesk/internal/session"
	"github.com/starford/reportdesk/internal/storage"
)

// components are the wired dependencies shared by the HTTP and MCP runners.
type components struct {
	catalog  *catalog.Catalog
	sessions *session.Store
	service  *reportservice.Service
	closers  []func() error
}

func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

func newApplication(opts []Option) (*application, *slog.Logger, error) {
	app := &application{version: "dev", logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// openSource builds the catalog source for the configured driver.
func openSource(cfg CatalogConfig) (catalog.Source, func() error, error) {
	switch cfg.Driver {
	case catalog.DriverSQLite:
		db, err := catalog.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return catalog.NewYAMLFile(cfg.Path), func() error { return nil }, nil
	}
}

func build(ctx context.Context, cfg *Config, logger *slog.Logger, svcOpts ...reportservice.Option) (*components, error) {
	c := &components{}

	src, closeSrc, err := openSource(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	c.closers = append(c.closers, closeSrc)

	cat, err := catalog.Open(ctx, src)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	c.catalog = cat

	// Ensure the report file root exists.
	if err := os.MkdirAll(cfg.Files.Root, 0o755); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("create files dir: %w", err)
	}
	files, err := storage.NewFS(cfg.Files.Root)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}

	m, err := menu.Load(cfg.Menu.Path)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("load menu: %w", err)
	}

	c.sessions = session.NewStore(cfg.Session.IdleTimeout)
	opts := append([]reportservice.Option{
		reportservice.WithPageSize(cfg.Table.PageSize),
		reportservice.WithPeople(people.New(cfg.People.URL, cfg.People.Timeout)),
	}, svcOpts...)
	c.service = reportservice.New(cat, files, m, c.sessions, opts...)

	logger.Info("Catalog loaded",
		slog.String("driver", cfg.Catalog.Driver),
		slog.String("path", cfg.Catalog.Path),
		slog.Int("reports", len(cat.Reports())),
		slog.String("checksum", cat.Checksum()))
	logMissingFiles(ctx, c.service, logger)

	return c, nil
}

func logMissingFiles(ctx context.Context, svc *reportservice.Service, logger *slog.Logger) {
	if missing := svc.MissingFiles(ctx); len(missing) > 0 {
		logger.Warn("report files missing", slog.Any("files", missing))
	}
}

// ImportCatalog copies a YAML catalog into a SQLite catalog, replacing its
// contents, and returns the number of reports written.
func ImportCatalog(ctx context.Context, yamlPath, sqlitePath string) (int, error) {
	reports, err := catalog.NewYAMLFile(yamlPath).Load(ctx)
	if err != nil {
		return 0, err
	}
	reports, err = catalog.Validate(reports)
	if err != nil {
		return 0, err
	}
	db, err := catalog.OpenSQLite(sqlitePath)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	if err := db.Replace(ctx, reports); err != nil {
		return 0, err
	}
	return len(reports), nil
}
