package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/ericfisherdev/credgate/internal/adapter/driven/credfile"
	sqliteadapter "github.com/ericfisherdev/credgate/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/credgate/internal/application"
	"github.com/ericfisherdev/credgate/internal/config"
	"github.com/ericfisherdev/credgate/internal/domain/port/driven"
)

// runtime holds the wired services shared by every subcommand.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sqliteadapter.DB // nil without CREDGATE_DB_PATH.
	auth     *application.AuthService
	accounts *application.AccountService
}

// loadConfig reads the environment and installs the default logger.
func loadConfig(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if c.GlobalBool("debug") {
		cfg.LogLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// newRuntime opens the account database when configured, assembles the
// credential sources and publishes the first store. A source that fails to
// load or yields a duplicate username fails startup.
func newRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, logger: logger}

	var sources credfile.Multi
	for _, path := range cfg.CredentialsFiles {
		sources = append(sources, credfile.NewFile(path))
	}
	if cfg.DemoCredentials {
		sources = append(sources, credfile.DemoCredentials())
	}

	var accountStore driven.AccountStore
	if cfg.HasAccountDB() {
		if cfg.SecretKey == nil {
			return nil, errors.New("CREDGATE_SECRET_KEY is required when CREDGATE_DB_PATH is set")
		}
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Debug("account database ready", "path", db.Path())

		repo := sqliteadapter.NewAccountRepo(db, cfg.SecretKey)
		rt.db = db
		accountStore = repo
		sources = append(sources, repo)
	}

	if len(sources) == 0 {
		logger.Warn("no credential sources configured; every login will be rejected")
	}

	rt.auth = application.NewAuthService(application.NewStoreProvider(nil), sources, accountStore, logger)
	rt.accounts = application.NewAccountService(accountStore, rt.auth, logger)

	if _, err := rt.auth.Reload(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// Close releases the account database, if open.
func (rt *runtime) Close() {
	if rt.db == nil {
		return
	}
	if err := rt.db.Close(); err != nil {
		rt.logger.Error("error closing database", "error", err)
	}
}

// withRuntime adapts a runtime-consuming function into a cli action.
func withRuntime(fn func(ctx context.Context, c *cli.Context, rt *runtime) error) func(*cli.Context) error {
	return func(c *cli.Context) error {
		cfg, logger, err := loadConfig(c)
		if err != nil {
			return err
		}

		ctx := context.Background()
		rt, err := newRuntime(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Command.Name, err)
		}
		defer rt.Close()

		return fn(ctx, c, rt)
	}
}
