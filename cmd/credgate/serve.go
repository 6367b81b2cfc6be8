package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	httphandler "github.com/ericfisherdev/credgate/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/credgate/internal/adapter/driving/web"
	"github.com/ericfisherdev/credgate/internal/application"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = cli.Command{
	Name:  "serve",
	Usage: "serve the JSON API and the login page",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "listen",
			Usage: "listen address (overrides CREDGATE_LISTEN_ADDR)",
		},
	},
	Action: serve,
}

func serve(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("listen"); addr != "" {
		cfg.ListenAddr = addr
	}
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"credentials_files", cfg.CredentialsFiles,
		"demo_credentials", cfg.DemoCredentials,
		"reload_interval", cfg.ReloadInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	reloadSvc := application.NewReloadService(rt.auth, cfg.ReloadInterval)

	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(rt.auth, rt.accounts, reloadSvc, logger))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(rt.auth, cfg.Banner, logger))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.ApplyMiddleware(mux, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		reloadSvc.Start(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	logger.Info("credgate started",
		"listen_addr", cfg.ListenAddr,
		"credentials", rt.auth.Store().Len(),
	)

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}
