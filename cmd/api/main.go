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

	"github.com/YK-03/SharePlate/internal/cache"
	"github.com/YK-03/SharePlate/internal/config"
	"github.com/YK-03/SharePlate/internal/geocode"
	"github.com/YK-03/SharePlate/internal/handler"
	"github.com/YK-03/SharePlate/internal/logger"
	"github.com/YK-03/SharePlate/internal/metrics"
	"github.com/YK-03/SharePlate/internal/middleware"
	"github.com/YK-03/SharePlate/internal/notify"
	"github.com/YK-03/SharePlate/internal/repository"
	"github.com/YK-03/SharePlate/internal/router"
	"github.com/YK-03/SharePlate/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.App, cfg.Log)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Errorw("[Main] Server exited with error", "error", err)
		log.Sync()
		os.Exit(1)
	}
	log.Info("[Main] Server stopped")
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	log.Infow("[Main] Starting "+cfg.App.Name, "version", cfg.App.Version, "environment", cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := repository.Open(openCtx, cfg.Database, log)
	cancel()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	log.Infow("[Main] Store ready", "db_type", cfg.Database.Driver())

	tokens, err := cache.New(cfg.Cache, log)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer tokens.Close()
	log.Infow("[Main] Token cache ready", "type", cfg.Cache.Type)

	m := metrics.New()

	var geocoder service.Geocoder = geocode.Noop{}
	if cfg.Geocode.Enabled {
		geocoder = geocode.NewNominatim(geocode.Config{
			BaseURL:   cfg.Geocode.BaseURL,
			UserAgent: cfg.Geocode.UserAgent,
			Timeout:   cfg.Geocode.Timeout,
		})
	}

	var notifier service.Notifier
	if cfg.Notify.Enabled {
		var mailer notify.Mailer
		if cfg.Mail.Host == "" {
			mailer = notify.NewLogMailer(log)
			log.Warn("[Main] EMAIL_HOST not set, volunteer emails will only be logged")
		} else {
			mailer = notify.NewSMTPMailer(notify.SMTPConfig{
				Host:     cfg.Mail.Host,
				Port:     cfg.Mail.Port,
				Username: cfg.Mail.Username,
				Password: cfg.Mail.Password,
				UseTLS:   cfg.Mail.UseTLS,
			})
		}
		notifier = notify.New(store, mailer, cfg.Mail.From, log)
	}

	authService := service.NewAuthService(store, tokens, cfg.Auth, log)
	itemService := service.NewItemService(store, geocoder, notifier, m, service.ItemOptions{
		GeocodeTimeout: cfg.Geocode.Timeout,
		NotifyTimeout:  cfg.Notify.Timeout,
	}, log)
	claimService := service.NewClaimService(store, m, log)

	r := router.New(router.Config{
		Handler:        handler.New(store, cfg.App.Name, cfg.App.Version),
		AuthHandler:    handler.NewAuthHandler(authService, log),
		ItemHandler:    handler.NewItemHandler(itemService, log),
		RequestHandler: handler.NewRequestHandler(claimService, log),
		AdminHandler:   handler.NewAdminHandler(store, tokens, cfg.Database.Driver(), cfg.Cache.Type),
		AuthMiddleware: middleware.NewAuthMiddleware(authService),
		LoginKey:       cfg.App.LoginKey,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Metrics:        m,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("[Main] Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("[Main] Shutting down server...")
		return shutdown(srv, itemService, cfg.Server.ShutdownTimeout, cfg.Notify.Timeout, log)
	})

	return g.Wait()
}

// drainer waits for background work started by request handlers.
type drainer interface {
	Wait(ctx context.Context) error
}

// shutdown stops srv and then drains pending. The drain always runs, with
// its own budget, even when the HTTP shutdown times out.
func shutdown(srv *http.Server, pending drainer, shutdownTimeout, drainTimeout time.Duration, log *zap.SugaredLogger) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), drainTimeout)
	defer cancelDrain()
	if err := pending.Wait(drainCtx); err != nil {
		log.Warnw("[Main] Pending notifications abandoned", "error", err)
	}

	if shutdownErr != nil {
		return fmt.Errorf("shutdown: %w", shutdownErr)
	}
	return nil
}
