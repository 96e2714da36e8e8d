package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/divawifi/wifi/internal/addon"
	"github.com/divawifi/wifi/internal/api"
	"github.com/divawifi/wifi/internal/config"
	"github.com/divawifi/wifi/internal/console"
	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/database"
	"github.com/divawifi/wifi/internal/events"
	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/i18n"
	"github.com/divawifi/wifi/internal/imaging"
	"github.com/divawifi/wifi/internal/notifications"
	"github.com/divawifi/wifi/internal/recovery"
	"github.com/divawifi/wifi/internal/repository"
	"github.com/divawifi/wifi/internal/runner"
	"github.com/divawifi/wifi/internal/service"
	"github.com/divawifi/wifi/internal/session"
	"github.com/divawifi/wifi/internal/simclient"
	"github.com/divawifi/wifi/internal/tos"
	"github.com/divawifi/wifi/internal/webapp"
	"github.com/divawifi/wifi/internal/wifiscript"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web panel",
	RunE:  runServe,
}

// panelHost is what addons see of the running panel.
type panelHost struct {
	grid   grid.Services
	logger *slog.Logger
}

func (h panelHost) Grid() grid.Services  { return h.grid }
func (h panelHost) Logger() *slog.Logger { return h.logger }

func runServe(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		logger.Info("wifi is disabled in the configuration, nothing to serve")
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, services, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	store, closeStore, err := openSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	sessions := session.NewTable(store, cfg.Session.Timeout,
		session.WithLogger(logger),
		session.WithPresence(services.Presence, services.Accounts))

	catalog, err := i18n.New()
	if err != nil {
		return err
	}

	addons := addon.NewRegistry(panelHost{grid: services, logger: logger})
	if err := addons.RegisterConfigured(ctx, cfg.Addons, logger); err != nil {
		return err
	}
	defer func() {
		if err := addons.ShutdownAll(context.Background()); err != nil {
			logger.Warn("addon shutdown", "error", err)
		}
	}()

	loader := wifiscript.NewLoader(cfg.TemplateDir)
	watcher := wifiscript.NewWatcher(loader, logger, nil)
	if err := watcher.Start(ctx); err != nil {
		logger.Warn("template hot reload disabled", "error", err)
	}
	defer watcher.Stop()

	app := webapp.New(cfg, catalog, addons, loader, webapp.WithLogger(logger), webapp.WithVersion(version))

	opts, err := serviceOptions(cfg, services, logger)
	if err != nil {
		return err
	}
	svc := service.New(app, services, sessions, opts...)
	if created, err := svc.EnsureAdmin(ctx); err != nil {
		return err
	} else if created {
		logger.Info("bootstrap administrator created", "first", cfg.Admin.FirstName, "last", cfg.Admin.LastName)
	}

	bus, err := openEventBus(cfg, logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	limiter := newRateLimiter(cfg)
	jobs := runner.New(logger)
	for _, t := range buildTasks(cfg, sessions, database.NewPoolMonitor(db), limiter, logger) {
		if err := jobs.Register(t); err != nil {
			return err
		}
	}
	jobs.Start()
	defer jobs.Stop()

	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(svc, catalog,
		api.WithLogger(logger),
		api.WithAddons(addons),
		api.WithEventBus(bus),
		api.WithImages(imaging.NewServer(services.Assets)),
		api.WithServePaths(cfg.ServePaths),
		api.WithRateLimiter(limiter),
		api.WithScriptToken(cfg.ScriptEventToken),
	)

	return listen(ctx, &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}, logger)
}

// listen serves until ctx is cancelled, then drains connections.
func listen(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("wifi listening", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openSessionStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Store, func(), error) {
	if cfg.Session.Store != "redis" {
		return session.NewMemoryStore(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Session.RedisAddress})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Session.RedisAddress, err)
	}
	logger.Info("sessions stored in redis", "addr", cfg.Session.RedisAddress)
	return session.NewRedisStore(client), func() { _ = client.Close() }, nil
}

func openEventBus(cfg *config.Config, logger *slog.Logger) (events.Bus, error) {
	if cfg.NatsURL == "" {
		return events.NewMemoryBus(logger), nil
	}
	bus, err := events.NewNATSBus(cfg.NatsURL, "diva-wifi", logger)
	if err != nil {
		return nil, err
	}
	logger.Info("script events carried over nats", "url", cfg.NatsURL)
	return bus, nil
}

// serviceOptions wires the optional collaborators the configuration names.
func serviceOptions(cfg *config.Config, services grid.Services, logger *slog.Logger) ([]service.Option, error) {
	opts := []service.Option{service.WithLogger(logger)}

	if cfg.Email.Enabled {
		opts = append(opts, service.WithMailer(notifications.NewSMTPProvider(&cfg.Email), nil))
	} else {
		logger.Warn("no SMTP host configured, mail is disabled")
	}

	issuer, err := recovery.NewIssuer(cfg.RecoverySecret, constants.RecoveryTokenLifetime)
	if err != nil {
		return nil, err
	}
	if cfg.RecoverySecret == "" {
		logger.Warn("no RecoverySecret configured, recovery links expire on restart")
	}
	opts = append(opts, service.WithRecovery(issuer))

	if cfg.RemoteAdmin.URL != "" {
		opts = append(opts, service.WithRemoteAdmin(
			simclient.New(cfg.RemoteAdmin.URL, cfg.RemoteAdmin.Password, simclient.WithLogger(logger))))
	}
	if cfg.Console.URL != "" {
		opts = append(opts, service.WithConsole(console.New(cfg.Console.URL, cfg.Console.User, cfg.Console.Pass)))
	}

	if cfg.TOSFile != "" {
		html, err := tos.Load(cfg.TOSFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithTOS(tos.NewGate(html, services.GridUsers, cfg.WebAddress+"/wifi/tos")))
	}
	return opts, nil
}

// openDB is shared by the maintenance commands.
func openDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, grid.Services, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, grid.Services{}, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, grid.Services{}, err
	}
	return db, repository.New(db), nil
}
