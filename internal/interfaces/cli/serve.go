package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/molview/internal/application/presenter"
	"github.com/turtacn/molview/internal/application/session"
	"github.com/turtacn/molview/internal/config"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	httpiface "github.com/turtacn/molview/internal/interfaces/http"
	"github.com/turtacn/molview/internal/interfaces/http/handlers"
	"github.com/turtacn/molview/internal/interfaces/http/middleware"
)

type serveOptions struct {
	host  string
	port  int
	watch bool
}

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve analysis sessions over a JSON HTTP API",
		Long: `Start the molview HTTP API.  Each client creates a session, submits
molecules to it and drives its viewer.  Prometheus metrics are served on
metrics.path when metrics.enabled is set.

With --watch the config file is reloaded on change; the log level and the
notification lifetime take effect without a restart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.host, "host", "", "listen host (default: server.host)")
	f.IntVar(&opts.port, "port", 0, "listen port (default: server.port)")
	f.BoolVar(&opts.watch, "watch", true, "reload runtime settings when the config file changes")
	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := cliCtx.Config
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port > 0 {
		cfg.Server.Port = opts.port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newAPIServer(ctx, cliCtx)
	if err != nil {
		return err
	}
	defer app.Close()

	if opts.watch && cliCtx.ConfigPath != "" {
		if err := config.Watch(cliCtx.ConfigPath, app.Reload, func(err error) {
			cliCtx.Logger.Error("config reload rejected", logging.Err(err))
		}); err != nil {
			cliCtx.Logger.Warn("config watch disabled", logging.Err(err))
		} else {
			cliCtx.Logger.Info("watching config for changes", logging.String("path", cliCtx.ConfigPath))
		}
	}

	app.monitor.Start(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- app.server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		cliCtx.Logger.Info("shutdown signal received")
	}

	// The signal context is already done; drain with a fresh one.
	if err := app.server.Stop(context.Background()); err != nil {
		return err
	}
	return <-errCh
}

// apiServer is the assembled HTTP API with everything it owns.
type apiServer struct {
	logger      logging.Logger
	registry    *session.Registry
	monitor     *presenter.HealthMonitor
	server      *httpiface.Server
	closeRemote func() error
}

func newAPIServer(ctx context.Context, cliCtx *CLIContext) (*apiServer, error) {
	cfg := cliCtx.Config
	logger := cliCtx.Logger
	apiClient, err := requireClient(cliCtx)
	if err != nil {
		return nil, err
	}

	collector, metrics, err := newMetrics(cfg.Metrics, logger)
	if err != nil {
		return nil, err
	}

	remote, closeRemote, err := newRemote(ctx, cfg, apiClient, logger, metrics)
	if err != nil {
		return nil, err
	}

	deps, err := newSessionDeps(cfg, remote, logger, metrics)
	if err != nil {
		_ = closeRemote()
		return nil, err
	}
	registry := session.NewRegistry(deps, cfg.Session.IdleTimeout, cfg.Session.CleanupInterval)

	monitor := presenter.NewHealthMonitor(apiClient, cfg.Health.Interval, cfg.Health.Timeout,
		presenter.WithHealthLogger(logger.Named("health")),
		presenter.WithHealthMetrics(metrics),
	)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.Server.CORSOrigins
	cors.AllowWildcard = true

	routerCfg := httpiface.RouterConfig{
		SessionHandler:   handlers.NewSessionHandler(registry, logger),
		HealthHandler:    handlers.NewHealthHandler(Version, monitor),
		CORS:             &cors,
		Logger:           logger.Named("http"),
		Metrics:          metrics,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
	}

	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, httpiface.NewRouter(routerCfg), logger)

	logger.Info("molview API configured",
		logging.String("addr", server.Addr()),
		logging.String("service", apiClient.BaseURL()),
		logging.String("cache", cfg.Cache.Backend),
		logging.Bool("metrics", cfg.Metrics.Enabled),
		logging.String("version", Version))

	return &apiServer{
		logger:      logger,
		registry:    registry,
		monitor:     monitor,
		server:      server,
		closeRemote: closeRemote,
	}, nil
}

// Handler is the routed API.
func (a *apiServer) Handler() http.Handler {
	return a.server.Handler()
}

// Reload applies the settings of cfg that may change at runtime.
func (a *apiServer) Reload(cfg *config.Config) {
	if logging.SetLevel(a.logger, cfg.Log.Level) {
		a.logger.Info("log level changed", logging.String("level", cfg.Log.Level))
	}
	a.registry.SetNotificationTTL(cfg.Presenter.NotificationTTL)
	a.logger.Info("configuration reloaded",
		logging.Duration("notification_ttl", cfg.Presenter.NotificationTTL))
}

// Close ends every session and releases the response cache.
func (a *apiServer) Close() {
	a.monitor.Stop()
	a.registry.Close()
	if err := a.closeRemote(); err != nil {
		a.logger.Warn("failed to close response cache", logging.Err(err))
	}
}
