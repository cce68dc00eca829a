package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/articles-service/internal/api"
	"github.com/JakeFAU/articles-service/internal/article"
	"github.com/JakeFAU/articles-service/internal/config"
	collyfetcher "github.com/JakeFAU/articles-service/internal/fetcher/colly"
	"github.com/JakeFAU/articles-service/internal/metrics"
	"github.com/JakeFAU/articles-service/internal/policy/ratelimit"
	"github.com/JakeFAU/articles-service/internal/scraper"
	memoryStorage "github.com/JakeFAU/articles-service/internal/storage/memory"
	pgstore "github.com/JakeFAU/articles-service/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

// App contains the application's dependencies.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	store   article.Store
	scraper *scraper.Scraper
	server  *Server
	admin   *http.Server
}

// Build creates the application's dependencies. Store setup failures are
// returned so the caller can abort before serving.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	logger.Info("building application dependencies",
		zap.String("addr", cfg.Server.Addr),
		zap.String("db_driver", cfg.DB.Driver),
		zap.String("scrape_url", cfg.Scrape.URL),
	)

	store, err := setupStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.Scrape.UserAgent,
		RespectRobots: cfg.Scrape.RespectRobots,
		Timeout:       cfg.ScrapeTimeout(),
		MaxBodyBytes:  cfg.Scrape.MaxBodyBytes,
	})
	scr := scraper.New(fetcher, store, scraper.Config{
		URL:            cfg.Scrape.URL,
		Selector:       cfg.Scrape.Selector,
		Source:         cfg.Scrape.Source,
		Limit:          cfg.Scrape.Limit,
		AcceptLanguage: cfg.Scrape.AcceptLanguage,
	}, logger.Named("scraper"), scraper.WithLimiter(ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.Scrape.RatePerSecond,
		DefaultBurst: cfg.Scrape.RateBurst,
	})))

	handler := api.NewHandler(store, scr, logger.Named("api"))
	app := &App{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		scraper: scr,
		server: New(Config{
			Workers:        cfg.Server.Workers,
			QueueDepth:     cfg.Server.QueueDepth,
			ReadTimeout:    cfg.ReadTimeout(),
			WriteTimeout:   cfg.WriteTimeout(),
			HandlerTimeout: cfg.HandlerTimeout(),
		}, handler, logger.Named("server")),
	}
	if cfg.Admin.Enabled {
		app.admin = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Admin.Port),
			Handler:           api.NewAdminRouter(store, logger.Named("admin")),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return app, nil
}

func setupStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (article.Store, error) {
	switch cfg.DB.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory article store; data is lost on restart")
		return memoryStorage.NewArticleStore(), nil
	case config.DriverPostgres, "":
		store, err := pgstore.NewArticleStore(ctx, pgstore.StoreConfig{
			DSN:             cfg.DB.DSN,
			Table:           cfg.DB.Table,
			MaxConns:        cfg.DB.MaxConns,
			MinConns:        cfg.DB.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime(),
		})
		if err != nil {
			return nil, fmt.Errorf("postgres store init failed: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("postgres schema setup failed: %w", err)
		}
		logger.Info("postgres article store ready", zap.String("table", cfg.DB.Table))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}
}

// Run listens on the configured address and blocks until ctx ends.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the connection loop on ln plus the admin server, then shuts both down.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.admin != nil {
		go func() {
			a.logger.Info("admin server started", zap.String("addr", a.admin.Addr))
			if err := a.admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("admin server error", zap.Error(err))
				cancel()
			}
		}()
	}

	serveErr := a.server.Serve(ctx, ln)
	a.logger.Info("shutdown initiated")

	if a.admin != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := a.admin.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("admin server shutdown error", zap.Error(err))
		}
	}
	return serveErr
}

// ScrapeOnce runs the scrape pipeline without serving.
func (a *App) ScrapeOnce(ctx context.Context) (scraper.Result, error) {
	res, err := a.scraper.Run(ctx)
	if err != nil {
		return res, fmt.Errorf("scrape: %w", err)
	}
	return res, nil
}

// Close releases the store and flushes the logger.
func (a *App) Close() {
	a.store.Close()
	a.logger.Info("shutdown complete")
	_ = a.logger.Sync()
}
