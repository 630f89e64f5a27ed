package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"SignalFlow/internal/usecase"
	"SignalFlow/pkg/cache"
	"SignalFlow/pkg/config"
	xhttp "SignalFlow/pkg/http"
	pkgkafka "SignalFlow/pkg/kafka"
	applogger "SignalFlow/pkg/logger"
	"SignalFlow/pkg/queue"
)

type routeGroup []xhttp.Handler

func (g routeGroup) RegisterRoutes(e *echo.Echo) {
	for _, h := range g {
		h.RegisterRoutes(e)
	}
}

// Routes combines several handlers behind one registration point.
func Routes(handlers ...xhttp.Handler) xhttp.Handler {
	return routeGroup(handlers)
}

// App owns the application lifecycle: the HTTP server, the optional Kafka
// consumer and provider feed, and the delivery queue.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	collector  *usecase.FeedCollector
	consumer   *pkgkafka.Consumer
	queue      *queue.RedisQueue
	cache      *cache.RedisCache
	httpServer *xhttp.Server
}

// New creates the application. collector and consumer may be nil when their
// sources are disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	collector *usecase.FeedCollector,
	consumer *pkgkafka.Consumer,
	q *queue.RedisQueue,
	c *cache.RedisCache,
) *App {
	return &App{
		cfg:       cfg,
		logger:    l,
		handler:   handler,
		collector: collector,
		consumer:  consumer,
		queue:     q,
		cache:     c,
	}
}

// Run starts every configured component and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	}
	if a.cfg.Metrics.Enabled && a.cfg.Metrics.Path != "" {
		serverOpts = append(serverOpts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
	}
	a.httpServer = xhttp.NewServer(a.handler, serverOpts...)

	if err := a.queue.Start(); err != nil {
		return err
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.logger.Info("kafka ingest started", applogger.String("topic", a.cfg.Kafka.Topic))
	}

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.logger.Error("feed collector error", applogger.Error(err))
			}
		}()
		a.logger.Info("provider feed started", applogger.String("url", a.cfg.Feed.URL))
	}

	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.collector != nil {
		if err := a.collector.Stop(); err != nil {
			a.logger.Warn("feed close error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("consumer stop error", applogger.Error(err))
		}
	}

	// Queue last so in-flight deliveries drain.
	if err := a.queue.Stop(shutdownCtx); err != nil {
		a.logger.Warn("queue stop error", applogger.Error(err))
	}

	if err := a.cache.Close(); err != nil {
		a.logger.Warn("cache close error", applogger.Error(err))
	}

	a.logger.Info("shutdown complete")
	return nil
}
