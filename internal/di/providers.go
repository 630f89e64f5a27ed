package di

import (
	"fmt"

	domrepo "SignalFlow/internal/domain/repository"
	"SignalFlow/internal/handler/api"
	kconsumer "SignalFlow/internal/handler/consumer"
	internalrepo "SignalFlow/internal/repository"
	"SignalFlow/internal/service/analysis"
	"SignalFlow/internal/service/chat"
	"SignalFlow/internal/service/feed"
	"SignalFlow/internal/service/normalizer"
	"SignalFlow/internal/usecase"
	"SignalFlow/pkg/cache"
	"SignalFlow/pkg/config"
	xhttp "SignalFlow/pkg/http"
	pkgkafka "SignalFlow/pkg/kafka"
	applogger "SignalFlow/pkg/logger"
	"SignalFlow/pkg/metrics"
	"SignalFlow/pkg/queue"
	"SignalFlow/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideCache creates the Redis keyed backend.
func ProvideCache(cfg *config.Config) (*cache.RedisCache, error) {
	c, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideCacheService exposes the Redis cache behind the backend interface.
func ProvideCacheService(c *cache.RedisCache) cache.Service { return c }

// ProvideSignalStore creates the TTL-backed signal store.
func ProvideSignalStore(c cache.Service, l *applogger.Logger, m domrepo.Metrics) domrepo.SignalStore {
	return internalrepo.NewCachedSignalStore(c, l, m)
}

// ProvideContextManager creates the conversation context manager.
func ProvideContextManager(c cache.Service, cfg *config.Config, l *applogger.Logger) domrepo.ContextManager {
	return internalrepo.NewCachedContextManager(c, cfg.Signals.ContextTTL, l)
}

// ProvideNormalizer creates the payload normalizer.
func ProvideNormalizer() *normalizer.Normalizer {
	return normalizer.New()
}

// ProvideAnalyzers builds the four analysis collaborators. Unconfigured ones
// are simply not registered; their views degrade at dispatch time.
func ProvideAnalyzers(cfg *config.Config, l *applogger.Logger) []domrepo.Analyzer {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Analysis.Timeout))
	retries := analysis.WithRetries(cfg.Analysis.Retries)

	var analyzers []domrepo.Analyzer
	if cfg.Analysis.TechnicalURL != "" {
		analyzers = append(analyzers, analysis.NewTechnical(cfg.Analysis.TechnicalURL, client, l, retries))
	}
	if cfg.Analysis.SentimentURL != "" {
		analyzers = append(analyzers, analysis.NewSentiment(cfg.Analysis.SentimentURL, client, l, retries))
	}
	if cfg.Analysis.CalendarURL != "" {
		analyzers = append(analyzers, analysis.NewCalendar(cfg.Analysis.CalendarURL, client, l, retries))
	}
	if cfg.Analysis.VerdictURL != "" {
		analyzers = append(analyzers, analysis.NewVerdict(cfg.Analysis.VerdictURL, client, l, retries))
	}
	return analyzers
}

// ProvideChatSender creates the direct chat boundary sender.
func ProvideChatSender(cfg *config.Config, l *applogger.Logger) *chat.Sender {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Chat.Timeout))
	return chat.NewSender(cfg.Chat.OutboundURL, cfg.Chat.Token, client, l)
}

// ProvideDeliveryQueue creates the outbound delivery queue with its job
// consuming views into the direct sender.
func ProvideDeliveryQueue(cfg *config.Config, c *cache.RedisCache, sender *chat.Sender, m domrepo.Metrics, l *applogger.Logger) *queue.RedisQueue {
	q := queue.NewRedisQueue(l, &queue.Config{
		Workers:    cfg.Chat.Delivery.Workers,
		RetryLimit: cfg.Chat.Delivery.RetryLimit,
		RetryDelay: cfg.Chat.Delivery.RetryDelay,
	}, c.Client(), queue.ModeProducerConsumer)
	q.RegisterJob(chat.NewDeliveryJob(sender, m, l))
	return q
}

// ProvideQueuedSender wraps the delivery queue as the ChatSender used by the
// use cases.
func ProvideQueuedSender(q *queue.RedisQueue) domrepo.ChatSender {
	return chat.NewQueuedSender(q)
}

// ProvideDispatcher creates the view dispatcher.
func ProvideDispatcher(contexts domrepo.ContextManager, analyzers []domrepo.Analyzer, m domrepo.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.ViewDispatcher {
	return usecase.NewViewDispatcher(contexts, analyzers, m, l,
		usecase.WithCollaboratorTimeout(cfg.Analysis.Timeout))
}

// ProvideIngestor creates the ingest use case.
func ProvideIngestor(n *normalizer.Normalizer, store domrepo.SignalStore, d *usecase.ViewDispatcher, sender domrepo.ChatSender, m domrepo.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.Ingestor {
	return usecase.NewIngestor(n, store, d, sender, m, l, cfg.Signals.TTL)
}

// ProvideRouter creates the callback router.
func ProvideRouter(store domrepo.SignalStore, contexts domrepo.ContextManager, m domrepo.Metrics, l *applogger.Logger) *usecase.CallbackRouter {
	return usecase.NewCallbackRouter(store, contexts, m, l)
}

// ProvideInteractor creates the interaction use case.
func ProvideInteractor(router *usecase.CallbackRouter, d *usecase.ViewDispatcher, sender domrepo.ChatSender, l *applogger.Logger) *usecase.Interactor {
	return usecase.NewInteractor(router, d, sender, l)
}

// ProvideKafkaConsumer creates the ingest topic consumer. Returns nil when
// Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, ingestor *usecase.Ingestor, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	consumer.RegisterHandler(kconsumer.NewSignalsHandler(cfg.Kafka.Topic, ingestor, l))
	return consumer, nil
}

// ProvideFeedCollector creates the provider feed collector. Returns nil when
// the feed is disabled.
func ProvideFeedCollector(cfg *config.Config, ingestor *usecase.Ingestor, l *applogger.Logger) *usecase.FeedCollector {
	if !cfg.Feed.Enabled {
		return nil
	}

	client := feed.NewClient(
		cfg.Feed.URL,
		cfg.Feed.Token,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
		l,
	)
	return usecase.NewFeedCollector(client, ingestor, l)
}

// ProvideHTTPHandler assembles the route groups behind one handler.
func ProvideHTTPHandler(l *applogger.Logger, ingestor *usecase.Ingestor, interactor *usecase.Interactor, store domrepo.SignalStore, c cache.Service) xhttp.Handler {
	return server.Routes(
		api.NewSignalsHandler(l, ingestor, interactor, store),
		api.NewHealthHandler(c, l),
	)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	collector *usecase.FeedCollector,
	consumer *pkgkafka.Consumer,
	q *queue.RedisQueue,
	c *cache.RedisCache,
) *server.App {
	return server.New(cfg, l, handler, collector, consumer, q, c)
}
