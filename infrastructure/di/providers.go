package di

import (
	"context"
	"fmt"
	"time"

	"warrantboard/application/ports"
	"warrantboard/application/session"
	"warrantboard/domain/affix"
	"warrantboard/domain/fusion"
	"warrantboard/domain/layout"
	"warrantboard/domain/random"
	"warrantboard/infrastructure/cache"
	"warrantboard/infrastructure/config"
	"warrantboard/infrastructure/messaging"
	"warrantboard/infrastructure/messaging/eventbridge"
	"warrantboard/infrastructure/observability"
	"warrantboard/infrastructure/persistence/badger"
	"warrantboard/infrastructure/persistence/dynamodb"
	"warrantboard/infrastructure/persistence/memory"
	"warrantboard/interfaces/http/rest"
	"warrantboard/pkg/auth"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("environment", cfg.Environment)), nil
}

// ProvideRandom creates the shared random source. A zero seed seeds from the
// clock.
func ProvideRandom(cfg *config.Config) *random.Locked {
	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return random.NewLocked(random.New(seed))
}

// ProvideLoader creates the content file loader
func ProvideLoader(logger *zap.Logger) *config.Loader {
	return config.NewLoader(logger)
}

// ProvideDefinition loads the board definition file, or generates the
// default layout when none is configured.
func ProvideDefinition(cfg *config.Config, loader *config.Loader, logger *zap.Logger) (*layout.Definition, error) {
	if cfg.DefinitionPath != "" {
		def, err := loader.LoadDefinition(cfg.DefinitionPath)
		if err != nil {
			return nil, fmt.Errorf("load board definition: %w", err)
		}
		return def, nil
	}
	return layout.NewGenerator(logger).Generate(layoutParams(cfg))
}

func layoutParams(cfg *config.Config) layout.Params {
	p := layout.DefaultParams()
	if cfg.BoardWidth > 0 {
		p.Width = cfg.BoardWidth
	}
	if cfg.BoardHeight > 0 {
		p.Height = cfg.BoardHeight
	}
	if cfg.EffectNodesPerEdge >= 0 {
		p.EffectNodesPerEdge = cfg.EffectNodesPerEdge
	}
	if cfg.BranchSections > 0 {
		p.BranchSections = cfg.BranchSections
	}
	return p
}

// ProvideCatalog loads the affix catalog file, or the built-in catalog.
func ProvideCatalog(cfg *config.Config, loader *config.Loader) (*config.CatalogFile, error) {
	if cfg.CatalogPath == "" {
		return config.DefaultCatalog(), nil
	}
	catalog, err := loader.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load affix catalog: %w", err)
	}
	return catalog, nil
}

// ProvideDatabase builds the item database
func ProvideDatabase(catalog *config.CatalogFile, rng *random.Locked, logger *zap.Logger) *affix.Database {
	return config.BuildDatabase(catalog, rng, logger)
}

// ProvideFusionEngine creates the fusion engine
func ProvideFusionEngine(rng *random.Locked, logger *zap.Logger) *fusion.Engine {
	return fusion.NewEngine(rng, logger)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// Storage is the selected persistence backend.
type Storage struct {
	Saves     ports.SaveRepository
	Inventory ports.InventoryRepository
}

// ProvideStorage opens the configured backend. The cleanup closes it.
func ProvideStorage(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (*Storage, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageBadger:
		return provideBadgerStorage(cfg, logger)
	case config.StorageDynamoDB:
		repo := dynamodb.NewRepository(
			awsdynamodb.NewFromConfig(awsCfg),
			cfg.DynamoDBTable,
			dynamodb.DefaultBreakerConfig(),
			logger,
		)
		return &Storage{Saves: repo, Inventory: repo}, func() {}, nil
	default:
		return &Storage{
			Saves:     memory.NewSaveRepository(),
			Inventory: memory.NewInventoryRepository(),
		}, func() {}, nil
	}
}

func provideBadgerStorage(cfg *config.Config, logger *zap.Logger) (*Storage, func(), error) {
	bcfg := badger.DefaultConfig(cfg.BadgerPath)
	bcfg.Logger = logger
	db, err := badger.Open(bcfg)
	if err != nil {
		return nil, nil, err
	}
	repo, err := badger.NewRepository(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	gc, err := badger.NewGCRunner(db, bcfg.GCInterval, bcfg.GCDiscardRatio, logger)
	if err != nil {
		_ = repo.Close()
		_ = db.Close()
		return nil, nil, err
	}
	gc.Start()

	cleanup := func() {
		gc.Stop()
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to release badger sequence", zap.Error(err))
		}
		if err := db.Close(); err != nil {
			logger.Error("Failed to close badger database", zap.Error(err))
		}
	}
	return &Storage{Saves: repo, Inventory: repo}, cleanup, nil
}

// ProvideSaveRepository exposes the storage's save port
func ProvideSaveRepository(s *Storage) ports.SaveRepository {
	return s.Saves
}

// ProvideInventoryRepository exposes the storage's inventory port
func ProvideInventoryRepository(s *Storage) ports.InventoryRepository {
	return s.Inventory
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("warrantboard")
}

// ProvideMetrics exposes the collector as the metrics port
func ProvideMetrics(c *observability.Collector) ports.Metrics {
	return c
}

// ProvideBoardCache creates the built board cache
func ProvideBoardCache(cfg *config.Config, logger *zap.Logger) (ports.BoardCache, error) {
	return cache.NewBoardCache(cfg.BoardCacheSize, logger)
}

// ProvideEventPublisher creates the local bus, fanned out to EventBridge
// when events are enabled.
func ProvideEventPublisher(cfg *config.Config, awsCfg aws.Config, collector *observability.Collector, logger *zap.Logger) ports.EventPublisher {
	bus := messaging.NewLocalBus(logger)
	bus.Subscribe(messaging.AllEvents, collector.CountEvent)
	if !cfg.EnableEvents {
		return bus
	}
	remote := eventbridge.NewPublisher(
		awseventbridge.NewFromConfig(awsCfg),
		cfg.EventBusName,
		cfg.EventSource,
		logger,
	)
	return messaging.Fanout{bus, remote}
}

// ProvideTracing installs the OTLP tracer provider when tracing is enabled.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "warrantboard",
		Environment: cfg.Environment,
		Endpoint:    cfg.TracingAddress,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideSessionOptions maps config onto gameplay options
func ProvideSessionOptions(cfg *config.Config) session.Options {
	return session.Options{
		StartingPoints: cfg.StartingPoints,
		Unlimited:      cfg.UnlimitedPoints,
		MaxPages:       cfg.MaxPages,
		MinAffixes:     cfg.MinAffixes,
		MaxAffixes:     cfg.MaxAffixes,
	}
}

// ProvideManager creates the session manager
func ProvideManager(
	def *layout.Definition,
	db *affix.Database,
	saves ports.SaveRepository,
	inventory ports.InventoryRepository,
	publisher ports.EventPublisher,
	boardCache ports.BoardCache,
	metrics ports.Metrics,
	engine *fusion.Engine,
	opts session.Options,
	logger *zap.Logger,
) *session.Manager {
	return session.NewManager(
		session.Catalog{Definition: def, Database: db},
		saves, inventory, publisher, boardCache, metrics, engine, opts, logger,
	)
}

// ProvideContentWatcher hot reloads the definition and catalog files into
// the manager. It returns nil when watching is off or nothing is file backed.
func ProvideContentWatcher(
	cfg *config.Config,
	loader *config.Loader,
	manager *session.Manager,
	rng *random.Locked,
	logger *zap.Logger,
) (*config.ContentWatcher, func(), error) {
	if !cfg.WatchContent || (cfg.DefinitionPath == "" && cfg.CatalogPath == "") {
		return nil, func() {}, nil
	}
	w, err := config.NewContentWatcher(config.DefaultDebounce, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.DefinitionPath != "" {
		if err := w.Watch(cfg.DefinitionPath, func(path string) {
			def, err := loader.LoadDefinition(path)
			if err != nil {
				logger.Error("Board definition reload failed", zap.String("path", path), zap.Error(err))
				return
			}
			manager.ReloadDefinition(def)
		}); err != nil {
			w.Stop()
			return nil, nil, err
		}
	}
	if cfg.CatalogPath != "" {
		if err := w.Watch(cfg.CatalogPath, func(path string) {
			catalog, err := loader.LoadCatalog(path)
			if err != nil {
				logger.Error("Affix catalog reload failed", zap.String("path", path), zap.Error(err))
				return
			}
			manager.ReloadCatalog(config.BuildDatabase(catalog, rng, logger))
		}); err != nil {
			w.Stop()
			return nil, nil, err
		}
	}

	w.Start()
	return w, w.Stop, nil
}

// ProvideRouterConfig assembles auth, rate limiting and metrics for the
// router.
func ProvideRouterConfig(cfg *config.Config, collector *observability.Collector) (rest.RouterConfig, error) {
	rc := rest.RouterConfig{EnableCORS: cfg.EnableCORS}
	if cfg.JWTSecret != "" {
		validator, err := auth.NewJWTValidator(auth.JWTConfig{
			SecretKey: cfg.JWTSecret,
			Issuer:    cfg.JWTIssuer,
		})
		if err != nil {
			return rest.RouterConfig{}, err
		}
		rc.Validator = validator
	}
	if cfg.RateLimitPerMinute > 0 {
		rc.Limiter = auth.PerMinute(cfg.RateLimitPerMinute)
	}
	if cfg.EnableMetrics {
		rc.Metrics = collector
	}
	return rc, nil
}

// ProvideRouter creates the HTTP router
func ProvideRouter(manager *session.Manager, rc rest.RouterConfig, logger *zap.Logger) *rest.Router {
	return rest.NewRouter(manager, rc, logger)
}
