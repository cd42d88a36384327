package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

// Base holds what every command needs: the configuration, the
// logger and the record store. It is extended by App to serve.
type Base struct {
	logger   *zap.Logger
	config   *Config
	clock    *TickClock
	store    *sqlStore
	cleanups []func()
}

// NewBase loads the configuration then sets up logging and the record store.
func NewBase(configFile, envFile string) (*Base, error) {
	config, err := LoadAndInitConfigs(configFile, envFile, GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	clock := NewTickClock(NewClock(config.IsProduction))
	logsWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logsWriter, clock)
	b := &Base{
		logger: logger,
		config: config,
		clock:  clock,
		cleanups: []func(){
			func() { _ = flusher() },
			func() {
				if cerr := logsWriter.Close(); cerr != nil {
					fmt.Println("error during closing of log file: ", cerr)
				}
			},
		},
	}

	db, err := GetSQLClient(&config.Database)
	if err != nil {
		b.Clean()
		return nil, fmt.Errorf("failed to connect to the database: %s", err)
	}
	b.store = NewSQLStore(logger, db, config.Database.Driver)
	b.prependCleanup(func() {
		if cerr := b.store.Close(); cerr != nil {
			logger.Error("failed to close the database", zap.Error(cerr))
		}
	})
	return b, nil
}

// prependCleanup registers f to run before the already registered cleanups
// so resources are released before the logger is flushed and closed.
func (b *Base) prependCleanup(f func()) {
	b.cleanups = append([]func(){f}, b.cleanups...)
}

// Clean calls all registered cleanups functions.
func (b *Base) Clean() {
	for _, f := range b.cleanups {
		f()
	}
}

type App struct {
	*Base
	server         *http.Server
	redisClient    *redis.Client
	queueConsumers []func(context.Context) error
}

// NewApp provides an instance of App.
func NewApp(configFile, envFile string) (*App, error) {
	b, err := NewBase(configFile, envFile)
	if err != nil {
		return nil, err
	}
	app := &App{Base: b}
	config, logger := b.config, b.logger

	if err = b.store.Migrate(context.Background()); err != nil {
		b.Clean()
		return nil, fmt.Errorf("failed to apply database schema: %s", err)
	}

	// Setup the connection to redis server when a backend needs it.
	if config.UsesRedis() {
		app.redisClient, err = GetRedisClient(config)
		if err != nil {
			b.Clean()
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		b.prependCleanup(func() { _ = app.redisClient.Close() })
	}

	var cacheStore CacheStore
	switch config.Cache.Backend {
	case BackendRedis:
		cacheStore = NewRedisCacheStore(logger, app.redisClient)
	case BackendBolt:
		boltDBClient, err := GetBoltDBClient(config)
		if err != nil {
			b.Clean()
			return nil, fmt.Errorf("failed to open boltDB cache: %s", err)
		}
		boltCache := NewBoltCacheStore(logger, &config.BoltDB, boltDBClient, b.clock)
		b.prependCleanup(func() { _ = boltCache.Close() })
		app.queueConsumers = append(app.queueConsumers, func(ctx context.Context) error {
			return boltCache.Sweep(ctx, config.Cache.TTL)
		})
		cacheStore = boltCache
	default:
		cacheStore = NewMemoryCacheStore(logger, &config.Cache)
	}

	var queue Queuer
	if config.Queue.Backend == BackendRedis {
		queue = NewRedisQueue(app.redisClient)
	} else {
		queue = NewMemoryQueue(config.Queue.BufferSize)
	}

	// Setup the cache, the services and the invalidation consumer.
	queryCache := NewQueryCache(logger, cacheStore, config.Cache.TTL, config.Cache.DedupeFills)
	invalidator := NewCacheInvalidator(logger, queue, queryCache)
	app.queueConsumers = append(app.queueConsumers, func(ctx context.Context) error {
		return invalidator.Consume(ctx, InvalidationQueue)
	})

	bookService := NewBookService(logger, config, queryCache, NewSQLBookStorage(b.store), queue)
	memberService := NewMemberService(logger, config, queryCache, NewSQLMemberStorage(b.store), queue)

	stats := &Statistics{
		version:   config.GitTag,
		container: IsAppRunningInDocker(),
		started:   b.clock.Now(),
		runtime:   runtime.Version(),
		platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		stats.version = config.GitCommit
	}
	apiService := NewAPIHandler(logger, config, stats, b.clock, NewIDsHandler(), queryCache, bookService, memberService)

	// Build the map of middlewares stacks.
	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)

	// Build the api server definition.
	app.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        requestTimeout(router, config.Server.RequestTimeout),
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
	}
	return app, nil
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.ConsumeQueues(gCtx, g))
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("app.database", app.config.Database.Driver),
			zap.String("app.cache", app.config.Cache.Backend),
			zap.String("app.queue", app.config.Queue.Backend),
		)
		err := app.server.ListenAndServe()
		if err == http.ErrServerClosed {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch err {
		case nil, http.ErrServerClosed:
			app.logger.Info("api server graceful shutdown succeeded")
		case context.DeadlineExceeded:
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && err != http.ErrServerClosed {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}

// ConsumeQueues runs all queue consumers into separate controlled goroutines.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			consume := consume
			g.Go(func() error {
				return consume(gCtx)
			})
		}
		return nil
	}
}
