package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/riskibarqy/prediction-league/external/predictionapi"
	"github.com/riskibarqy/prediction-league/internal/config"
	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/group"
	"github.com/riskibarqy/prediction-league/internal/domain/prediction"
	"github.com/riskibarqy/prediction-league/internal/domain/team"
	"github.com/riskibarqy/prediction-league/internal/domain/user"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/backend/memory"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/events"
	cachememory "github.com/riskibarqy/prediction-league/internal/infrastructure/repository/memory"
	cachepostgres "github.com/riskibarqy/prediction-league/internal/infrastructure/repository/postgres"
	cacheredis "github.com/riskibarqy/prediction-league/internal/infrastructure/repository/redis"
	"github.com/riskibarqy/prediction-league/internal/interfaces/httpapi"
	"github.com/riskibarqy/prediction-league/internal/platform/id"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/riskibarqy/prediction-league/internal/platform/resilience"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

// backend is everything the gateway needs from the prediction backend.
type backend interface {
	fixture.Feed
	group.Repository
	team.Repository
	prediction.Repository
	httpapi.TokenVerifier
}

// App owns the HTTP server and the background workers behind it.
type App struct {
	Server *http.Server

	cfg         config.Config
	logger      *logging.Logger
	fixtures    *usecase.FixtureService
	stores      *usecase.PredictionStores
	poller      *usecase.LivePoller
	broker      *events.Broker
	natsConn    *nats.Conn
	relay       *nats.Subscription
	closers     []func() error
	stopWorkers context.CancelFunc
	workersDone chan struct{}
}

// New builds the dependency graph described by cfg. Nothing runs until Start.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{cfg: cfg, logger: logger}

	api, verifier := a.newBackend()

	cache, err := a.newFixtureCache(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.broker = events.NewBroker(cfg.LiveStreamBuffer, logger)
	publisher, err := a.newLivePublisher()
	if err != nil {
		a.close()
		return nil, err
	}

	a.fixtures = usecase.NewFixtureService(api, cache, logger)
	a.stores = usecase.NewPredictionStores(api, cache, cfg.PredictionIdleTTL, logger)
	a.poller = usecase.NewLivePoller(api, cache, publisher, usecase.LivePollerConfig{
		Interval:     cfg.LivePollInterval,
		FetchTimeout: cfg.LiveFetchTimeout,
	}, logger)

	handler := httpapi.NewHandler(
		usecase.NewGroupService(api, api, cfg.TeamCacheTTL),
		a.fixtures,
		a.stores,
		a.poller,
		a.broker,
		logger,
	)
	router := httpapi.NewRouter(handler, verifier, logger, httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
		ServiceToken:       cfg.BackendServiceToken,
		MutationRateLimit:  cfg.MutationRateLimit,
		MutationRateWindow: cfg.MutationRateWindow,
		RequestIDs:         id.NewUUIDGenerator(),
	})

	a.Server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return a, nil
}

func (a *App) newBackend() (backend, httpapi.TokenVerifier) {
	if a.cfg.BackendDriver == config.BackendDriverMemory {
		a.logger.Warn("using in-process prediction backend", "driver", a.cfg.BackendDriver)
		api := memory.NewBackend(memory.DefaultSeed(time.Now()), id.NewInviteCodeGenerator())
		return api, api
	}

	var sessions *predictionapi.SessionCache
	client := predictionapi.NewClient(predictionapi.ClientConfig{
		BaseURL:       a.cfg.BackendBaseURL,
		Timeout:       a.cfg.BackendTimeout,
		MaxRetries:    a.cfg.BackendMaxRetries,
		RetryBackoff:  a.cfg.BackendRetryBackoff,
		Logger:        a.logger,
		DebugRequests: a.cfg.BackendDebugRequests,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          a.cfg.BackendCircuitEnabled,
			FailureThreshold: a.cfg.BackendCircuitFailureCount,
			OpenTimeout:      a.cfg.BackendCircuitOpenTimeout,
			HalfOpenMaxReq:   a.cfg.BackendCircuitHalfOpenMaxReq,
		},
		OnSessionExpired: func(ctx context.Context, principal user.Principal) {
			sessions.Forget(principal.AccessToken)
			a.logger.InfoContext(ctx, "backend session expired", "user_id", principal.UserID)
		},
	})
	sessions = predictionapi.NewSessionCache(client, a.cfg.SessionCacheTTL, a.cfg.SessionCacheMaxEntries)

	return client, sessions
}

func (a *App) newFixtureCache(ctx context.Context) (fixture.Repository, error) {
	switch a.cfg.FixtureStore {
	case config.FixtureStorePostgres:
		settings := cachepostgres.ParseSettings(a.cfg.DBURL, a.cfg.DBDisablePreparedBinary)
		if a.cfg.DBAutoMigrate {
			version, err := cachepostgres.MigrateUp(settings.URL, a.logger)
			if err != nil {
				return nil, err
			}
			a.logger.Info("fixture cache schema migrated", "version", version)
		}
		db, err := openFixtureDB(ctx, settings)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.logger.Info("fixture cache ready", "driver", a.cfg.FixtureStore, "database", settings.Redacted())
		return cachepostgres.NewFixtureRepository(db), nil

	case config.FixtureStoreRedis:
		client, err := cacheredis.Connect(ctx, cacheredis.ClientConfig{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect fixture redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.logger.Info("fixture cache ready", "driver", a.cfg.FixtureStore, "addr", a.cfg.RedisAddr)
		return cacheredis.NewFixtureRepository(client, a.cfg.RedisKeyPrefix, a.cfg.RedisTTL), nil

	default:
		a.logger.Info("fixture cache ready", "driver", config.FixtureStoreMemory)
		return cachememory.NewFixtureRepository(nil), nil
	}
}

// newLivePublisher fans live updates out to local websocket subscribers and,
// when enabled, to NATS for other gateway instances.
func (a *App) newLivePublisher() (fixture.LivePublisher, error) {
	if !a.cfg.NATSEnabled {
		return a.broker, nil
	}

	conn, err := events.ConnectNATS(events.NATSConfig{
		URL:     a.cfg.NATSURL,
		Token:   a.cfg.NATSToken,
		Name:    a.cfg.ServiceName,
		Subject: a.cfg.NATSSubject,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.natsConn = conn

	if a.cfg.NATSRelay {
		sub, err := events.Relay(conn, a.cfg.NATSSubject, a.broker)
		if err != nil {
			return nil, err
		}
		a.relay = sub
	}

	return events.NewFanout(a.broker, events.NewNATSPublisher(conn, a.cfg.NATSSubject)), nil
}

// Start launches the background workers: the prediction store janitor, an
// initial fixture sync and, unless this instance relays from NATS, the live
// poller.
func (a *App) Start(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if token := a.cfg.BackendServiceToken; token != "" {
		workerCtx = user.WithPrincipal(workerCtx, user.ServicePrincipal(token))
	}
	a.stopWorkers = cancel
	a.workersDone = make(chan struct{})

	go func() {
		defer close(a.workersDone)
		a.stores.Run(workerCtx, a.cfg.PredictionSweepInterval)
	}()

	go a.warmFixtures(workerCtx)

	if !a.cfg.LivePollerEnabled || a.cfg.NATSRelay {
		a.logger.Info("live poller not started", "enabled", a.cfg.LivePollerEnabled, "nats_relay", a.cfg.NATSRelay)
		return nil
	}
	if err := a.poller.Start(workerCtx); err != nil {
		return fmt.Errorf("start live poller: %w", err)
	}
	a.logger.Info("live poller started", "interval", a.cfg.LivePollInterval.String())
	return nil
}

func (a *App) warmFixtures(ctx context.Context) {
	result, err := a.fixtures.SyncLeagues(ctx, usecase.SyncFixturesInput{})
	if err != nil {
		a.logger.WarnContext(ctx, "initial fixture sync failed", "error", err)
		return
	}
	a.logger.InfoContext(ctx, "initial fixture sync finished",
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
	)
}

// Shutdown stops the HTTP server first, then the workers, then closes the
// connections they used.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}

	if a.poller != nil && a.poller.Status().Running {
		a.poller.Stop()
	}
	if a.stopWorkers != nil {
		a.stopWorkers()
		select {
		case <-a.workersDone:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}
	if a.stores != nil {
		a.stores.Close()
	}
	if a.broker != nil {
		a.broker.Close()
	}

	errs = append(errs, a.close())
	return errors.Join(errs...)
}

func (a *App) close() error {
	var errs []error
	if a.relay != nil {
		if err := a.relay.Unsubscribe(); err != nil {
			errs = append(errs, fmt.Errorf("unsubscribe nats relay: %w", err))
		}
	}
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("drain nats: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
