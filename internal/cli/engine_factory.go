package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/internal/config"
	"github.com/aretw0/onboard/pkg/adapters/file"
	"github.com/aretw0/onboard/pkg/adapters/gateway"
	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/adapters/mockbackend"
	"github.com/aretw0/onboard/pkg/adapters/redis"
	"github.com/aretw0/onboard/pkg/adapters/sqlite"
	"github.com/aretw0/onboard/pkg/auth"
	"github.com/aretw0/onboard/pkg/observability"
	"github.com/aretw0/onboard/pkg/persistence/middleware"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	backend "github.com/redis/go-redis/v9"
)

// Runtime is a fully wired engine plus the resources it owns.
type Runtime struct {
	Engine   *onboard.Engine
	Registry *prometheus.Registry
	Guard    *auth.Guard
	Logger   *slog.Logger

	closers []func() error
}

// Close waits for pending notifications and releases owned resources.
func (r *Runtime) Close() error {
	if r.Engine != nil {
		r.Engine.Wait()
	}
	r.Guard.Wait()
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Build wires an engine from the configuration.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{
		Registry: prometheus.NewRegistry(),
		Logger:   logger,
	}
	if err := rt.wire(ctx, cfg); err != nil {
		return nil, errors.Join(err, rt.Close())
	}
	return rt, nil
}

func (r *Runtime) wire(ctx context.Context, cfg config.Config) error {
	// 1. Persistence
	store, client, err := openStore(cfg)
	if err != nil {
		return err
	}
	if client != nil {
		r.closers = append(r.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis unreachable at %s: %w", cfg.RedisAddr, err)
		}
	}

	ledger, err := r.openLedger(cfg, client)
	if err != nil {
		return err
	}

	// 2. Credentials: the request token wins over the configured one.
	r.Guard = auth.NewGuard(
		auth.Chain(auth.ContextToken{}, auth.StaticToken(cfg.Token)),
		&observability.LogNotifier{Logger: r.Logger},
		auth.WithLogger(r.Logger),
	)

	// 3. Backend
	var be ports.Backend
	if cfg.UseMockBackend {
		r.Logger.Info("using mock backend")
		be = mockbackend.New(mockbackend.WithGuard(r.Guard), mockbackend.WithLogger(r.Logger))
	} else {
		gw, err := gateway.New(cfg.APIURL, r.Guard,
			gateway.WithTimeout(cfg.APITimeout),
			gateway.WithProductID(cfg.ProductID),
			gateway.WithLogger(r.Logger),
		)
		if err != nil {
			return err
		}
		be = gw
	}

	// 4. Observability
	r.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(r.Registry)
	if err != nil {
		return err
	}

	opts := []onboard.Option{
		onboard.WithStore(store),
		onboard.WithLedger(ledger),
		onboard.WithAnalytics(&observability.LogAnalytics{Logger: r.Logger}),
		onboard.WithDiagnostics(&observability.LogDiagnostics{Logger: r.Logger}),
		onboard.WithLifecycleHooks(observability.Combine(metrics.Hooks(), observability.LogHooks(r.Logger))),
		onboard.WithLogger(r.Logger),
		onboard.WithProductID(cfg.ProductID),
		onboard.WithStatusRefetch(cfg.RefetchStatus),
	}
	if client != nil {
		// The lock outlives the longest backend call of a step.
		opts = append(opts, onboard.WithLocker(redis.NewLocker(client, redis.DefaultPrefix), 2*cfg.APITimeout))
	}

	// 5. Engine
	r.Engine, err = onboard.New(be, opts...)
	if err != nil {
		return fmt.Errorf("error initializing engine: %w", err)
	}
	return nil
}

// OpenStore opens the configured session store for offline inspection.
// The returned function releases it.
func OpenStore(cfg config.Config) (ports.SessionStore, func() error, error) {
	store, client, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return store, func() error { return nil }, nil
	}
	return store, client.Close, nil
}

func openStore(cfg config.Config) (ports.SessionStore, *backend.Client, error) {
	var key []byte
	if cfg.StateKey != "" {
		var err error
		if key, err = middleware.ParseKey(cfg.StateKey); err != nil {
			return nil, nil, err
		}
	}

	var (
		store  ports.SessionStore
		client *backend.Client
	)
	switch cfg.Store {
	case config.StoreMemory:
		store = memory.NewStore()
	case config.StoreFile:
		store = file.New(cfg.StorePath)
	case config.StoreRedis:
		client = redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		store = redis.New(client, redis.WithTTL(cfg.SessionTTL))
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	if key != nil {
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(store)
	}
	return store, client, nil
}

func (r *Runtime) openLedger(cfg config.Config, client *backend.Client) (ports.OutcomeLedger, error) {
	switch cfg.Ledger {
	case config.LedgerMemory:
		return memory.NewLedger(), nil
	case config.LedgerNone:
		return memory.DiscardLedger{}, nil
	case config.LedgerSQLite:
		l, err := sqlite.Open(cfg.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("open outcome ledger: %w", err)
		}
		r.closers = append(r.closers, l.Close)
		return l, nil
	case config.LedgerRedis:
		if client == nil {
			return nil, errors.New("the redis ledger requires the redis store")
		}
		return redis.NewLedger(client, redis.DefaultPrefix), nil
	}
	return nil, fmt.Errorf("unknown ledger %q", cfg.Ledger)
}
