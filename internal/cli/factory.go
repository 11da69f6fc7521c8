package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	omnibase "github.com/OmniNode-ai/omnibase-core-sub006"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/config"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/logging"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/adapters/file"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/adapters/memory"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/adapters/nats"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/adapters/process"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/adapters/redis"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/adapters/sqlite"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/observability"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/persistence/middleware"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/service"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
)

// sqliteFile is the database file created under STORE_PATH.
const sqliteFile = "omnibase.db"

// Stack is the wired entity service and the resources it owns.
type Stack struct {
	Service  *service.Service
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases stores and connections in reverse order of creation.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *Stack) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// BuildStack wires the entity service from cfg with CLI conventions:
// contracts come from a directory and snapshots from the configured store.
// Intents go to the log, to NATS when NATS_URL is set, and to local
// commands when EFFECTS_FILE is set.
func BuildStack(cfg config.Config, logger *slog.Logger) (*Stack, error) {
	stack := &Stack{Registry: prometheus.NewRegistry()}

	loader := file.NewLoader(cfg.ContractsDir)
	if err := loader.Reload(); err != nil {
		return nil, fmt.Errorf("error loading contracts from %s: %w", cfg.ContractsDir, err)
	}

	store, locker, err := buildStore(stack, cfg)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}
	store, err = applyMiddleware(store, cfg)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}

	sessionOpts := []session.Option{session.WithLogger(logger), session.WithLockTTL(cfg.LockTTL)}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
	}

	dispatchers := []ports.IntentDispatcher{service.LogDispatcher(logger)}
	if cfg.NATSURL != "" {
		nd, err := nats.Connect(cfg.NATSURL, nats.WithPrefix(cfg.NATSSubjectPrefix), nats.WithLogger(logger))
		if err != nil {
			_ = stack.Close()
			return nil, err
		}
		stack.onClose(func() error { nd.Close(); return nil })
		dispatchers = append(dispatchers, nd)
	}
	if cfg.EffectsFile != "" {
		effects, err := process.LoadEffects(cfg.EffectsFile)
		if err != nil {
			_ = stack.Close()
			return nil, err
		}
		dispatchers = append(dispatchers, process.NewDispatcher(
			process.WithEffects(effects),
			process.WithBaseDir(filepath.Dir(cfg.EffectsFile)),
			process.WithTimeout(cfg.EffectTimeout),
			process.WithLogger(logger),
		))
	}

	hooks := observability.NewMetrics(stack.Registry).Hooks()
	if lvl, _ := logging.ParseLevel(cfg.LogLevel); lvl <= slog.LevelDebug {
		hooks = hooks.Merge(observability.LoggingHooks(logger))
	}
	executor := omnibase.NewExecutor(omnibase.WithLogger(logger), omnibase.WithLifecycleHooks(hooks))

	stack.Service = service.New(loader, session.NewManager(store, sessionOpts...), executor,
		service.WithLogger(logger),
		service.WithDispatcher(service.MultiDispatcher(dispatchers...)),
		service.WithWorkers(cfg.Workers),
	)
	return stack, nil
}

func buildStore(stack *Stack, cfg config.Config) (ports.StateStore, ports.DistributedLocker, error) {
	switch cfg.Store {
	case config.StoreFile:
		return file.NewStore(cfg.StorePath), nil, nil
	case config.StoreSQLite:
		if err := os.MkdirAll(cfg.StorePath, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		st, err := sqlite.Open(filepath.Join(cfg.StorePath, sqliteFile))
		if err != nil {
			return nil, nil, err
		}
		stack.onClose(st.Close)
		return st, nil, nil
	case config.StoreRedis:
		client := backend.NewClient(&backend.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		stack.onClose(client.Close)
		opts := []redis.Option{redis.WithPrefix(cfg.RedisPrefix)}
		if cfg.StateTTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.StateTTL))
		}
		var locker ports.DistributedLocker
		if cfg.DistributedLocking {
			locker = redis.NewLocker(client, strings.TrimSuffix(cfg.RedisPrefix, ":")+".")
		}
		return redis.NewFromClient(client, opts...), locker, nil
	default:
		return memory.NewStore(), nil, nil
	}
}

// applyMiddleware masks context keys before the snapshot is encrypted.
func applyMiddleware(store ports.StateStore, cfg config.Config) (ports.StateStore, error) {
	var mws []middleware.Middleware
	if len(cfg.MaskKeys) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.MaskKeys)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	active, fallback, err := cfg.EncryptionKeys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}
