package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/commentera/commentera-api/internal/metrics"
	"github.com/commentera/commentera-api/internal/model"
)

var (
	// ErrNotFound means the alias was never loaded from the config source.
	ErrNotFound = errors.New("customer not found")

	// ErrSourceUnavailable wraps refresh failures. It never reaches a request:
	// the registry keeps serving the last-known-good snapshot.
	ErrSourceUnavailable = errors.New("config source unavailable")
)

// redisField is the hash field holding the serialized config per alias,
// mirroring the layout consumed by sibling services.
const redisField = "customer_info"

// Registry is the serving cache of customer configurations. Lookups read an
// in-memory snapshot; a background loop reloads the snapshot from the config
// source on a fixed interval and mirrors each record to Redis.
//
// Writes are upsert-only: aliases absent from a later refresh are retained
// until process restart.
type Registry struct {
	source   Source
	rdb      *redis.Client // optional mirror; nil disables replication
	interval time.Duration
	log      *zap.Logger

	mu      sync.RWMutex
	entries map[string]model.CustomerConfig
}

func New(source Source, rdb *redis.Client, interval time.Duration, log *zap.Logger) *Registry {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		source:   source,
		rdb:      rdb,
		interval: interval,
		log:      log,
		entries:  make(map[string]model.CustomerConfig),
	}
}

// Start performs one synchronous refresh, then launches the periodic refresh
// loop. The initial refresh must succeed: serving traffic with an empty
// snapshot would fail every authentication as NotFound.
func (r *Registry) Start(ctx context.Context) error {
	if err := r.Refresh(ctx); err != nil {
		return fmt.Errorf("initial registry refresh: %w", err)
	}

	go r.run(ctx)
	return nil
}

func (r *Registry) run(ctx context.Context) {
	tick := time.NewTicker(r.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := r.Refresh(ctx); err != nil {
				// keep serving stale data; the next tick is the retry
				r.log.Warn("registry refresh failed, serving last-known-good snapshot",
					zap.Error(err))
			}
		}
	}
}

// Refresh reads the full config source and upserts every parsed record into
// the snapshot. A source read failure leaves the snapshot untouched.
func (r *Registry) Refresh(ctx context.Context) error {
	configs, skipped, err := r.source.Load(ctx)
	if err != nil {
		metrics.RegistryRefreshTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if skipped > 0 {
		metrics.RegistrySkippedRowsTotal.Add(float64(skipped))
		r.log.Warn("registry refresh skipped malformed rows", zap.Int("rows", skipped))
	}

	r.mu.Lock()
	for _, cfg := range configs {
		r.entries[cfg.Alias] = cfg
	}
	size := len(r.entries)
	r.mu.Unlock()

	r.mirror(ctx, configs)

	metrics.RegistryRefreshTotal.WithLabelValues("success").Inc()
	metrics.RegistryCustomers.Set(float64(size))
	r.log.Debug("registry refreshed",
		zap.Int("loaded", len(configs)),
		zap.Int("skipped", skipped),
		zap.Int("total", size))
	return nil
}

// mirror replicates records into Redis (HSET alias customer_info <json>).
// Mirror failures are logged and swallowed: replication is best-effort and
// must not degrade the in-memory snapshot.
func (r *Registry) mirror(ctx context.Context, configs []model.CustomerConfig) {
	if r.rdb == nil || len(configs) == 0 {
		return
	}

	pipe := r.rdb.Pipeline()
	for _, cfg := range configs {
		payload, err := json.Marshal(cfg)
		if err != nil {
			r.log.Warn("registry mirror marshal failed",
				zap.String("alias", cfg.Alias), zap.Error(err))
			continue
		}
		pipe.HSet(ctx, cfg.Alias, redisField, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warn("registry mirror write failed", zap.Error(err))
	}
}

// Lookup returns the current record for alias, or ErrNotFound.
func (r *Registry) Lookup(alias string) (model.CustomerConfig, error) {
	r.mu.RLock()
	cfg, ok := r.entries[alias]
	r.mu.RUnlock()

	if !ok {
		return model.CustomerConfig{}, ErrNotFound
	}
	return cfg, nil
}
