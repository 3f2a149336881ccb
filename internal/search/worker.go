package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopwatch/shopwatch/internal/cache"
	"github.com/shopwatch/shopwatch/internal/metrics"
	"github.com/shopwatch/shopwatch/internal/model"
	"github.com/shopwatch/shopwatch/internal/service"
)

const (
	// DefaultSyncInterval is how often the full catalog is refreshed.
	DefaultSyncInterval = 10 * time.Minute

	// defaultPerProductPause spaces out upstream requests within a pass.
	defaultPerProductPause = 100 * time.Millisecond
)

// ProductSource enumerates and loads the products to keep in sync.
type ProductSource interface {
	ListProductIDs(ctx context.Context) ([]string, error)
	GetProductByID(ctx context.Context, id string) (*model.Product, error)
}

// Syncer applies a search result to a product.
type Syncer interface {
	UpdateFromSearch(ctx context.Context, productID string, item *model.SearchItem) error
}

// ResultCache caches search results between passes.
type ResultCache interface {
	GetSearchItem(ctx context.Context, query string) (*model.CachedSearchItem, error)
	SetSearchItem(ctx context.Context, query string, item *model.SearchItem) error
	IsNegativelyCached(ctx context.Context, query string) (bool, error)
	SetNegativeCache(ctx context.Context, query string) error
}

// Worker periodically refreshes every product's listed price from the
// external search API.
type Worker struct {
	client   *Client
	source   ProductSource
	syncer   Syncer
	cache    ResultCache
	logger   *slog.Logger
	metrics  metrics.Recorder
	interval time.Duration
	pause    time.Duration

	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewWorker creates a new catalog sync worker. The cache may be nil to
// query the upstream API on every pass.
func NewWorker(client *Client, source ProductSource, syncer Syncer, resultCache ResultCache, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		client:   client,
		source:   source,
		syncer:   syncer,
		cache:    resultCache,
		logger:   logger.With("component", "search.worker"),
		metrics:  recorder,
		interval: DefaultSyncInterval,
		pause:    defaultPerProductPause,
	}
}

// SetInterval overrides the default sync interval.
func (w *Worker) SetInterval(interval time.Duration) {
	if interval > 0 {
		w.interval = interval
	}
}

// Run starts the sync loop. Blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	defer close(w.done)

	w.logger.Info("catalog sync worker started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.mu.Lock()
		draining := w.draining
		w.mu.Unlock()

		if draining {
			w.logger.Info("catalog sync worker draining, stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			w.logger.Info("catalog sync worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.syncOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.logger.Error("sync pass failed", "error", err)
			}
		}
	}
}

// Shutdown gracefully stops the worker, completing any in-flight pass.
// It implements server.ShutdownFunc for integration with graceful shutdown.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.draining = true
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	w.logger.Info("catalog sync worker shutdown initiated")

	if cancel != nil {
		cancel()
	}

	if done != nil {
		select {
		case <-done:
			w.logger.Info("catalog sync worker shutdown complete")
			return nil
		case <-ctx.Done():
			w.logger.Warn("catalog sync worker shutdown timed out")
			return ctx.Err()
		}
	}
	return nil
}

// syncOnce runs one full pass over all products.
func (w *Worker) syncOnce(ctx context.Context) error {
	start := time.Now()

	ids, err := w.source.ListProductIDs(ctx)
	if err != nil {
		return fmt.Errorf("list product ids: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	var synced, failed int
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := w.syncProduct(ctx, id); err != nil {
			failed++
			w.metrics.IncCatalogSync("failed")
			w.logger.Warn("product sync failed", "product_id", id, "error", err)
		} else {
			synced++
			w.metrics.IncCatalogSync("success")
		}

		if w.pause > 0 {
			timer := time.NewTimer(w.pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	w.metrics.ObserveSyncBatchSize(len(ids))
	w.metrics.ObserveSyncBatchDuration(time.Since(start))

	w.logger.Info("sync pass complete",
		"products", len(ids),
		"synced", synced,
		"failed", failed,
		"duration_ms", float64(time.Since(start).Microseconds())/1000,
	)

	return nil
}

// syncProduct refreshes one product from cache or the upstream API.
func (w *Worker) syncProduct(ctx context.Context, id string) error {
	product, err := w.source.GetProductByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}

	item, err := w.lookup(ctx, product.Title)
	if err != nil {
		if errors.Is(err, ErrNoResults) {
			// Product disappeared from the catalog; keep the last
			// known listing.
			return nil
		}
		return err
	}

	if err := w.syncer.UpdateFromSearch(ctx, id, item); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			// Deleted between the list and the update; ignore.
			return nil
		}
		return fmt.Errorf("apply search result: %w", err)
	}
	return nil
}

// lookup returns the best match for query, consulting the result cache
// before the upstream API.
func (w *Worker) lookup(ctx context.Context, query string) (*model.SearchItem, error) {
	if w.cache != nil {
		if cached, err := w.cache.GetSearchItem(ctx, query); err == nil {
			if item, convErr := cached.ToSearchItem(); convErr == nil {
				w.metrics.IncSearchCacheHit()
				return item, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			w.logger.Warn("search cache read failed", "error", err)
		}

		if neg, err := w.cache.IsNegativelyCached(ctx, query); err == nil && neg {
			w.metrics.IncSearchCacheHit()
			return nil, ErrNoResults
		}

		w.metrics.IncSearchCacheMiss()
	}

	item, err := w.client.Search(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNoResults) && w.cache != nil {
			if cacheErr := w.cache.SetNegativeCache(ctx, query); cacheErr != nil {
				w.logger.Warn("negative cache write failed", "error", cacheErr)
			}
		}
		return nil, err
	}

	if w.cache != nil {
		if cacheErr := w.cache.SetSearchItem(ctx, query, item); cacheErr != nil {
			w.logger.Warn("search cache write failed", "error", cacheErr)
		}
	}

	return item, nil
}
