// Package orderbook is the read-only client over the on-chain order book.
// Nothing is cached: every call re-reads current contract state.
package orderbook

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/thp-tushar/carbonmatch/pkg/chain"
	"github.com/thp-tushar/carbonmatch/pkg/order"
)

// ScanConfig bounds the remote reads issued by GetAllActiveOrders.
type ScanConfig struct {
	// Concurrency is the number of in-flight orders(id) calls. Values below 1 mean 1.
	Concurrency int
	// RatePerSecond caps orders(id) calls per second. 0 disables the cap.
	RatePerSecond float64
}

func DefaultScanConfig() ScanConfig {
	return ScanConfig{Concurrency: 8}
}

type Repository struct {
	reader  chain.OrderReader
	cfg     ScanConfig
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

func NewRepository(reader chain.OrderReader, cfg ScanConfig, logger *zap.SugaredLogger) *Repository {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Concurrency)
	}
	return &Repository{reader: reader, cfg: cfg, limiter: limiter, logger: logger}
}

// GetOrder returns the order and true, or false if it could not be read or
// decoded. A failure here is never fatal to the caller.
func (r *Repository) GetOrder(ctx context.Context, id uint64) (order.Order, bool) {
	o, err := r.reader.Order(ctx, id)
	if err != nil {
		r.logger.Warnw("order_fetch_failed", "order_id", id, "err", err)
		return order.Order{}, false
	}
	return o, true
}

// GetAllActiveOrders reads ids 1..nextOrderId-1 and returns the active ones in
// ascending id order. Unreadable ids are skipped. It fails if the id counter
// cannot be read or the scan is cut short by ctx, including a rate limiter
// that cannot finish before the ctx deadline. It never returns a partial book.
func (r *Repository) GetAllActiveOrders(ctx context.Context) ([]order.Order, error) {
	next, err := r.reader.NextOrderID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read next order id: %w", err)
	}
	if next <= 1 {
		return []order.Order{}, nil
	}

	var (
		mu     sync.Mutex
		active []order.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	var waitErr error
	for id := uint64(1); id < next; id++ {
		if err := r.limiter.Wait(gctx); err != nil {
			waitErr = err
			break
		}
		id := id
		g.Go(func() error {
			o, ok := r.GetOrder(gctx, id)
			if ok && o.IsActive {
				mu.Lock()
				active = append(active, o)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if waitErr == nil {
		waitErr = ctx.Err()
	}
	if waitErr != nil {
		return nil, fmt.Errorf("active order scan interrupted: %w", waitErr)
	}

	// The counter comes from the contract, so slots are not preallocated from it.
	sort.Slice(active, func(a, b int) bool { return active[a].ID < active[b].ID })
	if active == nil {
		active = []order.Order{}
	}
	r.logger.Debugw("active_orders_scanned", "next_order_id", next, "active", len(active))
	return active, nil
}
