// Package matching finds the resting sell orders eligible against a buy order.
package matching

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thp-tushar/carbonmatch/pkg/order"
)

// Repository is the subset of orderbook.Repository the finder reads from.
type Repository interface {
	GetOrder(ctx context.Context, id uint64) (order.Order, bool)
	GetAllActiveOrders(ctx context.Context) ([]order.Order, error)
}

type Finder struct {
	repo   Repository
	logger *zap.SugaredLogger
}

func NewFinder(repo Repository, logger *zap.SugaredLogger) *Finder {
	return &Finder{repo: repo, logger: logger}
}

// FindMatchingOrders returns the ids of every active sell order eligible
// against buyOrderID, ascending. A missing, inactive or sell-side target
// yields an empty slice, not an error. An error means the scan itself failed.
func (f *Finder) FindMatchingOrders(ctx context.Context, buyOrderID uint64) ([]uint64, error) {
	buy, ok := f.repo.GetOrder(ctx, buyOrderID)
	if !ok {
		f.logger.Infow("buy_order_not_found", "buy_order_id", buyOrderID)
		return []uint64{}, nil
	}
	if !buy.IsActive || !buy.IsBuyOrder {
		f.logger.Infow("buy_order_not_matchable",
			"buy_order_id", buyOrderID,
			"active", buy.IsActive,
			"side", buy.Side())
		return []uint64{}, nil
	}

	active, err := f.repo.GetAllActiveOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active orders for buy order %d: %w", buyOrderID, err)
	}

	matches := []uint64{}
	for _, sell := range active {
		if order.IsEligibleMatch(buy, sell) {
			matches = append(matches, sell.ID)
		}
	}
	f.logger.Debugw("matches_found",
		"buy_order_id", buyOrderID,
		"scanned", len(active),
		"sell_order_ids", matches)
	return matches, nil
}
