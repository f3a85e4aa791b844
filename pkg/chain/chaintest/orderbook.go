// Package chaintest provides in-memory stand-ins for the contract readers.
package chaintest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/thp-tushar/carbonmatch/pkg/chain"
	"github.com/thp-tushar/carbonmatch/pkg/order"
)

var ErrUnavailable = errors.New("chaintest: unavailable")

// OrderBook is an in-memory chain.OrderReader. Ids are assigned from 1.
type OrderBook struct {
	mu      sync.Mutex
	orders  map[uint64]order.Order
	broken  map[uint64]bool
	next    uint64
	nextErr error

	Calls atomic.Int64
}

func NewOrderBook() *OrderBook {
	return &OrderBook{orders: make(map[uint64]order.Order), broken: make(map[uint64]bool), next: 1}
}

// Add stores o under the next id and returns that id.
func (b *OrderBook) Add(o order.Order) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	o.ID = b.next
	b.orders[o.ID] = o
	b.next++
	return o.ID
}

// Break makes reads of id fail as an undecodable record would.
func (b *OrderBook) Break(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broken[id] = true
}

// FailNextOrderID makes NextOrderID return err.
func (b *OrderBook) FailNextOrderID(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextErr = err
}

func (b *OrderBook) Order(ctx context.Context, id uint64) (order.Order, error) {
	b.Calls.Add(1)
	if err := ctx.Err(); err != nil {
		return order.Order{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.broken[id] {
		return order.Order{}, fmt.Errorf("order %d: %w", id, ErrUnavailable)
	}
	o, ok := b.orders[id]
	if !ok {
		return order.Order{}, fmt.Errorf("order %d: not found", id)
	}
	return o, nil
}

func (b *OrderBook) NextOrderID(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nextErr != nil {
		return 0, b.nextErr
	}
	return b.next, nil
}

// Buy and Sell build active orders; prices and amount in base units.
func Buy(amount, min, max int64, typ order.Type) order.Order {
	return newOrder(true, amount, min, max, typ)
}

func Sell(amount, min, max int64, typ order.Type) order.Order {
	return newOrder(false, amount, min, max, typ)
}

func newOrder(buy bool, amount, min, max int64, typ order.Type) order.Order {
	return order.Order{
		Amount:     big.NewInt(amount),
		MinPrice:   big.NewInt(min),
		MaxPrice:   big.NewInt(max),
		IsBuyOrder: buy,
		IsActive:   true,
		OrderType:  typ,
	}
}

var _ chain.OrderReader = (*OrderBook)(nil)
