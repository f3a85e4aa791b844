package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/thp-tushar/carbonmatch/pkg/order"
)

// OrderReader is the read side of the order book contract.
type OrderReader interface {
	// Order fetches and decodes one orders(id) entry.
	Order(ctx context.Context, id uint64) (order.Order, error)
	// NextOrderID returns the id the contract will assign to the next order.
	NextOrderID(ctx context.Context) (uint64, error)
}

// OrderBook reads orders via eth_call against the latest block.
type OrderBook struct {
	caller  ethereum.ContractCaller
	address common.Address
	abi     *abi.ABI
}

func NewOrderBook(caller ethereum.ContractCaller, address common.Address) (*OrderBook, error) {
	parsed, err := OrderBookABI()
	if err != nil {
		return nil, fmt.Errorf("failed to load order book ABI: %w", err)
	}
	return &OrderBook{caller: caller, address: address, abi: parsed}, nil
}

func (b *OrderBook) Address() common.Address { return b.address }

func (b *OrderBook) Order(ctx context.Context, id uint64) (order.Order, error) {
	out, err := b.call(ctx, "orders", new(big.Int).SetUint64(id))
	if err != nil {
		return order.Order{}, err
	}
	o, err := decodeOrder(id, out)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to decode order %d: %w", id, err)
	}
	return o, nil
}

func (b *OrderBook) NextOrderID(ctx context.Context) (uint64, error) {
	out, err := b.call(ctx, "nextOrderId")
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("nextOrderId: unexpected output count %d", len(out))
	}
	next, ok := out[0].(*big.Int)
	if !ok || next == nil {
		return 0, fmt.Errorf("nextOrderId: unexpected output type %T", out[0])
	}
	if !next.IsUint64() {
		return 0, fmt.Errorf("nextOrderId: %s overflows uint64", next)
	}
	return next.Uint64(), nil
}

func (b *OrderBook) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &b.address, Data: data}
	res, err := b.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s at %s: %w", method, b.address.Hex(), err)
	}
	out, err := b.abi.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	return out, nil
}

// decodeOrder maps the fixed orders(id) tuple onto order.Order.
func decodeOrder(id uint64, out []interface{}) (order.Order, error) {
	if len(out) != 9 {
		return order.Order{}, fmt.Errorf("expected 9 fields, got %d", len(out))
	}

	var (
		o  = order.Order{ID: id}
		ok bool
	)
	if o.Trader, ok = out[0].(common.Address); !ok {
		return order.Order{}, fieldErr("trader", out[0])
	}
	if o.Amount, ok = out[1].(*big.Int); !ok {
		return order.Order{}, fieldErr("amount", out[1])
	}
	if o.MinPrice, ok = out[2].(*big.Int); !ok {
		return order.Order{}, fieldErr("minPrice", out[2])
	}
	if o.MaxPrice, ok = out[3].(*big.Int); !ok {
		return order.Order{}, fieldErr("maxPrice", out[3])
	}
	if o.Salt, ok = out[4].([32]byte); !ok {
		return order.Order{}, fieldErr("salt", out[4])
	}
	if o.Commitment, ok = out[5].([32]byte); !ok {
		return order.Order{}, fieldErr("commitment", out[5])
	}
	if o.IsBuyOrder, ok = out[6].(bool); !ok {
		return order.Order{}, fieldErr("isBuyOrder", out[6])
	}
	if o.IsActive, ok = out[7].(bool); !ok {
		return order.Order{}, fieldErr("isActive", out[7])
	}
	typ, ok := out[8].(uint8)
	if !ok {
		return order.Order{}, fieldErr("orderType", out[8])
	}
	o.OrderType = order.Type(typ)
	return o, nil
}

func fieldErr(name string, v interface{}) error {
	return fmt.Errorf("field %s: unexpected type %T", name, v)
}

var _ OrderReader = (*OrderBook)(nil)
