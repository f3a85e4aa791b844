package chain

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/thp-tushar/carbonmatch/pkg/order"
)

// fakeCaller answers eth_call by method selector.
type fakeCaller struct {
	abi       *abi.ABI
	responses map[string][]byte
	err       error
	lastTo    common.Address
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastTo = *msg.To
	for name, m := range f.abi.Methods {
		if bytes.Equal(msg.Data[:4], m.ID) {
			if name == "orders" {
				id, _ := m.Inputs.Unpack(msg.Data[4:])
				return f.responses[name+":"+id[0].(*big.Int).String()], nil
			}
			return f.responses[name], nil
		}
	}
	return nil, errors.New("unknown selector")
}

func packOrder(t *testing.T, a *abi.ABI, buy, active bool, amount int64, typ uint8) []byte {
	t.Helper()
	var salt [32]byte
	salt[31] = 0xaa
	out, err := a.Methods["orders"].Outputs.Pack(
		common.HexToAddress("0x00000000000000000000000000000000000000b0"),
		big.NewInt(amount),
		big.NewInt(10),
		big.NewInt(20),
		salt,
		[32]byte{},
		buy,
		active,
		typ,
	)
	if err != nil {
		t.Fatalf("pack order: %v", err)
	}
	return out
}

func TestOrderBook_Order(t *testing.T) {
	a, err := OrderBookABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	caller := &fakeCaller{abi: a, responses: map[string][]byte{
		"orders:7": packOrder(t, a, true, true, 100, 1),
	}}
	addr := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	book, err := NewOrderBook(caller, addr)
	if err != nil {
		t.Fatalf("NewOrderBook: %v", err)
	}

	o, err := book.Order(context.Background(), 7)
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if caller.lastTo != addr {
		t.Errorf("call sent to %s, want %s", caller.lastTo.Hex(), addr.Hex())
	}
	if o.ID != 7 || !o.IsBuyOrder || !o.IsActive || o.OrderType != order.TypeCarbon {
		t.Errorf("unexpected order %+v", o)
	}
	if o.Amount.Int64() != 100 || o.MinPrice.Int64() != 10 || o.MaxPrice.Int64() != 20 {
		t.Errorf("amount/prices = %s/%s/%s", o.Amount, o.MinPrice, o.MaxPrice)
	}
	if o.Salt[31] != 0xaa {
		t.Errorf("salt not decoded")
	}
	if o.Trader != common.HexToAddress("0x00000000000000000000000000000000000000b0") {
		t.Errorf("trader = %s", o.Trader.Hex())
	}
}

func TestOrderBook_OrderMalformed(t *testing.T) {
	a, _ := OrderBookABI()
	caller := &fakeCaller{abi: a, responses: map[string][]byte{
		"orders:1": {0x01, 0x02},
	}}
	book, _ := NewOrderBook(caller, common.Address{})

	if _, err := book.Order(context.Background(), 1); err == nil {
		t.Error("expected error for truncated response")
	}
	// unknown id returns empty bytes
	if _, err := book.Order(context.Background(), 2); err == nil {
		t.Error("expected error for empty response")
	}
}

func TestOrderBook_CallError(t *testing.T) {
	a, _ := OrderBookABI()
	book, _ := NewOrderBook(&fakeCaller{abi: a, err: errors.New("connection refused")}, common.Address{})

	if _, err := book.NextOrderID(context.Background()); err == nil {
		t.Error("expected error from failing caller")
	}
}

func TestOrderBook_NextOrderID(t *testing.T) {
	a, _ := OrderBookABI()
	next, err := a.Methods["nextOrderId"].Outputs.Pack(big.NewInt(42))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	book, _ := NewOrderBook(&fakeCaller{abi: a, responses: map[string][]byte{"nextOrderId": next}}, common.Address{})

	got, err := book.NextOrderID(context.Background())
	if err != nil {
		t.Fatalf("NextOrderID: %v", err)
	}
	if got != 42 {
		t.Errorf("NextOrderID = %d, want 42", got)
	}
}

func TestDecodeOrder_WrongShape(t *testing.T) {
	if _, err := decodeOrder(1, []interface{}{common.Address{}}); err == nil {
		t.Error("expected error for short tuple")
	}
	bad := []interface{}{"x", big.NewInt(1), big.NewInt(1), big.NewInt(1), [32]byte{}, [32]byte{}, true, true, uint8(0)}
	if _, err := decodeOrder(1, bad); err == nil {
		t.Error("expected error for wrong trader type")
	}
}

func TestTradeMatching_PackRequestMatch(t *testing.T) {
	tm, err := NewTradeMatching(common.HexToAddress("0x0000000000000000000000000000000000000abc"))
	if err != nil {
		t.Fatalf("NewTradeMatching: %v", err)
	}
	data, err := tm.PackRequestMatch(order.MatchRequest{BuyOrderID: 1, SellOrderIDs: []uint64{2, 5}})
	if err != nil {
		t.Fatalf("PackRequestMatch: %v", err)
	}

	method := tm.abi.Methods["requestMatch"]
	if !bytes.Equal(data[:4], method.ID) {
		t.Fatalf("selector = %x, want %x", data[:4], method.ID)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if args[0].(*big.Int).Uint64() != 1 {
		t.Errorf("buyOrderId = %v", args[0])
	}
	sells := args[1].([]*big.Int)
	if len(sells) != 2 || sells[0].Uint64() != 2 || sells[1].Uint64() != 5 {
		t.Errorf("sellOrderIds = %v", sells)
	}
}
