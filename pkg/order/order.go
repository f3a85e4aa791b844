// Package order holds the order book snapshot types and the rule that decides
// which resting orders may be matched against an incoming buy order.
package order

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Type is the order category tag written by createOrder (uint8 on chain).
type Type uint8

const (
	TypeEnergy Type = 0
	TypeCarbon Type = 1
)

func (t Type) String() string {
	switch t {
	case TypeEnergy:
		return "energy"
	case TypeCarbon:
		return "carbon"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Order is a read-only snapshot of one order book entry.
// Amount and prices are uint256 base units, so equality is exact.
type Order struct {
	ID         uint64         `json:"id"`
	Trader     common.Address `json:"trader"`
	Amount     *big.Int       `json:"amount"`
	MinPrice   *big.Int       `json:"minPrice"`
	MaxPrice   *big.Int       `json:"maxPrice"`
	Salt       [32]byte       `json:"-"`
	Commitment [32]byte       `json:"-"`
	IsBuyOrder bool           `json:"isBuyOrder"`
	IsActive   bool           `json:"isActive"`
	OrderType  Type           `json:"orderType"`
}

// Side returns "buy" or "sell".
func (o Order) Side() string {
	if o.IsBuyOrder {
		return "buy"
	}
	return "sell"
}

// MatchRequest pairs a buy order with the sell orders eligible against it.
type MatchRequest struct {
	BuyOrderID   uint64
	SellOrderIDs []uint64
}

// Fingerprint is keccak256(buyID || sellID...) with each id as 8 big-endian
// bytes. Two requests with the same ids in the same order share a fingerprint.
func (r MatchRequest) Fingerprint() common.Hash {
	h := sha3.NewLegacyKeccak256()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], r.BuyOrderID)
	h.Write(buf[:])
	for _, id := range r.SellOrderIDs {
		binary.BigEndian.PutUint64(buf[:], id)
		h.Write(buf[:])
	}
	return common.BytesToHash(h.Sum(nil))
}
