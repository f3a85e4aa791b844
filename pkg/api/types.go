package api

// API response types for REST endpoints and WebSocket messages

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/thp-tushar/carbonmatch/pkg/order"
	"github.com/thp-tushar/carbonmatch/pkg/trade"
)

// ==============================
// REST Response Types
// ==============================

// OrderInfo is an order book entry. uint256 values are decimal strings.
type OrderInfo struct {
	ID         uint64 `json:"id"`
	Trader     string `json:"trader"`
	Amount     string `json:"amount"`
	MinPrice   string `json:"minPrice"`
	MaxPrice   string `json:"maxPrice"`
	Side       string `json:"side"`      // "buy" or "sell"
	OrderType  string `json:"orderType"` // "energy" or "carbon"
	IsActive   bool   `json:"isActive"`
	Commitment string `json:"commitment"`
}

func newOrderInfo(o order.Order) OrderInfo {
	return OrderInfo{
		ID:         o.ID,
		Trader:     o.Trader.Hex(),
		Amount:     decimal(o.Amount),
		MinPrice:   decimal(o.MinPrice),
		MaxPrice:   decimal(o.MaxPrice),
		Side:       o.Side(),
		OrderType:  o.OrderType.String(),
		IsActive:   o.IsActive,
		Commitment: common.Hash(o.Commitment).Hex(),
	}
}

// MatchesResponse lists the sell orders currently eligible against a buy order.
type MatchesResponse struct {
	BuyOrderID   uint64   `json:"buyOrderId"`
	SellOrderIDs []uint64 `json:"sellOrderIds"`
}

// OutcomesResponse is the journal history for a buy order, newest first.
type OutcomesResponse struct {
	BuyOrderID uint64          `json:"buyOrderId"`
	Outcomes   []trade.Outcome `json:"outcomes"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g., ["outcomes", "outcomes:42"]
}

// OutcomeUpdate is broadcast whenever a buy order finishes processing.
type OutcomeUpdate struct {
	Type    string        `json:"type"` // "outcome"
	Outcome trade.Outcome `json:"data"`
}

func decimal(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
