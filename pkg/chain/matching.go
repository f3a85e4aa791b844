package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/thp-tushar/carbonmatch/pkg/order"
)

// MatchTransactor produces calldata for the trade matching contract.
type MatchTransactor interface {
	Address() common.Address
	PackRequestMatch(req order.MatchRequest) ([]byte, error)
}

type TradeMatching struct {
	address common.Address
	abi     *abi.ABI
}

func NewTradeMatching(address common.Address) (*TradeMatching, error) {
	parsed, err := TradeMatchingABI()
	if err != nil {
		return nil, fmt.Errorf("failed to load trade matching ABI: %w", err)
	}
	return &TradeMatching{address: address, abi: parsed}, nil
}

func (m *TradeMatching) Address() common.Address { return m.address }

// PackRequestMatch encodes requestMatch(uint256 buyOrderId, uint256[] sellOrderIds).
func (m *TradeMatching) PackRequestMatch(req order.MatchRequest) ([]byte, error) {
	sells := make([]*big.Int, len(req.SellOrderIDs))
	for i, id := range req.SellOrderIDs {
		sells[i] = new(big.Int).SetUint64(id)
	}
	data, err := m.abi.Pack("requestMatch", new(big.Int).SetUint64(req.BuyOrderID), sells)
	if err != nil {
		return nil, fmt.Errorf("failed to pack requestMatch: %w", err)
	}
	return data, nil
}

var _ MatchTransactor = (*TradeMatching)(nil)
