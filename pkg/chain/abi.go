package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Only the methods this service calls are declared.
const orderBookABI = `[
	{
		"name": "orders",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "", "type": "uint256"}],
		"outputs": [
			{"name": "trader", "type": "address"},
			{"name": "amount", "type": "uint256"},
			{"name": "minPrice", "type": "uint256"},
			{"name": "maxPrice", "type": "uint256"},
			{"name": "salt", "type": "bytes32"},
			{"name": "commitment", "type": "bytes32"},
			{"name": "isBuyOrder", "type": "bool"},
			{"name": "isActive", "type": "bool"},
			{"name": "orderType", "type": "uint8"}
		]
	},
	{
		"name": "nextOrderId",
		"type": "function",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "", "type": "uint256"}]
	}
]`

const tradeMatchingABI = `[
	{
		"name": "requestMatch",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "buyOrderId", "type": "uint256"},
			{"name": "sellOrderIds", "type": "uint256[]"}
		],
		"outputs": []
	}
]`

// ParseABI parses a JSON ABI definition.
func ParseABI(def string) (*abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return &parsed, nil
}

func OrderBookABI() (*abi.ABI, error)     { return ParseABI(orderBookABI) }
func TradeMatchingABI() (*abi.ABI, error) { return ParseABI(tradeMatchingABI) }
