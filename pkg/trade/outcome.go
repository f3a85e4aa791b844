package trade

import (
	"time"

	"github.com/thp-tushar/carbonmatch/pkg/settlement"
)

type Status string

const (
	StatusNoMatch   Status = "no_match"
	StatusConfirmed Status = "confirmed"
	StatusReverted  Status = "reverted"
	StatusFailed    Status = "failed"
)

// Outcome is what the processor reports for one buy order.
type Outcome struct {
	BuyOrderID   uint64    `json:"buyOrderId"`
	SellOrderIDs []uint64  `json:"sellOrderIds"`
	Status       Status    `json:"status"`
	TxHash       string    `json:"txHash,omitempty"`
	BlockNumber  uint64    `json:"blockNumber,omitempty"`
	GasUsed      uint64    `json:"gasUsed,omitempty"`
	FailedIn     string    `json:"failedIn,omitempty"`
	Error        string    `json:"error,omitempty"`
	Fingerprint  string    `json:"fingerprint,omitempty"`
	At           time.Time `json:"at"`
}

// Success is true only for a confirmed match transaction.
func (o Outcome) Success() bool { return o.Status == StatusConfirmed }

func statusFromState(s settlement.State) Status {
	switch s {
	case settlement.Confirmed:
		return StatusConfirmed
	case settlement.Reverted:
		return StatusReverted
	default:
		return StatusFailed
	}
}
