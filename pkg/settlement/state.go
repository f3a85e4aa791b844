package settlement

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// State is a step of one match submission.
//
//	Idle -> Building -> Signed -> Submitted -> Confirmed | Reverted
//	any step -> Failed
type State int

const (
	Idle State = iota
	Building
	Signed
	Submitted
	Confirmed
	Reverted
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	case Signed:
		return "signed"
	case Submitted:
		return "submitted"
	case Confirmed:
		return "confirmed"
	case Reverted:
		return "reverted"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Confirmed || s == Reverted || s == Failed
}

var ErrNoCounterparties = errors.New("match request has no sell orders")

// Result is the terminal outcome of SubmitMatch.
type Result struct {
	State State
	// FailedIn is the state that was active when the submission failed.
	FailedIn State
	// TxHash is set once the transaction has been broadcast, including when
	// the receipt wait later fails.
	TxHash common.Hash
	// BlockNumber and GasUsed come from the receipt.
	BlockNumber uint64
	GasUsed     uint64
	Err         error
}

// OK is the boolean outcome: true only when the transaction was mined and succeeded.
func (r Result) OK() bool { return r.State == Confirmed }

// Broadcast reports whether a transaction reached the chain client.
func (r Result) Broadcast() bool { return r.TxHash != (common.Hash{}) }
