package storage

import (
	"fmt"
)

// Key schema:
//
//	out:<buyOrderID:020d>:<unixNano:020d>:<seq:010d> -> Outcome (JSON)
//
// Zero-padded numbers keep keys for one buy order in time order.
const prefixOutcome = "out:"

func outcomeKey(buyOrderID uint64, unixNano int64, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:%020d:%010d", prefixOutcome, buyOrderID, unixNano, seq))
}

// outcomePrefix returns the prefix for all outcomes of one buy order
func outcomePrefix(buyOrderID uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:", prefixOutcome, buyOrderID))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
