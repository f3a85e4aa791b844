// Package storage keeps a local journal of match outcomes. The journal is a
// diagnostic record; matching never reads it.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/thp-tushar/carbonmatch/pkg/trade"
)

var ErrNotFound = errors.New("storage: not found")

type Journal struct {
	db  *pebble.DB
	seq atomic.Uint64
}

func NewJournal(path string) (*Journal, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal at %s: %w", path, err)
	}
	return &Journal{db: db}, nil
}

// NewMemJournal keeps the journal in memory.
func NewMemJournal() (*Journal, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory journal: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

func (j *Journal) Name() string { return "journal" }

// Report persists an outcome. It implements trade.Reporter.
func (j *Journal) Report(_ context.Context, o trade.Outcome) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	key := outcomeKey(o.BuyOrderID, o.At.UnixNano(), j.seq.Add(1))
	if err := j.db.Set(key, data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save outcome: %w", err)
	}
	return nil
}

// Outcomes returns up to limit outcomes for a buy order, newest first.
// A limit of zero or less returns all of them.
func (j *Journal) Outcomes(buyOrderID uint64, limit int) ([]trade.Outcome, error) {
	prefix := outcomePrefix(buyOrderID)
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	outcomes := []trade.Outcome{}
	for iter.Last(); iter.Valid() && (limit <= 0 || len(outcomes) < limit); iter.Prev() {
		var o trade.Outcome
		if err := json.Unmarshal(iter.Value(), &o); err != nil {
			continue // Skip invalid entries
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// Latest returns the most recent outcome for a buy order.
func (j *Journal) Latest(buyOrderID uint64) (trade.Outcome, error) {
	outs, err := j.Outcomes(buyOrderID, 1)
	if err != nil {
		return trade.Outcome{}, err
	}
	if len(outs) == 0 {
		return trade.Outcome{}, ErrNotFound
	}
	return outs[0], nil
}

var _ trade.Reporter = (*Journal)(nil)
