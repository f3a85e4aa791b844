// Package trade runs the find-then-submit workflow for buy orders and
// reports each outcome.
package trade

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thp-tushar/carbonmatch/pkg/order"
	"github.com/thp-tushar/carbonmatch/pkg/settlement"
	"github.com/thp-tushar/carbonmatch/pkg/util"
)

type Finder interface {
	FindMatchingOrders(ctx context.Context, buyOrderID uint64) ([]uint64, error)
}

type Submitter interface {
	SubmitMatch(ctx context.Context, req order.MatchRequest) settlement.Result
}

// Reporter receives every outcome. Errors are logged by the processor and
// never change the outcome.
type Reporter interface {
	Report(ctx context.Context, o Outcome) error
}

type Processor struct {
	finder    Finder
	submitter Submitter
	reporters []Reporter
	clock     util.Clock
	logger    *zap.SugaredLogger

	// MaxParallel bounds ProcessBuyOrders. Zero means one goroutine per order.
	MaxParallel int
}

func NewProcessor(finder Finder, submitter Submitter, logger *zap.SugaredLogger, reporters ...Reporter) *Processor {
	return &Processor{
		finder:    finder,
		submitter: submitter,
		reporters: reporters,
		clock:     util.RealClock{},
		logger:    logger,
	}
}

// ProcessBuyOrder finds counterparties for buyOrderID and, if any exist,
// submits one match transaction. It never retries.
func (p *Processor) ProcessBuyOrder(ctx context.Context, buyOrderID uint64) Outcome {
	out := p.process(ctx, buyOrderID)
	out.At = p.clock.Now().UTC()
	p.log(out)
	p.report(ctx, out)
	return out
}

func (p *Processor) process(ctx context.Context, buyOrderID uint64) Outcome {
	out := Outcome{BuyOrderID: buyOrderID, SellOrderIDs: []uint64{}}

	sells, err := p.finder.FindMatchingOrders(ctx, buyOrderID)
	if err != nil {
		out.Status = StatusFailed
		out.FailedIn = "finding"
		out.Error = err.Error()
		return out
	}
	if len(sells) == 0 {
		out.Status = StatusNoMatch
		return out
	}

	req := order.MatchRequest{BuyOrderID: buyOrderID, SellOrderIDs: sells}
	out.SellOrderIDs = sells
	out.Fingerprint = req.Fingerprint().Hex()

	res := p.submitter.SubmitMatch(ctx, req)
	out.Status = statusFromState(res.State)
	out.BlockNumber = res.BlockNumber
	out.GasUsed = res.GasUsed
	if res.Broadcast() {
		out.TxHash = res.TxHash.Hex()
	}
	if res.State == settlement.Failed {
		out.FailedIn = res.FailedIn.String()
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// ProcessBuyOrders runs independent workflows concurrently and returns the
// outcomes in the order of ids.
func (p *Processor) ProcessBuyOrders(ctx context.Context, ids []uint64) []Outcome {
	outcomes := make([]Outcome, len(ids))
	var g errgroup.Group
	if p.MaxParallel > 0 {
		g.SetLimit(p.MaxParallel)
	}
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			outcomes[i] = p.ProcessBuyOrder(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (p *Processor) log(o Outcome) {
	fields := []interface{}{"buy_order_id", o.BuyOrderID}
	switch o.Status {
	case StatusNoMatch:
		p.logger.Infow("match_no_counterparties", fields...)
	case StatusConfirmed:
		p.logger.Infow("match_confirmed", append(fields,
			"sell_order_ids", o.SellOrderIDs,
			"tx_hash", o.TxHash,
			"block", o.BlockNumber)...)
	case StatusReverted:
		p.logger.Warnw("match_reverted", append(fields,
			"sell_order_ids", o.SellOrderIDs,
			"tx_hash", o.TxHash,
			"block", o.BlockNumber)...)
	default:
		p.logger.Errorw("match_failed", append(fields,
			"sell_order_ids", o.SellOrderIDs,
			"failed_in", o.FailedIn,
			"tx_hash", o.TxHash,
			"err", o.Error)...)
	}
}

// ReportTimeout bounds reporter delivery, which outlives the caller's ctx.
const ReportTimeout = 10 * time.Second

func (p *Processor) report(ctx context.Context, o Outcome) {
	// A cancelled wait still produced an outcome, possibly with a live tx hash.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ReportTimeout)
	defer cancel()
	for _, r := range p.reporters {
		if err := r.Report(ctx, o); err != nil {
			p.logger.Warnw("outcome_report_failed",
				"buy_order_id", o.BuyOrderID,
				"reporter", reporterName(r),
				"err", err)
		}
	}
}
