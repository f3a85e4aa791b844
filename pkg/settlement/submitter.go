// Package settlement builds, signs and broadcasts requestMatch transactions
// and waits for their receipts.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/thp-tushar/carbonmatch/pkg/chain"
	"github.com/thp-tushar/carbonmatch/pkg/order"
	"github.com/thp-tushar/carbonmatch/pkg/util"
)

// Backend is the chain client surface used for submission.
// *ethclient.Client satisfies it.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TxSigner signs with the injected account credential.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

type Config struct {
	ChainID  *big.Int
	GasLimit uint64
	// GasPriceCap clamps the node's suggested gas price. Nil or zero means no cap.
	GasPriceCap *big.Int
	// ReceiptTimeout bounds the confirmation wait. Zero waits until ctx is done.
	ReceiptTimeout time.Duration
	PollInterval   time.Duration
}

func DefaultConfig(chainID *big.Int) Config {
	return Config{
		ChainID:        chainID,
		GasLimit:       500_000,
		ReceiptTimeout: 2 * time.Minute,
		PollInterval:   time.Second,
	}
}

// Submitter issues exactly one transaction per SubmitMatch call and never
// retries. Use one Submitter per signing account: nonce acquisition through
// broadcast is serialized on sendMu, receipt waits are not.
type Submitter struct {
	backend  Backend
	contract chain.MatchTransactor
	signer   TxSigner
	cfg      Config
	clock    util.Clock
	logger   *zap.SugaredLogger

	sendMu sync.Mutex
}

func NewSubmitter(backend Backend, contract chain.MatchTransactor, signer TxSigner, cfg Config, clock util.Clock, logger *zap.SugaredLogger) *Submitter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Submitter{
		backend:  backend,
		contract: contract,
		signer:   signer,
		cfg:      cfg,
		clock:    clock,
		logger:   logger,
	}
}

// Sender is the account transactions are sent from.
func (s *Submitter) Sender() common.Address { return s.signer.Address() }

// run tracks the state of a single submission.
type run struct {
	state  State
	res    Result
	logger *zap.SugaredLogger
}

func (r *run) to(next State) {
	r.logger.Debugw("match_state", "from", r.state.String(), "to", next.String())
	r.state = next
}

func (r *run) fail(err error) Result {
	r.res.State = Failed
	r.res.FailedIn = r.state
	r.res.Err = err
	r.state = Failed
	return r.res
}

// SubmitMatch drives req from Idle to a terminal state. Errors are reported
// in the Result, never returned or panicked.
func (s *Submitter) SubmitMatch(ctx context.Context, req order.MatchRequest) Result {
	r := &run{
		state: Idle,
		logger: s.logger.With(
			"buy_order_id", req.BuyOrderID,
			"fingerprint", req.Fingerprint().Hex()),
	}
	if len(req.SellOrderIDs) == 0 {
		return r.fail(ErrNoCounterparties)
	}

	hash, err := s.broadcast(ctx, req, r)
	if err != nil {
		return r.fail(err)
	}
	r.res.TxHash = hash
	r.logger.Infow("match_tx_submitted", "tx_hash", hash.Hex(), "sell_order_ids", req.SellOrderIDs)

	receipt, err := s.waitReceipt(ctx, hash)
	if err != nil {
		return r.fail(err)
	}
	if receipt.BlockNumber != nil {
		r.res.BlockNumber = receipt.BlockNumber.Uint64()
	}
	r.res.GasUsed = receipt.GasUsed

	if receipt.Status == types.ReceiptStatusSuccessful {
		r.to(Confirmed)
	} else {
		r.to(Reverted)
	}
	r.res.State = r.state
	return r.res
}

// broadcast covers Building, Signed and Submitted while holding sendMu.
func (s *Submitter) broadcast(ctx context.Context, req order.MatchRequest, r *run) (common.Hash, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	r.to(Building)
	data, err := s.contract.PackRequestMatch(req)
	if err != nil {
		return common.Hash{}, err
	}
	from := s.signer.Address()
	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce for %s: %w", from.Hex(), err)
	}
	gasPrice, err := s.gasPrice(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	to := s.contract.Address()
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    new(big.Int),
		Gas:      s.cfg.GasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := s.signer.SignTx(tx, s.cfg.ChainID)
	if err != nil {
		return common.Hash{}, err
	}
	r.to(Signed)

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction (nonce %d): %w", nonce, err)
	}
	r.to(Submitted)
	return signed.Hash(), nil
}

func (s *Submitter) gasPrice(ctx context.Context) (*big.Int, error) {
	price, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	if capPrice := s.cfg.GasPriceCap; capPrice != nil && capPrice.Sign() > 0 && price.Cmp(capPrice) > 0 {
		return new(big.Int).Set(capPrice), nil
	}
	return price, nil
}

// waitReceipt polls until the receipt exists, the timeout expires or ctx is
// done. Giving up does not affect the broadcast transaction.
func (s *Submitter) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if s.cfg.ReceiptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ReceiptTimeout)
		defer cancel()
	}
	for {
		receipt, err := s.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to get receipt for %s: %w", hash.Hex(), err)
		}
		if err := util.Wait(ctx, s.clock, s.cfg.PollInterval); err != nil {
			return nil, fmt.Errorf("receipt wait for %s: %w", hash.Hex(), err)
		}
	}
}
