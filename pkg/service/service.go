// Package service wires the matcher components from a loaded configuration.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/thp-tushar/carbonmatch/params"
	"github.com/thp-tushar/carbonmatch/pkg/api"
	"github.com/thp-tushar/carbonmatch/pkg/chain"
	"github.com/thp-tushar/carbonmatch/pkg/crypto"
	"github.com/thp-tushar/carbonmatch/pkg/events"
	"github.com/thp-tushar/carbonmatch/pkg/matching"
	"github.com/thp-tushar/carbonmatch/pkg/metrics"
	"github.com/thp-tushar/carbonmatch/pkg/orderbook"
	"github.com/thp-tushar/carbonmatch/pkg/settlement"
	"github.com/thp-tushar/carbonmatch/pkg/storage"
	"github.com/thp-tushar/carbonmatch/pkg/trade"
	"github.com/thp-tushar/carbonmatch/pkg/util"
)

type Options struct {
	// Journal opens the pebble outcome journal. Only one process may hold it.
	Journal bool
	// Publish enables the Kafka publisher when brokers are configured.
	Publish bool
	// Stream attaches a WebSocket hub as a reporter.
	Stream bool
}

type Service struct {
	Client     *ethclient.Client
	Repository *orderbook.Repository
	Finder     *matching.Finder
	Submitter  *settlement.Submitter
	Processor  *trade.Processor
	Journal    *storage.Journal // nil unless Options.Journal
	Publisher  *events.Publisher
	Hub        *api.Hub
	Metrics    *metrics.Metrics

	logger  *zap.SugaredLogger
	closers []func() error
}

// New dials the node, checks the chain id and builds every component.
func New(ctx context.Context, cfg params.Config, opts Options, logger *zap.SugaredLogger) (*Service, error) {
	s := &Service{logger: logger}

	client, err := chain.Dial(ctx, cfg.Chain.RPCURL, cfg.Chain.ChainID)
	if err != nil {
		return nil, err
	}
	s.Client = client
	s.closers = append(s.closers, func() error { client.Close(); return nil })

	book, err := chain.NewOrderBook(client, cfg.Contracts.OrderBook)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Repository = orderbook.NewRepository(book, orderbook.ScanConfig{
		Concurrency:   cfg.Scan.Concurrency,
		RatePerSecond: cfg.Scan.RatePerSecond,
	}, logger)
	s.Finder = matching.NewFinder(s.Repository, logger)

	contract, err := chain.NewTradeMatching(cfg.Contracts.TradeMatching)
	if err != nil {
		s.Close()
		return nil, err
	}
	signer, err := crypto.FromPrivateKeyHex(cfg.Signer.PrivateKey.Reveal())
	if err != nil {
		s.Close()
		return nil, errors.New("invalid signing key")
	}
	submitCfg := settlement.DefaultConfig(cfg.Chain.ChainID)
	submitCfg.GasLimit = cfg.Gas.Limit
	submitCfg.GasPriceCap = cfg.Gas.PriceCap
	submitCfg.ReceiptTimeout = cfg.Submit.ReceiptTimeout
	submitCfg.PollInterval = cfg.Submit.PollInterval
	s.Submitter = settlement.NewSubmitter(client, contract, signer, submitCfg, util.RealClock{}, logger)

	s.Metrics = metrics.New()
	reporters := []trade.Reporter{s.Metrics}

	if opts.Journal {
		j, err := storage.NewJournal(cfg.Journal.Path)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		s.Journal = j
		s.closers = append(s.closers, j.Close)
		reporters = append(reporters, j)
	}
	if opts.Publish && len(cfg.Kafka.Brokers) > 0 {
		s.Publisher = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		s.closers = append(s.closers, s.Publisher.Close)
		reporters = append(reporters, s.Publisher)
	}
	if opts.Stream {
		s.Hub = api.NewHub(logger)
		reporters = append(reporters, s.Hub)
	}

	s.Processor = trade.NewProcessor(s.Finder, s.Submitter, logger, reporters...)

	logger.Infow("service_ready",
		"network", cfg.Chain.Network,
		"chain_id", cfg.Chain.ChainID,
		"order_book", cfg.Contracts.OrderBook.Hex(),
		"trade_matching", cfg.Contracts.TradeMatching.Hex(),
		"sender", signer.Address().Hex(),
		"journal", s.Journal != nil,
		"kafka", s.Publisher != nil)
	return s, nil
}

// Close releases resources in reverse order of acquisition.
func (s *Service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warnw("close_failed", "err", err)
		}
	}
	s.closers = nil
}
