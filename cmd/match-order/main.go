// Command match-order processes one or more buy orders and prints the
// outcomes as JSON lines.
//
//	match-order -order 7
//	match-order -order 7,9,12 -dry-run
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/thp-tushar/carbonmatch/params"
	"github.com/thp-tushar/carbonmatch/pkg/service"
	"github.com/thp-tushar/carbonmatch/pkg/trade"
	"github.com/thp-tushar/carbonmatch/pkg/util"
)

func main() {
	orders := flag.String("order", "", "comma-separated buy order ids")
	dryRun := flag.Bool("dry-run", false, "only print eligible sell orders; never sign or send")
	envPath := flag.String("env", "", "path to .env file (default ./.env)")
	flag.Parse()

	ids, err := parseIDs(*orders)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := params.LoadFromEnv(*envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout stays machine-readable.
	logger, err := util.NewLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.New(ctx, cfg, service.Options{Publish: !*dryRun}, sugar)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	enc := json.NewEncoder(os.Stdout)
	failed := false

	if *dryRun {
		for _, id := range ids {
			sells, err := svc.Finder.FindMatchingOrders(ctx, id)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: order %d: %v\n", id, err)
				failed = true
				continue
			}
			enc.Encode(map[string]interface{}{"buyOrderId": id, "sellOrderIds": sells})
		}
	} else {
		for _, out := range svc.Processor.ProcessBuyOrders(ctx, ids) {
			enc.Encode(out)
			if out.Status == trade.StatusFailed || out.Status == trade.StatusReverted {
				failed = true
			}
		}
	}

	if failed {
		svc.Close()
		os.Exit(1)
	}
}

func parseIDs(s string) ([]uint64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("-order is required")
	}
	var ids []uint64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid order id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
