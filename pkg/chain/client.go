package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Dial connects to the JSON-RPC endpoint and checks that it serves the
// expected chain. A zero wantChainID skips the check.
func Dial(ctx context.Context, url string, wantChainID *big.Int) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	if wantChainID == nil || wantChainID.Sign() == 0 {
		return client, nil
	}
	got, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	if got.Cmp(wantChainID) != 0 {
		client.Close()
		return nil, fmt.Errorf("chain id mismatch: node reports %s, configured %s", got, wantChainID)
	}
	return client, nil
}
