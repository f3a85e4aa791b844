package params

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/thp-tushar/carbonmatch/pkg/crypto"
)

const (
	orderBookAddr     = "0x1111111111111111111111111111111111111111"
	tradeMatchingAddr = "0x2222222222222222222222222222222222222222"
	// Throwaway test key (well-known hardhat account #0).
	testKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("WEB3_PROVIDER_URI", "http://127.0.0.1:8545")
	t.Setenv("ORDER_BOOK_ADDRESS", orderBookAddr)
	t.Setenv("TRADE_MATCHING_ADDRESS", tradeMatchingAddr)
	t.Setenv("PRIVATE_KEY", testKey)
	for _, k := range []string{"PRIVATE_KEY_FILE", "WALLET_ADDRESS", "CHAIN_ID", "GAS_LIMIT", "GAS_PRICE_CAP_GWEI",
		"RECEIPT_TIMEOUT_MS", "RECEIPT_POLL_MS", "SCAN_CONCURRENCY", "SCAN_RPS", "CORS_ORIGINS", "KAFKA_BROKERS", "NODE_ENV", "PORT"} {
		t.Setenv(k, "")
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadFromEnv(noEnvFile(t))
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Chain.ChainID.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("chain id = %v, want 5", cfg.Chain.ChainID)
	}
	if cfg.Gas.Limit != 500_000 || cfg.Gas.PriceCap != nil {
		t.Errorf("gas = %+v", cfg.Gas)
	}
	if cfg.Submit.ReceiptTimeout != 2*time.Minute || cfg.Submit.PollInterval != time.Second {
		t.Errorf("submit = %+v", cfg.Submit)
	}
	if cfg.Addr() != ":5000" {
		t.Errorf("addr = %s", cfg.Addr())
	}
	if cfg.Contracts.OrderBook != common.HexToAddress(orderBookAddr) {
		t.Errorf("order book = %s", cfg.Contracts.OrderBook.Hex())
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("kafka brokers = %v, want none", cfg.Kafka.Brokers)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CHAIN_ID", "11155111")
	t.Setenv("GAS_PRICE_CAP_GWEI", "30")
	t.Setenv("RECEIPT_TIMEOUT_MS", "5000")
	t.Setenv("SCAN_CONCURRENCY", "2")
	t.Setenv("SCAN_RPS", "12.5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("NODE_ENV", "development")
	t.Setenv("WALLET_ADDRESS", testAddress)

	cfg, err := LoadFromEnv(noEnvFile(t))
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Chain.ChainID.Cmp(big.NewInt(11155111)) != 0 {
		t.Errorf("chain id = %v", cfg.Chain.ChainID)
	}
	if cfg.Gas.PriceCap.Cmp(big.NewInt(30_000_000_000)) != 0 {
		t.Errorf("price cap = %v", cfg.Gas.PriceCap)
	}
	if cfg.Submit.ReceiptTimeout != 5*time.Second {
		t.Errorf("receipt timeout = %v", cfg.Submit.ReceiptTimeout)
	}
	if cfg.Scan.Concurrency != 2 || cfg.Scan.RatePerSecond != 12.5 {
		t.Errorf("scan = %+v", cfg.Scan)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
	if len(cfg.Kafka.Brokers) != 2 || !cfg.Server.Debug {
		t.Errorf("kafka = %v debug = %v", cfg.Kafka.Brokers, cfg.Server.Debug)
	}
}

func TestLoadFromEnv_EnvFile(t *testing.T) {
	setRequired(t)
	t.Setenv("NETWORK_NAME", "")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("NETWORK_NAME=sepolia\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("NETWORK_NAME")

	cfg, err := LoadFromEnv(path)
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Chain.Network != "sepolia" {
		t.Errorf("network = %q, want sepolia from .env", cfg.Chain.Network)
	}
}

func TestLoadFromEnv_PrivateKeyFile(t *testing.T) {
	setRequired(t)
	t.Setenv("PRIVATE_KEY", "")
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte(testKey+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PRIVATE_KEY_FILE", path)

	cfg, err := LoadFromEnv(noEnvFile(t))
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	signer, err := crypto.FromPrivateKeyHex(cfg.Signer.PrivateKey.Reveal())
	if err != nil {
		t.Fatal(err)
	}
	if signer.Address() != common.HexToAddress(testAddress) {
		t.Errorf("address = %s", signer.Address().Hex())
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"missing rpc", "WEB3_PROVIDER_URI", ""},
		{"missing order book", "ORDER_BOOK_ADDRESS", ""},
		{"bad address", "TRADE_MATCHING_ADDRESS", "0x1234"},
		{"missing key", "PRIVATE_KEY", ""},
		{"bad key", "PRIVATE_KEY", "0xnothex"},
		{"wallet mismatch", "WALLET_ADDRESS", orderBookAddr},
		{"zero chain id", "CHAIN_ID", "0"},
		{"bad gas limit", "GAS_LIMIT", "lots"},
		{"bad poll", "RECEIPT_POLL_MS", "-1"},
		{"bad concurrency", "SCAN_CONCURRENCY", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)
			if _, err := LoadFromEnv(noEnvFile(t)); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestSecretNeverPrinted(t *testing.T) {
	setRequired(t)
	cfg, err := LoadFromEnv(noEnvFile(t))
	if err != nil {
		t.Fatal(err)
	}
	raw := strings.TrimPrefix(testKey, "0x")

	printed := fmt.Sprintf("%v %+v %#v %s", cfg, cfg, cfg, cfg.Signer.PrivateKey)
	if strings.Contains(printed, raw) {
		t.Error("formatted config contains the private key")
	}
	js, _ := json.Marshal(cfg)
	if strings.Contains(string(js), raw) {
		t.Error("JSON config contains the private key")
	}

	t.Setenv("PRIVATE_KEY", "0xnothex")
	_, err = LoadFromEnv(noEnvFile(t))
	if err == nil || strings.Contains(err.Error(), "nothex") {
		t.Errorf("key error leaks input: %v", err)
	}
}
