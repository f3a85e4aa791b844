package params

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/thp-tushar/carbonmatch/pkg/crypto"
)

type Chain struct {
	RPCURL  string
	ChainID *big.Int
	Network string
}

type Contracts struct {
	OrderBook     common.Address
	TradeMatching common.Address
	CarbonCredit  common.Address // informational only
}

// Secret holds a credential and refuses to print it.
type Secret string

func (Secret) String() string               { return "[redacted]" }
func (Secret) GoString() string             { return "[redacted]" }
func (Secret) MarshalJSON() ([]byte, error) { return []byte(`"[redacted]"`), nil }
func (s Secret) Reveal() string             { return string(s) }

type Signer struct {
	PrivateKey    Secret
	WalletAddress string
}

type Gas struct {
	Limit    uint64
	PriceCap *big.Int // wei; nil means no cap
}

type Submit struct {
	ReceiptTimeout time.Duration
	PollInterval   time.Duration
}

type Scan struct {
	Concurrency   int
	RatePerSecond float64
}

type Server struct {
	Port           string
	AllowedOrigins []string
	Debug          bool
}

type Journal struct {
	Path string
}

type Kafka struct {
	Brokers []string // empty disables publishing
	Topic   string
}

type Log struct {
	File  string
	Level string
}

type Config struct {
	Chain     Chain
	Contracts Contracts
	Signer    Signer
	Gas       Gas
	Submit    Submit
	Scan      Scan
	Server    Server
	Journal   Journal
	Kafka     Kafka
	Log       Log
}

func Default() Config {
	return Config{
		Chain: Chain{
			ChainID: big.NewInt(5),
			Network: "goerli",
		},
		Gas:    Gas{Limit: 500_000},
		Submit: Submit{ReceiptTimeout: 2 * time.Minute, PollInterval: time.Second},
		Scan:   Scan{Concurrency: 8},
		Server: Server{
			Port:           "5000",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Journal: Journal{Path: "data/journal"},
		Kafka:   Kafka{Topic: "match-outcomes"},
		Log:     Log{File: "data/matcher.log", Level: "info"},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) (Config, error) {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	var errs []error
	addErr := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg.Chain.RPCURL = os.Getenv("WEB3_PROVIDER_URI")
	cfg.Chain.Network = getEnv("NETWORK_NAME", cfg.Chain.Network)
	if v := os.Getenv("CHAIN_ID"); v != "" {
		id, ok := new(big.Int).SetString(v, 10)
		if !ok || id.Sign() <= 0 {
			addErr(fmt.Errorf("CHAIN_ID: invalid value %q", v))
		} else {
			cfg.Chain.ChainID = id
		}
	}

	var err error
	cfg.Contracts.OrderBook, err = address("ORDER_BOOK_ADDRESS")
	addErr(err)
	cfg.Contracts.TradeMatching, err = address("TRADE_MATCHING_ADDRESS")
	addErr(err)
	cfg.Contracts.CarbonCredit, err = address("CARBON_CREDIT_ADDRESS")
	addErr(err)

	key := os.Getenv("PRIVATE_KEY")
	if path := os.Getenv("PRIVATE_KEY_FILE"); path != "" && key == "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			addErr(fmt.Errorf("PRIVATE_KEY_FILE: %w", err))
		}
		key = strings.TrimSpace(string(raw))
	}
	cfg.Signer.PrivateKey = Secret(key)
	cfg.Signer.WalletAddress = os.Getenv("WALLET_ADDRESS")

	if v := os.Getenv("GAS_LIMIT"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			addErr(fmt.Errorf("GAS_LIMIT: invalid value %q", v))
		} else {
			cfg.Gas.Limit = n
		}
	}
	if v := os.Getenv("GAS_PRICE_CAP_GWEI"); v != "" {
		gwei, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			addErr(fmt.Errorf("GAS_PRICE_CAP_GWEI: invalid value %q", v))
		} else if gwei > 0 {
			cfg.Gas.PriceCap = new(big.Int).Mul(new(big.Int).SetUint64(gwei), big.NewInt(1_000_000_000))
		}
	}

	cfg.Submit.ReceiptTimeout = durationMs("RECEIPT_TIMEOUT_MS", cfg.Submit.ReceiptTimeout, addErr)
	cfg.Submit.PollInterval = durationMs("RECEIPT_POLL_MS", cfg.Submit.PollInterval, addErr)

	if v := os.Getenv("SCAN_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			addErr(fmt.Errorf("SCAN_CONCURRENCY: invalid value %q", v))
		} else {
			cfg.Scan.Concurrency = n
		}
	}
	if v := os.Getenv("SCAN_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			addErr(fmt.Errorf("SCAN_RPS: invalid value %q", v))
		} else {
			cfg.Scan.RatePerSecond = f
		}
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	cfg.Server.Debug = os.Getenv("NODE_ENV") == "development"

	cfg.Journal.Path = getEnv("JOURNAL_PATH", cfg.Journal.Path)
	cfg.Kafka.Brokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	if len(errs) > 0 {
		return cfg, errors.Join(errs...)
	}
	return cfg, cfg.Validate()
}

// Validate reports missing required settings and a wallet address that does
// not belong to the signing key.
func (c Config) Validate() error {
	var errs []error
	if c.Chain.RPCURL == "" {
		errs = append(errs, errors.New("WEB3_PROVIDER_URI is required"))
	}
	if c.Chain.ChainID == nil || c.Chain.ChainID.Sign() <= 0 {
		errs = append(errs, errors.New("CHAIN_ID must be positive"))
	}
	if c.Contracts.OrderBook == (common.Address{}) {
		errs = append(errs, errors.New("ORDER_BOOK_ADDRESS is required"))
	}
	if c.Contracts.TradeMatching == (common.Address{}) {
		errs = append(errs, errors.New("TRADE_MATCHING_ADDRESS is required"))
	}
	if c.Signer.PrivateKey == "" {
		errs = append(errs, errors.New("PRIVATE_KEY or PRIVATE_KEY_FILE is required"))
	} else {
		signer, err := crypto.FromPrivateKeyHex(c.Signer.PrivateKey.Reveal())
		switch {
		case err != nil:
			// The parse error can echo key material.
			errs = append(errs, errors.New("PRIVATE_KEY is not a valid secp256k1 key"))
		case c.Signer.WalletAddress != "":
			if !common.IsHexAddress(c.Signer.WalletAddress) {
				errs = append(errs, fmt.Errorf("WALLET_ADDRESS: invalid address %q", c.Signer.WalletAddress))
			} else if common.HexToAddress(c.Signer.WalletAddress) != signer.Address() {
				errs = append(errs, fmt.Errorf("WALLET_ADDRESS %s does not match the signing key (%s)", c.Signer.WalletAddress, signer.Address().Hex()))
			}
		}
	}
	if c.Submit.PollInterval <= 0 || c.Submit.ReceiptTimeout <= 0 {
		errs = append(errs, errors.New("receipt timeout and poll interval must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the HTTP listen address.
func (c Config) Addr() string { return ":" + c.Server.Port }

func address(key string) (common.Address, error) {
	v := os.Getenv(key)
	if v == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", key, v)
	}
	return common.HexToAddress(v), nil
}

func durationMs(key string, def time.Duration, addErr func(error)) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		addErr(fmt.Errorf("%s: invalid value %q", key, v))
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
