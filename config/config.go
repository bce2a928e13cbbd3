// Package config loads service configuration from a YAML file or CLI flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/metacrafters/atmgate/internal/domain"
)

// Config is the fully validated runtime configuration.
type Config struct {
	WalletRPCURL    string
	ContractAddress common.Address

	PricePlatform     string
	PriceEndpoint     string
	Pair              domain.Pair
	PollPriceInterval time.Duration

	ConfirmTimeout      time.Duration
	ConfirmPollInterval time.Duration

	ListenAddr  string
	WalDir      string
	TLSDomains  []string
	TLSCacheDir string
}

// ConfigTmp is the raw YAML shape before validation. Exported so the setup
// wizard can generate config files.
type ConfigTmp struct {
	WalletRPCURL    string `yaml:"wallet_rpc_url"`
	ContractAddress string `yaml:"contract_address"`

	PricePlatform     string        `yaml:"price_platform,omitempty"`
	PriceEndpoint     string        `yaml:"price_endpoint,omitempty"`
	Pair              string        `yaml:"pair,omitempty"`
	PollPriceInterval time.Duration `yaml:"poll_price_interval,omitempty"`

	ConfirmTimeout      time.Duration `yaml:"confirm_timeout,omitempty"`
	ConfirmPollInterval time.Duration `yaml:"confirm_poll_interval,omitempty"`

	ListenAddr  string   `yaml:"listen_addr,omitempty"`
	WalDir      string   `yaml:"wal_dir,omitempty"`
	TLSDomains  []string `yaml:"tls_domains,omitempty"`
	TLSCacheDir string   `yaml:"tls_cache_dir,omitempty"`
}

// Get reads the config from --config if provided, otherwise from CLI flags.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	walletURL := flag.String("wallet-rpc", "http://127.0.0.1:8545", "wallet JSON-RPC endpoint")
	contractAddr := flag.String("contract", "", "ledger contract address")
	platform := flag.String("price-platform", "binance", "quote source: binance, bybit, hyperliquid or http")
	endpoint := flag.String("price-endpoint", "", "quote endpoint URL for the http platform")
	pairFlag := flag.String("pair", "ETH_USDT", "quote pair, example: ETH_USDT")
	pollInterval := flag.Duration("poll-price-interval", 30*time.Second, "poll quote endpoint interval")
	confirmTimeout := flag.Duration("confirm-timeout", 2*time.Minute, "transaction confirmation deadline")
	listenAddr := flag.String("listen", ":8080", "web server listen address")
	walDir := flag.String("wal-dir", "./wal/activity", "activity log WAL directory")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	tmp := ConfigTmp{
		WalletRPCURL:      *walletURL,
		ContractAddress:   *contractAddr,
		PricePlatform:     *platform,
		PriceEndpoint:     *endpoint,
		Pair:              *pairFlag,
		PollPriceInterval: *pollInterval,
		ConfirmTimeout:    *confirmTimeout,
		ListenAddr:        *listenAddr,
		WalDir:            *walDir,
	}
	return validate(tmp)
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}
	return validate(tmp)
}

func validate(tmp ConfigTmp) (Config, error) {
	conf := Config{
		WalletRPCURL:        tmp.WalletRPCURL,
		PricePlatform:       tmp.PricePlatform,
		PriceEndpoint:       tmp.PriceEndpoint,
		PollPriceInterval:   tmp.PollPriceInterval,
		ConfirmTimeout:      tmp.ConfirmTimeout,
		ConfirmPollInterval: tmp.ConfirmPollInterval,
		ListenAddr:          tmp.ListenAddr,
		WalDir:              tmp.WalDir,
		TLSDomains:          tmp.TLSDomains,
		TLSCacheDir:         tmp.TLSCacheDir,
	}

	if conf.WalletRPCURL == "" {
		return Config{}, fmt.Errorf("'wallet_rpc_url' param is required")
	}
	if !common.IsHexAddress(tmp.ContractAddress) {
		return Config{}, fmt.Errorf("incorrect 'contract_address' param: %q", tmp.ContractAddress)
	}
	conf.ContractAddress = common.HexToAddress(tmp.ContractAddress)

	if conf.PricePlatform == "" {
		conf.PricePlatform = "binance"
	}
	switch conf.PricePlatform {
	case "binance", "bybit", "hyperliquid":
	case "http":
		if conf.PriceEndpoint == "" {
			return Config{}, fmt.Errorf("'price_endpoint' param is required for the http price platform")
		}
	default:
		return Config{}, fmt.Errorf("unsupported price platform: %s", conf.PricePlatform)
	}

	pair, err := pairFromString(tmp.Pair)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'pair' param: %s, error: %w", tmp.Pair, err)
	}
	conf.Pair = pair

	if conf.PollPriceInterval <= 0 {
		conf.PollPriceInterval = 30 * time.Second
	}
	if conf.ConfirmTimeout <= 0 {
		conf.ConfirmTimeout = 2 * time.Minute
	}
	if conf.ConfirmPollInterval <= 0 {
		conf.ConfirmPollInterval = 2 * time.Second
	}
	if conf.ListenAddr == "" {
		conf.ListenAddr = ":8080"
	}

	return conf, nil
}

func pairFromString(pairStr string) (domain.Pair, error) {
	if pairStr == "" {
		return domain.Pair{From: "ETH", To: "USDT"}, nil
	}
	pairElements := strings.Split(pairStr, "_")
	if len(pairElements) != 2 {
		return domain.Pair{}, fmt.Errorf("invalid pair param")
	}
	return domain.Pair{From: pairElements[0], To: pairElements[1]}, nil
}
