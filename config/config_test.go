package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContract = "0xd9145CCE52D386f254917e481eB44e9943F39138"

func TestValidateDefaults(t *testing.T) {
	conf, err := validate(ConfigTmp{
		WalletRPCURL:    "http://127.0.0.1:8545",
		ContractAddress: testContract,
	})
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress(testContract), conf.ContractAddress)
	assert.Equal(t, "binance", conf.PricePlatform)
	assert.Equal(t, "ETH", conf.Pair.From)
	assert.Equal(t, "USDT", conf.Pair.To)
	assert.Equal(t, 30*time.Second, conf.PollPriceInterval)
	assert.Equal(t, 2*time.Minute, conf.ConfirmTimeout)
	assert.Equal(t, 2*time.Second, conf.ConfirmPollInterval)
	assert.Equal(t, ":8080", conf.ListenAddr)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		tmp  ConfigTmp
	}{
		{name: "Missing wallet URL", tmp: ConfigTmp{ContractAddress: testContract}},
		{name: "Missing contract address", tmp: ConfigTmp{WalletRPCURL: "http://127.0.0.1:8545"}},
		{name: "Malformed contract address", tmp: ConfigTmp{WalletRPCURL: "http://127.0.0.1:8545", ContractAddress: "0x123"}},
		{name: "Unknown platform", tmp: ConfigTmp{WalletRPCURL: "http://127.0.0.1:8545", ContractAddress: testContract, PricePlatform: "kraken"}},
		{name: "HTTP platform without endpoint", tmp: ConfigTmp{WalletRPCURL: "http://127.0.0.1:8545", ContractAddress: testContract, PricePlatform: "http"}},
		{name: "Malformed pair", tmp: ConfigTmp{WalletRPCURL: "http://127.0.0.1:8545", ContractAddress: testContract, Pair: "ETHUSDT"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validate(tc.tmp)
			assert.Error(t, err)
		})
	}
}

func TestGetYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
wallet_rpc_url: http://127.0.0.1:8545
contract_address: `+testContract+`
price_platform: http
price_endpoint: http://quotes.local/price
pair: BTC_USDT
poll_price_interval: 10s
confirm_timeout: 1m
listen_addr: ":9090"
tls_domains:
  - atm.example.com
`), 0o600))

	conf, err := getYaml(path)
	require.NoError(t, err)

	assert.Equal(t, "http", conf.PricePlatform)
	assert.Equal(t, "http://quotes.local/price", conf.PriceEndpoint)
	assert.Equal(t, "BTC", conf.Pair.From)
	assert.Equal(t, 10*time.Second, conf.PollPriceInterval)
	assert.Equal(t, time.Minute, conf.ConfirmTimeout)
	assert.Equal(t, ":9090", conf.ListenAddr)
	assert.Equal(t, []string{"atm.example.com"}, conf.TLSDomains)
}

func TestGetYamlMissingFile(t *testing.T) {
	_, err := getYaml(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
