// Package setup is the interactive first-run wizard generating a YAML
// config file.
package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/metacrafters/atmgate/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and writes the result to
// config.gen.yaml.
func RunTUI() error {
	var (
		walletURL       string
		contractAddr    string
		platform        string
		endpoint        string
		pair            string
		pollIntervalStr string
		listenAddr      string
		confirm         bool
	)

	// defaults
	walletURL = "http://127.0.0.1:8545"
	pair = "ETH_USDT"
	pollIntervalStr = "30s"
	listenAddr = ":8080"

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ATM GATE CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Connect your wallet gateway to the ledger.\n"))

	fmt.Println(stepStyle.Render("STEP 1: LEDGER"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Wallet JSON-RPC URL").
				Description("Endpoint of the wallet bridge or node with managed accounts").
				Value(&walletURL).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("URL cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Ledger Contract Address").
				Description("0x-prefixed deployed contract address").
				Value(&contractAddr).
				Validate(func(s string) error {
					if !common.IsHexAddress(s) {
						return fmt.Errorf("invalid address format")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ATM GATE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: PRICE FEED"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Quote Source").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Hyperliquid", "hyperliquid"),
					huh.NewOption("Plain HTTP endpoint", "http"),
				).
				Value(&platform),
			huh.NewInput().
				Title("Quote Pair").
				Description("Must contain underscore (e.g. ETH_USDT)").
				Value(&pair).
				Validate(func(s string) error {
					if !strings.Contains(s, "_") {
						return fmt.Errorf("invalid format: must be BASE_QUOTE (e.g. ETH_USDT)")
					}
					return nil
				}),
			huh.NewInput().
				Title("Poll Interval").
				Description("Duration string (e.g. 30s, 1m)").
				Value(&pollIntervalStr).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	if platform == "http" {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Quote Endpoint URL").
					Value(&endpoint).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("endpoint cannot be empty")
						}
						return nil
					}),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ATM GATE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: WEB"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen Address").
				Description("host:port for the web UI (e.g. :8080)").
				Value(&listenAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ATM GATE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Wallet RPC: %s\nContract: %s\nQuotes: %s (%s)\nListen: %s\n",
		walletURL, contractAddr, platform, pair, listenAddr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	pollInterval, _ := time.ParseDuration(pollIntervalStr)

	cfgTmp := config.ConfigTmp{
		WalletRPCURL:      walletURL,
		ContractAddress:   contractAddr,
		PricePlatform:     platform,
		PriceEndpoint:     endpoint,
		Pair:              pair,
		PollPriceInterval: pollInterval,
		ListenAddr:        listenAddr,
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting gate...", filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}
