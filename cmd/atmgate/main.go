// Command atmgate runs the ATM gateway: it keeps a wallet session, a bound
// ledger contract and a price feed in sync and serves the resulting view
// over HTTP.
//
// Usage:
//
//	atmgate --config config.yaml
//	atmgate (uses CLI arguments)
//	atmgate setup (interactive configuration wizard)
//
// Optional environment variables:
//
//	For the hyperliquid price platform: HYPERLIQUID_PRIVATE_KEY, HYPERLIQUID_API_URL
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/metacrafters/atmgate/config"
	"github.com/metacrafters/atmgate/internal/app"
	"github.com/metacrafters/atmgate/internal/clients"
	"github.com/metacrafters/atmgate/internal/domain"
	"github.com/metacrafters/atmgate/internal/services/contract"
	"github.com/metacrafters/atmgate/internal/services/executor"
	"github.com/metacrafters/atmgate/internal/services/pricefeed"
	"github.com/metacrafters/atmgate/internal/services/refresher"
	"github.com/metacrafters/atmgate/internal/services/wallet"
	"github.com/metacrafters/atmgate/internal/setup"
	"github.com/metacrafters/atmgate/internal/storage/activitylog"
	"github.com/metacrafters/atmgate/internal/viewstate"
	"github.com/metacrafters/atmgate/internal/web"
)

const defaultHyperliquidAPIURL = "https://api.hyperliquid.xyz"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	conf, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	walletClient, err := clients.DialWallet(ctx, conf.WalletRPCURL)
	if err != nil {
		logger.Fatal("failed to dial wallet endpoint", zap.Error(err))
	}
	defer walletClient.Close()

	quoter, err := makeQuoter(conf)
	if err != nil {
		logger.Fatal("failed to create price quoter", zap.Error(err))
	}

	activityLog, err := activitylog.NewWALStore(conf.WalDir)
	if err != nil {
		logger.Fatal("failed to open activity log", zap.Error(err))
	}
	defer activityLog.Close()

	broadcaster := viewstate.NewBroadcaster(16)
	view := viewstate.NewStore(broadcaster)
	refresh := refresher.New(view, logger)
	confirmer := contract.NewConfirmer(walletClient.Eth(), conf.ConfirmPollInterval, conf.ConfirmTimeout)
	exec := executor.New(confirmer, refresh, view, logger)
	connector := wallet.NewConnector(walletClient, logger)

	binder := func(session *domain.WalletSession) (executor.Ledger, error) {
		return contract.Bind(session, conf.ContractAddress, walletClient.Eth())
	}

	core := app.NewCore(connector, binder, exec, refresh, view, activityLog, logger)

	// A previously granted session survives restarts without prompting.
	if err := core.TryReconnect(ctx); err != nil {
		logger.Warn("silent wallet reconnect failed", zap.Error(err))
	}

	poller := pricefeed.NewPoller(quoter, conf.Pair, conf.PollPriceInterval, view, logger)
	server := web.NewServer(conf.ListenAddr, core, view, broadcaster, activityLog, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(ctx)
	})
	g.Go(func() error {
		if len(conf.TLSDomains) > 0 {
			return server.StartWithAutoTLS(ctx, conf.TLSDomains, conf.TLSCacheDir)
		}
		return server.Start(ctx)
	})

	logger.Info("started",
		zap.String("contract", conf.ContractAddress.Hex()),
		zap.String("pair", conf.Pair.String()),
		zap.String("listen", conf.ListenAddr))

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal("gateway stopped", zap.Error(err))
	}
}

func makeQuoter(conf config.Config) (pricefeed.Quoter, error) {
	switch conf.PricePlatform {
	case "binance":
		return pricefeed.NewBinanceQuoter(clients.NewBinanceClient()), nil
	case "bybit":
		return pricefeed.NewBybitQuoter(clients.NewBybitClient()), nil
	case "hyperliquid":
		key := os.Getenv("HYPERLIQUID_PRIVATE_KEY")
		if key == "" {
			return nil, errors.New("HYPERLIQUID_PRIVATE_KEY environment variable must be set")
		}
		apiURL := os.Getenv("HYPERLIQUID_API_URL")
		if apiURL == "" {
			apiURL = defaultHyperliquidAPIURL
		}
		hl, err := clients.NewHyperliquidClient(key, apiURL)
		if err != nil {
			return nil, err
		}
		return pricefeed.NewHyperliquidQuoter(hl.Info()), nil
	case "http":
		return pricefeed.NewHTTPQuoter(conf.PriceEndpoint), nil
	}
	return nil, errors.Errorf("unsupported price platform: %s", conf.PricePlatform)
}
