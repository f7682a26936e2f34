package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/config"
	"github.com/Lumerin-protocol/covered-call/internal/handlers"
	"github.com/Lumerin-protocol/covered-call/internal/handlers/httphandlers"
	"github.com/Lumerin-protocol/covered-call/internal/interfaces"
	"github.com/Lumerin-protocol/covered-call/internal/keeper"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/Lumerin-protocol/covered-call/internal/marketplace"
	"github.com/Lumerin-protocol/covered-call/internal/oracle"
	"github.com/Lumerin-protocol/covered-call/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

func main() {
	err := start()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func start() error {
	var cfg config.Config
	err := config.LoadConfig(&cfg, &os.Args, ".env")
	if err != nil {
		return err
	}

	newLogger := func(level string, fileName string) (*lib.Logger, error) {
		logCfg := lib.LoggerConfig{
			Level:  level,
			Color:  cfg.Log.Color,
			IsProd: cfg.Log.IsProd,
			JSON:   cfg.Log.JSON,
		}
		if cfg.Log.FolderPath != "" {
			logCfg.FilePath = filepath.Join(cfg.Log.FolderPath, fileName)
		}
		return lib.NewLogger(logCfg)
	}

	log, err := newLogger(cfg.Log.LevelApp, "app.log")
	if err != nil {
		return err
	}
	chainLog, err := newLogger(cfg.Log.LevelChain, "chain.log")
	if err != nil {
		return err
	}
	marketLog, err := newLogger(cfg.Log.LevelMarket, "market.log")
	if err != nil {
		return err
	}
	keeperLog, err := newLogger(cfg.Log.LevelKeeper, "keeper.log")
	if err != nil {
		return err
	}
	httpLog, err := newLogger(cfg.Log.LevelHTTP, "http.log")
	if err != nil {
		return err
	}

	defer func() {
		_ = log.Sync()
		_ = chainLog.Sync()
		_ = marketLog.Sync()
		_ = keeperLog.Sync()
		_ = httpLog.Sync()
	}()

	log.Infof("covered-call node %s, environment %s", config.BuildVersion, cfg.Environment)
	log.Debugw("config", "config", cfg.GetSanitized())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-shutdownChan
		log.Warnf("Received signal: %s", s)
		cancel()

		s = <-shutdownChan
		log.Warnf("Received signal: %s. Forcing exit...", s)
		os.Exit(1)
	}()

	var (
		clock       chain.Clock = chain.SystemClock{}
		manualClock *chain.ManualClock
	)
	if cfg.Dev.ManualClock {
		manualClock = chain.NewManualClock(chain.SystemClock{}.Now())
		clock = manualClock
	}
	ledger := chain.NewChain(clock, 0, chainLog.Named("CHAIN"))

	accounts, minter, err := setupAccounts(&cfg, ledger)
	if err != nil {
		return err
	}
	log.Infof("%d development accounts funded, minter %s", accounts.Len(), minter.Address.Hex())

	paymentToken, err := setupToken(ctx, &cfg, ledger, accounts, minter, chainLog.Named("TOKEN"))
	if err != nil {
		return err
	}

	priceOracle, feed, err := setupOracle(ctx, &cfg, marketLog.Named("ORACLE"))
	if err != nil {
		return err
	}

	market, err := marketplace.Deploy(ctx, ledger, minter.Address, paymentToken, marketLog.Named("MARKET"))
	if err != nil {
		return err
	}
	log.Infof("marketplace deployed at %s, payment token %s at %s", market.Address().Hex(), paymentToken.Symbol(), paymentToken.Address().Hex())

	publicUrl, err := url.Parse(cfg.Web.PublicUrl)
	if err != nil {
		return err
	}

	dev := httphandlers.DevTools{}
	if cfg.IsDevelopment() {
		dev = httphandlers.DevTools{Clock: manualClock, Feed: feed, Minter: minter}
	}
	handl := httphandlers.NewHTTPHandler(ledger, market, paymentToken, priceOracle, accounts, dev, &cfg, publicUrl, httpLog.Named("HTTP"))

	runnables := []interfaces.Runnable{
		handlers.NewHTTPServer(cfg.Web.Address, handl, httpLog.Named("HTTP")),
	}

	if !cfg.Keeper.Disable {
		keeperAccount, err := accountAt(accounts, cfg.Keeper.AccountIndex)
		if err != nil {
			return err
		}
		runnables = append(runnables, keeper.NewAutoExerciser(ledger, market, keeperAccount, cfg.Keeper.Interval, keeperLog.Named("KEEPER")))
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, r := range runnables {
		r := r
		g.Go(func() error {
			return r.Run(ctx)
		})
	}

	err = g.Wait()
	log.Infof("App exited due to %s", err)
	return err
}

func setupAccounts(cfg *config.Config, ledger *chain.Chain) (*lib.Collection[*lib.Wallet], *lib.Wallet, error) {
	wallets, err := lib.DeriveWallets(cfg.Dev.Mnemonic, cfg.Dev.AccountCount)
	if err != nil {
		return nil, nil, err
	}
	if len(wallets) == 0 {
		return nil, nil, fmt.Errorf("at least one development account is required")
	}

	faucet, err := lib.ParseUnits(cfg.Dev.FaucetAmount, 18)
	if err != nil {
		return nil, nil, err
	}

	accounts := lib.NewCollection[*lib.Wallet]()
	for _, w := range wallets {
		ledger.Fund(w.Address, faucet)
		accounts.Store(w)
	}

	return accounts, wallets[0], nil
}

// setupToken deploys the payment token from the minter account and mints the configured amount to every account
func setupToken(ctx context.Context, cfg *config.Config, ledger *chain.Chain, accounts *lib.Collection[*lib.Wallet], minter *lib.Wallet, log interfaces.ILogger) (*token.ERC20, error) {
	decimals := uint8(cfg.Marketplace.TokenDecimals)
	paymentToken, err := token.Deploy(ctx, ledger, minter.Address, cfg.Marketplace.TokenName, cfg.Marketplace.TokenSymbol, decimals, log)
	if err != nil {
		return nil, err
	}

	amount, err := lib.ParseUnits(cfg.Dev.TokenAmount, int32(decimals))
	if err != nil {
		return nil, err
	}

	msg := chain.Msg{From: minter.Address, To: paymentToken.Address()}
	_, err = ledger.Transact(ctx, msg, func(tx *chain.Tx) error {
		var mintErr error
		accounts.Range(func(w *lib.Wallet) bool {
			mintErr = paymentToken.Mint(tx, w.Address, amount)
			return mintErr == nil
		})
		return mintErr
	})
	if err != nil {
		return nil, err
	}

	return paymentToken, nil
}

// setupOracle connects to the configured price feed, or creates a settable mock feed when none is configured
func setupOracle(ctx context.Context, cfg *config.Config, log interfaces.ILogger) (oracle.PriceOracle, *oracle.PriceFeedMock, error) {
	if cfg.Oracle.FeedAddress != "" {
		feed, err := oracle.DialAggregatorV3(ctx, cfg.Oracle.EthNodeAddress, common.HexToAddress(cfg.Oracle.FeedAddress), log)
		if err != nil {
			return nil, nil, err
		}
		feed.SetCallTimeout(cfg.Oracle.CallTimeout)
		log.Infof("using price feed %s, call timeout %s", cfg.Oracle.FeedAddress, cfg.Oracle.CallTimeout)
		return feed, nil, nil
	}

	initial, err := lib.ParseUnits(cfg.Oracle.InitialPrice, oracle.PriceDecimals)
	if err != nil {
		return nil, nil, err
	}
	log.Infof("using mock price feed, initial price %s", cfg.Oracle.InitialPrice)
	feed := oracle.NewPriceFeedMock(initial)
	return feed, feed, nil
}

func accountAt(accounts *lib.Collection[*lib.Wallet], index int) (common.Address, error) {
	var (
		addr  common.Address
		found bool
	)
	accounts.Range(func(w *lib.Wallet) bool {
		if w.Index == index {
			addr, found = w.Address, true
			return false
		}
		return true
	})
	if !found {
		return common.Address{}, fmt.Errorf("no development account with index %d", index)
	}
	return addr, nil
}
