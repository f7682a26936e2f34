package config

import (
	"time"
)

// BuildVersion is set with -ldflags "-X github.com/Lumerin-protocol/covered-call/internal/config.BuildVersion=..."
var BuildVersion = "0.0.1-local"

const hardhatMnemonic = "test test test test test test test test test test test junk"

// Validation tags described here: https://pkg.go.dev/github.com/go-playground/validator/v10
type Config struct {
	Dev struct {
		Mnemonic     string `env:"DEV_MNEMONIC"      flag:"dev-mnemonic"      validate:"omitempty"                 desc:"mnemonic to derive development accounts from"`
		AccountCount int    `env:"DEV_ACCOUNT_COUNT" flag:"dev-account-count" validate:"omitempty,number,max=100" desc:"number of development accounts"`
		FaucetAmount string `env:"DEV_FAUCET_AMOUNT" flag:"dev-faucet-amount" validate:"omitempty,numeric"        desc:"native amount credited to each development account, in whole units"`
		TokenAmount  string `env:"DEV_TOKEN_AMOUNT"  flag:"dev-token-amount"  validate:"omitempty,numeric"        desc:"payment token amount minted to each development account, in whole units"`
		ManualClock  bool   `env:"DEV_MANUAL_CLOCK"  flag:"dev-manual-clock"                                       desc:"block time moves only through /chain/advance"`
	}
	Environment string `env:"ENVIRONMENT" flag:"environment" validate:"omitempty,oneof=development production"`
	Keeper      struct {
		Disable      bool          `env:"KEEPER_DISABLE"       flag:"keeper-disable"`
		Interval     time.Duration `env:"KEEPER_INTERVAL"      flag:"keeper-interval"      validate:"omitempty,min=0"    desc:"interval between scans for expired in the money options"`
		AccountIndex int           `env:"KEEPER_ACCOUNT_INDEX" flag:"keeper-account-index" validate:"omitempty,number"   desc:"index of the development account used to send auto exercise calls"`
	}
	Log struct {
		Color       bool   `env:"LOG_COLOR"         flag:"log-color"`
		FolderPath  string `env:"LOG_FOLDER_PATH"   flag:"log-folder-path"   validate:"omitempty,dirpath" desc:"enables file logging and sets the folder path"`
		IsProd      bool   `env:"LOG_IS_PROD"       flag:"log-is-prod"                                    desc:"affects the format of the log output"`
		JSON        bool   `env:"LOG_JSON"          flag:"log-json"`
		LevelApp    string `env:"LOG_LEVEL_APP"     flag:"log-level-app"     validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelChain  string `env:"LOG_LEVEL_CHAIN"   flag:"log-level-chain"   validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelMarket string `env:"LOG_LEVEL_MARKET"  flag:"log-level-market"  validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelKeeper string `env:"LOG_LEVEL_KEEPER"  flag:"log-level-keeper"  validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelHTTP   string `env:"LOG_LEVEL_HTTP"    flag:"log-level-http"    validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	}
	Marketplace struct {
		TokenName     string `env:"MARKETPLACE_TOKEN_NAME"     flag:"marketplace-token-name"`
		TokenSymbol   string `env:"MARKETPLACE_TOKEN_SYMBOL"   flag:"marketplace-token-symbol"`
		TokenDecimals int    `env:"MARKETPLACE_TOKEN_DECIMALS" flag:"marketplace-token-decimals" validate:"omitempty,min=0,max=36"`
	}
	Oracle struct {
		EthNodeAddress string        `env:"ETH_NODE_ADDRESS"      flag:"eth-node-address"      validate:"required_with=FeedAddress,omitempty,url"     desc:"ethereum node used to read the price feed"`
		FeedAddress    string        `env:"ORACLE_FEED_ADDRESS"   flag:"oracle-feed-address"   validate:"omitempty,eth_addr"                          desc:"chainlink style aggregator, the settable mock feed is used when empty"`
		InitialPrice   string        `env:"ORACLE_INITIAL_PRICE"  flag:"oracle-initial-price"  validate:"omitempty,numeric"                           desc:"initial price of the mock feed, in whole units"`
		CallTimeout    time.Duration `env:"ORACLE_CALL_TIMEOUT"   flag:"oracle-call-timeout"   validate:"omitempty,min=0"                             desc:"timeout of a price feed read, settlements hold the ledger while waiting"`
	}
	Web struct {
		Address   string `env:"WEB_ADDRESS"    flag:"web-address"    validate:"required,hostname_port" desc:"http server address host:port"`
		PublicUrl string `env:"WEB_PUBLIC_URL" flag:"web-public-url" validate:"omitempty,url"          desc:"public url of the node, falls back to web-address if empty"`
	}
}

func (cfg *Config) SetDefaults() {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Dev

	if cfg.Dev.Mnemonic == "" {
		cfg.Dev.Mnemonic = hardhatMnemonic
	}
	if cfg.Dev.AccountCount == 0 {
		cfg.Dev.AccountCount = 10
	}
	if cfg.Dev.FaucetAmount == "" {
		cfg.Dev.FaucetAmount = "10000"
	}
	if cfg.Dev.TokenAmount == "" {
		cfg.Dev.TokenAmount = "1000000"
	}

	// Keeper

	if cfg.Keeper.Interval == 0 {
		cfg.Keeper.Interval = 30 * time.Second
	}

	// Log

	if cfg.Log.LevelApp == "" {
		cfg.Log.LevelApp = "debug"
	}
	if cfg.Log.LevelChain == "" {
		cfg.Log.LevelChain = "info"
	}
	if cfg.Log.LevelMarket == "" {
		cfg.Log.LevelMarket = "debug"
	}
	if cfg.Log.LevelKeeper == "" {
		cfg.Log.LevelKeeper = "info"
	}
	if cfg.Log.LevelHTTP == "" {
		cfg.Log.LevelHTTP = "info"
	}

	// Marketplace

	if cfg.Marketplace.TokenName == "" {
		cfg.Marketplace.TokenName = "Mock USD Coin"
	}
	if cfg.Marketplace.TokenSymbol == "" {
		cfg.Marketplace.TokenSymbol = "USDC"
	}
	if cfg.Marketplace.TokenDecimals == 0 {
		cfg.Marketplace.TokenDecimals = 6
	}

	// Oracle

	if cfg.Oracle.InitialPrice == "" {
		cfg.Oracle.InitialPrice = "2000"
	}
	if cfg.Oracle.CallTimeout == 0 {
		cfg.Oracle.CallTimeout = 5 * time.Second
	}

	// Web

	if cfg.Web.Address == "" {
		cfg.Web.Address = "0.0.0.0:8080"
	}
	if cfg.Web.PublicUrl == "" {
		cfg.Web.PublicUrl = "http://localhost:8080"
	}
}

func (cfg *Config) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// GetSanitized returns a copy of the config with sensitive data removed
// explicitly adding each field here to avoid accidentally leaking sensitive data
func (cfg *Config) GetSanitized() interface{} {
	publicCfg := Config{}

	publicCfg.Environment = cfg.Environment

	publicCfg.Dev.AccountCount = cfg.Dev.AccountCount
	publicCfg.Dev.FaucetAmount = cfg.Dev.FaucetAmount
	publicCfg.Dev.TokenAmount = cfg.Dev.TokenAmount
	publicCfg.Dev.ManualClock = cfg.Dev.ManualClock

	publicCfg.Keeper.Disable = cfg.Keeper.Disable
	publicCfg.Keeper.Interval = cfg.Keeper.Interval
	publicCfg.Keeper.AccountIndex = cfg.Keeper.AccountIndex

	publicCfg.Log.Color = cfg.Log.Color
	publicCfg.Log.FolderPath = cfg.Log.FolderPath
	publicCfg.Log.IsProd = cfg.Log.IsProd
	publicCfg.Log.JSON = cfg.Log.JSON
	publicCfg.Log.LevelApp = cfg.Log.LevelApp
	publicCfg.Log.LevelChain = cfg.Log.LevelChain
	publicCfg.Log.LevelMarket = cfg.Log.LevelMarket
	publicCfg.Log.LevelKeeper = cfg.Log.LevelKeeper
	publicCfg.Log.LevelHTTP = cfg.Log.LevelHTTP

	publicCfg.Marketplace.TokenName = cfg.Marketplace.TokenName
	publicCfg.Marketplace.TokenSymbol = cfg.Marketplace.TokenSymbol
	publicCfg.Marketplace.TokenDecimals = cfg.Marketplace.TokenDecimals

	publicCfg.Oracle.FeedAddress = cfg.Oracle.FeedAddress
	publicCfg.Oracle.InitialPrice = cfg.Oracle.InitialPrice
	publicCfg.Oracle.CallTimeout = cfg.Oracle.CallTimeout

	publicCfg.Web.Address = cfg.Web.Address
	publicCfg.Web.PublicUrl = cfg.Web.PublicUrl

	return publicCfg
}
