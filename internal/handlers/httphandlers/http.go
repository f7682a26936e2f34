package httphandlers

import (
	"net/url"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/config"
	"github.com/Lumerin-protocol/covered-call/internal/interfaces"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/Lumerin-protocol/covered-call/internal/marketplace"
	"github.com/Lumerin-protocol/covered-call/internal/oracle"
	"github.com/Lumerin-protocol/covered-call/internal/token"
	"github.com/gin-gonic/gin"
)

type Sanitizable interface {
	GetSanitized() interface{}
}

// DevTools are the development only controls, any of them can be nil
type DevTools struct {
	Clock  *chain.ManualClock
	Feed   *oracle.PriceFeedMock
	Minter *lib.Wallet
}

type HTTPHandler struct {
	chain       *chain.Chain
	market      *marketplace.Marketplace
	token       *token.ERC20
	priceOracle oracle.PriceOracle
	accounts    *lib.Collection[*lib.Wallet]
	dev         DevTools
	config      Sanitizable
	publicUrl   *url.URL
	log         interfaces.ILogger
}

func NewHTTPHandler(c *chain.Chain, market *marketplace.Marketplace, paymentToken *token.ERC20, priceOracle oracle.PriceOracle, accounts *lib.Collection[*lib.Wallet], dev DevTools, cfg Sanitizable, publicUrl *url.URL, log interfaces.ILogger) *gin.Engine {
	handl := &HTTPHandler{
		chain:       c,
		market:      market,
		token:       paymentToken,
		priceOracle: priceOracle,
		accounts:    accounts,
		dev:         dev,
		config:      cfg,
		publicUrl:   publicUrl,
		log:         log,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(log))

	r.GET("/healthcheck", handl.HealthCheck)
	r.GET("/config", handl.GetConfig)

	r.GET("/listings", handl.GetListings)
	r.POST("/listings", handl.CreateListing)
	r.POST("/listings/:address/buy", handl.BuyListing)

	r.GET("/options/:address", handl.GetOption)
	r.POST("/options/:address/exercise", handl.ExerciseOption)
	r.POST("/options/:address/expire", handl.ExpireOption)
	r.POST("/options/:address/auto-exercise", handl.AutoExerciseOption)

	r.GET("/accounts", handl.GetAccounts)
	r.GET("/accounts/:address", handl.GetAccount)
	r.POST("/token/approve", handl.Approve)

	r.GET("/events", handl.GetEvents)
	r.GET("/chain", handl.GetChainInfo)

	if dev.Minter != nil {
		r.POST("/token/mint", handl.Mint)
	}
	if dev.Feed != nil {
		r.POST("/oracle/price", handl.SetPrice)
	}
	if dev.Clock != nil {
		r.POST("/chain/advance", handl.AdvanceTime)
	}

	err := r.SetTrustedProxies(nil)
	if err != nil {
		panic(err)
	}

	return r
}

func (h *HTTPHandler) HealthCheck(ctx *gin.Context) {
	ctx.JSON(200, gin.H{
		"status":  "healthy",
		"version": config.BuildVersion,
	})
}
