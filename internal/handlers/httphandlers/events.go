package httphandlers

import (
	"fmt"
	"strconv"

	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/gin-gonic/gin"
)

const defaultEventsLimit = 100

// GetEvents returns latest ledger events, oldest first. Supports ?limit= and ?name= filters.
func (h *HTTPHandler) GetEvents(ctx *gin.Context) {
	limit := defaultEventsLimit
	if l := ctx.Query("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v < 0 {
			h.abortWithError(ctx, lib.WrapError(ErrBadRequest, fmt.Errorf("invalid limit %q", l)))
			return
		}
		limit = v
	}

	events := mapEvents(h.chain.Events(limit))
	if name := ctx.Query("name"); name != "" {
		events = filter(events, func(e Event) bool { return e.Name == name })
	}

	ctx.JSON(200, events)
}

func (h *HTTPHandler) GetChainInfo(ctx *gin.Context) {
	var listings int
	h.chain.View(func() {
		listings = len(h.market.GetListings())
	})

	ctx.JSON(200, ChainInfo{
		Block:       h.chain.BlockNumber(),
		Time:        formatTime(h.chain.Now()),
		Marketplace: h.market.Address().Hex(),
		Token:       h.token.Address().Hex(),
		Listings:    listings,
	})
}
