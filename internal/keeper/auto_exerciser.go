package keeper

import (
	"context"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/interfaces"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/Lumerin-protocol/covered-call/internal/marketplace"
	"github.com/Lumerin-protocol/covered-call/internal/option"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/atomic"
)

// AutoExerciser periodically settles listed options that expired in the money. Options that
// expired out of the money are left to their sellers.
type AutoExerciser struct {
	// config
	interval time.Duration
	account  common.Address

	// state
	attempts  *atomic.Uint64
	successes *atomic.Uint64
	failures  *atomic.Uint64

	// deps
	chain  *chain.Chain
	market *marketplace.Marketplace
	log    interfaces.ILogger
}

type Stats struct {
	Attempts  uint64
	Successes uint64
	Failures  uint64
}

func NewAutoExerciser(c *chain.Chain, market *marketplace.Marketplace, account common.Address, interval time.Duration, log interfaces.ILogger) *AutoExerciser {
	return &AutoExerciser{
		interval:  interval,
		account:   account,
		attempts:  atomic.NewUint64(0),
		successes: atomic.NewUint64(0),
		failures:  atomic.NewUint64(0),
		chain:     c,
		market:    market,
		log:       log,
	}
}

func (k *AutoExerciser) Run(ctx context.Context) error {
	k.log.Infof("started, interval %s, account %s", k.interval, k.account.Hex())

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			k.log.Info("stopped")
			return nil
		case <-ticker.C:
			k.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single scan and returns the number of settled options
func (k *AutoExerciser) RunOnce(ctx context.Context) int {
	settled := 0
	for _, opt := range k.expiredOptions() {
		if ctx.Err() != nil {
			return settled
		}
		if k.settle(ctx, opt) {
			settled++
		}
	}
	return settled
}

func (k *AutoExerciser) Stats() Stats {
	return Stats{
		Attempts:  k.attempts.Load(),
		Successes: k.successes.Load(),
		Failures:  k.failures.Load(),
	}
}

func (k *AutoExerciser) expiredOptions() []*option.Option {
	var res []*option.Option
	now := k.chain.Now()

	k.chain.View(func() {
		for _, listing := range k.market.GetListings() {
			if !listing.Sold {
				continue
			}
			opt, ok := k.market.Option(listing.ContractAddress)
			if !ok {
				continue
			}
			if opt.Status() == option.StatusSold && opt.IsExpired(now) {
				res = append(res, opt)
			}
		}
	})

	return res
}

func (k *AutoExerciser) settle(ctx context.Context, opt *option.Option) bool {
	addr := lib.AddrShort(opt.Address().Hex())

	price, err := opt.PriceOracle().LatestPrice(ctx)
	if err != nil {
		k.log.Warnf("cannot read price for %s: %s", addr, err)
		return false
	}
	if opt.Moneyness(price) != option.MoneynessInTheMoney {
		k.log.Debugf("%s expired out of the money at %s, skipping", addr, price)
		return false
	}

	k.attempts.Inc()
	_, err = k.chain.Transact(ctx, chain.Msg{From: k.account, To: opt.Address()}, opt.AutoExercise)
	if err != nil {
		k.failures.Inc()
		k.log.Errorf("auto exercise of %s failed: %s", addr, err)
		return false
	}

	k.successes.Inc()
	k.log.Infof("auto exercised %s at price %s", addr, price)
	return true
}
