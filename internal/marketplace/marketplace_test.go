package marketplace

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/Lumerin-protocol/covered-call/internal/option"
	"github.com/Lumerin-protocol/covered-call/internal/oracle"
	"github.com/Lumerin-protocol/covered-call/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	startTime  = time.Unix(1_700_000_000, 0)
	expiration = startTime.Add(180 * 24 * time.Hour)

	collateral = lib.MustParseUnits("1", 18)
	strike     = lib.MustParseUnits("55", 18)
	premium    = lib.MustParseUnits("4", 6)
)

type testEnv struct {
	chain  *chain.Chain
	clock  *chain.ManualClock
	feed   *oracle.PriceFeedMock
	usdc   *token.ERC20
	market *Marketplace
	owner  common.Address
	seller common.Address
	buyer  common.Address
}

func newTestEnv(t *testing.T) *testEnv {
	log := lib.NewTestLogger()
	clock := chain.NewManualClock(startTime)
	c := chain.NewChain(clock, 0, log)

	env := &testEnv{
		chain:  c,
		clock:  clock,
		feed:   oracle.NewPriceFeedMock(lib.MustParseUnits("50", 18)),
		owner:  lib.GetRandomAddr(),
		seller: lib.GetRandomAddr(),
		buyer:  lib.GetRandomAddr(),
	}
	c.Fund(env.seller, lib.MustParseUnits("10", 18))
	c.Fund(env.buyer, lib.MustParseUnits("100", 18))

	usdc, err := token.Deploy(context.Background(), c, env.owner, "USD Coin", "USDC", 6, log)
	require.NoError(t, err)
	env.usdc = usdc

	_, err = c.Transact(context.Background(), chain.Msg{From: env.owner, To: usdc.Address()}, func(tx *chain.Tx) error {
		return usdc.Mint(tx, env.buyer, lib.MustParseUnits("1000", 6))
	})
	require.NoError(t, err)

	market, err := Deploy(context.Background(), c, env.owner, usdc, log)
	require.NoError(t, err)
	env.market = market

	return env
}

func (e *testEnv) list(t *testing.T) common.Address {
	var addr common.Address
	_, err := e.chain.Transact(context.Background(), chain.Msg{From: e.seller, To: e.market.Address(), Value: collateral}, func(tx *chain.Tx) error {
		var err error
		addr, err = e.market.ListCoveredCall(tx, e.feed, strike, expiration, premium)
		return err
	})
	require.NoError(t, err)
	return addr
}

func (e *testEnv) approve(t *testing.T, spender common.Address, amount *big.Int) {
	_, err := e.chain.Transact(context.Background(), chain.Msg{From: e.buyer, To: e.usdc.Address()}, func(tx *chain.Tx) error {
		return e.usdc.Approve(tx, spender, amount)
	})
	require.NoError(t, err)
}

func (e *testEnv) buyCoveredCall(optionAddr common.Address) error {
	_, err := e.chain.Transact(context.Background(), chain.Msg{From: e.buyer, To: e.market.Address()}, func(tx *chain.Tx) error {
		return e.market.BuyCoveredCall(tx, optionAddr)
	})
	return err
}

func TestListCoveredCall(t *testing.T) {
	env := newTestEnv(t)
	addr := env.list(t)

	listings := env.market.GetListings()
	require.Len(t, listings, 1)
	require.Equal(t, Listing{ID: 0, Seller: env.seller, ContractAddress: addr}, listings[0])

	opt, ok := env.market.Option(addr)
	require.True(t, ok)
	require.Equal(t, env.seller, opt.Seller())
	require.Equal(t, env.market.Address(), opt.Broker())
	require.Equal(t, env.usdc.Address(), opt.PaymentToken())
	require.Equal(t, option.StatusCreated, opt.Status())
	require.Equal(t, collateral, env.chain.BalanceOf(addr))
	require.Equal(t, big.NewInt(0), env.chain.BalanceOf(env.market.Address()))

	registered, ok := env.chain.ContractAt(addr)
	require.True(t, ok)
	require.Same(t, opt, registered)
}

func TestListCoveredCallInvalidParameters(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.chain.Transact(context.Background(), chain.Msg{From: env.seller, To: env.market.Address(), Value: collateral}, func(tx *chain.Tx) error {
		_, err := env.market.ListCoveredCall(tx, env.feed, strike, startTime.Add(-time.Hour), premium)
		return err
	})
	require.ErrorIs(t, err, option.ErrInvalidParameters)
	require.Empty(t, env.market.GetListings())
	require.Equal(t, lib.MustParseUnits("10", 18), env.chain.BalanceOf(env.seller))
}

func TestBuyCoveredCall(t *testing.T) {
	env := newTestEnv(t)
	addr := env.list(t)

	env.approve(t, env.market.Address(), premium)
	env.approve(t, addr, premium)
	require.Equal(t, premium, env.usdc.Allowance(env.buyer, env.market.Address()))
	require.Equal(t, premium, env.usdc.Allowance(env.buyer, addr))

	require.NoError(t, env.buyCoveredCall(addr))

	listing, ok := env.market.ListingByAddress(addr)
	require.True(t, ok)
	require.True(t, listing.Sold)

	opt, _ := env.market.Option(addr)
	require.Equal(t, option.StatusSold, opt.Status())
	require.Equal(t, env.buyer, opt.Buyer())
	require.Equal(t, premium, env.usdc.BalanceOf(env.seller))
	require.Equal(t, big.NewInt(0), env.usdc.Allowance(env.buyer, addr))
}

func TestBuyCoveredCallWithoutAllowanceReverts(t *testing.T) {
	env := newTestEnv(t)
	addr := env.list(t)

	err := env.buyCoveredCall(addr)
	require.ErrorIs(t, err, option.ErrPaymentFailure)
	require.ErrorIs(t, err, token.ErrInsufficientAllowance)

	listing, _ := env.market.GetListing(0)
	require.False(t, listing.Sold)
	opt, _ := env.market.Option(addr)
	require.Equal(t, option.StatusCreated, opt.Status())
}

func TestBuyCoveredCallTwice(t *testing.T) {
	env := newTestEnv(t)
	addr := env.list(t)
	env.approve(t, addr, new(big.Int).Mul(premium, big.NewInt(2)))

	require.NoError(t, env.buyCoveredCall(addr))
	err := env.buyCoveredCall(addr)
	require.ErrorIs(t, err, option.ErrAlreadySold)
	require.Equal(t, premium, env.usdc.BalanceOf(env.seller))
}

func TestBuyCoveredCallUnknownListing(t *testing.T) {
	env := newTestEnv(t)
	env.list(t)

	err := env.buyCoveredCall(lib.GetRandomAddr())
	require.ErrorIs(t, err, ErrListingNotFound)
}

func TestListedOptionRejectsDirectPurchase(t *testing.T) {
	env := newTestEnv(t)
	addr := env.list(t)
	env.approve(t, addr, premium)
	opt, _ := env.market.Option(addr)

	_, err := env.chain.Transact(context.Background(), chain.Msg{From: env.buyer, To: addr}, opt.BuyOption)
	require.ErrorIs(t, err, option.ErrNotBroker)
	require.ErrorIs(t, err, option.ErrUnauthorized)

	_, err = env.chain.Transact(context.Background(), chain.Msg{From: env.buyer, To: addr}, func(tx *chain.Tx) error {
		return opt.BuyOptionFor(tx, env.buyer)
	})
	require.ErrorIs(t, err, option.ErrNotBroker)

	listing, _ := env.market.GetListing(0)
	require.False(t, listing.Sold)
	require.Equal(t, option.StatusCreated, opt.Status())
}

func TestListingsAreOrdered(t *testing.T) {
	env := newTestEnv(t)
	first := env.list(t)
	second := env.list(t)
	require.NotEqual(t, first, second)

	listings := env.market.GetListings()
	require.Len(t, listings, 2)
	require.Equal(t, first, listings[0].ContractAddress)
	require.Equal(t, second, listings[1].ContractAddress)
	require.Equal(t, 1, listings[1].ID)

	// returned slice is a copy
	listings[0].Sold = true
	l, _ := env.market.GetListing(0)
	require.False(t, l.Sold)

	_, ok := env.market.GetListing(2)
	require.False(t, ok)
}

func TestSettlementOfListedOption(t *testing.T) {
	env := newTestEnv(t)
	addr := env.list(t)
	env.approve(t, addr, premium)
	require.NoError(t, env.buyCoveredCall(addr))
	opt, _ := env.market.Option(addr)

	env.clock.Advance(100 * 24 * time.Hour)
	env.feed.SetLatestPrice(lib.MustParseUnits("60", 18))

	_, err := env.chain.Transact(context.Background(), chain.Msg{From: env.buyer, To: addr, Value: strike}, opt.ExerciseOption)
	require.NoError(t, err)
	require.Equal(t, option.StatusSettled, opt.Status())
	require.Equal(t, big.NewInt(0), env.chain.BalanceOf(addr))

	listing, _ := env.market.ListingByAddress(addr)
	require.True(t, listing.Sold)
}

func TestCallMustTargetMarketplace(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.chain.Transact(context.Background(), chain.Msg{From: env.seller, To: lib.GetRandomAddr(), Value: collateral}, func(tx *chain.Tx) error {
		_, err := env.market.ListCoveredCall(tx, env.feed, strike, expiration, premium)
		return err
	})
	require.ErrorIs(t, err, ErrWrongTarget)
}
