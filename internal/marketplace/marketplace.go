package marketplace

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/interfaces"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/Lumerin-protocol/covered-call/internal/option"
	"github.com/Lumerin-protocol/covered-call/internal/oracle"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrWrongTarget     = errors.New("call is not addressed to the marketplace")
)

const (
	EventListed = "CoveredCallListed"
	EventBought = "CoveredCallBought"
)

type Listing struct {
	ID              int
	Seller          common.Address
	ContractAddress common.Address
	Sold            bool
}

// Marketplace lists covered calls paid in a single token and brokers their purchase. Only
// the marketplace can sell the options it created, so a listing is sold if and only if its
// option is.
type Marketplace struct {
	addr  common.Address
	token option.PaymentToken

	listings []Listing
	options  []*option.Option
	index    map[common.Address]int

	log interfaces.ILogger
}

func Deploy(ctx context.Context, c *chain.Chain, from common.Address, token option.PaymentToken, log interfaces.ILogger) (*Marketplace, error) {
	if token == nil {
		return nil, lib.WrapError(option.ErrInvalidParameters, fmt.Errorf("payment token is required"))
	}

	var m *Marketplace
	addr, _, err := c.Deploy(ctx, from, nil, func(tx *chain.Tx) (interface{}, error) {
		m = &Marketplace{
			addr:  tx.Self(),
			token: token,
			index: make(map[common.Address]int),
			log:   log,
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("marketplace deployed at %s, payment token %s", addr.Hex(), token.Address().Hex())
	return m, nil
}

func (m *Marketplace) Address() common.Address {
	return m.addr
}

func (m *Marketplace) Token() option.PaymentToken {
	return m.token
}

// ListCoveredCall creates an option sold by the caller, the attached value is the collateral
func (m *Marketplace) ListCoveredCall(tx *chain.Tx, priceOracle oracle.PriceOracle, strikePrice *big.Int, expiration time.Time, premium *big.Int) (common.Address, error) {
	if err := m.checkTarget(tx); err != nil {
		return common.Address{}, err
	}

	seller := tx.Sender()
	opt, err := option.Create(tx, seller, option.Params{
		Oracle:      priceOracle,
		Token:       m.token,
		StrikePrice: strikePrice,
		Expiration:  expiration,
		Premium:     premium,
	}, m.log)
	if err != nil {
		return common.Address{}, err
	}

	listing := Listing{
		ID:              len(m.listings),
		Seller:          seller,
		ContractAddress: opt.Address(),
	}

	prevLen := len(m.listings)
	tx.Journal(func() {
		m.listings = m.listings[:prevLen]
		m.options = m.options[:prevLen]
		delete(m.index, listing.ContractAddress)
	})
	m.listings = append(m.listings, listing)
	m.options = append(m.options, opt)
	m.index[listing.ContractAddress] = listing.ID

	tx.Emit(EventListed, map[string]string{
		"id":     fmt.Sprint(listing.ID),
		"seller": seller.Hex(),
		"option": listing.ContractAddress.Hex(),
	})
	m.log.Infof("listing %d: option %s by %s", listing.ID, lib.AddrShort(listing.ContractAddress.Hex()), lib.AddrShort(seller.Hex()))

	return listing.ContractAddress, nil
}

// BuyCoveredCall buys a listed option for the caller. The premium is pulled by the option
// itself, so the caller must have approved the option address for it.
func (m *Marketplace) BuyCoveredCall(tx *chain.Tx, optionAddr common.Address) error {
	if err := m.checkTarget(tx); err != nil {
		return err
	}

	id, ok := m.index[optionAddr]
	if !ok {
		return lib.WrapError(ErrListingNotFound, fmt.Errorf("%s", optionAddr.Hex()))
	}
	if m.listings[id].Sold {
		return option.ErrAlreadySold
	}

	buyer := tx.Sender()
	opt := m.options[id]
	err := tx.Call(optionAddr, tx.Value(), func(sub *chain.Tx) error {
		return opt.BuyOptionFor(sub, buyer)
	})
	if err != nil {
		return err
	}

	tx.Journal(func() { m.listings[id].Sold = false })
	m.listings[id].Sold = true

	tx.Emit(EventBought, map[string]string{
		"id":     fmt.Sprint(id),
		"buyer":  buyer.Hex(),
		"option": optionAddr.Hex(),
	})
	m.log.Infof("listing %d bought by %s", id, lib.AddrShort(buyer.Hex()))
	return nil
}

// GetListings returns all listings in creation order
func (m *Marketplace) GetListings() []Listing {
	res := make([]Listing, len(m.listings))
	copy(res, m.listings)
	return res
}

func (m *Marketplace) GetListing(id int) (Listing, bool) {
	if id < 0 || id >= len(m.listings) {
		return Listing{}, false
	}
	return m.listings[id], true
}

func (m *Marketplace) ListingByAddress(optionAddr common.Address) (Listing, bool) {
	id, ok := m.index[optionAddr]
	if !ok {
		return Listing{}, false
	}
	return m.listings[id], true
}

// Option returns the listed option at the address
func (m *Marketplace) Option(optionAddr common.Address) (*option.Option, bool) {
	id, ok := m.index[optionAddr]
	if !ok {
		return nil, false
	}
	return m.options[id], true
}

func (m *Marketplace) checkTarget(tx *chain.Tx) error {
	if tx.Self() != m.addr {
		return lib.WrapError(ErrWrongTarget, fmt.Errorf("expected %s, got %s", m.addr.Hex(), tx.Self().Hex()))
	}
	return nil
}
