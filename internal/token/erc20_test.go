package token

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	amountToMint   = lib.MustParseUnits("1000", 6)
	transferAmount = lib.MustParseUnits("100", 6)
)

func setup(t *testing.T) (*chain.Chain, *ERC20, common.Address) {
	log := lib.NewTestLogger()
	c := chain.NewChain(chain.NewManualClock(time.Unix(1_700_000_000, 0)), 0, log)
	owner := lib.GetRandomAddr()

	usdc, err := Deploy(context.Background(), c, owner, "USD Coin", "USDC", 6, log)
	require.NoError(t, err)
	return c, usdc, owner
}

func call(c *chain.Chain, usdc *ERC20, from common.Address, fn func(tx *chain.Tx) error) error {
	_, err := c.Transact(context.Background(), chain.Msg{From: from, To: usdc.Address()}, fn)
	return err
}

func TestMintToNewAccount(t *testing.T) {
	c, usdc, owner := setup(t)
	newAccount := lib.GetRandomAddr()

	err := call(c, usdc, owner, func(tx *chain.Tx) error {
		return usdc.Mint(tx, newAccount, amountToMint)
	})
	require.NoError(t, err)
	require.Equal(t, amountToMint, usdc.BalanceOf(newAccount))
	require.Equal(t, amountToMint, usdc.TotalSupply())
}

func TestMintOnlyMinter(t *testing.T) {
	c, usdc, _ := setup(t)
	stranger := lib.GetRandomAddr()

	err := call(c, usdc, stranger, func(tx *chain.Tx) error {
		return usdc.Mint(tx, stranger, amountToMint)
	})
	require.ErrorIs(t, err, ErrNotMinter)
	require.Equal(t, big.NewInt(0), usdc.TotalSupply())
}

func TestMintRejectsInvalidAmount(t *testing.T) {
	c, usdc, owner := setup(t)
	holder := lib.GetRandomAddr()

	for _, amount := range []*big.Int{nil, big.NewInt(-1)} {
		err := call(c, usdc, owner, func(tx *chain.Tx) error {
			return usdc.Mint(tx, holder, amount)
		})
		require.ErrorIs(t, err, ErrInvalidAmount)
	}
	require.Equal(t, big.NewInt(0), usdc.TotalSupply())
	require.Equal(t, big.NewInt(0), usdc.BalanceOf(holder))
}

func TestApprovedSpenderTransfersFrom(t *testing.T) {
	c, usdc, owner := setup(t)
	holder, buyer := lib.GetRandomAddr(), lib.GetRandomAddr()

	require.NoError(t, call(c, usdc, owner, func(tx *chain.Tx) error {
		return usdc.Mint(tx, holder, amountToMint)
	}))
	require.NoError(t, call(c, usdc, holder, func(tx *chain.Tx) error {
		return usdc.Approve(tx, buyer, transferAmount)
	}))
	require.Equal(t, transferAmount, usdc.Allowance(holder, buyer))

	require.NoError(t, call(c, usdc, buyer, func(tx *chain.Tx) error {
		return usdc.TransferFrom(tx, holder, buyer, transferAmount)
	}))

	require.Equal(t, transferAmount, usdc.BalanceOf(buyer))
	require.Equal(t, new(big.Int).Sub(amountToMint, transferAmount), usdc.BalanceOf(holder))
	require.Equal(t, big.NewInt(0), usdc.Allowance(holder, buyer))
}

func TestTransferFromWithoutAllowance(t *testing.T) {
	c, usdc, owner := setup(t)
	holder, buyer := lib.GetRandomAddr(), lib.GetRandomAddr()

	require.NoError(t, call(c, usdc, owner, func(tx *chain.Tx) error {
		return usdc.Mint(tx, holder, amountToMint)
	}))

	err := call(c, usdc, buyer, func(tx *chain.Tx) error {
		return usdc.TransferFrom(tx, holder, buyer, transferAmount)
	})
	require.ErrorIs(t, err, ErrInsufficientAllowance)
	require.Equal(t, amountToMint, usdc.BalanceOf(holder))
}

func TestTransferFromInsufficientBalanceKeepsAllowance(t *testing.T) {
	c, usdc, _ := setup(t)
	holder, buyer := lib.GetRandomAddr(), lib.GetRandomAddr()

	require.NoError(t, call(c, usdc, holder, func(tx *chain.Tx) error {
		return usdc.Approve(tx, buyer, transferAmount)
	}))

	err := call(c, usdc, buyer, func(tx *chain.Tx) error {
		return usdc.TransferFrom(tx, holder, buyer, transferAmount)
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, transferAmount, usdc.Allowance(holder, buyer))
}

func TestTransferRevertedWithTransaction(t *testing.T) {
	c, usdc, owner := setup(t)
	holder := lib.GetRandomAddr()

	_, err := c.Transact(context.Background(), chain.Msg{From: owner, To: usdc.Address()}, func(tx *chain.Tx) error {
		if err := usdc.Mint(tx, holder, amountToMint); err != nil {
			return err
		}
		return usdc.Transfer(tx, lib.GetRandomAddr(), new(big.Int).Add(amountToMint, big.NewInt(1)))
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, big.NewInt(0), usdc.BalanceOf(holder))
	require.Equal(t, big.NewInt(0), usdc.TotalSupply())
}

func TestCallMustTargetToken(t *testing.T) {
	c, usdc, owner := setup(t)

	_, err := c.Transact(context.Background(), chain.Msg{From: owner, To: lib.GetRandomAddr()}, func(tx *chain.Tx) error {
		return usdc.Mint(tx, owner, amountToMint)
	})
	require.ErrorIs(t, err, ErrWrongTarget)
}
