package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

type counter struct {
	value int
}

func newTestChain(maxEvents int) *Chain {
	return NewChain(NewManualClock(time.Unix(1_700_000_000, 0)), maxEvents, lib.NewTestLogger())
}

func TestTransactMovesValue(t *testing.T) {
	c := newTestChain(0)
	alice, bob := lib.GetRandomAddr(), lib.GetRandomAddr()
	c.Fund(alice, big.NewInt(100))

	receipt, err := c.Transact(context.Background(), Msg{From: alice, To: bob, Value: big.NewInt(40)}, func(tx *Tx) error {
		require.Equal(t, alice, tx.Sender())
		require.Equal(t, bob, tx.Self())
		require.Equal(t, big.NewInt(40), tx.Value())
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), receipt.Block)
	require.Equal(t, big.NewInt(60), c.BalanceOf(alice))
	require.Equal(t, big.NewInt(40), c.BalanceOf(bob))
	require.Equal(t, uint64(1), c.Nonce(alice))
}

func TestTransactInsufficientBalance(t *testing.T) {
	c := newTestChain(0)
	alice, bob := lib.GetRandomAddr(), lib.GetRandomAddr()
	c.Fund(alice, big.NewInt(10))

	_, err := c.Transact(context.Background(), Msg{From: alice, To: bob, Value: big.NewInt(11)}, func(tx *Tx) error {
		t.Fatal("body should not run")
		return nil
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, big.NewInt(10), c.BalanceOf(alice))
	require.Equal(t, uint64(0), c.Nonce(alice))
}

func TestTransactRevertsEverything(t *testing.T) {
	c := newTestChain(0)
	alice, bob, carol := lib.GetRandomAddr(), lib.GetRandomAddr(), lib.GetRandomAddr()
	c.Fund(alice, big.NewInt(100))
	state := &counter{}
	errBoom := errors.New("boom")

	_, err := c.Transact(context.Background(), Msg{From: alice, To: bob, Value: big.NewInt(50)}, func(tx *Tx) error {
		prev := state.value
		tx.Journal(func() { state.value = prev })
		state.value = 7

		tx.Emit("Touched", nil)
		require.NoError(t, tx.Send(carol, big.NewInt(20)))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	require.Equal(t, 0, state.value)
	require.Equal(t, big.NewInt(100), c.BalanceOf(alice))
	require.Equal(t, big.NewInt(0), c.BalanceOf(bob))
	require.Equal(t, big.NewInt(0), c.BalanceOf(carol))
	require.Empty(t, c.Events(0))
	require.Equal(t, uint64(0), c.BlockNumber())
}

func TestNestedFrameRevertKeepsParent(t *testing.T) {
	c := newTestChain(0)
	alice, bob, carol := lib.GetRandomAddr(), lib.GetRandomAddr(), lib.GetRandomAddr()
	c.Fund(alice, big.NewInt(100))
	errNested := errors.New("nested")

	receipt, err := c.Transact(context.Background(), Msg{From: alice, To: bob, Value: big.NewInt(50)}, func(tx *Tx) error {
		tx.Emit("Outer", nil)
		err := tx.Call(carol, big.NewInt(30), func(sub *Tx) error {
			require.Equal(t, bob, sub.Sender())
			require.Equal(t, carol, sub.Self())
			sub.Emit("Inner", nil)
			return errNested
		})
		require.ErrorIs(t, err, errNested)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, receipt.Events, 1)
	require.Equal(t, "Outer", receipt.Events[0].Name)
	require.Equal(t, big.NewInt(50), c.BalanceOf(bob))
	require.Equal(t, big.NewInt(0), c.BalanceOf(carol))
}

func TestDeployDerivesAddress(t *testing.T) {
	c := newTestChain(0)
	alice := lib.GetRandomAddr()
	c.Fund(alice, big.NewInt(5))

	addr, _, err := c.Deploy(context.Background(), alice, big.NewInt(5), func(tx *Tx) (interface{}, error) {
		return &counter{value: 1}, nil
	})
	require.NoError(t, err)
	require.Equal(t, crypto.CreateAddress(alice, 0), addr)
	require.Equal(t, big.NewInt(5), c.BalanceOf(addr))

	contract, ok := c.ContractAt(addr)
	require.True(t, ok)
	require.Equal(t, 1, contract.(*counter).value)

	addr2, _, err := c.Deploy(context.Background(), alice, nil, func(tx *Tx) (interface{}, error) {
		return &counter{}, nil
	})
	require.NoError(t, err)
	require.Equal(t, crypto.CreateAddress(alice, 1), addr2)
}

func TestCreateFromContractIsReverted(t *testing.T) {
	c := newTestChain(0)
	alice := lib.GetRandomAddr()
	factory := lib.GetRandomAddr()
	var created common.Address

	_, err := c.Transact(context.Background(), Msg{From: alice, To: factory}, func(tx *Tx) error {
		addr, err := tx.Create(nil, func(tx *Tx) (interface{}, error) {
			return &counter{}, nil
		})
		require.NoError(t, err)
		created = addr
		return errors.New("abort")
	})
	require.Error(t, err)

	_, ok := c.ContractAt(created)
	require.False(t, ok)
	require.Equal(t, uint64(0), c.Nonce(factory))
}

func TestSendRunsReceiveHook(t *testing.T) {
	c := newTestChain(0)
	alice, bob, carol := lib.GetRandomAddr(), lib.GetRandomAddr(), lib.GetRandomAddr()
	c.Fund(bob, big.NewInt(10))

	var received *big.Int
	c.SetReceiveHook(carol, func(tx *Tx, from common.Address, amount *big.Int) error {
		require.Equal(t, bob, from)
		received = amount
		return nil
	})

	_, err := c.Transact(context.Background(), Msg{From: alice, To: bob}, func(tx *Tx) error {
		return tx.Send(carol, big.NewInt(10))
	})
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10), received)
	require.Equal(t, big.NewInt(10), c.BalanceOf(carol))
}

func TestSendRejectedByHook(t *testing.T) {
	c := newTestChain(0)
	alice, bob, carol := lib.GetRandomAddr(), lib.GetRandomAddr(), lib.GetRandomAddr()
	c.Fund(bob, big.NewInt(10))
	c.SetReceiveHook(carol, func(tx *Tx, from common.Address, amount *big.Int) error {
		return errors.New("no thanks")
	})

	_, err := c.Transact(context.Background(), Msg{From: alice, To: bob}, func(tx *Tx) error {
		return tx.Send(carol, big.NewInt(10))
	})
	require.ErrorIs(t, err, ErrTransferFailed)
	require.Equal(t, big.NewInt(10), c.BalanceOf(bob))
	require.Equal(t, big.NewInt(0), c.BalanceOf(carol))
}

func TestCallDepthLimit(t *testing.T) {
	c := newTestChain(0)
	alice, bob := lib.GetRandomAddr(), lib.GetRandomAddr()

	var recurse func(tx *Tx) error
	recurse = func(tx *Tx) error {
		return tx.Call(bob, nil, recurse)
	}

	_, err := c.Transact(context.Background(), Msg{From: alice, To: bob}, recurse)
	require.ErrorIs(t, err, ErrCallDepth)
}

func TestEventsBounded(t *testing.T) {
	c := newTestChain(3)
	alice, bob := lib.GetRandomAddr(), lib.GetRandomAddr()

	for i := 0; i < 5; i++ {
		_, err := c.Transact(context.Background(), Msg{From: alice, To: bob}, func(tx *Tx) error {
			tx.Emit("Tick", nil)
			return nil
		})
		require.NoError(t, err)
	}

	events := c.Events(0)
	require.Len(t, events, 3)
	require.Equal(t, uint64(3), events[0].Block)
	require.Equal(t, uint64(5), events[2].Block)

	require.Len(t, c.Events(2), 2)
}

func TestTransactCancelledContext(t *testing.T) {
	c := newTestChain(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Transact(ctx, Msg{From: lib.GetRandomAddr()}, func(tx *Tx) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestManualClock(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	clock := NewManualClock(start)
	require.Equal(t, start.Add(time.Hour), clock.Advance(time.Hour))
	require.Equal(t, start.Add(time.Hour), clock.Now())
}
