package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Tx is the execution context of one call frame. Contracts receive it as their first
// argument and use it to learn the caller, the attached value and the block time, and to
// move native value or call other contracts.
type Tx struct {
	chain  *Chain
	ctx    context.Context
	msg    Msg
	hash   common.Hash
	now    time.Time
	events *[]Event
	depth  int
}

func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// Sender is the immediate caller of the current frame
func (tx *Tx) Sender() common.Address {
	return tx.msg.From
}

// Self is the address of the contract executing the current frame
func (tx *Tx) Self() common.Address {
	return tx.msg.To
}

// Value is the native amount attached to the current frame
func (tx *Tx) Value() *big.Int {
	if tx.msg.Value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(tx.msg.Value)
}

func (tx *Tx) Now() time.Time {
	return tx.now
}

func (tx *Tx) Hash() common.Hash {
	return tx.hash
}

func (tx *Tx) BalanceOf(addr common.Address) *big.Int {
	return tx.chain.balanceOf(addr)
}

// Contract returns the contract registered at addr
func (tx *Tx) Contract(addr common.Address) (interface{}, bool) {
	c, ok := tx.chain.contracts[addr]
	return c, ok
}

// Journal registers undo to be run if the transaction reverts past this point
func (tx *Tx) Journal(undo func()) {
	tx.chain.record(undo)
}

// Emit appends an event attributed to the executing contract, dropped on revert
func (tx *Tx) Emit(name string, data map[string]string) {
	*tx.events = append(*tx.events, Event{
		TxHash:   tx.hash,
		Contract: tx.Self(),
		Name:     name,
		Data:     data,
		Time:     tx.now,
	})
}

// Call runs fn as a nested frame where the executing contract is the sender, value is moved
// from it to the callee first. Changes of a failed frame are reverted and the error is returned.
func (tx *Tx) Call(to common.Address, value *big.Int, fn func(tx *Tx) error) error {
	return tx.frame(Msg{From: tx.Self(), To: to, Value: value}, fn)
}

// Send transfers native value from the executing contract to the recipient. If the recipient
// has a receive hook it runs in a nested frame and can reject the transfer.
func (tx *Tx) Send(to common.Address, amount *big.Int) error {
	err := tx.frame(Msg{From: tx.Self(), To: to, Value: amount}, func(sub *Tx) error {
		hook, ok := tx.chain.hooks[to]
		if !ok {
			return nil
		}
		return hook(sub, sub.Sender(), sub.Value())
	})
	if err != nil {
		return lib.WrapError(ErrTransferFailed, err)
	}
	return nil
}

// Create deploys a contract from the executing contract, the address is derived from the
// contract address and its nonce
func (tx *Tx) Create(value *big.Int, ctor func(tx *Tx) (interface{}, error)) (common.Address, error) {
	c := tx.chain
	self := tx.Self()
	nonce := c.nonces[self]
	addr := crypto.CreateAddress(self, nonce)

	c.record(func() { c.nonces[self] = nonce })
	c.nonces[self] = nonce + 1

	err := tx.frame(Msg{From: self, To: addr, Value: value}, func(sub *Tx) error {
		return sub.register(ctor)
	})
	if err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

func (tx *Tx) register(ctor func(tx *Tx) (interface{}, error)) error {
	c := tx.chain
	addr := tx.Self()
	if _, ok := c.contracts[addr]; ok {
		return lib.WrapError(ErrContractExists, fmt.Errorf("%s", addr.Hex()))
	}

	contract, err := ctor(tx)
	if err != nil {
		return err
	}

	c.record(func() { delete(c.contracts, addr) })
	c.contracts[addr] = contract
	return nil
}

func (tx *Tx) frame(msg Msg, fn func(tx *Tx) error) error {
	if tx.depth+1 >= MaxCallDepth {
		return ErrCallDepth
	}
	if err := tx.ctx.Err(); err != nil {
		return err
	}

	c := tx.chain
	snapshot := len(c.journal)
	eventsLen := len(*tx.events)

	sub := &Tx{
		chain:  c,
		ctx:    tx.ctx,
		msg:    msg,
		hash:   tx.hash,
		now:    tx.now,
		events: tx.events,
		depth:  tx.depth + 1,
	}

	err := c.move(msg.From, msg.To, msg.Value)
	if err == nil {
		err = fn(sub)
	}
	if err != nil {
		c.revertTo(snapshot)
		*tx.events = (*tx.events)[:eventsLen]
		return err
	}
	return nil
}
