package chain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/interfaces"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gammazero/deque"
	"go.uber.org/atomic"
)

const (
	MaxCallDepth     = 64
	DefaultMaxEvents = 10_000
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrCallDepth           = errors.New("max call depth exceeded")
	ErrNegativeValue       = errors.New("negative value")
	ErrContractExists      = errors.New("contract already exists")
)

// ReceiveHook runs inside the transaction when native value is sent to the address.
// Returning an error rejects the transfer.
type ReceiveHook func(tx *Tx, from common.Address, amount *big.Int) error

type Msg struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

type Event struct {
	Block    uint64
	TxHash   common.Hash
	Contract common.Address
	Name     string
	Data     map[string]string
	Time     time.Time
}

type Receipt struct {
	TxHash common.Hash
	Block  uint64
	Time   time.Time
	Events []Event
}

// Chain is the host ledger: it holds native balances and contract instances and executes
// calls one at a time. Every call either commits completely or leaves no trace.
type Chain struct {
	// config
	maxEvents int

	// state
	balances  map[common.Address]*big.Int
	nonces    map[common.Address]uint64
	contracts map[common.Address]interface{}
	hooks     map[common.Address]ReceiveHook
	journal   []func()
	events    *deque.Deque[Event]
	block     *atomic.Uint64
	mutex     sync.RWMutex

	// deps
	clock Clock
	log   interfaces.ILogger
}

func NewChain(clock Clock, maxEvents int, log interfaces.ILogger) *Chain {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &Chain{
		maxEvents: maxEvents,
		balances:  make(map[common.Address]*big.Int),
		nonces:    make(map[common.Address]uint64),
		contracts: make(map[common.Address]interface{}),
		hooks:     make(map[common.Address]ReceiveHook),
		events:    deque.New[Event](),
		block:     atomic.NewUint64(0),
		clock:     clock,
		log:       log,
	}
}

// Transact executes fn as a single atomic call from msg.From to msg.To carrying msg.Value
func (c *Chain) Transact(ctx context.Context, msg Msg, fn func(tx *Tx) error) (*Receipt, error) {
	return c.execute(ctx, msg, false, fn)
}

// Deploy creates a contract at the address derived from the sender and its nonce, ctor
// returns the contract instance that gets registered at that address
func (c *Chain) Deploy(ctx context.Context, from common.Address, value *big.Int, ctor func(tx *Tx) (interface{}, error)) (common.Address, *Receipt, error) {
	var deployed common.Address
	receipt, err := c.execute(ctx, Msg{From: from, Value: value}, true, func(tx *Tx) error {
		deployed = tx.Self()
		return tx.register(ctor)
	})
	if err != nil {
		return common.Address{}, nil, err
	}
	return deployed, receipt, nil
}

func (c *Chain) execute(ctx context.Context, msg Msg, create bool, fn func(tx *Tx) error) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	nonce := c.nonces[msg.From]
	if create {
		msg.To = crypto.CreateAddress(msg.From, nonce)
	}
	nonceBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBytes, nonce)

	events := make([]Event, 0)
	tx := &Tx{
		chain:  c,
		ctx:    ctx,
		hash:   crypto.Keccak256Hash(msg.From.Bytes(), nonceBytes),
		now:    c.clock.Now(),
		events: &events,
		depth:  -1,
	}

	c.journal = c.journal[:0]
	err := tx.frame(msg, fn)
	c.journal = c.journal[:0]
	if err != nil {
		c.log.Debugf("tx %s from %s reverted: %s", tx.hash.Hex(), lib.AddrShort(msg.From.Hex()), err)
		return nil, err
	}

	c.nonces[msg.From] = nonce + 1
	block := c.block.Inc()

	for i := range events {
		events[i].Block = block
		c.pushEvent(events[i])
	}

	return &Receipt{
		TxHash: tx.hash,
		Block:  block,
		Time:   tx.now,
		Events: events,
	}, nil
}

func (c *Chain) pushEvent(e Event) {
	if c.events.Len() >= c.maxEvents {
		c.events.PopFront()
	}
	c.events.PushBack(e)
}

func (c *Chain) record(undo func()) {
	c.journal = append(c.journal, undo)
}

func (c *Chain) revertTo(snapshot int) {
	for i := len(c.journal) - 1; i >= snapshot; i-- {
		c.journal[i]()
	}
	c.journal = c.journal[:snapshot]
}

func (c *Chain) balanceOf(addr common.Address) *big.Int {
	b, ok := c.balances[addr]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(b)
}

func (c *Chain) setBalance(addr common.Address, value *big.Int) {
	prev, existed := c.balances[addr]
	c.record(func() {
		if existed {
			c.balances[addr] = prev
		} else {
			delete(c.balances, addr)
		}
	})
	c.balances[addr] = value
}

func (c *Chain) move(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrNegativeValue
	}
	fromBalance := c.balanceOf(from)
	if fromBalance.Cmp(amount) < 0 {
		return lib.WrapError(ErrInsufficientBalance, fmt.Errorf("%s has %s, needs %s", from.Hex(), fromBalance, amount))
	}
	c.setBalance(from, fromBalance.Sub(fromBalance, amount))
	c.setBalance(to, c.balanceOf(to).Add(c.balanceOf(to), amount))
	return nil
}

// Fund credits native balance outside of any transaction, used as a faucet by the dev node and tests
func (c *Chain) Fund(addr common.Address, amount *big.Int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.balances[addr] = c.balanceOf(addr).Add(c.balanceOf(addr), amount)
}

// SetReceiveHook installs a hook invoked on every native transfer to addr, nil removes it
func (c *Chain) SetReceiveHook(addr common.Address, hook ReceiveHook) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if hook == nil {
		delete(c.hooks, addr)
		return
	}
	c.hooks[addr] = hook
}

func (c *Chain) BalanceOf(addr common.Address) *big.Int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.balanceOf(addr)
}

func (c *Chain) Nonce(addr common.Address) uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.nonces[addr]
}

// ContractAt returns the contract registered at addr
func (c *Chain) ContractAt(addr common.Address) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	contract, ok := c.contracts[addr]
	return contract, ok
}

// View runs fn holding the read lock, so that several reads observe the same state.
// fn must not call other Chain methods.
func (c *Chain) View(fn func()) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	fn()
}

func (c *Chain) Now() time.Time {
	return c.clock.Now()
}

func (c *Chain) Clock() Clock {
	return c.clock
}

func (c *Chain) BlockNumber() uint64 {
	return c.block.Load()
}

// Events returns up to limit latest events, oldest first. Zero limit returns all retained events.
func (c *Chain) Events(limit int) []Event {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	n := c.events.Len()
	start := 0
	if limit > 0 && n > limit {
		start = n - limit
	}

	res := make([]Event, 0, n-start)
	for i := start; i < n; i++ {
		res = append(res, c.events.At(i))
	}
	return res
}
