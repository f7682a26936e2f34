package token

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/interfaces"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrZeroAddress           = errors.New("token: zero address")
	ErrNotMinter             = errors.New("token: caller is not the minter")
	ErrInvalidAmount         = errors.New("token: invalid amount")
	ErrWrongTarget           = errors.New("token: call is not addressed to this token")
)

const (
	EventTransfer = "Transfer"
	EventApproval = "Approval"
)

// ERC20 is an in-memory stable token living on the host ledger, a stand-in for USDC
type ERC20 struct {
	// config
	addr     common.Address
	minter   common.Address
	name     string
	symbol   string
	decimals uint8

	// state
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
	totalSupply *big.Int

	log interfaces.ILogger
}

// Deploy creates the token on the ledger, the deployer becomes the only minter
func Deploy(ctx context.Context, c *chain.Chain, from common.Address, name, symbol string, decimals uint8, log interfaces.ILogger) (*ERC20, error) {
	var t *ERC20
	addr, _, err := c.Deploy(ctx, from, nil, func(tx *chain.Tx) (interface{}, error) {
		t = &ERC20{
			addr:        tx.Self(),
			minter:      tx.Sender(),
			name:        name,
			symbol:      symbol,
			decimals:    decimals,
			balances:    make(map[common.Address]*big.Int),
			allowances:  make(map[common.Address]map[common.Address]*big.Int),
			totalSupply: new(big.Int),
			log:         log,
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	log.Infof("token %s deployed at %s, decimals %d", symbol, addr.Hex(), decimals)
	return t, nil
}

func (t *ERC20) Address() common.Address { return t.addr }
func (t *ERC20) Name() string            { return t.name }
func (t *ERC20) Symbol() string          { return t.symbol }
func (t *ERC20) Decimals() uint8         { return t.decimals }

func (t *ERC20) TotalSupply() *big.Int {
	return new(big.Int).Set(t.totalSupply)
}

func (t *ERC20) BalanceOf(account common.Address) *big.Int {
	b, ok := t.balances[account]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(b)
}

func (t *ERC20) Allowance(owner, spender common.Address) *big.Int {
	a, ok := t.allowances[owner][spender]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(a)
}

func (t *ERC20) Mint(tx *chain.Tx, to common.Address, amount *big.Int) error {
	if err := t.checkTarget(tx); err != nil {
		return err
	}
	if tx.Sender() != t.minter {
		return ErrNotMinter
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return lib.WrapError(ErrInvalidAmount, fmt.Errorf("mint amount %v", amount))
	}

	t.setTotalSupply(tx, new(big.Int).Add(t.totalSupply, amount))
	t.setBalance(tx, to, new(big.Int).Add(t.BalanceOf(to), amount))

	tx.Emit(EventTransfer, map[string]string{
		"from":   common.Address{}.Hex(),
		"to":     to.Hex(),
		"amount": amount.String(),
	})
	return nil
}

func (t *ERC20) Transfer(tx *chain.Tx, to common.Address, amount *big.Int) error {
	if err := t.checkTarget(tx); err != nil {
		return err
	}
	return t.transfer(tx, tx.Sender(), to, amount)
}

func (t *ERC20) Approve(tx *chain.Tx, spender common.Address, amount *big.Int) error {
	if err := t.checkTarget(tx); err != nil {
		return err
	}
	if spender == (common.Address{}) {
		return ErrZeroAddress
	}

	t.setAllowance(tx, tx.Sender(), spender, new(big.Int).Set(amount))

	tx.Emit(EventApproval, map[string]string{
		"owner":   tx.Sender().Hex(),
		"spender": spender.Hex(),
		"amount":  amount.String(),
	})
	return nil
}

// TransferFrom moves amount from the owner using the allowance granted to the caller
func (t *ERC20) TransferFrom(tx *chain.Tx, from, to common.Address, amount *big.Int) error {
	if err := t.checkTarget(tx); err != nil {
		return err
	}

	spender := tx.Sender()
	allowance := t.Allowance(from, spender)
	if allowance.Cmp(amount) < 0 {
		return lib.WrapError(ErrInsufficientAllowance, fmt.Errorf("spender %s allowed %s, needs %s", spender.Hex(), allowance, amount))
	}

	if err := t.transfer(tx, from, to, amount); err != nil {
		return err
	}

	t.setAllowance(tx, from, spender, allowance.Sub(allowance, amount))
	return nil
}

func (t *ERC20) transfer(tx *chain.Tx, from, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.Sign() < 0 {
		return lib.WrapError(ErrInsufficientBalance, fmt.Errorf("negative amount %s", amount))
	}

	fromBalance := t.BalanceOf(from)
	if fromBalance.Cmp(amount) < 0 {
		return lib.WrapError(ErrInsufficientBalance, fmt.Errorf("%s has %s, needs %s", from.Hex(), fromBalance, amount))
	}

	t.setBalance(tx, from, fromBalance.Sub(fromBalance, amount))
	t.setBalance(tx, to, new(big.Int).Add(t.BalanceOf(to), amount))

	tx.Emit(EventTransfer, map[string]string{
		"from":   from.Hex(),
		"to":     to.Hex(),
		"amount": amount.String(),
	})
	return nil
}

func (t *ERC20) checkTarget(tx *chain.Tx) error {
	if tx.Self() != t.addr {
		return lib.WrapError(ErrWrongTarget, fmt.Errorf("expected %s, got %s", t.addr.Hex(), tx.Self().Hex()))
	}
	return nil
}

func (t *ERC20) setBalance(tx *chain.Tx, account common.Address, value *big.Int) {
	prev, existed := t.balances[account]
	tx.Journal(func() {
		if existed {
			t.balances[account] = prev
		} else {
			delete(t.balances, account)
		}
	})
	t.balances[account] = value
}

func (t *ERC20) setAllowance(tx *chain.Tx, owner, spender common.Address, value *big.Int) {
	spenders, ok := t.allowances[owner]
	if !ok {
		spenders = make(map[common.Address]*big.Int)
		t.allowances[owner] = spenders
	}
	prev, existed := spenders[spender]
	tx.Journal(func() {
		if existed {
			spenders[spender] = prev
		} else {
			delete(spenders, spender)
		}
	})
	spenders[spender] = value
}

func (t *ERC20) setTotalSupply(tx *chain.Tx, value *big.Int) {
	prev := t.totalSupply
	tx.Journal(func() { t.totalSupply = prev })
	t.totalSupply = value
}
