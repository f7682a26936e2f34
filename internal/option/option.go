package option

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/chain"
	"github.com/Lumerin-protocol/covered-call/internal/interfaces"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/Lumerin-protocol/covered-call/internal/oracle"
	"github.com/ethereum/go-ethereum/common"
)

const (
	EventCreated          = "OptionCreated"
	EventPurchased        = "OptionPurchased"
	EventExercised        = "OptionExercised"
	EventExpiredWorthless = "OptionExpiredWorthless"
	EventAutoExercised    = "OptionAutoExercised"
)

// PaymentToken is the part of the stable token the option needs to collect the premium
type PaymentToken interface {
	Address() common.Address
	TransferFrom(tx *chain.Tx, from, to common.Address, amount *big.Int) error
}

type Params struct {
	Oracle      oracle.PriceOracle
	Token       PaymentToken // nil means the premium is paid in the native asset
	StrikePrice *big.Int
	Expiration  time.Time
	Premium     *big.Int

	// ExercisePayment is the native amount the buyer attaches to exercise, defaults to StrikePrice
	ExercisePayment *big.Int
}

// Option is a covered call on the native asset. The collateral is escrowed at construction
// and released exactly once by one of the settlement paths.
type Option struct {
	// immutable
	addr            common.Address
	seller          common.Address
	broker          common.Address
	oracle          oracle.PriceOracle
	token           PaymentToken
	strikePrice     *big.Int
	expiration      time.Time
	premium         *big.Int
	exercisePayment *big.Int
	createdAt       time.Time

	state state

	log interfaces.ILogger
}

// state is everything that changes after construction, it is replaced as a whole so that
// a revert can restore the previous value
type state struct {
	buyer      common.Address
	status     Status
	collateral *big.Int
	soldAt     time.Time
	settlement *Settlement
}

// Deploy creates an option owned by seller, collateral is taken from the seller's native balance
func Deploy(ctx context.Context, c *chain.Chain, seller common.Address, collateral *big.Int, params Params, log interfaces.ILogger) (*Option, *chain.Receipt, error) {
	var opt *Option
	_, receipt, err := c.Deploy(ctx, seller, collateral, func(tx *chain.Tx) (interface{}, error) {
		o, err := construct(tx, tx.Sender(), common.Address{}, params, log)
		if err != nil {
			return nil, err
		}
		opt = o
		return o, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return opt, receipt, nil
}

// Create deploys an option from within a broker contract frame. The value attached to the
// broker frame becomes the collateral and only the broker can sell the option.
func Create(tx *chain.Tx, seller common.Address, params Params, log interfaces.ILogger) (*Option, error) {
	var opt *Option
	_, err := tx.Create(tx.Value(), func(sub *chain.Tx) (interface{}, error) {
		o, err := construct(sub, seller, sub.Sender(), params, log)
		if err != nil {
			return nil, err
		}
		opt = o
		return o, nil
	})
	if err != nil {
		return nil, err
	}
	return opt, nil
}

func construct(tx *chain.Tx, seller, broker common.Address, p Params, log interfaces.ILogger) (*Option, error) {
	collateral := tx.Value()
	premium := new(big.Int)
	if p.Premium != nil {
		premium.Set(p.Premium)
	}

	switch {
	case collateral.Sign() <= 0:
		return nil, lib.WrapError(ErrInvalidParameters, fmt.Errorf("collateral must be positive"))
	case p.Oracle == nil:
		return nil, lib.WrapError(ErrInvalidParameters, fmt.Errorf("price oracle is required"))
	case p.StrikePrice == nil || p.StrikePrice.Sign() <= 0:
		return nil, lib.WrapError(ErrInvalidParameters, fmt.Errorf("strike price must be positive"))
	case !p.Expiration.After(tx.Now()):
		return nil, lib.WrapError(ErrInvalidParameters, fmt.Errorf("expiration %s is not in the future", p.Expiration.Format(time.RFC3339)))
	case premium.Sign() < 0:
		return nil, lib.WrapError(ErrInvalidParameters, fmt.Errorf("premium must not be negative"))
	case p.Token != nil && premium.Sign() == 0:
		return nil, lib.WrapError(ErrInvalidParameters, fmt.Errorf("premium must be positive"))
	case p.ExercisePayment != nil && p.ExercisePayment.Sign() <= 0:
		return nil, lib.WrapError(ErrInvalidParameters, fmt.Errorf("exercise payment must be positive"))
	}

	exercisePayment := new(big.Int).Set(p.StrikePrice)
	if p.ExercisePayment != nil {
		exercisePayment.Set(p.ExercisePayment)
	}

	o := &Option{
		addr:            tx.Self(),
		seller:          seller,
		broker:          broker,
		oracle:          p.Oracle,
		token:           p.Token,
		strikePrice:     new(big.Int).Set(p.StrikePrice),
		expiration:      p.Expiration,
		premium:         premium,
		exercisePayment: exercisePayment,
		createdAt:       tx.Now(),
		state: state{
			status:     StatusCreated,
			collateral: collateral,
		},
		log: log.Named("OPTION " + lib.AddrShort(tx.Self().Hex())),
	}

	tx.Emit(EventCreated, map[string]string{
		"seller":     seller.Hex(),
		"collateral": collateral.String(),
		"strike":     o.strikePrice.String(),
		"premium":    premium.String(),
		"expiration": fmt.Sprint(p.Expiration.Unix()),
	})
	o.log.Infof("created by %s, collateral %s, strike %s, expires %s", seller.Hex(), collateral, o.strikePrice, p.Expiration.Format(time.RFC3339))

	return o, nil
}

func (o *Option) ID() string {
	return o.addr.Hex()
}

func (o *Option) Address() common.Address {
	return o.addr
}

func (o *Option) Seller() common.Address {
	return o.seller
}

// Buyer returns zero address until the option is sold
func (o *Option) Buyer() common.Address {
	return o.state.buyer
}

// Broker is the marketplace the option was listed on, zero address for directly created options
func (o *Option) Broker() common.Address {
	return o.broker
}

func (o *Option) StrikePrice() *big.Int {
	return new(big.Int).Set(o.strikePrice)
}

func (o *Option) ExercisePayment() *big.Int {
	return new(big.Int).Set(o.exercisePayment)
}

func (o *Option) Expiration() time.Time {
	return o.expiration
}

func (o *Option) Premium() *big.Int {
	return new(big.Int).Set(o.premium)
}

func (o *Option) PriceOracle() oracle.PriceOracle {
	return o.oracle
}

// PaymentToken returns the premium token address, zero for the native variant
func (o *Option) PaymentToken() common.Address {
	if o.token == nil {
		return common.Address{}
	}
	return o.token.Address()
}

func (o *Option) Collateral() *big.Int {
	return new(big.Int).Set(o.state.collateral)
}

func (o *Option) Status() Status {
	return o.state.status
}

func (o *Option) Settlement() *Settlement {
	return o.state.settlement.Copy()
}

func (o *Option) IsExpired(now time.Time) bool {
	return !now.Before(o.expiration)
}

func (o *Option) Moneyness(price *big.Int) Moneyness {
	return GetMoneyness(price, o.strikePrice)
}

type Snapshot struct {
	Address         common.Address
	Seller          common.Address
	Buyer           common.Address
	Broker          common.Address
	PaymentToken    common.Address
	StrikePrice     *big.Int
	ExercisePayment *big.Int
	Premium         *big.Int
	Collateral      *big.Int
	Expiration      time.Time
	CreatedAt       time.Time
	SoldAt          time.Time
	Status          Status
	Settlement      *Settlement
}

// Snapshot copies the whole option, callers outside a transaction should take it under chain.View
func (o *Option) Snapshot() Snapshot {
	return Snapshot{
		Address:         o.addr,
		Seller:          o.seller,
		Buyer:           o.state.buyer,
		Broker:          o.broker,
		PaymentToken:    o.PaymentToken(),
		StrikePrice:     o.StrikePrice(),
		ExercisePayment: o.ExercisePayment(),
		Premium:         o.Premium(),
		Collateral:      o.Collateral(),
		Expiration:      o.expiration,
		CreatedAt:       o.createdAt,
		SoldAt:          o.state.soldAt,
		Status:          o.state.status,
		Settlement:      o.Settlement(),
	}
}

func (o *Option) commit(tx *chain.Tx, next state) {
	prev := o.state
	tx.Journal(func() { o.state = prev })
	o.state = next
}

func (o *Option) checkTarget(tx *chain.Tx) error {
	if tx.Self() != o.addr {
		return lib.WrapError(ErrWrongTarget, fmt.Errorf("expected %s, got %s", o.addr.Hex(), tx.Self().Hex()))
	}
	return nil
}

func (o *Option) latestPrice(tx *chain.Tx) (*big.Int, error) {
	price, err := o.oracle.LatestPrice(tx.Context())
	if err != nil {
		return nil, lib.WrapError(ErrOracle, err)
	}
	return price, nil
}
