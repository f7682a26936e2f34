package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/interfaces"
	"github.com/Lumerin-protocol/covered-call/internal/lib"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const aggregatorV3ABI = `[
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"latestRoundData","outputs":[
		{"internalType":"uint80","name":"roundId","type":"uint80"},
		{"internalType":"int256","name":"answer","type":"int256"},
		{"internalType":"uint256","name":"startedAt","type":"uint256"},
		{"internalType":"uint256","name":"updatedAt","type":"uint256"},
		{"internalType":"uint80","name":"answeredInRound","type":"uint80"}
	],"stateMutability":"view","type":"function"}
]`

// DefaultCallTimeout bounds every feed read, settlement calls wait for the price while holding the ledger
const DefaultCallTimeout = 5 * time.Second

// AggregatorV3 reads a Chainlink style price feed deployed on an ethereum node and
// rescales the answer to PriceDecimals
type AggregatorV3 struct {
	addr     common.Address
	contract *bind.BoundContract
	timeout  time.Duration

	decimals    uint8
	hasDecimals bool
	mutex       sync.Mutex

	log interfaces.ILogger
}

func DialAggregatorV3(ctx context.Context, nodeURL string, feedAddr common.Address, log interfaces.ILogger) (*AggregatorV3, error) {
	client, err := ethclient.DialContext(ctx, nodeURL)
	if err != nil {
		return nil, err
	}
	return NewAggregatorV3(feedAddr, client, log)
}

func NewAggregatorV3(feedAddr common.Address, caller bind.ContractCaller, log interfaces.ILogger) (*AggregatorV3, error) {
	parsed, err := abi.JSON(strings.NewReader(aggregatorV3ABI))
	if err != nil {
		return nil, err
	}
	return &AggregatorV3{
		addr:     feedAddr,
		contract: bind.NewBoundContract(feedAddr, parsed, caller, nil, nil),
		timeout:  DefaultCallTimeout,
		log:      log,
	}, nil
}

func (a *AggregatorV3) SetCallTimeout(timeout time.Duration) {
	a.timeout = timeout
}

func (a *AggregatorV3) LatestPrice(ctx context.Context) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	decimals, err := a.getDecimals(ctx)
	if err != nil {
		return nil, err
	}

	var out []interface{}
	err = a.contract.Call(&bind.CallOpts{Context: ctx}, &out, "latestRoundData")
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, lib.WrapError(ErrInvalidPrice, fmt.Errorf("unexpected latestRoundData output length %d", len(out)))
	}

	answer, ok := out[1].(*big.Int)
	if !ok {
		return nil, lib.WrapError(ErrInvalidPrice, fmt.Errorf("unexpected answer type %T", out[1]))
	}
	if answer.Sign() <= 0 {
		return nil, lib.WrapError(ErrInvalidPrice, fmt.Errorf("non-positive answer %s from %s", answer, a.addr.Hex()))
	}

	return ScalePrice(answer, decimals), nil
}

func (a *AggregatorV3) getDecimals(ctx context.Context) (uint8, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.hasDecimals {
		return a.decimals, nil
	}

	var out []interface{}
	err := a.contract.Call(&bind.CallOpts{Context: ctx}, &out, "decimals")
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, lib.WrapError(ErrInvalidPrice, fmt.Errorf("unexpected decimals output length %d", len(out)))
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, lib.WrapError(ErrInvalidPrice, fmt.Errorf("unexpected decimals type %T", out[0]))
	}

	a.decimals, a.hasDecimals = decimals, true
	a.log.Infof("price feed %s reports %d decimals", a.addr.Hex(), decimals)
	return decimals, nil
}

// ScalePrice converts a price with the given decimals to PriceDecimals
func ScalePrice(price *big.Int, decimals uint8) *big.Int {
	res := new(big.Int).Set(price)
	switch {
	case decimals < PriceDecimals:
		return res.Mul(res, pow10(PriceDecimals-int64(decimals)))
	case decimals > PriceDecimals:
		return res.Quo(res, pow10(int64(decimals)-PriceDecimals))
	}
	return res
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}
