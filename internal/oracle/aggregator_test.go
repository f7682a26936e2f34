package oracle

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/lib"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	abi           abi.ABI
	decimals      uint8
	answer        *big.Int
	decimalsCalls int
	hang          bool
}

func newFakeFeed(t *testing.T, decimals uint8, answer *big.Int) *fakeFeed {
	parsed, err := abi.JSON(strings.NewReader(aggregatorV3ABI))
	require.NoError(t, err)
	return &fakeFeed{abi: parsed, decimals: decimals, answer: answer}
}

func (f *fakeFeed) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

func (f *fakeFeed) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if f.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	method, err := f.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "decimals":
		f.decimalsCalls++
		return method.Outputs.Pack(f.decimals)
	default:
		return method.Outputs.Pack(big.NewInt(7), f.answer, big.NewInt(0), big.NewInt(0), big.NewInt(7))
	}
}

func TestAggregatorV3ScalesAnswer(t *testing.T) {
	feed := newFakeFeed(t, 8, big.NewInt(2100_00000000))
	agg, err := NewAggregatorV3(lib.GetRandomAddr(), feed, lib.NewTestLogger())
	require.NoError(t, err)

	price, err := agg.LatestPrice(context.Background())
	require.NoError(t, err)
	require.Equal(t, lib.MustParseUnits("2100", 18), price)

	_, err = agg.LatestPrice(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, feed.decimalsCalls, "decimals should be cached")
}

func TestAggregatorV3RejectsNonPositiveAnswer(t *testing.T) {
	feed := newFakeFeed(t, 8, big.NewInt(-1))
	agg, err := NewAggregatorV3(lib.GetRandomAddr(), feed, lib.NewTestLogger())
	require.NoError(t, err)

	_, err = agg.LatestPrice(context.Background())
	require.ErrorIs(t, err, ErrInvalidPrice)
}

func TestAggregatorV3CallTimeout(t *testing.T) {
	feed := newFakeFeed(t, 8, big.NewInt(2100_00000000))
	feed.hang = true
	agg, err := NewAggregatorV3(lib.GetRandomAddr(), feed, lib.NewTestLogger())
	require.NoError(t, err)
	agg.SetCallTimeout(50 * time.Millisecond)

	start := time.Now()
	_, err = agg.LatestPrice(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestScalePrice(t *testing.T) {
	require.Equal(t, big.NewInt(5_000_000_000_000_000_000), ScalePrice(big.NewInt(5), 0))
	require.Equal(t, big.NewInt(123), ScalePrice(big.NewInt(123), 18))
	require.Equal(t, big.NewInt(12), ScalePrice(big.NewInt(123), 19))
}

func TestPriceFeedMock(t *testing.T) {
	feed := NewPriceFeedMock(nil)

	price, err := feed.LatestPrice(context.Background())
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), price)

	feed.SetLatestPrice(big.NewInt(42))
	price, err = feed.LatestPrice(context.Background())
	require.NoError(t, err)
	require.Equal(t, big.NewInt(42), price)

	feed.SetError(ErrInvalidPrice)
	_, err = feed.LatestPrice(context.Background())
	require.ErrorIs(t, err, ErrInvalidPrice)
}
