package oracle

import (
	"context"
	"errors"
	"math/big"
)

// PriceDecimals is the fixed point scale of every price returned by a PriceOracle
const PriceDecimals = 18

var ErrInvalidPrice = errors.New("oracle: invalid price")

// PriceOracle reports the latest price of the collateral asset. Any successful answer is
// treated as authoritative, staleness is not checked.
type PriceOracle interface {
	LatestPrice(ctx context.Context) (*big.Int, error)
}
