package oracle

import (
	"context"
	"math/big"
	"sync"
)

// PriceFeedMock is a settable price feed for tests and the development node
type PriceFeedMock struct {
	price *big.Int
	err   error
	mutex sync.RWMutex
}

func NewPriceFeedMock(initial *big.Int) *PriceFeedMock {
	if initial == nil {
		initial = new(big.Int)
	}
	return &PriceFeedMock{price: new(big.Int).Set(initial)}
}

func (f *PriceFeedMock) LatestPrice(ctx context.Context) (*big.Int, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	if f.err != nil {
		return nil, f.err
	}
	return new(big.Int).Set(f.price), nil
}

func (f *PriceFeedMock) SetLatestPrice(price *big.Int) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.price = new(big.Int).Set(price)
}

// SetError makes LatestPrice fail until cleared with nil
func (f *PriceFeedMock) SetError(err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.err = err
}
