package rates

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oipwg/oip-account/types"
)

// StaticSource serves rates from a fixed table. It backs examples and tests;
// prices may be keyed by coin symbol or provider id.
type StaticSource struct {
	Prices map[string]decimal.Decimal
}

// NewStaticSource builds a source over a fixed price map.
func NewStaticSource(prices map[string]decimal.Decimal) *StaticSource {
	return &StaticSource{Prices: prices}
}

// Rates returns the fixed prices for the requested coins, keyed by both
// symbol and provider id. A coin with no fixed price fails the whole call,
// matching the all or nothing contract of live sources.
func (s *StaticSource) Rates(_ context.Context, coins []string, fiat string) (types.RateTable, error) {
	table := make(types.RateTable, 2*len(coins))
	for _, coin := range coins {
		c, ok := types.CoinBySymbol(coin)
		if !ok {
			return nil, &types.Error{
				Code:    types.ErrUnsupportedCoin,
				Message: fmt.Sprintf("no rate provider id for coin %q", coin),
				Coin:    coin,
			}
		}

		rate, ok := s.Prices[c.Symbol]
		if !ok {
			rate, ok = s.Prices[c.ProviderID]
		}
		if !ok || rate.Sign() <= 0 {
			return nil, &types.Error{
				Code:    types.ErrRateFetchFailed,
				Message: fmt.Sprintf("no fixed %s price for %s", fiat, c.Symbol),
				Coin:    c.Symbol,
			}
		}

		table[c.Symbol] = rate
		table[c.ProviderID] = rate
	}
	return table, nil
}
