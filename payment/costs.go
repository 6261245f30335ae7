package payment

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oipwg/oip-account/types"
)

// ConvertCosts prices the target payment in each candidate coin. For a fiat
// target the cost in a coin is target divided by that coin's fiat rate,
// rounded half up at the coin's native scale. For a coin denominated target
// (a tip pinned to a coin) the amount already is a coin amount, so every
// candidate costs exactly the target and no rate is consulted.
func ConvertCosts(coins []string, rates types.RateTable, target decimal.Decimal, coinDenominated bool) (types.CostTable, error) {
	if len(coins) == 0 {
		return nil, types.NewError(types.ErrConversionFailed, "no coins to convert costs for")
	}
	if target.Sign() <= 0 {
		return nil, types.NewError(types.ErrConversionFailed, fmt.Sprintf("target amount %s is not positive", target))
	}

	costs := make(types.CostTable, len(coins))
	for _, coin := range coins {
		if coinDenominated {
			costs[coin] = target
			continue
		}

		rate, ok := rates.Rate(coin)
		if !ok {
			return nil, &types.Error{
				Code:    types.ErrConversionFailed,
				Message: fmt.Sprintf("no exchange rate for %s", coin),
				Coin:    coin,
			}
		}
		if rate.Sign() <= 0 {
			return nil, &types.Error{
				Code:    types.ErrConversionFailed,
				Message: fmt.Sprintf("invalid exchange rate %s for %s", rate, coin),
				Coin:    coin,
			}
		}

		costs[coin] = target.DivRound(rate, coinScale(coin))
	}

	return costs, nil
}

// coinScale returns the number of decimal places amounts of a coin carry.
func coinScale(coin string) int32 {
	if c, ok := types.CoinBySymbol(coin); ok && c.Family == types.FamilyEVM {
		return 18
	}
	return 8
}
