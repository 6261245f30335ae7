package payment

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oipwg/oip-account/types"
)

// Shortfall reports how far a coin's balance falls below its cost.
type Shortfall struct {
	Coin    string          `json:"coin"`
	Cost    decimal.Decimal `json:"cost"`
	Balance decimal.Decimal `json:"balance"`
	Missing decimal.Decimal `json:"missing"`
}

// SelectCoin picks the coin to pay with. order lists the candidates in the
// artifact's advertised priority; a coin is affordable when its balance is
// at least its cost, equality included. A preferred coin wins when it is
// affordable; when it is not, selection falls through to the advertised
// order rather than failing. When no coin is affordable the error carries a
// Shortfall for every candidate.
func SelectCoin(order []string, balances types.BalanceTable, costs types.CostTable, preferred string) (string, error) {
	if len(order) == 0 {
		return "", types.NewError(types.ErrUnsupportedCoin, "no candidate coins to select from")
	}

	preferred = strings.ToLower(strings.TrimSpace(preferred))
	if preferred != "" {
		if bal, ok := balances[preferred]; ok {
			if cost, ok := costs[preferred]; ok && bal.GreaterThanOrEqual(cost) {
				return preferred, nil
			}
		}
	}

	for _, coin := range order {
		cost, okCost := costs[coin]
		bal, okBal := balances[coin]
		if !okCost || !okBal {
			continue
		}
		if bal.GreaterThanOrEqual(cost) {
			return coin, nil
		}
	}

	shortfalls := make([]Shortfall, 0, len(order))
	for _, coin := range order {
		cost, okCost := costs[coin]
		bal, okBal := balances[coin]
		if !okCost || !okBal {
			continue
		}
		shortfalls = append(shortfalls, Shortfall{
			Coin:    coin,
			Cost:    cost,
			Balance: bal,
			Missing: cost.Sub(bal),
		})
	}

	return "", &types.Error{
		Code:    types.ErrInsufficientFunds,
		Message: "no coin covers the payment cost",
		Data:    shortfalls,
	}
}
