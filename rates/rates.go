// Package rates fetches fiat exchange rates for the coins an artifact can be
// paid with.
package rates

import (
	"context"

	"github.com/oipwg/oip-account/types"
)

// Source fetches current exchange rates. Implementations return a table
// covering every requested coin or fail; a partial table is never returned,
// so a later conversion cannot silently skip a coin.
type Source interface {
	Rates(ctx context.Context, coins []string, fiat string) (types.RateTable, error)
}
