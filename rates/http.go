package rates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/oipwg/oip-account/logger"
	"github.com/oipwg/oip-account/types"
)

// DefaultBaseURL is the public CoinGecko API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// HTTPSource queries a CoinGecko compatible simple price endpoint:
//
//	GET {base}/simple/price?ids=bitcoin,litecoin&vs_currencies=usd
//
// The response keys quotes by provider id; the returned table carries each
// rate under both the provider id and the coin's symbol.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	log     logger.Logger
}

// NewHTTPSource builds a source against baseURL. An empty baseURL means
// DefaultBaseURL; a nil client gets a 10 second timeout of its own.
func NewHTTPSource(baseURL string, client *http.Client, log logger.Logger) *HTTPSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     logger.OrNoop(log),
	}
}

// Rates fetches the fiat price of every coin in coins. Unknown coin symbols
// fail with UNSUPPORTED_COIN before any request is made.
func (s *HTTPSource) Rates(ctx context.Context, coins []string, fiat string) (types.RateTable, error) {
	if len(coins) == 0 {
		return nil, types.NewError(types.ErrInvalidRequest, "no coins to fetch rates for")
	}
	if fiat == "" {
		fiat = types.DefaultFiat
	}
	fiat = strings.ToLower(fiat)

	ids := make([]string, 0, len(coins))
	symbols := make(map[string]string, len(coins))
	for _, coin := range coins {
		c, ok := types.CoinBySymbol(coin)
		if !ok {
			return nil, &types.Error{
				Code:    types.ErrUnsupportedCoin,
				Message: fmt.Sprintf("no rate provider id for coin %q", coin),
				Coin:    coin,
			}
		}
		if _, dup := symbols[c.ProviderID]; dup {
			continue
		}
		ids = append(ids, c.ProviderID)
		symbols[c.ProviderID] = c.Symbol
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", fiat)
	reqURL := s.baseURL + "/simple/price?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.WrapError(types.ErrRateFetchFailed, "failed to build rate request", err)
	}
	req.Header.Set("Accept", "application/json")

	s.log.Debug("fetching exchange rates", map[string]any{"ids": ids, "fiat": fiat})

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, types.WrapError(types.ErrRateFetchFailed, "rate provider unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, types.WrapError(types.ErrRateFetchFailed, "failed to read rate response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &types.Error{
			Code:    types.ErrRateFetchFailed,
			Message: fmt.Sprintf("rate provider returned status %d", resp.StatusCode),
			Data:    strings.TrimSpace(string(body)),
		}
	}

	table := make(types.RateTable, 2*len(ids))
	for _, id := range ids {
		value := gjson.GetBytes(body, id+"."+fiat)
		if !value.Exists() || value.Type != gjson.Number {
			return nil, &types.Error{
				Code:    types.ErrRateFetchFailed,
				Message: fmt.Sprintf("rate provider returned no %s price for %s", fiat, id),
				Coin:    symbols[id],
			}
		}

		// Parse the raw JSON literal so the quote keeps its exact decimal
		// representation.
		rate, err := decimal.NewFromString(value.Raw)
		if err != nil || rate.Sign() <= 0 {
			return nil, &types.Error{
				Code:    types.ErrRateFetchFailed,
				Message: fmt.Sprintf("rate provider returned invalid %s price %q for %s", fiat, value.Raw, id),
				Coin:    symbols[id],
			}
		}

		table[id] = rate
		table[symbols[id]] = rate
	}

	return table, nil
}
