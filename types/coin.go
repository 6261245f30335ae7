package types

import "strings"

// CoinFamily groups coins that share address and transaction id formats.
type CoinFamily string

const (
	FamilyUTXO CoinFamily = "utxo"
	FamilyEVM  CoinFamily = "evm"
)

// Coin describes a supported cryptocurrency.
type Coin struct {
	// Symbol is the short ticker used in artifact payment metadata and
	// wallet calls (e.g. "btc").
	Symbol string `json:"symbol"`

	// ProviderID is the identifier the exchange rate provider keys its
	// quotes by (e.g. "bitcoin").
	ProviderID string `json:"providerId"`

	// Name is the human readable coin name.
	Name string `json:"name,omitempty"`

	// Family selects the validation rules for addresses and transaction ids.
	Family CoinFamily `json:"family"`
}

func (c Coin) String() string {
	return c.Symbol
}

// Registered coin symbols.
const (
	CoinFlo = "flo"
	CoinBTC = "btc"
	CoinLTC = "ltc"
	CoinETH = "eth"
)

// DefaultFiat is the reference currency used when a request does not name one.
const DefaultFiat = "usd"

var (
	coins      []Coin
	bySymbol   = make(map[string]int)
	byProvider = make(map[string]int)
)

func init() {
	for _, c := range []Coin{
		{Symbol: CoinFlo, ProviderID: "flo", Name: "Flo", Family: FamilyUTXO},
		{Symbol: CoinBTC, ProviderID: "bitcoin", Name: "Bitcoin", Family: FamilyUTXO},
		{Symbol: CoinLTC, ProviderID: "litecoin", Name: "Litecoin", Family: FamilyUTXO},
		{Symbol: CoinETH, ProviderID: "ethereum", Name: "Ethereum", Family: FamilyEVM},
	} {
		RegisterCoin(c)
	}
}

// RegisterCoin adds a coin to the registry, replacing any previous entry with
// the same symbol. Symbols and provider ids are matched case insensitively.
func RegisterCoin(c Coin) {
	c.Symbol = strings.ToLower(strings.TrimSpace(c.Symbol))
	c.ProviderID = strings.ToLower(strings.TrimSpace(c.ProviderID))
	if c.Symbol == "" || c.ProviderID == "" {
		return
	}
	if i, ok := bySymbol[c.Symbol]; ok {
		delete(byProvider, coins[i].ProviderID)
		coins[i] = c
		byProvider[c.ProviderID] = i
		return
	}
	coins = append(coins, c)
	bySymbol[c.Symbol] = len(coins) - 1
	byProvider[c.ProviderID] = len(coins) - 1
}

// CoinBySymbol looks a coin up by its short ticker.
func CoinBySymbol(symbol string) (Coin, bool) {
	i, ok := bySymbol[strings.ToLower(strings.TrimSpace(symbol))]
	if !ok {
		return Coin{}, false
	}
	return coins[i], true
}

// CoinByProviderID looks a coin up by the rate provider's identifier.
func CoinByProviderID(id string) (Coin, bool) {
	i, ok := byProvider[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Coin{}, false
	}
	return coins[i], true
}

// CoinProviderID maps a coin symbol to the rate provider's identifier.
func CoinProviderID(symbol string) (string, bool) {
	c, ok := CoinBySymbol(symbol)
	if !ok {
		return "", false
	}
	return c.ProviderID, true
}

// RegisteredCoins returns a copy of the coin registry.
func RegisteredCoins() []Coin {
	out := make([]Coin, len(coins))
	copy(out, coins)
	return out
}
