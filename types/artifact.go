package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// PaymentAddress pairs a coin symbol with the artifact's payout address for
// that coin.
type PaymentAddress struct {
	Coin    string `json:"coin"`
	Address string `json:"address"`
}

// PaymentAddressSet holds an artifact's payout addresses keyed by coin. The
// order coins were advertised in is preserved; it defines the priority used
// when picking a coin to pay with.
type PaymentAddressSet struct {
	entries []PaymentAddress
	index   map[string]int
}

// NewPaymentAddressSet builds a set from the given entries. Coin symbols are
// lowercased; entries with an empty coin or address are skipped, and for
// duplicate coins the first entry wins.
func NewPaymentAddressSet(entries ...PaymentAddress) PaymentAddressSet {
	s := PaymentAddressSet{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		coin := strings.ToLower(strings.TrimSpace(e.Coin))
		if coin == "" || e.Address == "" {
			continue
		}
		if _, ok := s.index[coin]; ok {
			continue
		}
		s.index[coin] = len(s.entries)
		s.entries = append(s.entries, PaymentAddress{Coin: coin, Address: e.Address})
	}
	return s
}

// Len returns the number of advertised coins.
func (s PaymentAddressSet) Len() int {
	return len(s.entries)
}

// Coins returns the advertised coin symbols in advertised order.
func (s PaymentAddressSet) Coins() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Coin
	}
	return out
}

// Address returns the payout address for a coin.
func (s PaymentAddressSet) Address(coin string) (string, bool) {
	i, ok := s.index[strings.ToLower(strings.TrimSpace(coin))]
	if !ok {
		return "", false
	}
	return s.entries[i].Address, true
}

// Entries returns a copy of the ordered coin/address pairs.
func (s PaymentAddressSet) Entries() []PaymentAddress {
	out := make([]PaymentAddress, len(s.entries))
	copy(out, s.entries)
	return out
}

// MarshalJSON encodes the set as a JSON object whose keys keep the
// advertised order.
func (s PaymentAddressSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Coin)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Address)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of coin symbol to address, keeping the
// document order of the keys. encoding/json alone cannot do this because Go
// maps do not preserve order.
func (s *PaymentAddressSet) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	if res.Type == gjson.Null {
		*s = PaymentAddressSet{}
		return nil
	}
	if !res.IsObject() {
		return fmt.Errorf("payment addresses must be a JSON object")
	}
	set := PaymentAddressSet{index: make(map[string]int)}
	var ferr error
	res.ForEach(func(key, value gjson.Result) bool {
		coin := strings.ToLower(strings.TrimSpace(key.String()))
		if coin == "" {
			ferr = fmt.Errorf("payment address with empty coin symbol")
			return false
		}
		if value.Type != gjson.String || value.String() == "" {
			ferr = fmt.Errorf("payment address for %q must be a non-empty string", coin)
			return false
		}
		if _, ok := set.index[coin]; ok {
			ferr = fmt.Errorf("duplicate payment address for %q", coin)
			return false
		}
		set.index[coin] = len(set.entries)
		set.entries = append(set.entries, PaymentAddress{Coin: coin, Address: value.String()})
		return true
	})
	if ferr != nil {
		return ferr
	}
	*s = set
	return nil
}

// ArtifactFile describes one payable file inside an artifact. Suggested
// prices are denominated in the artifact's fiat currency.
type ArtifactFile struct {
	Name        string `json:"fname" validate:"required"`
	DisplayName string `json:"displayName,omitempty"`
	Type        string `json:"type,omitempty"`
	Size        int64  `json:"fsize,omitempty"`

	// SugPlay and SugBuy are the suggested prices to view and to own the
	// file.
	SugPlay decimal.Decimal `json:"sugPlay,omitempty"`
	SugBuy  decimal.Decimal `json:"sugBuy,omitempty"`

	// DisallowPlay and DisallowBuy mark a purchase type as unavailable for
	// this file regardless of price.
	DisallowPlay bool `json:"disPlay,omitempty"`
	DisallowBuy  bool `json:"disBuy,omitempty"`
}

// Price returns the fiat amount a purchase of the given type costs.
func (f *ArtifactFile) Price(typ PurchaseType) (decimal.Decimal, error) {
	switch typ {
	case PurchaseView:
		if f.DisallowPlay {
			return decimal.Zero, NewError(ErrInvalidRequest, fmt.Sprintf("file %q cannot be viewed", f.Name))
		}
		if f.SugPlay.Sign() <= 0 {
			return decimal.Zero, NewError(ErrInvalidRequest, fmt.Sprintf("file %q has no view price", f.Name))
		}
		return f.SugPlay, nil
	case PurchaseBuy:
		if f.DisallowBuy {
			return decimal.Zero, NewError(ErrInvalidRequest, fmt.Sprintf("file %q cannot be bought", f.Name))
		}
		if f.SugBuy.Sign() <= 0 {
			return decimal.Zero, NewError(ErrInvalidRequest, fmt.Sprintf("file %q has no buy price", f.Name))
		}
		return f.SugBuy, nil
	default:
		return decimal.Zero, NewError(ErrInvalidRequest, fmt.Sprintf("purchase type %q does not price files", typ))
	}
}

// PaymentDetails is the payment block of an artifact record.
type PaymentDetails struct {
	// Fiat is the currency the artifact's prices are denominated in.
	// Empty means DefaultFiat.
	Fiat string `json:"fiat,omitempty"`

	// Addresses lists payout addresses in the publisher's preference order.
	Addresses PaymentAddressSet `json:"addresses,omitempty"`
}

// Artifact is a published record describing payable content. Only the
// fields the payment flow needs are modeled here.
type Artifact struct {
	TXID        string         `json:"txid,omitempty"`
	Type        string         `json:"type,omitempty"`
	Title       string         `json:"title" validate:"required"`
	Description string         `json:"description,omitempty"`
	Publisher   string         `json:"publisher,omitempty"`
	Payment     PaymentDetails `json:"payment"`
	Files       []ArtifactFile `json:"files,omitempty" validate:"omitempty,dive"`
}

// FiatCode returns the currency the artifact prices are quoted in.
func (a *Artifact) FiatCode() string {
	if a.Payment.Fiat == "" {
		return DefaultFiat
	}
	return strings.ToLower(a.Payment.Fiat)
}

// File returns the artifact file with the given name.
func (a *Artifact) File(name string) (*ArtifactFile, bool) {
	for i := range a.Files {
		if a.Files[i].Name == name {
			return &a.Files[i], true
		}
	}
	return nil, false
}

// PaymentAddress returns the payout address advertised for a coin.
func (a *Artifact) PaymentAddress(coin string) (string, bool) {
	return a.Payment.Addresses.Address(coin)
}

// SupportedCoins returns the coins the artifact can be paid with, in
// advertised order. A non empty filter restricts the result to the coins it
// names; filter entries the artifact does not advertise are dropped.
func (a *Artifact) SupportedCoins(filter ...string) []string {
	if len(filter) == 0 {
		return a.Payment.Addresses.Coins()
	}
	want := make(map[string]bool, len(filter))
	for _, f := range filter {
		want[strings.ToLower(strings.TrimSpace(f))] = true
	}
	var out []string
	for _, e := range a.Payment.Addresses.Entries() {
		if want[e.Coin] {
			out = append(out, e.Coin)
		}
	}
	return out
}
