package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseType determines how the payment amount is derived.
type PurchaseType string

const (
	// PurchaseView pays a file's suggested play price.
	PurchaseView PurchaseType = "view"
	// PurchaseBuy pays a file's suggested buy price.
	PurchaseBuy PurchaseType = "buy"
	// PurchaseTip sends a caller chosen amount to the artifact's publisher.
	PurchaseTip PurchaseType = "tip"
)

// Valid reports whether p is a known purchase type.
func (p PurchaseType) Valid() bool {
	switch p {
	case PurchaseView, PurchaseBuy, PurchaseTip:
		return true
	}
	return false
}

func (p PurchaseType) String() string {
	return string(p)
}

// RateTable maps coins to their price in a fiat currency. Every fetched coin
// appears under both its symbol and the rate provider's identifier, so
// lookups work with either name.
type RateTable map[string]decimal.Decimal

// Rate returns the rate for a coin named by symbol or provider id.
func (t RateTable) Rate(coin string) (decimal.Decimal, bool) {
	coin = strings.ToLower(strings.TrimSpace(coin))
	if r, ok := t[coin]; ok {
		return r, true
	}
	if c, ok := CoinBySymbol(coin); ok {
		if r, ok := t[c.ProviderID]; ok {
			return r, true
		}
	}
	if c, ok := CoinByProviderID(coin); ok {
		if r, ok := t[c.Symbol]; ok {
			return r, true
		}
	}
	return decimal.Decimal{}, false
}

// CostTable maps a coin symbol to the amount of that coin equal to the
// target payment value.
type CostTable map[string]decimal.Decimal

// BalanceTable maps a coin symbol to the payer's spendable balance.
type BalanceTable map[string]decimal.Decimal

// PaymentRequest describes one payment to make against an artifact.
type PaymentRequest struct {
	// Artifact is the record being paid for.
	Artifact *Artifact `json:"artifact" validate:"required"`

	// Type selects how the payment amount is derived.
	Type PurchaseType `json:"type" validate:"required"`

	// FileName names the artifact file for view and buy purchases.
	FileName string `json:"fileName,omitempty"`

	// Amount is the tip amount. It is a fiat value unless Coin is set and
	// Fiat is empty, in which case it is an amount of Coin itself.
	Amount decimal.Decimal `json:"amount,omitempty"`

	// Fiat optionally names the currency Amount is quoted in. Empty means
	// the configured default.
	Fiat string `json:"fiat,omitempty"`

	// Coin optionally pins the coin to pay with. The coin must be among
	// the artifact's advertised coins.
	Coin string `json:"coin,omitempty"`

	// CoinFilter optionally restricts which advertised coins are
	// considered. Entries the artifact does not advertise are ignored.
	CoinFilter []string `json:"coinFilter,omitempty"`
}

// Validate checks the request is internally consistent.
func (r *PaymentRequest) Validate() error {
	if r.Artifact == nil {
		return NewError(ErrInvalidRequest, "artifact is required")
	}
	if !r.Type.Valid() {
		return NewError(ErrInvalidRequest, fmt.Sprintf("unknown purchase type %q", r.Type))
	}
	switch r.Type {
	case PurchaseView, PurchaseBuy:
		if r.FileName == "" {
			return NewError(ErrInvalidRequest, fmt.Sprintf("file name is required for %s purchases", r.Type))
		}
	case PurchaseTip:
		if r.Amount.Sign() <= 0 {
			return NewError(ErrInvalidRequest, "tip amount must be positive")
		}
	}
	return nil
}

// CoinDenominated reports whether the request amount is an amount of the
// pinned coin rather than a fiat value. Only tips can be coin denominated.
func (r *PaymentRequest) CoinDenominated() bool {
	return r.Type == PurchaseTip && r.Coin != "" && r.Fiat == ""
}

// PaymentResult records a payment that was handed to the wallet.
type PaymentResult struct {
	TxID    string          `json:"txid"`
	Coin    string          `json:"coin"`
	Address string          `json:"address"`
	Amount  decimal.Decimal `json:"amount"`

	// Fiat and FiatValue record the fiat side of the conversion. Both are
	// zero for coin denominated tips, which never touch an exchange rate.
	Fiat      string          `json:"fiat,omitempty"`
	FiatValue decimal.Decimal `json:"fiatValue"`

	Type         PurchaseType `json:"type"`
	ArtifactTXID string       `json:"artifactTxid,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// AccountData is the persisted state of an account. The whole structure is
// encrypted before it reaches a storage backend; backends only ever see
// ciphertext.
type AccountData struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`

	// WalletSeed is the opaque seed of the account's wallet. The library
	// stores it and hands it back; it never interprets it.
	WalletSeed string `json:"walletSeed,omitempty"`

	Settings map[string]interface{} `json:"settings,omitempty"`
	History  []PaymentResult        `json:"history,omitempty"`

	Created  time.Time `json:"created,omitempty"`
	Modified time.Time `json:"modified,omitempty"`
}

// Config carries the knobs for building an Account from a JSON config
// document.
type Config struct {
	DefaultFiat   string        `json:"defaultFiat,omitempty" validate:"omitempty,alpha,len=3"`
	RateURL       string        `json:"rateUrl,omitempty" validate:"omitempty,url"`
	WalletURL     string        `json:"walletUrl,omitempty" validate:"omitempty,url"`
	KeystoreURL   string        `json:"keystoreUrl,omitempty" validate:"omitempty,url"`
	StorageDir    string        `json:"storageDir,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty"`
	LogLevel      string        `json:"logLevel,omitempty" validate:"omitempty,oneof=debug info warn error"`
	EnableMetrics bool          `json:"enableMetrics,omitempty"`
}
