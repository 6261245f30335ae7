// Package wallet defines the capability the payment flow needs from an
// external wallet and provides an HTTP client for a wallet daemon.
package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// Wallet is the injected capability every payment runs through. The library
// never touches keys or builds transactions itself; it only asks for
// balances and hands over fully decided sends.
type Wallet interface {
	// Balance returns the spendable balance for a coin.
	Balance(ctx context.Context, coin string) (decimal.Decimal, error)

	// Send pays amount of coin to address and returns the transaction id.
	Send(ctx context.Context, coin, address string, amount decimal.Decimal) (string, error)
}
