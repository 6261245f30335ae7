package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oipwg/oip-account/types"
)

// SendRecord captures one send a StaticWallet accepted.
type SendRecord struct {
	Coin    string
	Address string
	Amount  decimal.Decimal
	TxID    string
}

// StaticWallet is an in-memory wallet for examples and tests. Balances are
// fixed at construction, sends are recorded and debited, and individual
// operations can be forced to fail.
type StaticWallet struct {
	mu          sync.Mutex
	balances    map[string]decimal.Decimal
	sends       []SendRecord
	balanceErrs map[string]error
	sendErr     error
}

// NewStaticWallet builds a wallet preloaded with the given balances, keyed
// by coin symbol.
func NewStaticWallet(balances map[string]decimal.Decimal) *StaticWallet {
	w := &StaticWallet{
		balances:    make(map[string]decimal.Decimal, len(balances)),
		balanceErrs: make(map[string]error),
	}
	for coin, bal := range balances {
		w.balances[strings.ToLower(coin)] = bal
	}
	return w
}

// SetBalance sets the balance for a coin.
func (w *StaticWallet) SetBalance(coin string, balance decimal.Decimal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[strings.ToLower(coin)] = balance
}

// FailBalance makes Balance return err for a coin.
func (w *StaticWallet) FailBalance(coin string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balanceErrs[strings.ToLower(coin)] = err
}

// FailSend makes every Send return err.
func (w *StaticWallet) FailSend(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sendErr = err
}

// Sends returns a copy of the accepted sends in order.
func (w *StaticWallet) Sends() []SendRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]SendRecord, len(w.sends))
	copy(out, w.sends)
	return out
}

// Balance implements Wallet. Asking for a coin the wallet was not loaded
// with is an error, never a silent zero.
func (w *StaticWallet) Balance(_ context.Context, coin string) (decimal.Decimal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	coin = strings.ToLower(coin)
	if err := w.balanceErrs[coin]; err != nil {
		return decimal.Decimal{}, err
	}
	bal, ok := w.balances[coin]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("wallet holds no %s", coin)
	}
	return bal, nil
}

// Send implements Wallet. The amount is debited and a deterministic looking
// transaction id is minted.
func (w *StaticWallet) Send(_ context.Context, coin, address string, amount decimal.Decimal) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.sendErr != nil {
		return "", w.sendErr
	}

	coin = strings.ToLower(coin)
	bal, ok := w.balances[coin]
	if !ok {
		return "", fmt.Errorf("wallet holds no %s", coin)
	}
	if bal.LessThan(amount) {
		return "", fmt.Errorf("wallet has %s %s, cannot send %s", bal, coin, amount)
	}

	// 64 hex characters, like a real txid. EVM ids carry the 0x prefix.
	sum := sha256.Sum256([]byte(uuid.NewString()))
	txid := hex.EncodeToString(sum[:])
	if c, ok := types.CoinBySymbol(coin); ok && c.Family == types.FamilyEVM {
		txid = "0x" + txid
	}

	w.balances[coin] = bal.Sub(amount)
	w.sends = append(w.sends, SendRecord{Coin: coin, Address: address, Amount: amount, TxID: txid})
	return txid, nil
}
