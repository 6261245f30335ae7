// Package oipaccount manages accounts that pay for published artifacts with
// whichever cryptocurrency the artifact advertises and the wallet can cover.
// It ties a storage adapter, a wallet and an exchange rate source together
// behind one facade; the payment pipeline itself lives in the payment
// package.
package oipaccount

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oipwg/oip-account/logger"
	"github.com/oipwg/oip-account/metrics"
	"github.com/oipwg/oip-account/payment"
	"github.com/oipwg/oip-account/rates"
	"github.com/oipwg/oip-account/storage"
	"github.com/oipwg/oip-account/types"
	"github.com/oipwg/oip-account/wallet"
)

// Version of the library.
const Version = "1.0.0"

// Account is the main entry point. One Account represents one user: their
// stored data, the wallet that pays on their behalf and the rate source used
// to quote prices. An Account is safe for concurrent use; the payment
// builders it spawns are not, but each call builds its own.
type Account struct {
	identifier string
	password   string

	store   storage.Adapter
	wallet  wallet.Wallet
	rates   rates.Source
	log     logger.Logger
	rec     metrics.Recorder
	fiat    string
	timeout time.Duration
	cfg     *types.Config

	mu       sync.Mutex
	data     *types.AccountData
	loggedIn bool
}

// New builds an account handle for identifier. An identifier containing an
// @ is treated as the account email; anything else is used as the account
// id. Nothing is created or loaded until Create or Login runs.
//
// Defaults when no option overrides them: in-memory storage, the public
// rate API, no wallet, no logging, no metrics.
func New(identifier, password string, opts ...Option) (*Account, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "account identifier is required")
	}
	if password == "" {
		return nil, types.NewError(types.ErrAuthFailed, "password is required")
	}

	a := &Account{
		identifier: strings.TrimSpace(identifier),
		password:   password,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cfg != nil {
		if err := a.applyConfig(); err != nil {
			return nil, err
		}
	}

	if a.log == nil {
		a.log = logger.NoopLogger{}
	}
	if a.rec == nil {
		a.rec = metrics.NoopRecorder{}
	}
	if a.rates == nil {
		a.rates = rates.NewHTTPSource("", nil, a.log)
	}
	if a.store == nil {
		a.store = storage.NewMemory()
	}
	if a.fiat == "" {
		a.fiat = types.DefaultFiat
	}
	if a.timeout <= 0 {
		a.timeout = payment.DefaultTimeout
	}
	return a, nil
}

// Create stores a fresh account and logs it in. The returned id is how the
// account is addressed from then on; identifiers that look like an email
// are kept as the account email instead of the id.
func (a *Account) Create(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.loggedIn {
		return "", types.NewError(types.ErrInvalidRequest, "account is already logged in")
	}

	now := time.Now().UTC()
	data := &types.AccountData{
		Settings: make(map[string]interface{}),
		Created:  now,
		Modified: now,
	}
	if strings.Contains(a.identifier, "@") {
		data.Email = a.identifier
	} else {
		data.ID = a.identifier
	}

	id, err := a.store.Create(ctx, data, a.password)
	if err != nil {
		a.log.Error("account create failed", map[string]any{"error": err.Error()})
		return "", err
	}

	a.data = data
	a.loggedIn = true
	a.rec.IncCounter(metrics.EventAccountCreated, nil)
	a.log.Info("account created", map[string]any{"id": id})
	return id, nil
}

// Login loads and decrypts the stored account. Accounts are addressed by
// id; logging in with an email identifier requires the id issued by Create.
func (a *Account) Login(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.identifier
	if a.data != nil && a.data.ID != "" {
		id = a.data.ID
	}
	if strings.Contains(id, "@") {
		return types.NewError(types.ErrInvalidRequest, "accounts are loaded by id, not email")
	}

	data, err := a.store.Load(ctx, id, a.password)
	if err != nil {
		a.log.Error("account login failed", map[string]any{"id": id, "error": err.Error()})
		return err
	}

	a.data = data
	a.loggedIn = true
	a.rec.IncCounter(metrics.EventAccountLogin, nil)
	a.log.Info("account logged in", map[string]any{"id": data.ID})
	return nil
}

// Store re-encrypts and persists the current account state.
func (a *Account) Store(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireLogin(); err != nil {
		return err
	}
	a.data.Modified = time.Now().UTC()
	return a.store.Save(ctx, a.data, a.password)
}

// Logout drops the decrypted account state. Unstored changes are lost.
func (a *Account) Logout() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = nil
	a.loggedIn = false
}

// ID returns the account id, or "" before Create/Login.
func (a *Account) ID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.data == nil {
		return ""
	}
	return a.data.ID
}

// Data returns the decrypted account state.
func (a *Account) Data() (*types.AccountData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireLogin(); err != nil {
		return nil, err
	}
	return a.data, nil
}

// Setting reads one settings key.
func (a *Account) Setting(key string) (interface{}, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.data == nil || a.data.Settings == nil {
		return nil, false
	}
	v, ok := a.data.Settings[key]
	return v, ok
}

// SetSetting writes one settings key. The change lives in memory until
// Store is called.
func (a *Account) SetSetting(key string, value interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireLogin(); err != nil {
		return err
	}
	if a.data.Settings == nil {
		a.data.Settings = make(map[string]interface{})
	}
	a.data.Settings[key] = value
	return nil
}

// SetWalletSeed attaches a wallet seed to the account. The seed is opaque
// here; it is only ever stored encrypted.
func (a *Account) SetWalletSeed(seed string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.data.WalletSeed = seed
	return nil
}

// History returns the payments recorded on this account so far.
func (a *Account) History() ([]types.PaymentResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireLogin(); err != nil {
		return nil, err
	}
	out := make([]types.PaymentResult, len(a.data.History))
	copy(out, a.data.History)
	return out, nil
}

// SupportedCoins reports which of the artifact's advertised coins this
// library can pay with, in the artifact's priority order.
func (a *Account) SupportedCoins(artifact *types.Artifact) []string {
	if artifact == nil {
		return nil
	}
	return artifact.SupportedCoins()
}

// PayArtifact pays the view or buy price of one of the artifact's files.
func (a *Account) PayArtifact(ctx context.Context, artifact *types.Artifact, fileName string, typ types.PurchaseType) (*types.PaymentResult, error) {
	return a.Pay(ctx, &types.PaymentRequest{
		Artifact: artifact,
		Type:     typ,
		FileName: fileName,
	})
}

// TipArtifact sends the publisher a tip. With a coin the amount is
// denominated in that coin; without one it is a fiat amount converted at
// the current rate.
func (a *Account) TipArtifact(ctx context.Context, artifact *types.Artifact, amount decimal.Decimal, coin string) (*types.PaymentResult, error) {
	return a.Pay(ctx, &types.PaymentRequest{
		Artifact: artifact,
		Type:     types.PurchaseTip,
		Amount:   amount,
		Coin:     coin,
	})
}

// Pay runs one payment attempt for req and, on success, appends the result
// to the account history. The history lives in memory until Store.
func (a *Account) Pay(ctx context.Context, req *types.PaymentRequest) (*types.PaymentResult, error) {
	a.mu.Lock()
	if err := a.requireLogin(); err != nil {
		a.mu.Unlock()
		return nil, err
	}
	if a.wallet == nil {
		a.mu.Unlock()
		return nil, types.NewError(types.ErrConfigError, "no wallet configured")
	}
	a.mu.Unlock()

	b, err := payment.New(a.wallet, a.rates, req,
		payment.WithLogger(a.log),
		payment.WithMetrics(a.rec),
		payment.WithTimeout(a.timeout),
		payment.WithFiat(a.fiat),
	)
	if err != nil {
		return nil, err
	}

	result, err := b.Pay(ctx)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	if a.data != nil {
		a.data.History = append(a.data.History, *result)
	}
	a.mu.Unlock()
	return result, nil
}

func (a *Account) requireLogin() error {
	if !a.loggedIn || a.data == nil {
		return types.NewError(types.ErrAuthFailed, "account is not logged in")
	}
	return nil
}

// GetVersion returns version information.
func GetVersion() map[string]interface{} {
	symbols := make([]string, 0, len(types.RegisteredCoins()))
	for _, c := range types.RegisteredCoins() {
		symbols = append(symbols, c.Symbol)
	}
	return map[string]interface{}{
		"library_version": Version,
		"supported_coins": symbols,
		"default_fiat":    types.DefaultFiat,
	}
}
