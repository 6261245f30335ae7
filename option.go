package oipaccount

import (
	"strings"
	"time"

	"github.com/oipwg/oip-account/logger"
	"github.com/oipwg/oip-account/metrics"
	"github.com/oipwg/oip-account/rates"
	"github.com/oipwg/oip-account/storage"
	"github.com/oipwg/oip-account/types"
	"github.com/oipwg/oip-account/utils"
	"github.com/oipwg/oip-account/wallet"
)

// Option configures an Account at construction time. Explicit options win
// over anything WithConfig supplies.
type Option func(*Account)

// WithWallet injects the wallet that holds and sends the user's funds.
func WithWallet(w wallet.Wallet) Option {
	return func(a *Account) {
		a.wallet = w
	}
}

// WithRateSource injects the exchange rate source.
func WithRateSource(src rates.Source) Option {
	return func(a *Account) {
		a.rates = src
	}
}

// WithStorage injects the storage adapter account blobs are kept in.
func WithStorage(s storage.Adapter) Option {
	return func(a *Account) {
		a.store = s
	}
}

func WithLogger(l logger.Logger) Option {
	return func(a *Account) {
		a.log = logger.OrNoop(l)
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(a *Account) {
		a.rec = metrics.OrNoop(r)
	}
}

func WithTimeout(t time.Duration) Option {
	return func(a *Account) {
		if t > 0 {
			a.timeout = t
		}
	}
}

// WithFiat sets the fallback fiat code used when neither the request nor
// the artifact names one.
func WithFiat(code string) Option {
	return func(a *Account) {
		if code != "" {
			a.fiat = strings.ToLower(code)
		}
	}
}

// WithConfig applies a parsed configuration. Fields already set by an
// explicit option are left alone.
func WithConfig(cfg *types.Config) Option {
	return func(a *Account) {
		a.cfg = cfg
	}
}

// applyConfig fills unset fields from a.cfg. Runs inside New, after every
// explicit option.
func (a *Account) applyConfig() error {
	cfg := a.cfg
	if err := utils.ValidateStruct(cfg); err != nil {
		return types.WrapError(types.ErrConfigError, "invalid configuration", err)
	}

	if a.log == nil && cfg.LogLevel != "" {
		a.log = logger.NewZapLogger(cfg.LogLevel)
	}
	if a.rec == nil && cfg.EnableMetrics {
		a.rec = metrics.NewPrometheusRecorder()
	}
	if a.fiat == "" && cfg.DefaultFiat != "" {
		a.fiat = strings.ToLower(cfg.DefaultFiat)
	}
	if a.timeout <= 0 && cfg.Timeout > 0 {
		a.timeout = cfg.Timeout
	}
	if a.rates == nil && cfg.RateURL != "" {
		a.rates = rates.NewHTTPSource(cfg.RateURL, nil, a.log)
	}
	if a.wallet == nil && cfg.WalletURL != "" {
		a.wallet = wallet.NewDaemonClient(cfg.WalletURL, nil, a.log)
	}
	if a.store == nil {
		switch {
		case cfg.KeystoreURL != "":
			a.store = storage.NewKeystore(cfg.KeystoreURL, nil, a.log)
		case cfg.StorageDir != "":
			fs, err := storage.NewFile(cfg.StorageDir)
			if err != nil {
				return err
			}
			a.store = fs
		}
	}
	return nil
}
