// Package payment turns an artifact, a wallet and a rate source into one
// executed payment. A Builder prices the purchase in every coin the
// artifact accepts, picks an affordable coin and submits the send through
// the wallet.
package payment

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oipwg/oip-account/logger"
	"github.com/oipwg/oip-account/metrics"
	"github.com/oipwg/oip-account/rates"
	"github.com/oipwg/oip-account/types"
	"github.com/oipwg/oip-account/utils"
	"github.com/oipwg/oip-account/wallet"
)

// DefaultTimeout bounds a whole payment pipeline run.
const DefaultTimeout = 30 * time.Second

// State marks the builder's progress through the payment pipeline.
type State string

const (
	StateInit          State = "init"
	StateResolveAmount State = "resolve_amount"
	StateFetchRates    State = "fetch_rates"
	StateFetchBalances State = "fetch_balances"
	StateConvert       State = "convert"
	StateSelectCoin    State = "select_coin"
	StateExecute       State = "execute"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Builder drives one payment from request to transaction id. A Builder is
// single use: Pay may be called once.
type Builder struct {
	req    *types.PaymentRequest
	wallet wallet.Wallet
	rates  rates.Source

	log     logger.Logger
	metrics metrics.Recorder
	timeout time.Duration
	fiat    string

	mu    sync.Mutex
	state State
	used  bool
}

// New builds a payment Builder for req. The wallet and rate source are
// required; everything else has defaults.
func New(w wallet.Wallet, src rates.Source, req *types.PaymentRequest, opts ...Option) (*Builder, error) {
	if w == nil {
		return nil, types.NewError(types.ErrConfigError, "a wallet is required")
	}
	if src == nil {
		return nil, types.NewError(types.ErrConfigError, "a rate source is required")
	}
	if req == nil {
		return nil, types.NewError(types.ErrInvalidRequest, "a payment request is required")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, types.WrapError(types.ErrInvalidRequest, "invalid payment request", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b := &Builder{
		req:     req,
		wallet:  w,
		rates:   src,
		log:     logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
		timeout: DefaultTimeout,
		fiat:    types.DefaultFiat,
		state:   StateInit,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// State reports how far the pipeline has progressed.
func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Builder) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// SupportedCoins returns the coins this payment can use, in the artifact's
// advertised order, restricted by the request's coin filter.
func (b *Builder) SupportedCoins() []string {
	return b.req.Artifact.SupportedCoins(b.req.CoinFilter...)
}

// PaymentAddresses returns the artifact's coin and address pairs in
// advertised order.
func (b *Builder) PaymentAddresses() []types.PaymentAddress {
	return b.req.Artifact.Payment.Addresses.Entries()
}

// PaymentAddress returns the artifact's payout address for a coin.
func (b *Builder) PaymentAddress(coin string) (string, bool) {
	return b.req.Artifact.PaymentAddress(coin)
}

// quoteFiat resolves the currency rates are quoted in: the request's fiat if
// set, then the artifact's pricing fiat for file purchases, then the
// configured default.
func (b *Builder) quoteFiat() string {
	switch {
	case b.req.Fiat != "":
		return strings.ToLower(b.req.Fiat)
	case b.req.Type != types.PurchaseTip && b.req.Artifact.Payment.Fiat != "":
		return b.req.Artifact.FiatCode()
	default:
		return b.fiat
	}
}

// ResolveAmount determines the target value of the payment. The bool result
// is true when the value already is a coin amount (a pinned coin tip) and
// no fiat conversion applies.
func (b *Builder) ResolveAmount() (decimal.Decimal, bool, error) {
	req := b.req
	switch req.Type {
	case types.PurchaseView, types.PurchaseBuy:
		file, ok := req.Artifact.File(req.FileName)
		if !ok {
			return decimal.Decimal{}, false, types.NewError(types.ErrInvalidRequest,
				fmt.Sprintf("artifact has no file %q", req.FileName))
		}
		price, err := file.Price(req.Type)
		if err != nil {
			return decimal.Decimal{}, false, err
		}
		return price, false, nil

	case types.PurchaseTip:
		if req.Amount.Sign() <= 0 {
			return decimal.Decimal{}, false, types.NewError(types.ErrInvalidRequest, "tip amount must be positive")
		}
		return req.Amount, req.CoinDenominated(), nil
	}

	return decimal.Decimal{}, false, types.NewError(types.ErrInvalidRequest,
		fmt.Sprintf("unknown purchase type %q", req.Type))
}

// ExchangeRates fetches quotes for every supported coin in the payment's
// quote currency.
func (b *Builder) ExchangeRates(ctx context.Context) (types.RateTable, error) {
	coins := b.SupportedCoins()
	if len(coins) == 0 {
		return nil, types.NewError(types.ErrUnsupportedCoin, "no payment coins to quote")
	}

	start := time.Now()
	table, err := b.rates.Rates(ctx, coins, b.quoteFiat())
	b.metrics.ObserveLatency(metrics.OpFetchRates, time.Since(start), nil)
	if err != nil {
		if types.ErrorCode(err) == "" {
			return nil, types.WrapError(types.ErrRateFetchFailed, "rate fetch failed", err)
		}
		return nil, err
	}
	return table, nil
}

// WalletBalances looks up the wallet balance of every supported coin, one
// goroutine per coin. Any failed lookup fails the whole call; the error
// names every coin that failed and keeps the first underlying cause.
func (b *Builder) WalletBalances(ctx context.Context) (types.BalanceTable, error) {
	coins := b.SupportedCoins()
	if len(coins) == 0 {
		return nil, types.NewError(types.ErrUnsupportedCoin, "no payment coins to look up")
	}

	start := time.Now()
	defer func() {
		b.metrics.ObserveLatency(metrics.OpFetchBalances, time.Since(start), nil)
	}()

	type result struct {
		coin    string
		balance decimal.Decimal
		err     error
	}

	results := make(chan result, len(coins))
	for _, coin := range coins {
		go func(coin string) {
			bal, err := b.wallet.Balance(ctx, coin)
			results <- result{coin: coin, balance: bal, err: err}
		}(coin)
	}

	table := make(types.BalanceTable, len(coins))
	errs := make(map[string]error)
	for range coins {
		r := <-results
		if r.err != nil {
			errs[r.coin] = r.err
			continue
		}
		table[r.coin] = r.balance
	}

	if len(errs) > 0 {
		failed := make([]string, 0, len(errs))
		for coin := range errs {
			failed = append(failed, coin)
		}
		sort.Strings(failed)
		return nil, &types.Error{
			Code:    types.ErrBalanceFetchFailed,
			Message: fmt.Sprintf("balance lookup failed for %s", strings.Join(failed, ", ")),
			Coin:    failed[0],
			Data:    failed,
			Err:     errs[failed[0]],
		}
	}

	return table, nil
}

// Pay runs the full pipeline: resolve the target amount, fetch rates and
// balances, convert, select a coin and execute the send. It may be called
// once per Builder; the artifact is charged at most one send.
func (b *Builder) Pay(ctx context.Context) (*types.PaymentResult, error) {
	b.mu.Lock()
	if b.used {
		b.mu.Unlock()
		return nil, types.NewError(types.ErrInvalidRequest, "payment builder already used")
	}
	b.used = true
	b.mu.Unlock()

	result, err := b.pay(ctx)
	if err != nil {
		b.setState(StateFailed)
		b.metrics.IncCounter(metrics.EventPaymentFailed, map[string]string{"coin": ""})
		b.log.Error("payment failed", map[string]any{
			"type":  b.req.Type.String(),
			"code":  types.ErrorCode(err),
			"error": err.Error(),
		})
		return nil, err
	}

	b.setState(StateDone)
	b.metrics.IncCounter(metrics.EventPaymentSent, map[string]string{"coin": result.Coin})
	return result, nil
}

func (b *Builder) pay(ctx context.Context) (*types.PaymentResult, error) {
	start := time.Now()
	defer func() {
		b.metrics.ObserveLatency(metrics.OpPay, time.Since(start), nil)
	}()

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	coins := b.SupportedCoins()
	if len(coins) == 0 {
		return nil, types.NewError(types.ErrUnsupportedCoin, "no payment coins to choose from")
	}

	preferred := strings.ToLower(strings.TrimSpace(b.req.Coin))
	if preferred != "" && !slices.Contains(coins, preferred) {
		return nil, &types.Error{
			Code:    types.ErrUnsupportedCoin,
			Message: fmt.Sprintf("artifact does not accept %s", preferred),
			Coin:    preferred,
		}
	}

	b.setState(StateResolveAmount)
	target, coinDenominated, err := b.ResolveAmount()
	if err != nil {
		return nil, err
	}

	b.log.Debug("resolved payment target", map[string]any{
		"type":             b.req.Type.String(),
		"target":           target.String(),
		"coin_denominated": coinDenominated,
		"coins":            coins,
	})

	// Rates and balances are independent round trips, so they run at once.
	// Coin denominated tips never consult a rate source.
	var (
		wg       sync.WaitGroup
		rateTab  types.RateTable
		rateErr  error
		balances types.BalanceTable
		balErr   error
	)

	if coinDenominated {
		b.setState(StateFetchBalances)
	} else {
		b.setState(StateFetchRates)
		wg.Add(1)
		go func() {
			defer wg.Done()
			rateTab, rateErr = b.ExchangeRates(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		balances, balErr = b.WalletBalances(ctx)
	}()

	wg.Wait()

	if rateErr != nil {
		return nil, rateErr
	}
	if balErr != nil {
		return nil, balErr
	}

	b.setState(StateConvert)
	costs, err := ConvertCosts(coins, rateTab, target, coinDenominated)
	if err != nil {
		return nil, err
	}

	b.setState(StateSelectCoin)
	selected, err := SelectCoin(coins, balances, costs, preferred)
	if err != nil {
		return nil, err
	}

	address, ok := b.PaymentAddress(selected)
	if !ok {
		return nil, &types.Error{
			Code:    types.ErrUnsupportedCoin,
			Message: fmt.Sprintf("no payment address for %s", selected),
			Coin:    selected,
		}
	}

	b.setState(StateExecute)
	txid, err := b.SendPayment(ctx, selected, address, costs[selected])
	if err != nil {
		return nil, err
	}

	result := &types.PaymentResult{
		TxID:         txid,
		Coin:         selected,
		Address:      address,
		Amount:       costs[selected],
		Type:         b.req.Type,
		ArtifactTXID: b.req.Artifact.TXID,
		Timestamp:    time.Now().UTC(),
	}
	if !coinDenominated {
		result.Fiat = b.quoteFiat()
		result.FiatValue = target
	}
	return result, nil
}
