package oipaccount

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oipwg/oip-account/rates"
	"github.com/oipwg/oip-account/storage"
	"github.com/oipwg/oip-account/types"
	"github.com/oipwg/oip-account/wallet"
)

const (
	btcAddr = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	ltcAddr = "LbYvZ3KPDcxEc2qkKXhZJbPCGbqEV5K6CT"
	floAddr = "F8P6nUvDfcHikqdUnoQaGPBVxoMcUSpGDp"
)

func testArtifact() *types.Artifact {
	return &types.Artifact{
		TXID:  "0b4e1a52c0e1e6a3",
		Title: "Barn Owls At Night",
		Payment: types.PaymentDetails{
			Fiat: "usd",
			Addresses: types.NewPaymentAddressSet(
				types.PaymentAddress{Coin: "btc", Address: btcAddr},
				types.PaymentAddress{Coin: "ltc", Address: ltcAddr},
				types.PaymentAddress{Coin: "flo", Address: floAddr},
			),
		},
		Files: []types.ArtifactFile{{
			Name:    "owls.mp4",
			SugPlay: decimal.RequireFromString("0.0012"),
			SugBuy:  decimal.RequireFromString("0.25"),
		}},
	}
}

func testRates() *rates.StaticSource {
	return rates.NewStaticSource(map[string]decimal.Decimal{
		"flo":      decimal.RequireFromString("0.01"),
		"bitcoin":  decimal.NewFromInt(20000),
		"litecoin": decimal.NewFromInt(60),
	})
}

func testWallet() *wallet.StaticWallet {
	return wallet.NewStaticWallet(map[string]decimal.Decimal{
		"flo": decimal.NewFromInt(1),
		"btc": decimal.Zero,
		"ltc": decimal.Zero,
	})
}

func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()

	acct, err := New("finder@keeper.net", "hunter2", WithStorage(store))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	id, err := acct.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id == "" || acct.ID() != id {
		t.Fatalf("Create() id = %q, ID() = %q, want matching non-empty ids", id, acct.ID())
	}

	if err := acct.SetSetting("autoPay", true); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}
	if err := acct.SetWalletSeed("ranch exotic vote leader blast cute vibrant"); err != nil {
		t.Fatalf("SetWalletSeed() error = %v", err)
	}
	if err := acct.Store(ctx); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	acct.Logout()
	if _, err := acct.Data(); !types.IsCode(err, types.ErrAuthFailed) {
		t.Fatalf("Data() after logout error = %v, want %s", err, types.ErrAuthFailed)
	}

	again, err := New(id, "hunter2", WithStorage(store))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := again.Login(ctx); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	data, err := again.Data()
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	if data.Email != "finder@keeper.net" {
		t.Errorf("email = %q, want finder@keeper.net", data.Email)
	}
	if data.WalletSeed == "" {
		t.Error("wallet seed not persisted")
	}
	if v, ok := again.Setting("autoPay"); !ok || v != true {
		t.Errorf("Setting(autoPay) = %v, %v; want true", v, ok)
	}
}

func TestAccountWrongPassword(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()

	acct, err := New("acct-1", "hunter2", WithStorage(store))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := acct.Create(ctx); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	intruder, err := New("acct-1", "letmein", WithStorage(store))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := intruder.Login(ctx); !types.IsCode(err, types.ErrAuthFailed) {
		t.Fatalf("Login() error = %v, want %s", err, types.ErrAuthFailed)
	}
}

func TestAccountPayArtifact(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	w := testWallet()

	acct, err := New("acct-1", "hunter2",
		WithStorage(store),
		WithWallet(w),
		WithRateSource(testRates()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	id, err := acct.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := acct.PayArtifact(ctx, testArtifact(), "owls.mp4", types.PurchaseView)
	if err != nil {
		t.Fatalf("PayArtifact() error = %v", err)
	}
	if res.Coin != "flo" {
		t.Fatalf("PayArtifact() coin = %q, want flo", res.Coin)
	}
	if res.Address != floAddr {
		t.Errorf("PayArtifact() address = %q, want %q", res.Address, floAddr)
	}
	if want := decimal.RequireFromString("0.12"); !res.Amount.Equal(want) {
		t.Errorf("PayArtifact() amount = %s, want %s", res.Amount, want)
	}
	if res.Fiat != "usd" || !res.FiatValue.Equal(decimal.RequireFromString("0.0012")) {
		t.Errorf("fiat side = %s %s, want usd 0.0012", res.FiatValue, res.Fiat)
	}
	if len(w.Sends()) != 1 {
		t.Fatalf("wallet recorded %d sends, want 1", len(w.Sends()))
	}

	history, err := acct.History()
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 || history[0].TxID != res.TxID {
		t.Fatalf("history = %+v, want the payment result", history)
	}

	// History survives a store/login cycle.
	if err := acct.Store(ctx); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	reload, err := New(id, "hunter2", WithStorage(store))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := reload.Login(ctx); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	persisted, err := reload.History()
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(persisted) != 1 || persisted[0].TxID != res.TxID {
		t.Fatalf("persisted history = %+v, want the payment result", persisted)
	}
}

func TestAccountTipArtifactCoinDenominated(t *testing.T) {
	ctx := context.Background()
	w := testWallet()

	acct, err := New("acct-1", "hunter2", WithWallet(w), WithRateSource(testRates()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := acct.Create(ctx); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := acct.TipArtifact(ctx, testArtifact(), decimal.RequireFromString("0.5"), "flo")
	if err != nil {
		t.Fatalf("TipArtifact() error = %v", err)
	}
	if res.Coin != "flo" || !res.Amount.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("TipArtifact() sent %s %s, want 0.5 flo", res.Amount, res.Coin)
	}
	if res.Fiat != "" || !res.FiatValue.IsZero() {
		t.Errorf("coin tip carries a fiat side: %s %s", res.FiatValue, res.Fiat)
	}
	if res.Type != types.PurchaseTip {
		t.Errorf("result type = %q, want tip", res.Type)
	}
}

func TestAccountPayRequiresWallet(t *testing.T) {
	ctx := context.Background()

	acct, err := New("acct-1", "hunter2", WithRateSource(testRates()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := acct.Create(ctx); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = acct.PayArtifact(ctx, testArtifact(), "owls.mp4", types.PurchaseView)
	if !types.IsCode(err, types.ErrConfigError) {
		t.Fatalf("PayArtifact() error = %v, want %s", err, types.ErrConfigError)
	}
}

func TestAccountPayRequiresLogin(t *testing.T) {
	acct, err := New("acct-1", "hunter2", WithWallet(testWallet()), WithRateSource(testRates()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = acct.PayArtifact(context.Background(), testArtifact(), "owls.mp4", types.PurchaseView)
	if !types.IsCode(err, types.ErrAuthFailed) {
		t.Fatalf("PayArtifact() error = %v, want %s", err, types.ErrAuthFailed)
	}
}

func TestNewValidatesInputs(t *testing.T) {
	if _, err := New("", "hunter2"); !types.IsCode(err, types.ErrInvalidRequest) {
		t.Errorf("New with empty identifier error = %v, want %s", err, types.ErrInvalidRequest)
	}
	if _, err := New("acct-1", ""); !types.IsCode(err, types.ErrAuthFailed) {
		t.Errorf("New with empty password error = %v, want %s", err, types.ErrAuthFailed)
	}
}

func TestAccountWithConfig(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	acct, err := New("acct-1", "hunter2",
		WithConfig(&types.Config{
			DefaultFiat: "eur",
			StorageDir:  dir,
			Timeout:     5 * time.Second,
		}),
		WithWallet(testWallet()),
		WithRateSource(testRates()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if acct.fiat != "eur" {
		t.Errorf("fiat = %q, want eur from config", acct.fiat)
	}
	if acct.timeout != 5*time.Second {
		t.Errorf("timeout = %s, want 5s from config", acct.timeout)
	}

	id, err := acct.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, id+".json")); err != nil {
		t.Fatalf("config storage dir not used: %v", err)
	}
}

func TestAccountOptionBeatsConfig(t *testing.T) {
	acct, err := New("acct-1", "hunter2",
		WithFiat("cad"),
		WithConfig(&types.Config{DefaultFiat: "eur"}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if acct.fiat != "cad" {
		t.Errorf("fiat = %q, want the explicit option to win", acct.fiat)
	}
}

func TestAccountRejectsBadConfig(t *testing.T) {
	_, err := New("acct-1", "hunter2", WithConfig(&types.Config{DefaultFiat: "euros"}))
	if !types.IsCode(err, types.ErrConfigError) {
		t.Fatalf("New() error = %v, want %s", err, types.ErrConfigError)
	}
}
