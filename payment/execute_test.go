package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oipwg/oip-account/types"
	"github.com/oipwg/oip-account/wallet"
)

func sendBuilder(t *testing.T, w wallet.Wallet) *Builder {
	t.Helper()
	req := &types.PaymentRequest{Artifact: testArtifact(), Type: types.PurchaseView, FileName: "owls.mp4"}
	b, err := New(w, testRates(), req)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	return b
}

func TestSendPaymentRejectsNonPositiveAmount(t *testing.T) {
	w := testWallet()
	b := sendBuilder(t, w)

	for _, amount := range []decimal.Decimal{decimal.Zero, d("-0.1")} {
		_, err := b.SendPayment(context.Background(), "flo", floAddr, amount)
		if !types.IsCode(err, types.ErrInvalidRequest) {
			t.Errorf("amount %s: code = %q, want %s", amount, types.ErrorCode(err), types.ErrInvalidRequest)
		}
	}
	if len(w.Sends()) != 0 {
		t.Errorf("wallet must not be touched for invalid amounts")
	}
}

func TestSendPaymentRejectsBadAddress(t *testing.T) {
	w := testWallet()
	b := sendBuilder(t, w)

	_, err := b.SendPayment(context.Background(), "flo", btcAddr, d("0.1"))
	if !types.IsCode(err, types.ErrInvalidRequest) {
		t.Fatalf("code = %q, want %s", types.ErrorCode(err), types.ErrInvalidRequest)
	}
	if len(w.Sends()) != 0 {
		t.Errorf("wallet must not be touched for a bad address")
	}
}

func TestSendPaymentWrapsWalletError(t *testing.T) {
	w := testWallet()
	cause := errors.New("daemon offline")
	w.FailSend(cause)
	b := sendBuilder(t, w)

	_, err := b.SendPayment(context.Background(), "flo", floAddr, d("0.1"))
	if !types.IsCode(err, types.ErrPaymentExecutionFailed) {
		t.Fatalf("code = %q, want %s", types.ErrorCode(err), types.ErrPaymentExecutionFailed)
	}
	if !errors.Is(err, cause) {
		t.Errorf("wallet cause should stay reachable")
	}
}

func TestSendPaymentNormalizesEVMAddress(t *testing.T) {
	w := wallet.NewStaticWallet(map[string]decimal.Decimal{"eth": d("2")})
	art := testArtifact()
	art.Payment.Addresses = types.NewPaymentAddressSet(
		types.PaymentAddress{Coin: "eth", Address: "0x742d35cc6634c0532925a3b844bc454e4438f44e"},
	)
	req := &types.PaymentRequest{Artifact: art, Type: types.PurchaseView, FileName: "owls.mp4"}
	b, err := New(w, testRates(), req)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}

	if _, err := b.SendPayment(context.Background(), "eth", "0x742d35cc6634c0532925a3b844bc454e4438f44e", d("1")); err != nil {
		t.Fatalf("send: %v", err)
	}

	sends := w.Sends()
	if len(sends) != 1 {
		t.Fatalf("sends = %d", len(sends))
	}
	if sends[0].Address != "0x742d35Cc6634C0532925a3b844Bc454e4438f44e" {
		t.Errorf("wallet should receive the checksummed address, got %s", sends[0].Address)
	}
}
