package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oipwg/oip-account/metrics"
	"github.com/oipwg/oip-account/types"
	"github.com/oipwg/oip-account/utils"
)

// SendPayment validates one send and submits it through the wallet. The
// amount must be positive and the address well formed before the wallet is
// touched. The wallet is called at most once.
func (b *Builder) SendPayment(ctx context.Context, coin, address string, amount decimal.Decimal) (string, error) {
	if err := utils.ValidatePositiveAmount(amount); err != nil {
		return "", &types.Error{
			Code:    types.ErrInvalidRequest,
			Message: fmt.Sprintf("refusing to send %s", coin),
			Coin:    coin,
			Err:     err,
		}
	}

	normalized, err := utils.NormalizeAddress(coin, address)
	if err != nil {
		return "", &types.Error{
			Code:    types.ErrInvalidRequest,
			Message: fmt.Sprintf("bad %s payment address", coin),
			Coin:    coin,
			Err:     err,
		}
	}

	start := time.Now()
	txid, err := b.wallet.Send(ctx, coin, normalized, amount)
	b.metrics.ObserveLatency(metrics.OpSendPayment, time.Since(start), map[string]string{"coin": coin})
	if err != nil {
		return "", &types.Error{
			Code:    types.ErrPaymentExecutionFailed,
			Message: fmt.Sprintf("wallet failed to send %s %s", amount, coin),
			Coin:    coin,
			Err:     err,
		}
	}

	// The payment already happened at this point, so an odd looking id is
	// logged rather than turned into a failure.
	if err := utils.ValidateTxID(coin, txid); err != nil {
		b.log.Warn("wallet returned unexpected transaction id", map[string]any{
			"coin": coin,
			"txid": txid,
		})
	}

	b.log.Info("payment sent", map[string]any{
		"coin":    coin,
		"address": normalized,
		"amount":  amount.String(),
		"txid":    txid,
	})

	return txid, nil
}
