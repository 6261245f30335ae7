package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oipwg/oip-account/logger"
)

// DaemonClient talks to an external wallet daemon over HTTP. The daemon owns
// the keys; this client only reads balances and submits sends:
//
//	GET  {base}/v1/wallet/{coin}/balance
//	POST {base}/v1/wallet/{coin}/send
//
// Amounts cross the wire as decimal strings so no precision is lost.
type DaemonClient struct {
	baseURL string
	client  *http.Client
	log     logger.Logger
}

// NewDaemonClient builds a client for the daemon at baseURL. A nil http
// client gets a 30 second timeout of its own.
func NewDaemonClient(baseURL string, client *http.Client, log logger.Logger) *DaemonClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &DaemonClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     logger.OrNoop(log),
	}
}

type balanceResponse struct {
	Coin    string          `json:"coin"`
	Balance decimal.Decimal `json:"balance"`
}

type sendRequest struct {
	Address string          `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
}

type sendResponse struct {
	TxID string `json:"txid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Balance asks the daemon for the spendable balance of a coin.
func (d *DaemonClient) Balance(ctx context.Context, coin string) (decimal.Decimal, error) {
	if d.baseURL == "" {
		return decimal.Decimal{}, fmt.Errorf("wallet daemon URL not configured")
	}

	reqURL := fmt.Sprintf("%s/v1/wallet/%s/balance", d.baseURL, url.PathEscape(strings.ToLower(coin)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("build balance request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("wallet daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("read balance response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("balance lookup for %s failed: %s", coin, daemonError(resp.StatusCode, body))
	}

	var out balanceResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode balance response: %w", err)
	}
	if out.Balance.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("wallet daemon reported negative %s balance %s", coin, out.Balance)
	}

	return out.Balance, nil
}

// Send asks the daemon to pay amount of coin to address. It returns the
// transaction id the daemon reports.
func (d *DaemonClient) Send(ctx context.Context, coin, address string, amount decimal.Decimal) (string, error) {
	if d.baseURL == "" {
		return "", fmt.Errorf("wallet daemon URL not configured")
	}

	payload, err := json.Marshal(sendRequest{Address: address, Amount: amount})
	if err != nil {
		return "", fmt.Errorf("encode send request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/wallet/%s/send", d.baseURL, url.PathEscape(strings.ToLower(coin)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	d.log.Info("submitting send to wallet daemon", map[string]any{
		"coin":    coin,
		"address": address,
		"amount":  amount.String(),
	})

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("wallet daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read send response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("send of %s %s failed: %s", amount, coin, daemonError(resp.StatusCode, body))
	}

	var out sendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode send response: %w", err)
	}
	if out.TxID == "" {
		return "", fmt.Errorf("wallet daemon returned no transaction id")
	}

	return out.TxID, nil
}

func daemonError(status int, body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return fmt.Sprintf("status %d: %s", status, e.Error)
	}
	return fmt.Sprintf("status %d", status)
}
