// Package copperx is the adapter for the remote payout API. The conversation
// layer talks to it through the Gateway interface and only ever sees typed
// payloads or an *APIError.
package copperx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/logger"
	"log/slog"
)

// Gateway executes payout API operations. Authenticated operations take the
// session's bearer token explicitly because one process serves many chats.
type Gateway interface {
	RequestOTP(ctx context.Context, email string) (sid string, err error)
	VerifyOTP(ctx context.Context, email, otp, sid string) (*AuthResult, error)

	Profile(ctx context.Context, token string) (*Profile, error)
	KYCStatus(ctx context.Context, token string) ([]KYC, error)
	Wallets(ctx context.Context, token string) ([]Wallet, error)
	Balances(ctx context.Context, token string) ([]WalletBalance, error)
	DefaultWallet(ctx context.Context, token string) (*Wallet, error)
	SetDefaultWallet(ctx context.Context, token, walletID string) (*Wallet, error)
	DefaultBankAccount(ctx context.Context, token string) (*BankAccount, error)

	OffRampQuote(ctx context.Context, token string, req QuoteRequest) (*Quote, error)
	SubmitWithdrawal(ctx context.Context, token string, req WithdrawalRequest) (*Transfer, error)
	SendTransfer(ctx context.Context, token string, req TransferRequest) (*Transfer, error)
	SendBulkTransfer(ctx context.Context, token string, items []BulkTransferItem) (*BulkTransferResponse, error)

	NotificationAuth(ctx context.Context, token, socketID, channel string) (*ChannelAuth, error)
}

// Client implements Gateway over JSON/HTTPS.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Gateway client with a fixed per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				ForceAttemptHTTP2:   true,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	took := time.Since(start)
	if err != nil {
		logger.API.Warn("api request failed",
			slog.String("event", "api.request"),
			slog.String("op", method+" "+path),
			slog.String("status", "fail"),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		msg := "The payment service is unreachable. Please try again shortly."
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "The payment service timed out. Please try again."
		}
		return &APIError{Message: msg}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &APIError{Message: "Could not read the service response.", StatusCode: resp.StatusCode}
	}

	logger.API.Debug("api request",
		slog.String("event", "api.request"),
		slog.String("op", method+" "+path),
		slog.Int("http_code", resp.StatusCode),
		slog.Duration("duration", logger.RoundMS(took)),
	)

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		msg := eb.text()
		if msg == "" {
			if resp.StatusCode >= 500 {
				msg = "The payment service had an internal error. Please try again shortly."
			} else {
				msg = http.StatusText(resp.StatusCode)
			}
		}
		return &APIError{Message: msg, StatusCode: resp.StatusCode}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Message: "Unexpected response from the payment service.", StatusCode: resp.StatusCode}
	}
	return nil
}

// RequestOTP asks the API to email a one-time passcode.
func (c *Client) RequestOTP(ctx context.Context, email string) (string, error) {
	var out struct {
		Email string `json:"email"`
		SID   string `json:"sid"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/email-otp/request",
		"", map[string]string{"email": email}, &out)
	if err != nil {
		return "", err
	}
	return out.SID, nil
}

// VerifyOTP exchanges the passcode for a bearer token.
func (c *Client) VerifyOTP(ctx context.Context, email, otp, sid string) (*AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/email-otp/authenticate",
		"", map[string]string{"email": email, "otp": otp, "sid": sid}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile fetches the authenticated account.
func (c *Client) Profile(ctx context.Context, token string) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// KYCStatus lists the account's KYC records.
func (c *Client) KYCStatus(ctx context.Context, token string) ([]KYC, error) {
	var out struct {
		Data []KYC `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/kycs", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Wallets lists the organization's wallets.
func (c *Client) Wallets(ctx context.Context, token string) ([]Wallet, error) {
	var out []Wallet
	if err := c.do(ctx, http.MethodGet, "/api/wallets", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Balances lists balances across wallets.
func (c *Client) Balances(ctx context.Context, token string) ([]WalletBalance, error) {
	var out []WalletBalance
	if err := c.do(ctx, http.MethodGet, "/api/wallets/balances", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DefaultWallet fetches the wallet used for outgoing transfers.
func (c *Client) DefaultWallet(ctx context.Context, token string) (*Wallet, error) {
	var out Wallet
	if err := c.do(ctx, http.MethodGet, "/api/wallets/default", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetDefaultWallet changes the wallet used for outgoing transfers.
func (c *Client) SetDefaultWallet(ctx context.Context, token, walletID string) (*Wallet, error) {
	var out Wallet
	err := c.do(ctx, http.MethodPost, "/api/wallets/default",
		token, map[string]string{"walletId": walletID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DefaultBankAccount returns the default off-ramp destination, or an
// APIError with status 404 when none is linked.
func (c *Client) DefaultBankAccount(ctx context.Context, token string) (*BankAccount, error) {
	var out struct {
		Data []BankAccount `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/bank-accounts", token, nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Data {
		if out.Data[i].IsDefault {
			return &out.Data[i], nil
		}
	}
	if len(out.Data) > 0 {
		return &out.Data[0], nil
	}
	return nil, &APIError{Message: "No bank account is linked to this account.", StatusCode: http.StatusNotFound}
}

// OffRampQuote requests a signed withdrawal quote.
func (c *Client) OffRampQuote(ctx context.Context, token string, req QuoteRequest) (*Quote, error) {
	var out Quote
	if err := c.do(ctx, http.MethodPost, "/api/quotes/offramp", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitWithdrawal submits a quoted bank withdrawal.
func (c *Client) SubmitWithdrawal(ctx context.Context, token string, req WithdrawalRequest) (*Transfer, error) {
	var out Transfer
	if err := c.do(ctx, http.MethodPost, "/api/transfers/offramp", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendTransfer submits a single transfer.
func (c *Client) SendTransfer(ctx context.Context, token string, req TransferRequest) (*Transfer, error) {
	var out Transfer
	if err := c.do(ctx, http.MethodPost, "/api/transfers/send", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendBulkTransfer submits a batch of transfers in one call.
func (c *Client) SendBulkTransfer(ctx context.Context, token string, items []BulkTransferItem) (*BulkTransferResponse, error) {
	var out BulkTransferResponse
	err := c.do(ctx, http.MethodPost, "/api/transfers/send-batch",
		token, map[string]any{"requests": items}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// NotificationAuth signs a private realtime channel subscription.
func (c *Client) NotificationAuth(ctx context.Context, token, socketID, channel string) (*ChannelAuth, error) {
	var out ChannelAuth
	err := c.do(ctx, http.MethodPost, "/api/notifications/auth",
		token, map[string]string{"socketId": socketID, "channelName": channel}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

var _ Gateway = (*Client)(nil)
