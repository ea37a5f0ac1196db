package flows

import (
	"context"

	"github.com/stretchr/testify/mock"
	tele "gopkg.in/telebot.v4"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/copperx"
)

// fakeContext implements the slice of tele.Context the handlers touch;
// everything else panics through the embedded nil interface, which is what
// we want in a test.
type fakeContext struct {
	tele.Context

	sender   *tele.User
	text     string
	callback *tele.Callback
	store    map[string]interface{}

	sent []string
}

func newFakeContext(chatID int64, text string) *fakeContext {
	return &fakeContext{
		sender: &tele.User{ID: chatID},
		text:   text,
		store:  map[string]interface{}{},
	}
}

func newFakeCallback(chatID int64, unique, payload string) *fakeContext {
	c := newFakeContext(chatID, "")
	c.callback = &tele.Callback{Data: "\f" + unique + "|" + payload}
	return c
}

func (f *fakeContext) Sender() *tele.User       { return f.sender }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.callback }
func (f *fakeContext) Update() tele.Update      { return tele.Update{} }

func (f *fakeContext) Get(key string) interface{}      { return f.store[key] }
func (f *fakeContext) Set(key string, v interface{})   { f.store[key] = v }
func (f *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

func (f *fakeContext) EditOrSend(what interface{}, _ ...interface{}) error {
	return f.Send(what)
}

func (f *fakeContext) lastSent() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

// mockGateway is a testify mock over the payout API.
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) RequestOTP(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) VerifyOTP(ctx context.Context, email, otp, sid string) (*copperx.AuthResult, error) {
	args := m.Called(ctx, email, otp, sid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*copperx.AuthResult), args.Error(1)
}

func (m *mockGateway) Profile(ctx context.Context, token string) (*copperx.Profile, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*copperx.Profile), args.Error(1)
}

func (m *mockGateway) KYCStatus(ctx context.Context, token string) ([]copperx.KYC, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]copperx.KYC), args.Error(1)
}

func (m *mockGateway) Wallets(ctx context.Context, token string) ([]copperx.Wallet, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]copperx.Wallet), args.Error(1)
}

func (m *mockGateway) Balances(ctx context.Context, token string) ([]copperx.WalletBalance, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]copperx.WalletBalance), args.Error(1)
}

func (m *mockGateway) DefaultWallet(ctx context.Context, token string) (*copperx.Wallet, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*copperx.Wallet), args.Error(1)
}

func (m *mockGateway) SetDefaultWallet(ctx context.Context, token, walletID string) (*copperx.Wallet, error) {
	args := m.Called(ctx, token, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*copperx.Wallet), args.Error(1)
}

func (m *mockGateway) DefaultBankAccount(ctx context.Context, token string) (*copperx.BankAccount, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*copperx.BankAccount), args.Error(1)
}

func (m *mockGateway) OffRampQuote(ctx context.Context, token string, req copperx.QuoteRequest) (*copperx.Quote, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*copperx.Quote), args.Error(1)
}

func (m *mockGateway) SubmitWithdrawal(ctx context.Context, token string, req copperx.WithdrawalRequest) (*copperx.Transfer, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*copperx.Transfer), args.Error(1)
}

func (m *mockGateway) SendTransfer(ctx context.Context, token string, req copperx.TransferRequest) (*copperx.Transfer, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*copperx.Transfer), args.Error(1)
}

func (m *mockGateway) SendBulkTransfer(ctx context.Context, token string, items []copperx.BulkTransferItem) (*copperx.BulkTransferResponse, error) {
	args := m.Called(ctx, token, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*copperx.BulkTransferResponse), args.Error(1)
}

func (m *mockGateway) NotificationAuth(ctx context.Context, token, socketID, channel string) (*copperx.ChannelAuth, error) {
	args := m.Called(ctx, token, socketID, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*copperx.ChannelAuth), args.Error(1)
}

// fakeNotifications records open/close calls.
type fakeNotifications struct {
	opened []int64
	closed []int64
}

func (f *fakeNotifications) Open(_ context.Context, chatID int64, _ string, _ Authorize) error {
	f.opened = append(f.opened, chatID)
	return nil
}
func (f *fakeNotifications) Close(chatID int64) { f.closed = append(f.closed, chatID) }
func (f *fakeNotifications) CloseAll()          {}
func (f *fakeNotifications) Active(chatID int64) bool {
	for _, id := range f.opened {
		if id == chatID {
			return true
		}
	}
	return false
}

var _ copperx.Gateway = (*mockGateway)(nil)
