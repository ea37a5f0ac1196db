package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/copperx"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/session"
)

func authedBot(gw copperx.Gateway) *Bot {
	b, _ := newTestBot(gw)
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Token = "tok"
		s.State = session.StateAuthenticated
	})
	return b
}

func TestTransferHappyPath(t *testing.T) {
	gw := &mockGateway{}
	gw.On("SendTransfer", mock.Anything, "tok", copperx.TransferRequest{
		Email:       "a@b.com",
		Amount:      "10",
		Currency:    "USD",
		PurposeCode: "gift",
	}).Return(&copperx.Transfer{ID: "tr-1", Status: "pending"}, nil).Once()
	b := authedBot(gw)

	require.NoError(t, b.StartTransfer(newFakeContext(chatID, "/send")))
	assert.Equal(t, session.StateAwaitTransferEmail, b.sessions.GetState(chatID))

	require.NoError(t, b.ManagerHandler(newFakeContext(chatID, "a@b.com")))
	assert.Equal(t, session.StateAwaitTransferAmount, b.sessions.GetState(chatID))

	require.NoError(t, b.ManagerHandler(newFakeContext(chatID, "10")))
	assert.Equal(t, session.StateAwaitTransferAmount, b.sessions.GetState(chatID))

	require.NoError(t, b.TransferPurpose(newFakeCallback(chatID, cbTransferPurpose, "gift")))

	c := newFakeCallback(chatID, cbTransferConfirm, "yes")
	require.NoError(t, b.TransferConfirm(c))

	sess := b.sessions.Get(chatID)
	assert.Equal(t, session.StateAuthenticated, sess.State)
	assert.Nil(t, sess.Transfer)
	assert.Contains(t, c.lastSent(), "Sent")
	gw.AssertExpectations(t)
}

func TestTransferRecipientPromptEscapesMarkdown(t *testing.T) {
	gw := &mockGateway{}
	b := authedBot(gw)
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Transfer = &session.TransferDraft{Currency: "USD"}
		s.State = session.StateAwaitTransferEmail
	})

	c := newFakeContext(chatID, "john_doe@example.com")
	require.NoError(t, b.ManagerHandler(c))

	assert.Equal(t, "john_doe@example.com", b.sessions.Get(chatID).Transfer.Recipient)
	assert.Contains(t, c.lastSent(), `john\_doe@example.com`)
	assert.NotContains(t, c.lastSent(), "*john_doe")
}

func TestInvalidAmountTwiceNeverMutatesDraft(t *testing.T) {
	gw := &mockGateway{}
	b := authedBot(gw)
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Transfer = &session.TransferDraft{Recipient: "a@b.com", Currency: "USD"}
		s.State = session.StateAwaitTransferAmount
	})

	for i := 0; i < 2; i++ {
		require.NoError(t, b.ManagerHandler(newFakeContext(chatID, "ten dollars")))
	}

	sess := b.sessions.Get(chatID)
	assert.Equal(t, session.StateAwaitTransferAmount, sess.State)
	require.NotNil(t, sess.Transfer)
	assert.Empty(t, sess.Transfer.Amount)
}

func TestTransferFailureKeepsDraft(t *testing.T) {
	gw := &mockGateway{}
	gw.On("SendTransfer", mock.Anything, "tok", mock.Anything).
		Return(nil, &copperx.APIError{Message: "Insufficient balance", StatusCode: 422})
	b := authedBot(gw)
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Transfer = &session.TransferDraft{Recipient: "a@b.com", Amount: "10", Currency: "USD", PurposeCode: "gift"}
		s.State = session.StateAwaitTransferAmount
	})

	c := newFakeCallback(chatID, cbTransferConfirm, "yes")
	require.NoError(t, b.TransferConfirm(c))

	sess := b.sessions.Get(chatID)
	require.NotNil(t, sess.Transfer)
	assert.Equal(t, "10", sess.Transfer.Amount)
	assert.Contains(t, c.lastSent(), "Insufficient balance")
}

func TestTransferConfirmNoDiscardsDraft(t *testing.T) {
	gw := &mockGateway{}
	b := authedBot(gw)
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Transfer = &session.TransferDraft{Recipient: "a@b.com", Amount: "10", Currency: "USD", PurposeCode: "gift"}
		s.State = session.StateAwaitTransferAmount
	})

	require.NoError(t, b.TransferConfirm(newFakeCallback(chatID, cbTransferConfirm, "no")))

	sess := b.sessions.Get(chatID)
	assert.Nil(t, sess.Transfer)
	assert.Equal(t, session.StateAuthenticated, sess.State)
	gw.AssertNotCalled(t, "SendTransfer", mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdrawRequiresDefaultWalletAndBank(t *testing.T) {
	gw := &mockGateway{}
	gw.On("DefaultWallet", mock.Anything, "tok").
		Return(nil, &copperx.APIError{Message: "not found", StatusCode: 404})
	b := authedBot(gw)

	c := newFakeContext(chatID, "/withdraw")
	require.NoError(t, b.StartWithdrawal(c))

	assert.Equal(t, session.StateAuthenticated, b.sessions.GetState(chatID))
	assert.Nil(t, b.sessions.Get(chatID).Withdrawal)
	assert.Contains(t, c.lastSent(), "/default")
	gw.AssertNotCalled(t, "DefaultBankAccount", mock.Anything, mock.Anything)
}

func TestWithdrawAmountFetchesQuote(t *testing.T) {
	gw := &mockGateway{}
	gw.On("OffRampQuote", mock.Anything, "tok", copperx.QuoteRequest{
		Amount:        "10000000000",
		Currency:      "USD",
		BankAccountID: "ba-1",
	}).Return(&copperx.Quote{
		QuotePayload:   "payload",
		QuoteSignature: "sig",
		ArrivalTime:    "1-2 business days",
	}, nil).Once()
	b := authedBot(gw)
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Withdrawal = &session.WithdrawalDraft{WalletID: "w-1", BankAccountID: "ba-1", Currency: "USD"}
		s.State = session.StateAwaitWithdrawAmount
	})

	require.NoError(t, b.ManagerHandler(newFakeContext(chatID, "100")))

	sess := b.sessions.Get(chatID)
	require.NotNil(t, sess.Withdrawal)
	assert.Equal(t, "payload", sess.Withdrawal.QuotePayload)
	assert.Equal(t, "sig", sess.Withdrawal.QuoteSig)
	assert.Equal(t, "100", sess.Withdrawal.Amount)
	gw.AssertExpectations(t)
}

func TestWithdrawPurposeSubmitsQuotedWithdrawal(t *testing.T) {
	gw := &mockGateway{}
	gw.On("SubmitWithdrawal", mock.Anything, "tok", copperx.WithdrawalRequest{
		PurposeCode:    "self",
		QuotePayload:   "payload",
		QuoteSignature: "sig",
	}).Return(&copperx.Transfer{ID: "wd-1", Status: "pending"}, nil).Once()
	b := authedBot(gw)
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Withdrawal = &session.WithdrawalDraft{
			WalletID: "w-1", BankAccountID: "ba-1",
			Amount: "100", Currency: "USD",
			QuotePayload: "payload", QuoteSig: "sig",
		}
		s.State = session.StateAwaitWithdrawAmount
	})

	c := newFakeCallback(chatID, cbWithdrawPurpose, "self")
	require.NoError(t, b.WithdrawPurpose(c))

	sess := b.sessions.Get(chatID)
	assert.Nil(t, sess.Withdrawal)
	assert.Equal(t, session.StateAuthenticated, sess.State)
	gw.AssertExpectations(t)
}
