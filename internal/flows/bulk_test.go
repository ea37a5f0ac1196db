package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/copperx"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/session"
)

func addBulkEntry(t *testing.T, b *Bot, recipient, amount, purpose string) {
	t.Helper()
	require.NoError(t, b.BulkAddRecipient(newFakeContext(chatID, "/add_recipient")))
	require.NoError(t, b.ManagerHandler(newFakeContext(chatID, recipient)))
	require.NoError(t, b.ManagerHandler(newFakeContext(chatID, amount)))
	require.NoError(t, b.BulkPurpose(newFakeCallback(chatID, cbBulkPurpose, purpose)))
}

func usdBalance(amount string) []copperx.WalletBalance {
	return []copperx.WalletBalance{{
		WalletID:  "w-1",
		IsDefault: true,
		Balances:  []copperx.Balance{{Balance: amount, Symbol: "USD"}},
	}}
}

func TestBulkFlowBuildsEntries(t *testing.T) {
	gw := &mockGateway{}
	b := authedBot(gw)

	require.NoError(t, b.StartBulk(newFakeContext(chatID, "/bulk")))
	assert.Equal(t, session.StateBulkMenu, b.sessions.GetState(chatID))

	addBulkEntry(t, b, "a@b.com", "5", "self")
	addBulkEntry(t, b, "0x1234567890abcdef1234567890abcdef12345678", "3", "gift")

	sess := b.sessions.Get(chatID)
	require.NotNil(t, sess.Bulk)
	require.Len(t, sess.Bulk.Entries, 2)
	assert.Equal(t, session.StateBulkMenu, sess.State)
	assert.Equal(t, "a@b.com", sess.Bulk.Entries[0].Recipient)
	assert.Equal(t, "self", sess.Bulk.Entries[0].PurposeCode)
	assert.NotEmpty(t, sess.Bulk.Entries[0].RequestID)
	assert.NotEqual(t, sess.Bulk.Entries[0].RequestID, sess.Bulk.Entries[1].RequestID)
}

func TestBulkRecipientPromptEscapesMarkdown(t *testing.T) {
	gw := &mockGateway{}
	b := authedBot(gw)

	require.NoError(t, b.StartBulk(newFakeContext(chatID, "/bulk")))
	require.NoError(t, b.BulkAddRecipient(newFakeContext(chatID, "/add_recipient")))

	c := newFakeContext(chatID, "pay_roll@example.com")
	require.NoError(t, b.ManagerHandler(c))

	require.NotNil(t, b.sessions.Get(chatID).Bulk.Current)
	assert.Equal(t, "pay_roll@example.com", b.sessions.Get(chatID).Bulk.Current.Recipient)
	assert.Contains(t, c.lastSent(), `pay\_roll@example.com`)
	assert.NotContains(t, c.lastSent(), "*pay_roll")
}

func TestBulkDuplicateRecipientRejectedWithZeroRemoteCalls(t *testing.T) {
	gw := &mockGateway{}
	b := authedBot(gw)

	require.NoError(t, b.StartBulk(newFakeContext(chatID, "/bulk")))
	addBulkEntry(t, b, "a@b.com", "5", "self")
	addBulkEntry(t, b, "a@b.com", "3", "gift")

	require.NoError(t, b.BulkReview(newFakeContext(chatID, "/review")))
	assert.Equal(t, session.StateAwaitBulkConfirm, b.sessions.GetState(chatID))

	c := newFakeContext(chatID, "yes")
	require.NoError(t, b.ManagerHandler(c))

	assert.Equal(t, session.StateBulkMenu, b.sessions.GetState(chatID))
	assert.Contains(t, c.lastSent(), "more than once")
	gw.AssertNotCalled(t, "Balances", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "SendBulkTransfer", mock.Anything, mock.Anything, mock.Anything)
	// List survives rejection so the user can fix it.
	require.NotNil(t, b.sessions.Get(chatID).Bulk)
	assert.Len(t, b.sessions.Get(chatID).Bulk.Entries, 2)
}

func TestBulkExceedingBalanceRejected(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Balances", mock.Anything, "tok").Return(usdBalance("7"), nil)
	b := authedBot(gw)

	require.NoError(t, b.StartBulk(newFakeContext(chatID, "/bulk")))
	addBulkEntry(t, b, "a@b.com", "5", "self")
	addBulkEntry(t, b, "c@d.com", "3", "gift")

	require.NoError(t, b.BulkReview(newFakeContext(chatID, "/review")))
	c := newFakeContext(chatID, "yes")
	require.NoError(t, b.ManagerHandler(c))

	assert.Equal(t, session.StateBulkMenu, b.sessions.GetState(chatID))
	gw.AssertNotCalled(t, "SendBulkTransfer", mock.Anything, mock.Anything, mock.Anything)
}

func TestBulkWithinBalanceSubmits(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Balances", mock.Anything, "tok").Return(usdBalance("20"), nil)
	gw.On("SendBulkTransfer", mock.Anything, "tok", mock.MatchedBy(func(items []copperx.BulkTransferItem) bool {
		if len(items) != 2 {
			return false
		}
		return items[0].Request.Email == "a@b.com" &&
			items[1].Request.WalletAddress == "0x1234567890abcdef1234567890abcdef12345678"
	})).Return(&copperx.BulkTransferResponse{}, nil).Once()
	b := authedBot(gw)

	require.NoError(t, b.StartBulk(newFakeContext(chatID, "/bulk")))
	addBulkEntry(t, b, "a@b.com", "5", "self")
	addBulkEntry(t, b, "0x1234567890abcdef1234567890abcdef12345678", "3", "gift")

	require.NoError(t, b.BulkReview(newFakeContext(chatID, "/review")))
	require.NoError(t, b.ManagerHandler(newFakeContext(chatID, "yes")))

	sess := b.sessions.Get(chatID)
	assert.Nil(t, sess.Bulk)
	assert.Equal(t, session.StateAuthenticated, sess.State)
	gw.AssertExpectations(t)
}

func TestBulkConfirmNoReturnsToMenu(t *testing.T) {
	gw := &mockGateway{}
	b := authedBot(gw)
	require.NoError(t, b.StartBulk(newFakeContext(chatID, "/bulk")))
	addBulkEntry(t, b, "a@b.com", "5", "self")
	require.NoError(t, b.BulkReview(newFakeContext(chatID, "/review")))

	require.NoError(t, b.ManagerHandler(newFakeContext(chatID, "no")))

	sess := b.sessions.Get(chatID)
	assert.Equal(t, session.StateBulkMenu, sess.State)
	require.NotNil(t, sess.Bulk)
	assert.Len(t, sess.Bulk.Entries, 1)
}

func TestBulkConfirmCancelDiscardsEverything(t *testing.T) {
	gw := &mockGateway{}
	b := authedBot(gw)
	require.NoError(t, b.StartBulk(newFakeContext(chatID, "/bulk")))
	addBulkEntry(t, b, "a@b.com", "5", "self")
	require.NoError(t, b.BulkReview(newFakeContext(chatID, "/review")))

	require.NoError(t, b.ManagerHandler(newFakeContext(chatID, "cancel")))

	sess := b.sessions.Get(chatID)
	assert.Equal(t, session.StateAuthenticated, sess.State)
	assert.Nil(t, sess.Bulk)
}

func TestBulkReviewEmptyListRefuses(t *testing.T) {
	gw := &mockGateway{}
	b := authedBot(gw)
	require.NoError(t, b.StartBulk(newFakeContext(chatID, "/bulk")))

	c := newFakeContext(chatID, "/review")
	require.NoError(t, b.BulkReview(c))

	assert.Equal(t, session.StateBulkMenu, b.sessions.GetState(chatID))
	assert.Contains(t, c.lastSent(), "empty")
}

func TestFindDuplicateRecipient(t *testing.T) {
	entries := []session.BulkEntry{
		{Recipient: "a@b.com"},
		{Recipient: "c@d.com"},
		{Recipient: "a@b.com"},
	}
	assert.Equal(t, "a@b.com", findDuplicateRecipient(entries))
	assert.Empty(t, findDuplicateRecipient(entries[:2]))
}

func TestExceedsBalance(t *testing.T) {
	entries := []session.BulkEntry{
		{Recipient: "a@b.com", Amount: "5", Currency: "USD"},
		{Recipient: "c@d.com", Amount: "3", Currency: "USD"},
	}

	over, currency, total, available := exceedsBalance(entries, usdBalance("7"))
	assert.True(t, over)
	assert.Equal(t, "USD", currency)
	assert.Equal(t, 8.0, total)
	assert.Equal(t, 7.0, available)

	over, _, _, _ = exceedsBalance(entries, usdBalance("8"))
	assert.False(t, over)
}
