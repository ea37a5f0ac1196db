package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	tg "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/session"
)

func TestInProgressTracksFlowStates(t *testing.T) {
	b, _ := newTestBot(&mockGateway{})

	assert.False(t, b.InProgress(chatID))

	b.sessions.SetState(chatID, session.StateAwaitEmail)
	assert.True(t, b.InProgress(chatID))

	b.sessions.Update(chatID, func(s *session.Session) {
		s.Token = "tok"
		s.State = session.StateAuthenticated
	})
	assert.False(t, b.InProgress(chatID))
}

func TestUnmatchedTextLeavesStateUnchanged(t *testing.T) {
	b, _ := newTestBot(&mockGateway{})
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Token = "tok"
		s.Bulk = &session.BulkDraft{}
		s.State = session.StateBulkMenu
	})

	c := newFakeContext(chatID, "what do I do now")
	require.NoError(t, b.ManagerHandler(c))

	assert.Equal(t, session.StateBulkMenu, b.sessions.GetState(chatID))
	assert.NotEmpty(t, c.lastSent())
}

func TestAuthGateRejectsBeforeRemoteCall(t *testing.T) {
	gw := &mockGateway{}
	b, _ := newTestBot(gw)
	reg := tg.NewRegistry()
	b.Register(reg)

	for _, name := range []string{"/profile", "/balance", "/wallets", "/send", "/withdraw", "/bulk", "/history"} {
		_, cmd, ok := reg.LookupCommand(name)
		require.True(t, ok, name)

		c := newFakeContext(chatID, name)
		require.NoError(t, cmd.Handler(c), name)
		assert.Contains(t, c.lastSent(), "/login", name)
	}

	gw.AssertNotCalled(t, "Profile", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "Balances", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "Wallets", mock.Anything, mock.Anything)
	assert.Equal(t, session.StateIdle, b.sessions.GetState(chatID))
}

func TestRegisterWiresAllCommands(t *testing.T) {
	b, _ := newTestBot(&mockGateway{})
	reg := tg.NewRegistry()
	b.Register(reg)

	for _, name := range []string{
		"/start", "/help", "/login", "/logout", "/exit", "/cancel",
		"/profile", "/kyc", "/balance", "/wallets", "/default", "/history",
		"/send", "/withdraw", "/bulk", "/add_recipient", "/review", "/clear", "/send_bulk",
	} {
		_, _, ok := reg.LookupCommand(name)
		assert.True(t, ok, name)
	}

	// The documented alias resolves to the same command.
	key, _, ok := reg.LookupCommand("/bulk_start")
	require.True(t, ok)
	assert.Equal(t, "/bulk", key)

	for _, cb := range []string{
		cbAuthResend, cbSetDefaultWallet, cbTransferPurpose,
		cbTransferConfirm, cbWithdrawPurpose, cbBulkPurpose,
	} {
		_, ok := reg.GetCallback(cb)
		assert.True(t, ok, cb)
	}
}
