package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/copperx"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/session"
)

const chatID = int64(1001)

func newTestBot(gw copperx.Gateway) (*Bot, *fakeNotifications) {
	notify := &fakeNotifications{}
	b := New(Options{
		Sessions: session.NewMemoryStore(),
		Gateway:  gw,
		Notify:   notify,
	})
	return b, notify
}

func TestLoginPromptsForEmail(t *testing.T) {
	b, _ := newTestBot(&mockGateway{})

	c := newFakeContext(chatID, "/login")
	require.NoError(t, b.Login(c))

	assert.Equal(t, session.StateAwaitEmail, b.sessions.GetState(chatID))
	assert.Contains(t, c.lastSent(), "email")
}

func TestLoginWhileAuthenticatedIsNoticeOnly(t *testing.T) {
	b, _ := newTestBot(&mockGateway{})
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Token = "tok"
		s.State = session.StateAuthenticated
	})

	c := newFakeContext(chatID, "/login")
	require.NoError(t, b.Login(c))

	assert.Equal(t, session.StateAuthenticated, b.sessions.GetState(chatID))
	assert.Contains(t, c.lastSent(), "already logged in")
}

func TestInvalidEmailStaysOnEmailStep(t *testing.T) {
	gw := &mockGateway{}
	b, _ := newTestBot(gw)
	b.sessions.SetState(chatID, session.StateAwaitEmail)

	c := newFakeContext(chatID, "not-an-email")
	require.NoError(t, b.ManagerHandler(c))

	assert.Equal(t, session.StateAwaitEmail, b.sessions.GetState(chatID))
	gw.AssertNotCalled(t, "RequestOTP", mock.Anything, mock.Anything)
}

func TestValidEmailRequestsOTPOnce(t *testing.T) {
	gw := &mockGateway{}
	gw.On("RequestOTP", mock.Anything, "user@example.com").Return("sid-1", nil).Once()
	b, _ := newTestBot(gw)
	b.sessions.SetState(chatID, session.StateAwaitEmail)

	c := newFakeContext(chatID, "user@example.com")
	require.NoError(t, b.ManagerHandler(c))

	assert.Equal(t, session.StateAwaitOTP, b.sessions.GetState(chatID))
	sess := b.sessions.Get(chatID)
	require.NotNil(t, sess.PendingAuth)
	assert.Equal(t, "user@example.com", sess.PendingAuth.Email)
	assert.Equal(t, "sid-1", sess.PendingAuth.SID)
	gw.AssertExpectations(t)
}

func TestOTPRequestFailureStaysOnEmailStep(t *testing.T) {
	gw := &mockGateway{}
	gw.On("RequestOTP", mock.Anything, "user@example.com").
		Return("", &copperx.APIError{Message: "Too many attempts", StatusCode: 429})
	b, _ := newTestBot(gw)
	b.sessions.SetState(chatID, session.StateAwaitEmail)

	c := newFakeContext(chatID, "user@example.com")
	require.NoError(t, b.ManagerHandler(c))

	assert.Equal(t, session.StateAwaitEmail, b.sessions.GetState(chatID))
	assert.Contains(t, c.lastSent(), "Too many attempts")
}

func TestShortOTPRejectedStateUnchanged(t *testing.T) {
	gw := &mockGateway{}
	b, _ := newTestBot(gw)
	b.sessions.Update(chatID, func(s *session.Session) {
		s.PendingAuth = &session.PendingAuth{Email: "user@example.com", SID: "sid-1"}
		s.State = session.StateAwaitOTP
	})

	c := newFakeContext(chatID, "12345")
	require.NoError(t, b.ManagerHandler(c))

	assert.Equal(t, session.StateAwaitOTP, b.sessions.GetState(chatID))
	gw.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidOTPAuthenticatesAndOpensChannel(t *testing.T) {
	gw := &mockGateway{}
	gw.On("VerifyOTP", mock.Anything, "user@example.com", "123456", "sid-1").
		Return(&copperx.AuthResult{
			AccessToken: "tok-abc",
			User:        copperx.AuthUser{ID: "u-1", Email: "user@example.com", OrganizationID: "org-9"},
		}, nil).Once()
	gw.On("Profile", mock.Anything, "tok-abc").
		Return(&copperx.Profile{Email: "user@example.com"}, nil)
	b, notify := newTestBot(gw)
	b.sessions.Update(chatID, func(s *session.Session) {
		s.PendingAuth = &session.PendingAuth{Email: "user@example.com", SID: "sid-1"}
		s.State = session.StateAwaitOTP
	})

	c := newFakeContext(chatID, "123456")
	require.NoError(t, b.ManagerHandler(c))

	sess := b.sessions.Get(chatID)
	assert.Equal(t, session.StateAuthenticated, sess.State)
	assert.Equal(t, "tok-abc", sess.Token)
	assert.Equal(t, "org-9", sess.OrganizationID)
	assert.Nil(t, sess.PendingAuth)
	assert.Equal(t, []int64{chatID}, notify.opened)
	gw.AssertExpectations(t)
}

func TestOTPVerifyFailureStaysOnOTPStep(t *testing.T) {
	gw := &mockGateway{}
	gw.On("VerifyOTP", mock.Anything, "user@example.com", "000000", "sid-1").
		Return(nil, &copperx.APIError{Message: "Invalid OTP", StatusCode: 401})
	b, _ := newTestBot(gw)
	b.sessions.Update(chatID, func(s *session.Session) {
		s.PendingAuth = &session.PendingAuth{Email: "user@example.com", SID: "sid-1"}
		s.State = session.StateAwaitOTP
	})

	c := newFakeContext(chatID, "000000")
	require.NoError(t, b.ManagerHandler(c))

	assert.Equal(t, session.StateAwaitOTP, b.sessions.GetState(chatID))
	assert.Contains(t, c.lastSent(), "Invalid OTP")
}

func TestOTPWithoutPendingAuthAsksToRestart(t *testing.T) {
	gw := &mockGateway{}
	b, _ := newTestBot(gw)
	b.sessions.SetState(chatID, session.StateAwaitOTP)

	c := newFakeContext(chatID, "123456")
	require.NoError(t, b.ManagerHandler(c))

	assert.Equal(t, session.StateIdle, b.sessions.GetState(chatID))
	assert.Contains(t, c.lastSent(), "/login")
	gw.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLogoutClosesChannelAndDropsSession(t *testing.T) {
	b, notify := newTestBot(&mockGateway{})
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Token = "tok"
		s.State = session.StateAuthenticated
	})

	c := newFakeContext(chatID, "/logout")
	require.NoError(t, b.Logout(c))

	assert.Equal(t, session.StateIdle, b.sessions.GetState(chatID))
	assert.False(t, b.sessions.Authenticated(chatID))
	assert.Equal(t, []int64{chatID}, notify.closed)
}

func TestCancelReturnsToRestingState(t *testing.T) {
	b, _ := newTestBot(&mockGateway{})
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Token = "tok"
		s.Transfer = &session.TransferDraft{Recipient: "a@b.com"}
		s.State = session.StateAwaitTransferAmount
	})

	c := newFakeContext(chatID, "/cancel")
	require.NoError(t, b.Cancel(c))

	sess := b.sessions.Get(chatID)
	assert.Equal(t, session.StateAuthenticated, sess.State)
	assert.Nil(t, sess.Transfer)
	assert.Equal(t, "tok", sess.Token)
}
