package flows

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/logger"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/format"
	tghelpers "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/helpers"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/keyboard"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/copperx"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/session"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/validate"
	"log/slog"
)

const cbAuthResend = "auth_resend"

// Login starts the login flow, or reminds an authenticated chat it is
// already in.
func (b *Bot) Login(c tele.Context) error {
	chatID := c.Sender().ID
	if b.sessions.Authenticated(chatID) {
		return tghelpers.SendMD(c, "You're already logged in. Use /logout first if you want to switch accounts.")
	}
	b.sessions.Update(chatID, func(s *session.Session) {
		s.ClearDrafts()
		s.State = session.StateAwaitEmail
	})
	return tghelpers.SendMD(c, "Let's get you signed in. What's your *email address*?")
}

// emailInput handles the email step: validate, request an OTP, advance.
// A gateway failure keeps the chat on the email step with a notice.
func (b *Bot) emailInput(c tele.Context, chatID int64, text string) error {
	if !validate.Email(text) {
		return tghelpers.SendMD(c, "That doesn't look like an email address. Please try again.")
	}

	ctx := tghelpers.BuildContext(c)
	sid, err := b.gw.RequestOTP(ctx, text)
	if err != nil {
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}

	b.sessions.Update(chatID, func(s *session.Session) {
		s.PendingAuth = &session.PendingAuth{Email: text, SID: sid}
		s.State = session.StateAwaitOTP
	})
	b.scheduleResendPrompt(chatID)

	return tghelpers.SendMD(c, fmt.Sprintf("I've emailed a 6-digit code to *%s*. Enter it here.", format.EscapeMD(text)))
}

// scheduleResendPrompt surfaces a "resend?" nudge after a delay, unless the
// chat finished or abandoned the OTP step first (CancelAll clears it).
func (b *Bot) scheduleResendPrompt(chatID int64) {
	if b.announce == nil {
		return
	}
	b.sched.After(chatID, otpResendDelay, func() {
		if b.sessions.GetState(chatID) != session.StateAwaitOTP {
			return
		}
		markup := &tele.ReplyMarkup{}
		btn := markup.Data("🔁 Resend code", cbAuthResend, "now")
		markup.InlineKeyboard = keyboard.ToInlineKeyboard([][]tele.Btn{{btn}})
		_, err := b.announce.Send(&tele.Chat{ID: chatID}, "Still waiting for the code? I can resend it.", markup)
		if err != nil {
			logger.FSM.Warn("resend prompt failed",
				slog.String("event", "auth.resend_prompt"),
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()),
			)
		}
	})
}

// ResendOTP re-requests the passcode for a chat stuck on the OTP step.
func (b *Bot) ResendOTP(c tele.Context) error {
	chatID := c.Sender().ID
	sess := b.sessions.Get(chatID)
	if sess.State != session.StateAwaitOTP || sess.PendingAuth == nil {
		return tghelpers.SendMD(c, "There's no code to resend. Start over with /login.")
	}

	ctx := tghelpers.BuildContext(c)
	sid, err := b.gw.RequestOTP(ctx, sess.PendingAuth.Email)
	if err != nil {
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}
	b.sessions.Update(chatID, func(s *session.Session) {
		if s.PendingAuth != nil {
			s.PendingAuth.SID = sid
		}
	})
	return tghelpers.SendMD(c, "Done, a fresh code is on its way.")
}

// otpInput handles the passcode step. A verification failure stays on the
// OTP step so the user can retry or tap resend; it never reverts to email
// entry.
func (b *Bot) otpInput(c tele.Context, chatID int64, text string) error {
	if !validate.OTP(text) {
		return tghelpers.SendMD(c, "The code is 6 digits. Please check your inbox and try again.")
	}

	sess := b.sessions.Get(chatID)
	if sess.PendingAuth == nil {
		b.sessions.SetState(chatID, session.StateIdle)
		return tghelpers.SendMD(c, "This login attempt has expired. Start over with /login.")
	}

	ctx := tghelpers.BuildContext(c)
	res, err := b.gw.VerifyOTP(ctx, sess.PendingAuth.Email, text, sess.PendingAuth.SID)
	if err != nil {
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}

	b.sched.CancelAll(chatID)
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Token = res.AccessToken
		s.OrganizationID = res.User.OrganizationID
		s.UserID = res.User.ID
		s.Email = res.User.Email
		s.ClearDrafts()
		s.State = session.StateAuthenticated
	})

	logger.FSM.Info("login",
		slog.String("event", "auth.login"),
		slog.Int64("chat_id", chatID),
		slog.String("org_id", res.User.OrganizationID),
	)

	b.openNotifications(ctx, chatID)

	name := res.User.FirstName
	if name == "" {
		name = res.User.Email
	}
	if err := tghelpers.SendMD(c, fmt.Sprintf("Welcome back, *%s*! You're logged in.\nTry /balance, /send or /help.", format.EscapeMD(name))); err != nil {
		return err
	}

	// Profile fetch is best effort; login already succeeded.
	if profile, err := b.gw.Profile(ctx, res.AccessToken); err == nil {
		return tghelpers.SendMD(c, renderProfile(profile))
	}
	return nil
}

// openNotifications subscribes the chat to its org's deposit channel. Failure
// is logged, not surfaced: notifications are a bonus on top of login.
func (b *Bot) openNotifications(ctx context.Context, chatID int64) {
	sess := b.sessions.Get(chatID)
	if !sess.Authenticated() || sess.OrganizationID == "" {
		return
	}
	token := sess.Token
	authorize := func(ctx context.Context, socketID, channel string) (string, error) {
		auth, err := b.gw.NotificationAuth(ctx, token, socketID, channel)
		if err != nil {
			return "", err
		}
		return auth.Auth, nil
	}
	if err := b.notify.Open(ctx, chatID, sess.OrganizationID, authorize); err != nil {
		logger.FSM.Warn("deposit subscription failed",
			slog.String("event", "auth.notify"),
			slog.Int64("chat_id", chatID),
			slog.String("org_id", sess.OrganizationID),
			slog.String("err", err.Error()),
		)
	}
}

// Logout closes the deposit subscription, cancels pending tasks and drops
// the session.
func (b *Bot) Logout(c tele.Context) error {
	chatID := c.Sender().ID
	if !b.sessions.Authenticated(chatID) {
		b.endSession(chatID)
		return tghelpers.SendMD(c, "You weren't logged in. See you around!")
	}
	b.endSession(chatID)
	return tghelpers.SendMD(c, "You've been logged out. Use /login whenever you're ready.")
}

// Cancel abandons the current flow step without touching credentials.
func (b *Bot) Cancel(c tele.Context) error {
	chatID := c.Sender().ID
	b.sched.CancelAll(chatID)
	b.sessions.Update(chatID, func(s *session.Session) {
		s.ClearDrafts()
		s.State = s.RestingState()
	})
	return tghelpers.SendMD(c, "Cancelled. Nothing was submitted.")
}
