package flows

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/logger"
	tghelpers "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/helpers"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/session"
	"log/slog"
)

// InProgress reports whether the chat is mid-flow, which routes its next
// free-text message to ManagerHandler instead of the command lookup.
func (b *Bot) InProgress(chatID int64) bool {
	return b.sessions.InProgress(chatID)
}

// ManagerHandler dispatches a free-text message to the handler of the chat's
// current state. The state value is the single source of truth for routing.
func (b *Bot) ManagerHandler(c tele.Context) error {
	chatID := c.Sender().ID
	state := b.sessions.GetState(chatID)
	text := strings.TrimSpace(c.Text())

	logger.FSM.Debug("dispatch",
		slog.String("event", "fsm.dispatch"),
		slog.Int64("chat_id", chatID),
		slog.String("state", string(state)),
	)

	switch state {
	case session.StateAwaitEmail:
		return b.emailInput(c, chatID, text)
	case session.StateAwaitOTP:
		return b.otpInput(c, chatID, text)
	case session.StateAwaitTransferEmail:
		return b.transferRecipientInput(c, chatID, text)
	case session.StateAwaitTransferAmount:
		return b.transferAmountInput(c, chatID, text)
	case session.StateAwaitWithdrawAmount:
		return b.withdrawAmountInput(c, chatID, text)
	case session.StateBulkMenu:
		return b.bulkMenuText(c, chatID, text)
	case session.StateAwaitBulkRecipient:
		return b.bulkRecipientInput(c, chatID, text)
	case session.StateAwaitBulkAmount:
		return b.bulkAmountInput(c, chatID, text)
	case session.StateAwaitBulkConfirm:
		return b.bulkConfirmInput(c, chatID, text)
	}
	return b.invalidState(c)
}

// invalidState is the catch-all reply for text that no row of the state
// table accepts. State stays unchanged. The notice is transient: it deletes
// itself after a short while so failed attempts don't pile up in the chat.
func (b *Bot) invalidState(c tele.Context) error {
	const notice = "I didn't understand that. Use /help to see what I can do, or /cancel to abandon the current step."
	if b.announce == nil {
		return tghelpers.SendMD(c, notice)
	}
	chatID := c.Sender().ID
	msg, err := b.announce.Send(&tele.Chat{ID: chatID}, notice)
	if err != nil {
		return tghelpers.SendMD(c, notice)
	}
	b.sched.After(chatID, noticeTTL, func() {
		_ = b.announce.Delete(msg)
	})
	return nil
}
