package flows

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/logger"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/audit"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/realtime"
	"log/slog"
)

// WithManager adapts the realtime Manager to the controller's Notifications
// interface.
func WithManager(m *realtime.Manager) Notifications {
	return managerNotifications{m: m}
}

type managerNotifications struct {
	m *realtime.Manager
}

func (n managerNotifications) Open(ctx context.Context, chatID int64, orgID string, authorize Authorize) error {
	return n.m.Open(ctx, chatID, orgID, realtime.Authorizer(authorize))
}

func (n managerNotifications) Close(chatID int64)     { n.m.Close(chatID) }
func (n managerNotifications) CloseAll()              { n.m.CloseAll() }
func (n managerNotifications) Active(chatID int64) bool { return n.m.Active(chatID) }

// HandleDeposit receives deposit events from the realtime layer and turns
// them into a chat notification plus an audit entry. It is safe to call from
// the subscription goroutines.
func (b *Bot) HandleDeposit(chatID int64, ev realtime.DepositEvent) {
	b.audit.Record(context.Background(), audit.Entry{
		ChatID:   chatID,
		Kind:     audit.KindDeposit,
		Amount:   ev.Amount,
		Currency: ev.Currency,
		Status:   "received",
		RemoteID: ev.TransactionID,
	})

	if b.announce == nil {
		return
	}
	_, err := b.announce.Send(&tele.Chat{ID: chatID}, renderDeposit(ev), &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	if err != nil {
		logger.FSM.Warn("deposit notice failed",
			slog.String("event", "notify.deposit"),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
}
