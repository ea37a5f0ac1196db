package middleware

import (
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/logger"
	tghelpers "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// AuthChecker is the minimal interface required to gate authenticated commands.
type AuthChecker interface {
	Authenticated(chatID int64) bool
}

// RequireAuth rejects updates from unauthenticated chats before the handler
// runs, so no remote call is ever attempted without a token.
func RequireAuth(mgr AuthChecker, onReject tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				return nil
			}
			if mgr != nil && mgr.Authenticated(chat.ID) {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			logger.TG.LogAttrs(ctx, slog.LevelDebug, "auth.reject",
				slog.Int64("chat_id", chat.ID),
				slog.String("rid", logger.RIDFrom(ctx)),
			)
			if onReject != nil {
				return onReject(c)
			}
			return nil
		}
	}
}
