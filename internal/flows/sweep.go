package flows

import (
	"context"
	"time"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/logger"
	"log/slog"
)

// RunSweeper evicts sessions idle longer than ttl until ctx is done. Evicted
// chats lose their deposit subscription and pending timers along with the
// session record. ttl <= 0 disables expiry entirely.
func (b *Bot) RunSweeper(ctx context.Context, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := b.sessions.Sweep(ttl)
			for _, chatID := range evicted {
				b.notify.Close(chatID)
				b.sched.CancelAll(chatID)
			}
			if len(evicted) > 0 {
				logger.FSM.Info("idle sessions evicted",
					slog.String("event", "fsm.sweep"),
					slog.Int("count", len(evicted)),
				)
			}
		}
	}
}
