package realtime

import (
	"context"
	"sync"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/logger"
	"log/slog"
)

// Manager owns the deposit subscriptions, one per chat at most. Opening a
// second subscription for a chat that already has a live one is a no-op.
type Manager struct {
	key     string
	cluster string
	handler DepositHandler

	mu   sync.Mutex
	subs map[int64]*Subscription
}

// NewManager builds a Manager for the given Pusher app. The handler is
// invoked from the subscription read loops.
func NewManager(key, cluster string, handler DepositHandler) *Manager {
	return &Manager{
		key:     key,
		cluster: cluster,
		handler: handler,
		subs:    make(map[int64]*Subscription),
	}
}

// Open establishes the org-channel subscription for a chat. The authorize
// callback carries the chat's bearer token, so the Manager never sees
// credentials.
func (m *Manager) Open(ctx context.Context, chatID int64, orgID string, authorize Authorizer) error {
	m.mu.Lock()
	if _, ok := m.subs[chatID]; ok {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	sub, err := dial(ctx, m.key, m.cluster, chatID, orgID, authorize)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if _, ok := m.subs[chatID]; ok {
		// Lost the race to a concurrent Open, keep the winner.
		m.mu.Unlock()
		sub.Close()
		return nil
	}
	m.subs[chatID] = sub
	m.mu.Unlock()

	logger.RT.Info("subscription opened",
		slog.String("event", "rt.open"),
		slog.Int64("chat_id", chatID),
		slog.String("channel", sub.channel),
	)

	go sub.run(m.handler, func() { m.forget(chatID, sub) })
	return nil
}

// Close tears down the chat's subscription if one is open. Callers run this
// before clearing the session so no notification outlives the login.
func (m *Manager) Close(chatID int64) {
	m.mu.Lock()
	sub, ok := m.subs[chatID]
	delete(m.subs, chatID)
	m.mu.Unlock()
	if !ok {
		return
	}
	sub.Close()
	logger.RT.Info("subscription closed",
		slog.String("event", "rt.close"),
		slog.Int64("chat_id", chatID),
	)
}

// CloseAll shuts every subscription down, used at process exit.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	subs := m.subs
	m.subs = make(map[int64]*Subscription)
	m.mu.Unlock()
	for _, sub := range subs {
		sub.Close()
	}
}

// Active reports whether the chat currently holds a live subscription.
func (m *Manager) Active(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.subs[chatID]
	return ok
}

func (m *Manager) forget(chatID int64, sub *Subscription) {
	m.mu.Lock()
	if cur, ok := m.subs[chatID]; ok && cur == sub {
		delete(m.subs, chatID)
	}
	m.mu.Unlock()
}
