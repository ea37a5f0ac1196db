// Package flows is the conversation controller: it owns the per-chat state
// machine, routes free text to the active flow step, calls the payout API at
// the right points and emits the replies.
package flows

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/audit"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/copperx"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/scheduler"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/session"
)

// Default currency applied to transfer drafts when the user gives only an
// amount.
const defaultCurrency = "USD"

// otpResendDelay is how long after the passcode prompt the "resend?" nudge
// appears if the chat has gone quiet.
const otpResendDelay = 45 * time.Second

// noticeTTL is how long transient notices stay on screen before deletion.
const noticeTTL = 10 * time.Second

// Purpose codes offered on the purpose keyboards.
var purposeCodes = []struct {
	Code  string
	Label string
}{
	{"self", "Self"},
	{"salary", "Salary"},
	{"gift", "Gift"},
	{"reimbursement", "Reimbursement"},
}

// Notifications is the realtime deposit channel as the controller sees it.
type Notifications interface {
	Open(ctx context.Context, chatID int64, orgID string, authorize Authorize) error
	Close(chatID int64)
	CloseAll()
	Active(chatID int64) bool
}

// Authorize signs a private-channel subscription using the chat's bearer
// token.
type Authorize func(ctx context.Context, socketID, channel string) (string, error)

// Announcer pushes a message to a chat outside any update handler, used for
// deposit notifications. *tele.Bot satisfies it.
type Announcer interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// Options wires the controller's collaborators.
type Options struct {
	Sessions  session.Store
	Gateway   copperx.Gateway
	Notify    Notifications
	Scheduler scheduler.Scheduler
	Audit     audit.Recorder
	Announcer Announcer
}

// Bot is the conversation controller. One instance serves all chats; all
// per-chat data lives in the session store.
type Bot struct {
	sessions session.Store
	gw       copperx.Gateway
	notify   Notifications
	sched    scheduler.Scheduler
	audit    audit.Recorder
	announce Announcer
}

// New builds the controller. Nil optional collaborators are replaced with
// no-ops so handlers never nil-check.
func New(opts Options) *Bot {
	b := &Bot{
		sessions: opts.Sessions,
		gw:       opts.Gateway,
		notify:   opts.Notify,
		sched:    opts.Scheduler,
		audit:    opts.Audit,
		announce: opts.Announcer,
	}
	if b.sessions == nil {
		b.sessions = session.NewMemoryStore()
	}
	if b.notify == nil {
		b.notify = noNotifications{}
	}
	if b.sched == nil {
		b.sched = scheduler.New()
	}
	if b.audit == nil {
		b.audit = audit.NewNoop()
	}
	return b
}

// Sessions exposes the store for wiring (auth middleware, routers).
func (b *Bot) Sessions() session.Store { return b.sessions }

// SetAnnouncer wires the outbound sender once the transport is up. Deposit
// notices and deferred prompts are dropped until then.
func (b *Bot) SetAnnouncer(a Announcer) { b.announce = a }

// Shutdown releases everything the controller holds open.
func (b *Bot) Shutdown() {
	b.sched.Stop()
	b.notify.CloseAll()
}

// endSession tears down everything tied to a chat: realtime subscription
// first (the at-most-one-open invariant requires closing before the session
// record goes away), then scheduled tasks, then the record itself.
func (b *Bot) endSession(chatID int64) {
	b.notify.Close(chatID)
	b.sched.CancelAll(chatID)
	b.sessions.Delete(chatID)
}

type noNotifications struct{}

func (noNotifications) Open(context.Context, int64, string, Authorize) error { return nil }
func (noNotifications) Close(int64)                                          {}
func (noNotifications) CloseAll()                                            {}
func (noNotifications) Active(int64) bool                                    { return false }
