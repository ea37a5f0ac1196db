// Package session tracks per-conversation state for the payout bot. Each chat
// owns at most one Session; its State decides how the next free-text message
// is interpreted, and each multi-step flow keeps its scratch data in a typed
// draft that is only set while the matching flow is active.
package session

import "time"

// State identifies the active step of a conversation.
type State string

const (
	// StateIdle means no conversation is in progress (and no session record
	// is distinguishable from an idle one).
	StateIdle State = "idle"
	// StateAwaitEmail waits for the login email address.
	StateAwaitEmail State = "await_email"
	// StateAwaitOTP waits for the one-time passcode.
	StateAwaitOTP State = "await_otp"
	// StateAuthenticated is the resting state between flows for a logged-in chat.
	StateAuthenticated State = "authenticated"
	// StateAwaitTransferEmail waits for a transfer recipient email.
	StateAwaitTransferEmail State = "await_transfer_email"
	// StateAwaitTransferAmount waits for a transfer amount.
	StateAwaitTransferAmount State = "await_transfer_amount"
	// StateAwaitWithdrawAmount waits for a bank withdrawal amount.
	StateAwaitWithdrawAmount State = "await_withdraw_amount"
	// StateBulkMenu shows the bulk transfer menu.
	StateBulkMenu State = "bulk_menu"
	// StateAwaitBulkRecipient waits for a bulk entry recipient (email or wallet).
	StateAwaitBulkRecipient State = "await_bulk_recipient"
	// StateAwaitBulkAmount waits for a bulk entry amount.
	StateAwaitBulkAmount State = "await_bulk_amount"
	// StateAwaitBulkConfirm waits for the yes/no/cancel bulk confirmation.
	StateAwaitBulkConfirm State = "await_bulk_confirm"
)

// PendingAuth is the login flow scratch data, cleared on success or abort.
type PendingAuth struct {
	Email string
	// SID is the OTP request id returned by the API and echoed back on verify.
	SID string
}

// TransferDraft is a single-recipient transfer built step by step.
type TransferDraft struct {
	Recipient   string
	Amount      string
	Currency    string
	PurposeCode string
	Note        string
}

// Complete reports whether the draft holds everything needed for submission.
func (d *TransferDraft) Complete() bool {
	return d != nil && d.Recipient != "" && d.Amount != "" && d.PurposeCode != ""
}

// BulkEntry is one finalized recipient of a bulk transfer.
type BulkEntry struct {
	RequestID   string
	Recipient   string
	Amount      string
	Currency    string
	PurposeCode string
}

// BulkDraft holds finalized bulk entries plus the one entry being composed.
type BulkDraft struct {
	Entries []BulkEntry
	Current *BulkEntry
}

// WithdrawalDraft is a bank withdrawal built step by step; the quote fields
// are populated once an amount has been accepted.
type WithdrawalDraft struct {
	WalletID      string
	BankAccountID string
	Amount        string
	AmountBase    string
	Currency      string
	QuotePayload  string
	QuoteSig      string
	ArrivalTime   string
	PurposeCode   string
}

// Session stores conversation state and flow drafts for one chat.
type Session struct {
	ChatID         int64
	State          State
	Token          string
	OrganizationID string
	UserID         string
	Email          string

	PendingAuth *PendingAuth
	Transfer    *TransferDraft
	Bulk        *BulkDraft
	Withdrawal  *WithdrawalDraft

	LastSeen time.Time
}

// Authenticated reports whether the chat holds a bearer token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// RestingState returns the state a chat falls back to when a flow ends.
func (s *Session) RestingState() State {
	if s.Authenticated() {
		return StateAuthenticated
	}
	return StateIdle
}

// ClearDrafts drops all flow-local scratch data. Starting a new flow calls
// this so stale drafts from an abandoned flow can never leak into another.
func (s *Session) ClearDrafts() {
	s.PendingAuth = nil
	s.Transfer = nil
	s.Bulk = nil
	s.Withdrawal = nil
}

func (s *Session) clone() Session {
	out := *s
	if s.PendingAuth != nil {
		pa := *s.PendingAuth
		out.PendingAuth = &pa
	}
	if s.Transfer != nil {
		tr := *s.Transfer
		out.Transfer = &tr
	}
	if s.Bulk != nil {
		b := BulkDraft{Entries: append([]BulkEntry(nil), s.Bulk.Entries...)}
		if s.Bulk.Current != nil {
			cur := *s.Bulk.Current
			b.Current = &cur
		}
		out.Bulk = &b
	}
	if s.Withdrawal != nil {
		w := *s.Withdrawal
		out.Withdrawal = &w
	}
	return out
}
