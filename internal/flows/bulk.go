package flows

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v4"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/logger"
	tgcallbacks "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/callbacks"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/format"
	tghelpers "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/helpers"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/audit"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/copperx"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/session"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/validate"
	"log/slog"
)

const cbBulkPurpose = "bulk_purpose"

const bulkMenuHint = "Bulk transfer: /add\\_recipient to add an entry, /review to check and send, /clear to empty the list, /cancel to abandon."

// StartBulk opens the bulk transfer menu with an empty list. Any other draft
// in flight is discarded.
func (b *Bot) StartBulk(c tele.Context) error {
	chatID := c.Sender().ID
	b.sessions.Update(chatID, func(s *session.Session) {
		s.ClearDrafts()
		s.Bulk = &session.BulkDraft{}
		s.State = session.StateBulkMenu
	})
	return tghelpers.SendMD(c, "Let's build a bulk transfer.\n"+bulkMenuHint)
}

// BulkAddRecipient asks for the next entry's recipient.
func (b *Bot) BulkAddRecipient(c tele.Context) error {
	chatID := c.Sender().ID
	sess := b.sessions.Get(chatID)
	if sess.Bulk == nil {
		return tghelpers.SendMD(c, "No bulk transfer in progress. Start one with /bulk.")
	}
	b.sessions.SetState(chatID, session.StateAwaitBulkRecipient)
	return tghelpers.SendMD(c, "Recipient? Enter an *email address* or a *wallet address* (0x…).")
}

func (b *Bot) bulkRecipientInput(c tele.Context, chatID int64, text string) error {
	if !validate.Recipient(text) {
		return tghelpers.SendMD(c, "Enter a valid email address or a 0x wallet address.")
	}
	b.sessions.Update(chatID, func(s *session.Session) {
		if s.Bulk == nil {
			s.Bulk = &session.BulkDraft{}
		}
		s.Bulk.Current = &session.BulkEntry{
			RequestID: uuid.NewString(),
			Recipient: text,
			Currency:  defaultCurrency,
		}
		s.State = session.StateAwaitBulkAmount
	})
	return tghelpers.SendMD(c, fmt.Sprintf("Adding *%s*. How much?", format.EscapeMD(text)))
}

func (b *Bot) bulkAmountInput(c tele.Context, chatID int64, text string) error {
	if _, ok := validate.Amount(text); !ok {
		return tghelpers.SendMD(c, "Please enter a positive amount, like `10` or `12.50`.")
	}
	sess := b.sessions.Get(chatID)
	if sess.Bulk == nil || sess.Bulk.Current == nil {
		b.sessions.SetState(chatID, sess.RestingState())
		return tghelpers.SendMD(c, "This entry has expired. Start over with /bulk.")
	}
	b.sessions.Update(chatID, func(s *session.Session) {
		if s.Bulk != nil && s.Bulk.Current != nil {
			s.Bulk.Current.Amount = text
		}
	})
	return tghelpers.SendMD(c, "What's this payment for?", purposeMarkup(cbBulkPurpose))
}

// BulkPurpose finalizes the in-progress entry and returns to the menu.
func (b *Bot) BulkPurpose(c tele.Context) error {
	chatID := c.Sender().ID
	purpose := tgcallbacks.CallbackPayload(c)

	sess := b.sessions.Get(chatID)
	if sess.Bulk == nil || sess.Bulk.Current == nil || sess.Bulk.Current.Amount == "" {
		return tghelpers.SendMD(c, "This entry has expired. Start over with /bulk.")
	}

	var count int
	b.sessions.Update(chatID, func(s *session.Session) {
		if s.Bulk == nil || s.Bulk.Current == nil {
			return
		}
		entry := *s.Bulk.Current
		entry.PurposeCode = purpose
		s.Bulk.Entries = append(s.Bulk.Entries, entry)
		s.Bulk.Current = nil
		s.State = session.StateBulkMenu
		count = len(s.Bulk.Entries)
	})

	return tghelpers.EditOrSendMD(c, fmt.Sprintf("Added. The list now has *%d* recipient(s).\n%s", count, bulkMenuHint))
}

// BulkReview renders the itemized summary and asks for yes/no/cancel.
func (b *Bot) BulkReview(c tele.Context) error {
	chatID := c.Sender().ID
	sess := b.sessions.Get(chatID)
	if sess.Bulk == nil || len(sess.Bulk.Entries) == 0 {
		return tghelpers.SendMD(c, "The bulk list is empty. Add recipients with /add\\_recipient first.")
	}
	b.sessions.SetState(chatID, session.StateAwaitBulkConfirm)
	return tghelpers.SendMD(c, renderBulkSummary(sess.Bulk.Entries)+"\n\nReply *yes* to send, *no* to go back, or *cancel* to abandon the whole thing.")
}

// BulkClear empties the list but stays in the menu.
func (b *Bot) BulkClear(c tele.Context) error {
	chatID := c.Sender().ID
	sess := b.sessions.Get(chatID)
	if sess.Bulk == nil {
		return tghelpers.SendMD(c, "No bulk transfer in progress. Start one with /bulk.")
	}
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Bulk = &session.BulkDraft{}
		s.State = session.StateBulkMenu
	})
	return tghelpers.SendMD(c, "List cleared.\n"+bulkMenuHint)
}

// BulkSend is the command shortcut that skips the free-text confirmation and
// submits directly, with the same pre-submission checks.
func (b *Bot) BulkSend(c tele.Context) error {
	return b.submitBulk(c, c.Sender().ID)
}

// bulkMenuText handles free text typed while the menu is showing; only the
// commands advance the menu.
func (b *Bot) bulkMenuText(c tele.Context, chatID int64, text string) error {
	return tghelpers.SendMD(c, bulkMenuHint)
}

// bulkConfirmInput handles the yes/no/cancel answer.
func (b *Bot) bulkConfirmInput(c tele.Context, chatID int64, text string) error {
	switch strings.ToLower(text) {
	case "yes":
		return b.submitBulk(c, chatID)
	case "no":
		b.sessions.SetState(chatID, session.StateBulkMenu)
		return tghelpers.SendMD(c, "Okay, back to the menu.\n"+bulkMenuHint)
	case "cancel":
		b.sessions.Update(chatID, func(s *session.Session) {
			s.Bulk = nil
			s.State = s.RestingState()
		})
		return tghelpers.SendMD(c, "Bulk transfer abandoned. Nothing was sent.")
	}
	return tghelpers.SendMD(c, "Please reply *yes*, *no* or *cancel*.")
}

// submitBulk runs the pre-submission business checks and, only if all pass,
// makes the one batch call. A rejected list stays intact in the menu so the
// user can fix it; no partial submission ever happens.
func (b *Bot) submitBulk(c tele.Context, chatID int64) error {
	sess := b.sessions.Get(chatID)
	if sess.Bulk == nil || len(sess.Bulk.Entries) == 0 {
		b.sessions.SetState(chatID, session.StateBulkMenu)
		return tghelpers.SendMD(c, "The bulk list is empty. Add recipients with /add\\_recipient first.")
	}
	entries := sess.Bulk.Entries

	if dup := findDuplicateRecipient(entries); dup != "" {
		b.sessions.SetState(chatID, session.StateBulkMenu)
		return tghelpers.SendMD(c, fmt.Sprintf("*%s* appears more than once in the list. Remove the duplicate with /clear and rebuild, then try again.", format.EscapeMD(dup)))
	}

	ctx := tghelpers.BuildContext(c)
	balances, err := b.gw.Balances(ctx, sess.Token)
	if err != nil {
		b.sessions.SetState(chatID, session.StateBulkMenu)
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}
	if insufficient, currency, total, available := exceedsBalance(entries, balances); insufficient {
		b.sessions.SetState(chatID, session.StateBulkMenu)
		return tghelpers.SendMD(c, fmt.Sprintf("The list totals *%s %s* but only *%s* is available. Trim the list and try again.",
			formatAmount(total), currency, formatAmount(available)))
	}

	items := make([]copperx.BulkTransferItem, 0, len(entries))
	for _, e := range entries {
		req := copperx.TransferRequest{
			Amount:      e.Amount,
			Currency:    e.Currency,
			PurposeCode: e.PurposeCode,
		}
		if validate.WalletAddress(e.Recipient) {
			req.WalletAddress = e.Recipient
		} else {
			req.Email = e.Recipient
		}
		items = append(items, copperx.BulkTransferItem{RequestID: e.RequestID, Request: req})
	}

	res, err := b.gw.SendBulkTransfer(ctx, sess.Token, items)
	if err != nil {
		b.sessions.SetState(chatID, session.StateBulkMenu)
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}

	logger.FSM.Info("bulk transfer sent",
		slog.String("event", "bulk.sent"),
		slog.Int64("chat_id", chatID),
		slog.Int("entries", len(entries)),
	)
	for _, e := range entries {
		b.audit.Record(ctx, audit.Entry{
			ChatID:    chatID,
			Kind:      audit.KindBulk,
			Recipient: e.Recipient,
			Amount:    e.Amount,
			Currency:  e.Currency,
			Status:    "submitted",
			RemoteID:  e.RequestID,
		})
	}

	b.sessions.Update(chatID, func(s *session.Session) {
		s.Bulk = nil
		s.State = s.RestingState()
	})

	failed := 0
	for _, r := range res.Responses {
		if r.Error != nil {
			failed++
		}
	}
	if failed > 0 {
		return tghelpers.SendMD(c, fmt.Sprintf("Bulk transfer submitted: *%d* succeeded, *%d* failed. Check /history for details.",
			len(entries)-failed, failed))
	}
	return tghelpers.SendMD(c, fmt.Sprintf("✅ Bulk transfer of *%d* payment(s) submitted.", len(entries)))
}

// findDuplicateRecipient returns the first recipient that appears twice,
// matching on the exact identity string.
func findDuplicateRecipient(entries []session.BulkEntry) string {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Recipient]; ok {
			return e.Recipient
		}
		seen[e.Recipient] = struct{}{}
	}
	return ""
}

// exceedsBalance sums the entries per currency and compares against the
// fetched balances. It reports the first currency whose total is not covered.
func exceedsBalance(entries []session.BulkEntry, balances []copperx.WalletBalance) (bool, string, float64, float64) {
	totals := make(map[string]float64)
	for _, e := range entries {
		v, _ := strconv.ParseFloat(e.Amount, 64)
		totals[e.Currency] += v
	}

	available := make(map[string]float64)
	for _, wb := range balances {
		for _, bal := range wb.Balances {
			v, _ := strconv.ParseFloat(bal.Balance, 64)
			available[strings.ToUpper(bal.Symbol)] += v
		}
	}

	for currency, total := range totals {
		if total > available[strings.ToUpper(currency)] {
			return true, currency, total, available[strings.ToUpper(currency)]
		}
	}
	return false, "", 0, 0
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
