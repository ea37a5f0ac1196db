package flows

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/logger"
	tgcallbacks "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/callbacks"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/format"
	tghelpers "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/helpers"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/keyboard"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/audit"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/copperx"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/session"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/validate"
	"log/slog"
)

const (
	cbTransferPurpose = "transfer_purpose"
	cbTransferConfirm = "transfer_confirm"
)

// StartTransfer begins the single-transfer flow. Any other draft in flight
// is discarded.
func (b *Bot) StartTransfer(c tele.Context) error {
	chatID := c.Sender().ID
	b.sessions.Update(chatID, func(s *session.Session) {
		s.ClearDrafts()
		s.Transfer = &session.TransferDraft{Currency: defaultCurrency}
		s.State = session.StateAwaitTransferEmail
	})
	return tghelpers.SendMD(c, "Who are we sending to? Enter the recipient's *email address*.")
}

func (b *Bot) transferRecipientInput(c tele.Context, chatID int64, text string) error {
	if !validate.Email(text) {
		return tghelpers.SendMD(c, "That doesn't look like an email address. Please try again.")
	}
	b.sessions.Update(chatID, func(s *session.Session) {
		if s.Transfer == nil {
			s.Transfer = &session.TransferDraft{Currency: defaultCurrency}
		}
		s.Transfer.Recipient = text
		s.State = session.StateAwaitTransferAmount
	})
	return tghelpers.SendMD(c, fmt.Sprintf("Sending to *%s*. How much? (e.g. `10` or `12.50`)", format.EscapeMD(text)))
}

// transferAmountInput stores a valid amount and presents the purpose keyboard.
// The state stays put until a purpose button is tapped. Repeating an invalid
// amount never touches the draft.
func (b *Bot) transferAmountInput(c tele.Context, chatID int64, text string) error {
	if _, ok := validate.Amount(text); !ok {
		return tghelpers.SendMD(c, "Please enter a positive amount, like `10` or `12.50`.")
	}
	b.sessions.Update(chatID, func(s *session.Session) {
		if s.Transfer == nil {
			s.Transfer = &session.TransferDraft{Currency: defaultCurrency}
		}
		s.Transfer.Amount = text
	})
	return tghelpers.SendMD(c, "What's this payment for?", purposeMarkup(cbTransferPurpose))
}

// TransferPurpose stores the tapped purpose and renders the confirmation.
func (b *Bot) TransferPurpose(c tele.Context) error {
	chatID := c.Sender().ID
	purpose := tgcallbacks.CallbackPayload(c)
	sess := b.sessions.Get(chatID)
	if sess.Transfer == nil || sess.Transfer.Recipient == "" || sess.Transfer.Amount == "" {
		return tghelpers.SendMD(c, "This transfer has expired. Start over with /send.")
	}

	b.sessions.Update(chatID, func(s *session.Session) {
		if s.Transfer != nil {
			s.Transfer.PurposeCode = purpose
		}
	})
	sess = b.sessions.Get(chatID)

	markup := &tele.ReplyMarkup{}
	confirm := markup.Data("✅ Confirm", cbTransferConfirm, "yes")
	cancel := markup.Data("❌ Cancel", cbTransferConfirm, "no")
	markup.InlineKeyboard = keyboard.ToInlineKeyboard([][]tele.Btn{{confirm, cancel}})

	return tghelpers.EditOrSendMD(c, renderTransferConfirmation(sess.Transfer), markup)
}

// TransferConfirm submits the draft, or discards it on "no". A gateway
// failure keeps the draft so the user can confirm again.
func (b *Bot) TransferConfirm(c tele.Context) error {
	chatID := c.Sender().ID
	answer := tgcallbacks.CallbackPayload(c)

	if answer != "yes" {
		b.sessions.Update(chatID, func(s *session.Session) {
			s.Transfer = nil
			s.State = s.RestingState()
		})
		return tghelpers.EditOrSendMD(c, "Transfer discarded.")
	}

	sess := b.sessions.Get(chatID)
	if !sess.Transfer.Complete() {
		return tghelpers.SendMD(c, "This transfer has expired. Start over with /send.")
	}

	req := copperx.TransferRequest{
		Email:       sess.Transfer.Recipient,
		Amount:      sess.Transfer.Amount,
		Currency:    sess.Transfer.Currency,
		PurposeCode: sess.Transfer.PurposeCode,
		Note:        sess.Transfer.Note,
	}

	ctx := tghelpers.BuildContext(c)
	tr, err := b.gw.SendTransfer(ctx, sess.Token, req)
	if err != nil {
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}

	logger.FSM.Info("transfer sent",
		slog.String("event", "transfer.sent"),
		slog.Int64("chat_id", chatID),
		slog.String("recipient", req.Email),
		slog.String("amount", req.Amount),
		slog.String("currency", req.Currency),
		slog.String("purpose", req.PurposeCode),
	)
	b.audit.Record(ctx, audit.Entry{
		ChatID:    chatID,
		Kind:      audit.KindTransfer,
		Recipient: req.Email,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Status:    tr.Status,
		RemoteID:  tr.ID,
	})

	b.sessions.Update(chatID, func(s *session.Session) {
		s.Transfer = nil
		s.State = s.RestingState()
	})

	return tghelpers.EditOrSendMD(c, fmt.Sprintf("✅ Sent *%s %s* to *%s*.", req.Amount, req.Currency, format.EscapeMD(req.Email)))
}

// purposeMarkup builds the shared purpose keyboard for the given callback key.
func purposeMarkup(cbKey string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	buttons := make([]tele.Btn, 0, len(purposeCodes))
	for _, p := range purposeCodes {
		buttons = append(buttons, markup.Data(p.Label, cbKey, p.Code))
	}
	markup.InlineKeyboard = keyboard.ToInlineKeyboard(keyboard.ChunkButtons(buttons, 2))
	return markup
}
