package flows

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/logger"
	tgcallbacks "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/callbacks"
	tghelpers "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/helpers"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/audit"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/copperx"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/session"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/validate"
	"log/slog"
)

const cbWithdrawPurpose = "withdraw_purpose"

// StartWithdrawal begins the bank withdrawal flow. Both a default wallet and
// a linked bank account must exist before any amount is asked for; missing
// either aborts with guidance and no draft.
func (b *Bot) StartWithdrawal(c tele.Context) error {
	chatID := c.Sender().ID
	sess := b.sessions.Get(chatID)
	ctx := tghelpers.BuildContext(c)

	wallet, err := b.gw.DefaultWallet(ctx, sess.Token)
	if err != nil {
		return tghelpers.SendMD(c, "You need a default wallet before withdrawing. Pick one with /default.")
	}
	account, err := b.gw.DefaultBankAccount(ctx, sess.Token)
	if err != nil {
		return tghelpers.SendMD(c, "No bank account is linked to your profile yet. Add one on the Copperx web app, then try again.")
	}

	b.sessions.Update(chatID, func(s *session.Session) {
		s.ClearDrafts()
		s.Withdrawal = &session.WithdrawalDraft{
			WalletID:      wallet.ID,
			BankAccountID: account.ID,
			Currency:      defaultCurrency,
		}
		s.State = session.StateAwaitWithdrawAmount
	})

	bank := account.BankName
	if bank == "" {
		bank = "your bank account"
	}
	return tghelpers.SendMD(c, fmt.Sprintf("Withdrawing to *%s*. How much would you like to withdraw?", bank))
}

// withdrawAmountInput converts the amount to base units, fetches a quote and
// presents the purpose keyboard. The quote is stored on the draft; the state
// stays put until a purpose button is tapped.
func (b *Bot) withdrawAmountInput(c tele.Context, chatID int64, text string) error {
	if _, ok := validate.Amount(text); !ok {
		return tghelpers.SendMD(c, "Please enter a positive amount, like `100` or `250.50`.")
	}

	sess := b.sessions.Get(chatID)
	if sess.Withdrawal == nil {
		b.sessions.SetState(chatID, sess.RestingState())
		return tghelpers.SendMD(c, "This withdrawal has expired. Start over with /withdraw.")
	}

	base, err := copperx.ToBaseUnitString(text)
	if err != nil {
		return tghelpers.SendMD(c, "Please enter a positive amount, like `100` or `250.50`.")
	}

	ctx := tghelpers.BuildContext(c)
	quote, err := b.gw.OffRampQuote(ctx, sess.Token, copperx.QuoteRequest{
		Amount:        base,
		Currency:      sess.Withdrawal.Currency,
		BankAccountID: sess.Withdrawal.BankAccountID,
	})
	if err != nil {
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}

	b.sessions.Update(chatID, func(s *session.Session) {
		if s.Withdrawal == nil {
			return
		}
		s.Withdrawal.Amount = text
		s.Withdrawal.AmountBase = base
		s.Withdrawal.QuotePayload = quote.QuotePayload
		s.Withdrawal.QuoteSig = quote.QuoteSignature
		s.Withdrawal.ArrivalTime = quote.ArrivalTime
	})

	if err := tghelpers.SendMD(c, renderQuote(text, sess.Withdrawal.Currency, quote)); err != nil {
		return err
	}
	return tghelpers.SendMD(c, "What's this withdrawal for?", purposeMarkup(cbWithdrawPurpose))
}

// WithdrawPurpose submits the quoted withdrawal with the tapped purpose. A
// gateway failure keeps the draft so the user can tap again.
func (b *Bot) WithdrawPurpose(c tele.Context) error {
	chatID := c.Sender().ID
	purpose := tgcallbacks.CallbackPayload(c)

	sess := b.sessions.Get(chatID)
	if sess.Withdrawal == nil || sess.Withdrawal.QuotePayload == "" {
		return tghelpers.SendMD(c, "This withdrawal has expired. Start over with /withdraw.")
	}

	ctx := tghelpers.BuildContext(c)
	tr, err := b.gw.SubmitWithdrawal(ctx, sess.Token, copperx.WithdrawalRequest{
		PurposeCode:    purpose,
		QuotePayload:   sess.Withdrawal.QuotePayload,
		QuoteSignature: sess.Withdrawal.QuoteSig,
	})
	if err != nil {
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}

	logger.FSM.Info("withdrawal submitted",
		slog.String("event", "withdraw.sent"),
		slog.Int64("chat_id", chatID),
		slog.String("amount", sess.Withdrawal.Amount),
		slog.String("currency", sess.Withdrawal.Currency),
		slog.String("purpose", purpose),
	)
	b.audit.Record(ctx, audit.Entry{
		ChatID:   chatID,
		Kind:     audit.KindWithdrawal,
		Amount:   sess.Withdrawal.Amount,
		Currency: sess.Withdrawal.Currency,
		Status:   tr.Status,
		RemoteID: tr.ID,
	})

	arrival := sess.Withdrawal.ArrivalTime
	b.sessions.Update(chatID, func(s *session.Session) {
		s.Withdrawal = nil
		s.State = s.RestingState()
	})

	msg := fmt.Sprintf("✅ Withdrawal of *%s %s* submitted.", sess.Withdrawal.Amount, sess.Withdrawal.Currency)
	if arrival != "" {
		msg += "\nExpected arrival: " + arrival
	}
	return tghelpers.EditOrSendMD(c, msg)
}
