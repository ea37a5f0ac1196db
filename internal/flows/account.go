package flows

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/helpers"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/keyboard"
	tgcallbacks "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/callbacks"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/copperx"
)

const cbSetDefaultWallet = "set_default_wallet"

// ShowProfile renders the authenticated account.
func (b *Bot) ShowProfile(c tele.Context) error {
	chatID := c.Sender().ID
	sess := b.sessions.Get(chatID)
	ctx := tghelpers.BuildContext(c)

	profile, err := b.gw.Profile(ctx, sess.Token)
	if err != nil {
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}
	return tghelpers.SendMD(c, renderProfile(profile))
}

// ShowKYC renders the account's verification status.
func (b *Bot) ShowKYC(c tele.Context) error {
	chatID := c.Sender().ID
	sess := b.sessions.Get(chatID)
	ctx := tghelpers.BuildContext(c)

	kycs, err := b.gw.KYCStatus(ctx, sess.Token)
	if err != nil {
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}
	return tghelpers.SendMD(c, renderKYC(kycs))
}

// ShowBalance renders balances across all wallets.
func (b *Bot) ShowBalance(c tele.Context) error {
	chatID := c.Sender().ID
	sess := b.sessions.Get(chatID)
	ctx := tghelpers.BuildContext(c)

	balances, err := b.gw.Balances(ctx, sess.Token)
	if err != nil {
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}
	return tghelpers.SendMD(c, renderBalances(balances))
}

// ShowWallets renders the org's wallets.
func (b *Bot) ShowWallets(c tele.Context) error {
	chatID := c.Sender().ID
	sess := b.sessions.Get(chatID)
	ctx := tghelpers.BuildContext(c)

	wallets, err := b.gw.Wallets(ctx, sess.Token)
	if err != nil {
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}
	return tghelpers.SendMD(c, renderWallets(wallets))
}

// DefaultWalletMenu shows the current default wallet and offers the others
// as buttons to switch to.
func (b *Bot) DefaultWalletMenu(c tele.Context) error {
	chatID := c.Sender().ID
	sess := b.sessions.Get(chatID)
	ctx := tghelpers.BuildContext(c)

	wallets, err := b.gw.Wallets(ctx, sess.Token)
	if err != nil {
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}
	if len(wallets) == 0 {
		return tghelpers.SendMD(c, "No wallets found on this account.")
	}

	markup := &tele.ReplyMarkup{}
	var buttons []tele.Btn
	for _, w := range wallets {
		if w.IsDefault {
			continue
		}
		label := w.Network
		if label == "" {
			label = w.ID
		}
		buttons = append(buttons, markup.Data("Use "+label, cbSetDefaultWallet, w.ID))
	}
	markup.InlineKeyboard = keyboard.ToInlineKeyboard(keyboard.ChunkButtons(buttons, 2))

	return tghelpers.SendMD(c, renderDefaultWallet(wallets), markup)
}

// SetDefaultWallet handles the wallet-switch button.
func (b *Bot) SetDefaultWallet(c tele.Context) error {
	chatID := c.Sender().ID
	sess := b.sessions.Get(chatID)
	walletID := tgcallbacks.CallbackPayload(c)
	if walletID == "" {
		return tghelpers.SendMD(c, "That button has gone stale. Run /default again.")
	}

	ctx := tghelpers.BuildContext(c)
	w, err := b.gw.SetDefaultWallet(ctx, sess.Token, walletID)
	if err != nil {
		return tghelpers.SendMD(c, copperx.UserMessage(err))
	}

	label := w.Network
	if label == "" {
		label = w.ID
	}
	return tghelpers.EditOrSendMD(c, "Default wallet switched to *"+label+"*.")
}

// ShowHistory renders the bot's local record of recent activity for the chat.
func (b *Bot) ShowHistory(c tele.Context) error {
	chatID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	entries, err := b.audit.Recent(ctx, chatID, 10)
	if err != nil {
		return tghelpers.SendMD(c, "History is unavailable right now. Please try again later.")
	}
	return tghelpers.SendMD(c, renderHistory(entries))
}
