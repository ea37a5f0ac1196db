package flows

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/helpers"
)

const helpText = `*Copperx Payout Bot*

*Account*
/login — sign in with your email
/logout — sign out
/profile — your account details
/kyc — verification status

*Funds*
/balance — balances across wallets
/wallets — list your wallets
/default — view or change the default wallet
/send — send funds to an email
/withdraw — withdraw to your bank
/bulk — send to several recipients at once
/history — recent activity

*Anytime*
/cancel — abandon the current step
/exit — sign out and wipe this chat's session
/help — this message`

// Help renders the command overview.
func (b *Bot) Help(c tele.Context) error {
	return tghelpers.SendMD(c, helpText)
}

// Start greets a new chat.
func (b *Bot) Start(c tele.Context) error {
	return tghelpers.SendMD(c, "Hi! I'm the Copperx payout bot. Use /login to connect your account, or /help to see everything I can do.")
}

// Exit signs out and wipes the chat's session entirely.
func (b *Bot) Exit(c tele.Context) error {
	b.endSession(c.Sender().ID)
	return tghelpers.SendMD(c, "Session closed. Everything about this chat has been forgotten. 👋")
}
