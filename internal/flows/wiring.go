package flows

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/commands"
	tghelpers "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/helpers"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/middleware"
)

// Register wires every command and callback into the registry. Commands that
// read or move money are gated on authentication before any handler code
// runs.
func (b *Bot) Register(reg *tg.Registry) {
	requireAuth := middleware.RequireAuth(b.sessions, func(c tele.Context) error {
		return tghelpers.SendMD(c, "You need to /login first.")
	})

	reg.RegisterCommand("/start", commands.Command{Handler: b.Start, Description: "Start the bot", Hidden: true})
	reg.RegisterCommand("/help", commands.Command{Handler: b.Help, Description: "Show available commands"})
	reg.RegisterCommand("/login", commands.Command{Handler: b.Login, Description: "Sign in with your email"})
	reg.RegisterCommand("/logout", commands.Command{Handler: b.Logout, Description: "Sign out"})
	reg.RegisterCommand("/exit", commands.Command{Handler: b.Exit, Description: "Sign out and clear this chat", Hidden: true})
	reg.RegisterCommand("/cancel", commands.Command{Handler: b.Cancel, Description: "Abandon the current step"})

	reg.RegisterCommand("/profile", commands.Command{Handler: requireAuth(b.ShowProfile), Description: "Your account details"})
	reg.RegisterCommand("/kyc", commands.Command{Handler: requireAuth(b.ShowKYC), Description: "Verification status"})
	reg.RegisterCommand("/balance", commands.Command{Handler: requireAuth(b.ShowBalance), Description: "Balances across wallets"})
	reg.RegisterCommand("/wallets", commands.Command{Handler: requireAuth(b.ShowWallets), Description: "List your wallets"})
	reg.RegisterCommand("/default", commands.Command{Handler: requireAuth(b.DefaultWalletMenu), Description: "View or change the default wallet"})
	reg.RegisterCommand("/history", commands.Command{Handler: requireAuth(b.ShowHistory), Description: "Recent activity"})

	reg.RegisterCommand("/send", commands.Command{Handler: requireAuth(b.StartTransfer), Description: "Send funds to an email"})
	reg.RegisterCommand("/withdraw", commands.Command{Handler: requireAuth(b.StartWithdrawal), Description: "Withdraw to your bank"})

	reg.RegisterCommand("/bulk", commands.Command{Handler: requireAuth(b.StartBulk), Description: "Start a bulk transfer", Aliases: []string{"bulk_start"}})
	reg.RegisterCommand("/add_recipient", commands.Command{Handler: requireAuth(b.BulkAddRecipient), Description: "Add a bulk recipient", Hidden: true})
	reg.RegisterCommand("/review", commands.Command{Handler: requireAuth(b.BulkReview), Description: "Review the bulk list", Hidden: true})
	reg.RegisterCommand("/clear", commands.Command{Handler: requireAuth(b.BulkClear), Description: "Clear the bulk list", Hidden: true})
	reg.RegisterCommand("/send_bulk", commands.Command{Handler: requireAuth(b.BulkSend), Description: "Submit the bulk transfer", Hidden: true})

	_ = reg.RegisterCallback(cbAuthResend, b.ResendOTP)
	_ = reg.RegisterCallback(cbSetDefaultWallet, requireAuth(b.SetDefaultWallet))
	_ = reg.RegisterCallback(cbTransferPurpose, requireAuth(b.TransferPurpose))
	_ = reg.RegisterCallback(cbTransferConfirm, requireAuth(b.TransferConfirm))
	_ = reg.RegisterCallback(cbWithdrawPurpose, requireAuth(b.WithdrawPurpose))
	_ = reg.RegisterCallback(cbBulkPurpose, requireAuth(b.BulkPurpose))

	reg.SetTextFallback(b.UnknownText())
	reg.SetCallbackNotFound(b.UnknownCallback())
}

// UnknownText handles free text from a chat with no active flow.
func (b *Bot) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return b.invalidState(c)
	}
}

// UnknownDocument handles file uploads, which no flow expects.
func (b *Bot) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendMD(c, "I can't do anything with files. Use /help to see what I understand.")
	}
}

// UnknownCallback handles taps on buttons from stale or foreign messages.
func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		_ = c.Respond(&tele.CallbackResponse{Text: "That button has expired."})
		return nil
	}
}
