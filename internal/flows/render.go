package flows

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/format"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/audit"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/copperx"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/realtime"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/session"
)

// All user-facing formatting lives here so the flow handlers never carry
// their own copy of it.

func renderProfile(p *copperx.Profile) string {
	var sb strings.Builder
	sb.WriteString("👤 *Profile*\n")
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		sb.WriteString("Name: " + format.EscapeMD(name) + "\n")
	}
	sb.WriteString("Email: " + format.EscapeMD(p.Email) + "\n")
	if p.Role != "" {
		sb.WriteString("Role: " + p.Role + "\n")
	}
	if p.Status != "" {
		sb.WriteString("Status: " + p.Status + "\n")
	}
	if p.WalletAddress != "" {
		sb.WriteString("Wallet: `" + p.WalletAddress + "`\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderKYC(kycs []copperx.KYC) string {
	if len(kycs) == 0 {
		return "No KYC record found. Complete verification on the Copperx web app to unlock transfers."
	}
	var sb strings.Builder
	sb.WriteString("🪪 *KYC status*\n")
	for _, k := range kycs {
		label := k.Type
		if label == "" {
			label = "verification"
		}
		sb.WriteString(fmt.Sprintf("• %s: *%s*\n", label, kycStatusLabel(k.Status)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func kycStatusLabel(status string) string {
	switch strings.ToLower(status) {
	case "approved", "verified":
		return "✅ approved"
	case "pending", "initiated", "inprogress", "in_progress":
		return "⏳ pending"
	case "rejected", "failed":
		return "❌ rejected"
	}
	if status == "" {
		return "unknown"
	}
	return status
}

func renderBalances(balances []copperx.WalletBalance) string {
	if len(balances) == 0 {
		return "No balances found."
	}
	var sb strings.Builder
	sb.WriteString("💰 *Balances*\n")
	for _, wb := range balances {
		marker := ""
		if wb.IsDefault {
			marker = " ⭐"
		}
		sb.WriteString(fmt.Sprintf("*%s*%s\n", networkLabel(wb.Network), marker))
		if len(wb.Balances) == 0 {
			sb.WriteString("  (empty)\n")
			continue
		}
		for _, bal := range wb.Balances {
			sb.WriteString(fmt.Sprintf("  %s %s\n", trimAmount(bal.Balance), bal.Symbol))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderWallets(wallets []copperx.Wallet) string {
	if len(wallets) == 0 {
		return "No wallets found on this account."
	}
	var sb strings.Builder
	sb.WriteString("👛 *Wallets*\n")
	for _, w := range wallets {
		marker := ""
		if w.IsDefault {
			marker = " ⭐ default"
		}
		sb.WriteString(fmt.Sprintf("• *%s*%s\n  `%s`\n", networkLabel(w.Network), marker, w.WalletAddress))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderDefaultWallet(wallets []copperx.Wallet) string {
	for _, w := range wallets {
		if w.IsDefault {
			return fmt.Sprintf("Your default wallet is *%s* (`%s`).\nTap a button to switch.",
				networkLabel(w.Network), w.WalletAddress)
		}
	}
	return "No default wallet is set. Tap a button to pick one."
}

func networkLabel(network string) string {
	if network == "" {
		return "wallet"
	}
	return strings.ToUpper(network[:1]) + network[1:]
}

func renderTransferConfirmation(d *session.TransferDraft) string {
	return fmt.Sprintf("Please confirm:\n\nSend *%s %s* to *%s*\nPurpose: %s",
		d.Amount, d.Currency, format.EscapeMD(d.Recipient), d.PurposeCode)
}

func renderQuote(amount, currency string, q *copperx.Quote) string {
	var sb strings.Builder
	sb.WriteString("📋 *Quote*\n")
	sb.WriteString(fmt.Sprintf("Withdraw: %s %s\n", amount, currency))
	if q.ToAmount != "" {
		sb.WriteString(fmt.Sprintf("You receive: %s %s\n", copperx.FormatBaseUnit(q.ToAmount), q.ToCurrency))
	}
	if q.TotalFee != "" {
		sb.WriteString(fmt.Sprintf("Fee: %s %s\n", copperx.FormatBaseUnit(q.TotalFee), q.FeeCurrency))
	}
	if q.ArrivalTime != "" {
		sb.WriteString("Arrival: " + q.ArrivalTime + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderBulkSummary(entries []session.BulkEntry) string {
	var sb strings.Builder
	sb.WriteString("📦 *Bulk transfer review*\n")
	totals := make(map[string]float64)
	for i, e := range entries {
		sb.WriteString(fmt.Sprintf("%d. %s — %s %s (%s)\n", i+1, format.EscapeMD(e.Recipient), e.Amount, e.Currency, e.PurposeCode))
		v, _ := strconv.ParseFloat(e.Amount, 64)
		totals[e.Currency] += v
	}
	sb.WriteString("\nTotal: ")
	parts := make([]string, 0, len(totals))
	for currency, total := range totals {
		parts = append(parts, fmt.Sprintf("*%s %s*", formatAmount(total), currency))
	}
	sb.WriteString(strings.Join(parts, ", "))
	return sb.String()
}

func renderDeposit(ev realtime.DepositEvent) string {
	var sb strings.Builder
	sb.WriteString("💸 *Deposit received*\n")
	sb.WriteString(fmt.Sprintf("Amount: %s %s\n", copperx.FormatBaseUnit(ev.Amount), ev.Currency))
	if ev.Network != "" {
		sb.WriteString("Network: " + ev.Network + "\n")
	}
	if ev.WalletAddress != "" {
		sb.WriteString("To: `" + realtime.Tail(ev.WalletAddress, 8) + "`\n")
	}
	if ev.TransactionID != "" {
		sb.WriteString("Tx: `" + realtime.Tail(ev.TransactionID, 8) + "`\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderHistory(entries []audit.Entry) string {
	if len(entries) == 0 {
		return "Nothing recorded yet. Activity shows up here once you send or receive funds."
	}
	var sb strings.Builder
	sb.WriteString("📜 *Recent activity*\n")
	for _, e := range entries {
		line := fmt.Sprintf("• %s %s %s", historyLabel(e.Kind), e.Amount, e.Currency)
		if e.Recipient != "" {
			line += " → " + format.EscapeMD(e.Recipient)
		}
		if e.Status != "" {
			line += " (" + e.Status + ")"
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func historyLabel(kind string) string {
	switch kind {
	case audit.KindTransfer:
		return "sent"
	case audit.KindBulk:
		return "bulk sent"
	case audit.KindWithdrawal:
		return "withdrew"
	case audit.KindDeposit:
		return "received"
	}
	return kind
}

// trimAmount drops trailing zeros from a decimal string the API already
// formatted for display.
func trimAmount(v string) string {
	if !strings.Contains(v, ".") {
		return v
	}
	v = strings.TrimRight(v, "0")
	return strings.TrimRight(v, ".")
}
