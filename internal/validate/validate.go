// Package validate classifies raw text input for the active conversation
// flow. All checks are pure; they never touch session state or the network.
package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	walletRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	amountRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
)

// Email reports whether text looks like local@domain.tld.
func Email(text string) bool {
	return emailRe.MatchString(strings.TrimSpace(text))
}

// WalletAddress reports whether text is a 0x-prefixed 40-digit hex address.
func WalletAddress(text string) bool {
	return walletRe.MatchString(strings.TrimSpace(text))
}

// OTP reports whether text has the expected passcode length. Only the length
// is enforced; the API is the authority on the code itself.
func OTP(text string) bool {
	return len(strings.TrimSpace(text)) == 6
}

// maxAmount caps user-entered amounts. Keeps bulk totals in safe float
// range and base-unit conversion inside int64.
const maxAmount = 1e9

// Amount parses text as a positive decimal amount. It returns the parsed
// value and false for anything non-numeric, negative, zero, or above the
// supported ceiling.
func Amount(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if !amountRe.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || v > maxAmount {
		return 0, false
	}
	return v, true
}

// Recipient reports whether text is a valid bulk recipient identity:
// either an email address or a wallet address.
func Recipient(text string) bool {
	return Email(text) || WalletAddress(text)
}
