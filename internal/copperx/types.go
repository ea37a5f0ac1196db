package copperx

// AuthUser is the user block returned alongside a fresh token.
type AuthUser struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	OrganizationID string `json:"organizationId"`
	Role           string `json:"role"`
	Status         string `json:"status"`
}

// AuthResult is the outcome of a successful OTP verification.
type AuthResult struct {
	Scheme      string   `json:"scheme"`
	AccessToken string   `json:"accessToken"`
	ExpireAt    string   `json:"expireAt"`
	User        AuthUser `json:"user"`
}

// Profile describes the authenticated account.
type Profile struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	OrganizationID string `json:"organizationId"`
	Role           string `json:"role"`
	Status         string `json:"status"`
	Type           string `json:"type"`
	WalletAddress  string `json:"walletAddress"`
}

// KYC describes one KYC record for the account.
type KYC struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Type   string `json:"type"`
}

// Wallet is one custody wallet owned by the organization.
type Wallet struct {
	ID            string `json:"id"`
	WalletType    string `json:"walletType"`
	Network       string `json:"network"`
	WalletAddress string `json:"walletAddress"`
	IsDefault     bool   `json:"isDefault"`
}

// Balance is one currency balance inside a wallet.
type Balance struct {
	Decimals int    `json:"decimals"`
	Balance  string `json:"balance"`
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
}

// WalletBalance joins a wallet with its balances.
type WalletBalance struct {
	WalletID  string    `json:"walletId"`
	IsDefault bool      `json:"isDefault"`
	Network   string    `json:"network"`
	Balances  []Balance `json:"balances"`
}

// BankAccount is a linked off-ramp destination.
type BankAccount struct {
	ID          string `json:"id"`
	Country     string `json:"country"`
	BankName    string `json:"bankName"`
	BankAddress string `json:"bankAddress"`
	Method      string `json:"method"`
	AccountTail string `json:"accountTail"`
	Status      string `json:"status"`
	IsDefault   bool   `json:"isDefault"`
}

// QuoteRequest asks for an off-ramp quote in base units.
type QuoteRequest struct {
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	SourceCountry string `json:"sourceCountry"`
	DestCountry   string `json:"destinationCountry"`
	BankAccountID string `json:"preferredBankAccountId,omitempty"`
	OnlyRemittance bool  `json:"onlyRemittance"`
}

// Quote is a signed off-ramp quote; payload and signature are echoed back
// verbatim on submission.
type Quote struct {
	MinAmount      string `json:"minAmount"`
	MaxAmount      string `json:"maxAmount"`
	ArrivalTime    string `json:"arrivalTimeMessage"`
	ToAmount       string `json:"toAmount"`
	ToCurrency     string `json:"toCurrency"`
	TotalFee       string `json:"totalFee"`
	FeeCurrency    string `json:"feeCurrency"`
	QuotePayload   string `json:"quotePayload"`
	QuoteSignature string `json:"quoteSignature"`
}

// WithdrawalRequest submits a quoted bank withdrawal.
type WithdrawalRequest struct {
	PurposeCode    string `json:"purposeCode"`
	QuotePayload   string `json:"quotePayload"`
	QuoteSignature string `json:"quoteSignature"`
}

// TransferRequest submits a single transfer to an email or wallet recipient.
type TransferRequest struct {
	Email         string `json:"email,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	PurposeCode   string `json:"purposeCode"`
	Note          string `json:"note,omitempty"`
}

// Transfer is the API's record of a submitted movement of funds.
type Transfer struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"createdAt"`
}

// BulkTransferItem wraps one transfer of a batch with its correlation id.
type BulkTransferItem struct {
	RequestID string          `json:"requestId"`
	Request   TransferRequest `json:"request"`
}

// BulkTransferResult is the per-item outcome of a batch submission.
type BulkTransferResult struct {
	RequestID string    `json:"requestId"`
	Response  *Transfer `json:"response,omitempty"`
	Error     *struct {
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error,omitempty"`
}

// BulkTransferResponse is the outcome of a batch submission.
type BulkTransferResponse struct {
	Responses []BulkTransferResult `json:"responses"`
}

// ChannelAuth is the signed authorization for a private realtime channel.
type ChannelAuth struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data,omitempty"`
}
