package settlement

// TransferRequest moves money between two customer wallets. The PIN is the
// sender's.
type TransferRequest struct {
	SenderWalletID   uint
	ReceiverWalletID uint
	Amount           float64
	PIN              string
	Reference        string
	Description      string
}

// CashInRequest: an agent hands cash to the system and the customer wallet
// is credited. The PIN is the agent's.
type CashInRequest struct {
	AgentWalletID    uint
	CustomerWalletID uint
	Amount           float64
	PIN              string
	Reference        string
}

// CashOutRequest: a customer converts balance to cash held by an agent.
// The PIN is the customer's.
type CashOutRequest struct {
	CustomerWalletID uint
	AgentWalletID    uint
	Amount           float64
	PIN              string
	Reference        string
}

// DepositRequest credits a wallet directly. No PIN, no fee; the record is
// self-referential for audit symmetry.
type DepositRequest struct {
	WalletID    uint
	Amount      float64
	Reference   string
	Description string
}

// WithdrawRequest: a customer withdraws cash paid out by an agent. The PIN
// is the customer's.
type WithdrawRequest struct {
	CustomerWalletID uint
	AgentWalletID    uint
	Amount           float64
	PIN              string
	Reference        string
	Description      string
}

// RefundRequest reverses a COMPLETED transaction by its ledger identifier.
type RefundRequest struct {
	TransactionID string
	Reason        string
}
