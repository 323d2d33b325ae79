package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewTransactionID returns a unique ledger transaction identifier.
func NewTransactionID() string {
	return fmt.Sprintf("TXN-%s", strings.ToUpper(uuid.NewString()))
}

// NewWalletNumber returns a unique human-readable wallet number.
func NewWalletNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
	return fmt.Sprintf("DW%d%s", time.Now().Year(), suffix)
}
