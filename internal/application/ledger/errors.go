package ledger

import "errors"

var (
	ErrProjectNotFound     = errors.New("Project not found")
	ErrProjectNotActive    = errors.New("Project is not active")
	ErrPaused              = errors.New("Operations are paused")
	ErrInvalidAmount       = errors.New("Amount must be greater than zero")
	ErrBelowMinPurchase    = errors.New("Amount is below the minimum purchase")
	ErrSupplyExhausted     = errors.New("Not enough unsold supply")
	ErrInsufficientPayment = errors.New("Payment is below the required price")
	ErrInsufficientBalance = errors.New("Insufficient unit balance")
	ErrInvalidRecipient    = errors.New("Recipient address is invalid")
	ErrLengthMismatch      = errors.New("Project ids and amounts must have the same length")
	ErrTransferFailed      = errors.New("Outbound transfer failed")
)
