package treasury

import "errors"

var (
	ErrProjectNotFound   = errors.New("Project not found")
	ErrUnauthorized      = errors.New("Caller is not the project creator")
	ErrInvalidAmount     = errors.New("Amount must be greater than zero")
	ErrInvalidRecipient  = errors.New("Recipient address is invalid")
	ErrInsufficientSales = errors.New("Amount exceeds the project's sales balance")
	ErrNoResidual        = errors.New("No residual balance to rescue")
	ErrTransferFailed    = errors.New("Outbound transfer failed")
)
