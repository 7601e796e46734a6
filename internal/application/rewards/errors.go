package rewards

import "errors"

var (
	ErrProjectNotFound        = errors.New("Project not found")
	ErrProjectNotActive       = errors.New("Project is not active")
	ErrUnauthorized           = errors.New("Caller is not the project creator or administrator")
	ErrNoTokensMinted         = errors.New("No units have been minted")
	ErrNoFundsDeposited       = errors.New("Deposit amount must be greater than zero")
	ErrRewardIncreaseTooSmall = errors.New("Deposit is too small to increase the reward per unit")
	ErrNothingToClaim         = errors.New("Nothing to claim")
	ErrBatchSizeTooLarge      = errors.New("Claim batch exceeds the maximum size")
	ErrReasonRequired         = errors.New("A correction reason is required")
	ErrTransferFailed         = errors.New("Outbound transfer failed")
)
