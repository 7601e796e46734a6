package projects

import "errors"

var (
	ErrInvalidSupply      = errors.New("Total supply must be greater than zero")
	ErrInvalidPrice       = errors.New("Unit price must be greater than zero")
	ErrInvalidMinPurchase = errors.New("Minimum purchase must be between 1 and total supply")
	ErrInvalidCreator     = errors.New("Creator address is invalid")
	ErrInvalidName        = errors.New("Project name is invalid")
	ErrProjectNotFound    = errors.New("Project not found")
	ErrUnauthorized       = errors.New("Caller is not the project creator")
)
