package transaction

import "errors"

// Service errors
var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrKYCNotVerified       = errors.New("identity verification required before converting")
	ErrTermsNotAccepted     = errors.New("terms of service must be accepted first")
	ErrAmountOutOfRange     = errors.New("amount outside allowed limits")
	ErrInvalidWalletAddress = errors.New("invalid recipient wallet address")
	ErrNoExchangeRate       = errors.New("no exchange rate available")
	ErrInvalidTransition    = errors.New("transition not allowed from current status")
	ErrAlreadyTerminal      = errors.New("transaction already in a terminal state")
	ErrStatusConflict       = errors.New("transaction was modified concurrently, reload and retry")
	ErrReferenceExhausted   = errors.New("could not generate a unique payment reference")
)
