package transaction

import "time"

// Default configuration values
const (
	DefaultMinAmountGBP  = 10.0
	DefaultMaxAmountGBP  = 10000.0
	DefaultPaymentWindow = 2 * time.Hour

	// Attempts to regenerate a payment reference on a unique-index collision.
	referenceRetries = 3
)
