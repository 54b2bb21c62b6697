package validation

import (
	"bridgepay/internal/models"
)

const (
	// GBP amount limits for a single conversion
	MinTransactionAmountGBP = 10.0
	MaxTransactionAmountGBP = 10000.0

	MaxAdminNotesLength = 500
	MaxNameLength       = 100
)

// UserRegistration validates a registration payload
func (v *Validator) UserRegistration(input *models.CreateUserInput) {
	v.Required("first_name", input.FirstName)
	v.MaxLength("first_name", input.FirstName, MaxNameLength)
	v.Required("last_name", input.LastName)
	v.MaxLength("last_name", input.LastName, MaxNameLength)
	v.Email("email", input.Email)
	v.Password("password", input.Password)
	if input.Phone != "" {
		v.Phone("phone", input.Phone)
	}
}

// TransactionCreate validates a conversion request before any database work
func (v *Validator) TransactionCreate(gbpAmount float64, walletAddress string) {
	v.Range("gbp_amount", gbpAmount, MinTransactionAmountGBP, MaxTransactionAmountGBP)
	v.WalletAddress("wallet_address", walletAddress)
}

// KYCSubmission validates a document batch: id and utility_bill are
// mandatory, passport and face_photo optional, one document per type.
func (v *Validator) KYCSubmission(docs []models.KYCDocument) {
	seen := make(map[models.DocumentType]bool, len(docs))
	for _, d := range docs {
		if !d.DocumentType.Valid() {
			v.AddError("document_type", "unknown document type "+string(d.DocumentType))
			continue
		}
		if seen[d.DocumentType] {
			v.AddError("document_type", "duplicate document type "+string(d.DocumentType))
		}
		seen[d.DocumentType] = true
		v.Required("file_url", d.FileURL)
	}
	v.Check(seen[models.DocumentID], "documents", "an identity document is required")
	v.Check(seen[models.DocumentUtilityBill], "documents", "a utility bill is required")
}
