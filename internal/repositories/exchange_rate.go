package repositories

import (
	"errors"

	"bridgepay/internal/models"

	"gorm.io/gorm"
)

var ErrNoRateSample = errors.New("no exchange rate sample available")

// ExchangeRateRepository reads GBP to USDT rate samples. Samples are
// written by an external fetcher process; Insert exists for seeding.
type ExchangeRateRepository interface {
	Latest() (*models.ExchangeRate, error)
	Insert(rate *models.ExchangeRate) error
}

type exchangeRateRepository struct {
	db *gorm.DB
}

// NewExchangeRateRepository creates a new ExchangeRateRepository.
func NewExchangeRateRepository(db *gorm.DB) ExchangeRateRepository {
	return &exchangeRateRepository{db: db}
}

func (r *exchangeRateRepository) Latest() (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.Order("fetched_at DESC").First(&rate).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNoRateSample
		}
		return nil, err
	}
	return &rate, nil
}

func (r *exchangeRateRepository) Insert(rate *models.ExchangeRate) error {
	return r.db.Create(rate).Error
}
