package models

import "time"

// ExchangeRate is one timestamped GBP to USDT rate sample. Samples are
// written by an external rate fetcher; the application only reads the
// most recent one.
type ExchangeRate struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	Rate      float64   `gorm:"not null" json:"rate"`
	Source    string    `gorm:"not null" json:"source"`
	FetchedAt time.Time `gorm:"not null;index" json:"fetched_at"`
	CreatedAt time.Time `json:"created_at"`
}
