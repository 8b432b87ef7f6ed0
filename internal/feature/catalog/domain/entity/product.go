// Package entity defines the domain entities for the catalog feature.
package entity

import "time"

// Product status values. Status is always derived from Stock and is never
// writable by callers.
const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
)

// Product represents a catalog entry. Image holds only the generated blob
// filename; the bytes live in blob storage under the products/ namespace.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Image       string    `gorm:"size:255;not null" json:"image"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Price       float64   `gorm:"not null" json:"price"`
	Stock       int       `gorm:"not null" json:"stock"`
	Status      string    `gorm:"size:20;not null" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeriveStatus returns the availability status for a stock level.
// The derivation is recomputed on every create and update.
func DeriveStatus(stock int) string {
	if stock > 0 {
		return StatusAvailable
	}
	return StatusUnavailable
}
