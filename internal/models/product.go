package models

import "github.com/shopspring/decimal"

// Product represents a product in the catalog.
// Products are immutable once created; the only mutation is deletion.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Image       string          `json:"image" gorm:"type:varchar(255)"`
	Name        string          `json:"name" gorm:"uniqueIndex;type:varchar(100);not null" validate:"required,min=1,max=100"`
	Description string          `json:"description" gorm:"type:varchar(500)" validate:"max=500"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null" validate:"required"`
}
