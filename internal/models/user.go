package models

// User represents a shopper known to the store.
// Users are created lazily on first contact, keyed by their chat identity.
type User struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	ChatID int64  `json:"chat_id" gorm:"uniqueIndex;not null" validate:"required"`
	Name   string `json:"name" gorm:"type:varchar(255)"`
}
