package models

// CartItem is one product in one user's cart. A row is membership, not
// quantity: the composite unique index makes repeated adds a no-op, and the
// foreign key cascades deletion when the referenced product is removed.
type CartItem struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	UserChatID int64   `json:"user_chat_id" gorm:"not null;uniqueIndex:idx_cart_user_product"`
	ProductID  uint    `json:"product_id" gorm:"not null;uniqueIndex:idx_cart_user_product"`
	Product    Product `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}
