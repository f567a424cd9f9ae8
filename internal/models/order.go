package models

// Order is the persisted record of a checkout, written at pre-checkout time
// before payment is confirmed. Rows are append-only and never mutated; the
// unique index on the provider order id makes duplicate confirmation events
// idempotent.
type Order struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	UserChatID int64  `json:"user_chat_id" gorm:"not null"`
	OrderID    string `json:"order_id" gorm:"uniqueIndex;type:varchar(64);not null"`
	OrderInfo  string `json:"order_info" gorm:"type:text;not null"`
}

// OrderSnapshot is the serialized payload stored in Order.OrderInfo: payer
// identity, shipping address and payment metadata as reported by the provider
// at pre-checkout time.
type OrderSnapshot struct {
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	Username         string `json:"username,omitempty"`
	Currency         string `json:"currency"`
	TotalAmount      int64  `json:"total_amount"`
	InvoicePayload   string `json:"invoice_payload"`
	ShippingOptionID string `json:"shipping_option_id,omitempty"`
	Name             string `json:"name,omitempty"`
	PhoneNumber      string `json:"phone_number,omitempty"`
	Email            string `json:"email,omitempty"`
	CountryCode      string `json:"country_code,omitempty"`
	State            string `json:"state,omitempty"`
	City             string `json:"city,omitempty"`
	StreetLine1      string `json:"street_line1,omitempty"`
	StreetLine2      string `json:"street_line2,omitempty"`
	PostCode         string `json:"post_code,omitempty"`
}
