package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"shopbot/internal/models"
	"shopbot/internal/repositories"
)

// EventPublisher publishes order lifecycle events to the message broker.
// Implemented by pkg/rabbitmq; a nil publisher disables publication.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// txRunner runs a function inside one database transaction. Implemented by
// database.Store.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ShippingConfig is the single delivery area the shop serves plus the fixed
// doorstep-delivery price.
type ShippingConfig struct {
	CountryCode        string
	City               string
	DeliveryPriceMinor int64
	Currency           string
}

// Address is a shipping address as reported by the payment provider.
type Address struct {
	CountryCode string `json:"country_code"`
	State       string `json:"state"`
	City        string `json:"city"`
	StreetLine1 string `json:"street_line1"`
	StreetLine2 string `json:"street_line2"`
	PostCode    string `json:"post_code"`
}

// LabeledPrice is one labeled amount in minor currency units.
type LabeledPrice struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// ShippingOption is one delivery choice offered to the payer.
type ShippingOption struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Prices []LabeledPrice `json:"prices"`
}

// Invoice is the assembled checkout: one line item per cart entry, amounts
// in minor units.
type Invoice struct {
	Payload  string         `json:"payload"`
	Currency string         `json:"currency"`
	Items    []LabeledPrice `json:"items"`
}

// PreCheckout carries the provider's pre-checkout event into the engine.
type PreCheckout struct {
	OrderID  string
	ChatID   int64
	Snapshot models.OrderSnapshot
}

// CheckoutService drives the checkout-to-order pipeline. Operations for one
// user are serialized behind a per-user mutex so that concurrent requests
// from the same user (e.g. two devices) cannot interleave a settlement with
// a cart mutation.
type CheckoutService struct {
	carts     repositories.CartRepository
	products  repositories.ProductRepository
	orders    repositories.OrderRepository
	tx        txRunner
	publisher EventPublisher
	shipping  ShippingConfig
	// userLocks maps chat id -> *sync.Mutex. Entries are never evicted, so
	// the map grows with the number of distinct chat ids seen over the
	// process lifetime, one mutex each.
	userLocks sync.Map
	log       zerolog.Logger
}

// NewCheckoutService creates a new CheckoutService. publisher may be nil.
func NewCheckoutService(
	carts repositories.CartRepository,
	products repositories.ProductRepository,
	orders repositories.OrderRepository,
	tx txRunner,
	publisher EventPublisher,
	shipping ShippingConfig,
	log zerolog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		products:  products,
		orders:    orders,
		tx:        tx,
		publisher: publisher,
		shipping:  shipping,
		log:       log,
	}
}

func (s *CheckoutService) lockUser(chatID int64) func() {
	mu, _ := s.userLocks.LoadOrStore(chatID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

// AssembleInvoice reads the user's cart and builds the invoice line items.
// An empty cart aborts with ErrEmptyCart; a cart entry whose product was
// deleted fails the whole assembly with ErrProductUnavailable.
func (s *CheckoutService) AssembleInvoice(ctx context.Context, chatID int64) (*Invoice, error) {
	defer s.lockUser(chatID)()

	items, err := s.carts.GetByUser(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	invoice := &Invoice{
		Payload:  uuid.New().String(),
		Currency: s.shipping.Currency,
		Items:    make([]LabeledPrice, 0, len(items)),
	}
	for _, item := range items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("cart item %d references product %d: %w",
					item.ID, item.ProductID, ErrProductUnavailable)
			}
			return nil, err
		}
		invoice.Items = append(invoice.Items, LabeledPrice{
			Label:  product.Name,
			Amount: MinorUnits(product.Price),
		})
	}
	return invoice, nil
}

// ShippingOptions validates the address against the configured delivery area.
// A match yields exactly two options, paid doorstep delivery and free
// pickup; anything else is rejected with ErrShippingUnavailable and no
// options.
func (s *CheckoutService) ShippingOptions(addr Address) ([]ShippingOption, error) {
	if addr.CountryCode != s.shipping.CountryCode || addr.City != s.shipping.City {
		return nil, fmt.Errorf("%w: delivery is available only in %s, %s",
			ErrShippingUnavailable, s.shipping.City, s.shipping.CountryCode)
	}
	return []ShippingOption{
		{
			ID:     "shipping",
			Title:  "Delivery",
			Prices: []LabeledPrice{{Label: "To the door", Amount: s.shipping.DeliveryPriceMinor}},
		},
		{
			ID:     "pickup",
			Title:  "Pickup",
			Prices: []LabeledPrice{{Label: "Pick up yourself", Amount: 0}},
		},
	}, nil
}

// ConfirmPreCheckout persists the order snapshot keyed by the provider order
// id before the transaction is approved. A repeated confirmation for the
// same order id is an idempotent no-op.
func (s *CheckoutService) ConfirmPreCheckout(ctx context.Context, pc PreCheckout) (bool, error) {
	defer s.lockUser(pc.ChatID)()

	snapshot, err := json.Marshal(pc.Snapshot)
	if err != nil {
		return false, fmt.Errorf("failed to serialize order snapshot: %w", err)
	}

	created, err := s.orders.Create(ctx, &models.Order{
		UserChatID: pc.ChatID,
		OrderID:    pc.OrderID,
		OrderInfo:  string(snapshot),
	})
	if err != nil {
		return false, err
	}
	if !created {
		s.log.Info().Str("order_id", pc.OrderID).Msg("duplicate pre-checkout confirmation ignored")
		return false, nil
	}

	s.log.Info().Str("order_id", pc.OrderID).Int64("chat_id", pc.ChatID).Msg("order persisted")
	s.publishEvent("order.created", map[string]any{
		"order_id": pc.OrderID,
		"chat_id":  pc.ChatID,
		"total":    pc.Snapshot.TotalAmount,
		"currency": pc.Snapshot.Currency,
	})
	return true, nil
}

// Settle handles a successful-payment event: the payer's whole cart is
// cleared in one transaction and the settled amount is reported back in
// whole major units.
func (s *CheckoutService) Settle(ctx context.Context, chatID int64, totalMinor int64) (int64, error) {
	defer s.lockUser(chatID)()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := repositories.NewGORMCartRepository(tx).ClearUser(ctx, chatID)
		return err
	})
	if err != nil {
		return 0, err
	}

	major := MajorUnits(totalMinor)
	s.log.Info().Int64("chat_id", chatID).Int64("total_minor", totalMinor).Msg("payment settled, cart cleared")
	s.publishEvent("order.settled", map[string]any{
		"chat_id":     chatID,
		"total_minor": totalMinor,
		"total_major": major,
	})
	return major, nil
}

// publishEvent sends an order event to the broker. Publication failures are
// logged, never surfaced: the checkout itself has already succeeded.
func (s *CheckoutService) publishEvent(routingKey string, payload map[string]any) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event", routingKey).Msg("failed to marshal order event")
		return
	}
	if err := s.publisher.Publish("order", routingKey, body); err != nil {
		s.log.Warn().Err(err).Str("event", routingKey).Msg("failed to publish order event")
	}
}
