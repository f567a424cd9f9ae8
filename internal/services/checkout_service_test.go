package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbot/internal/database"
	"shopbot/internal/models"
	"shopbot/internal/repositories"
	"shopbot/internal/services"
)

// fakePublisher records published order events.
type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) Publish(_, routingKey string, _ []byte) error {
	p.mu.Lock()
	p.events = append(p.events, routingKey)
	p.mu.Unlock()
	return nil
}

type checkoutFixture struct {
	store    *database.Store
	products repositories.ProductRepository
	carts    repositories.CartRepository
	orders   repositories.OrderRepository
	pub      *fakePublisher
	service  *services.CheckoutService
}

func shipping() services.ShippingConfig {
	return services.ShippingConfig{
		CountryCode:        "RU",
		City:               "Saint Petersburg",
		DeliveryPriceMinor: 10000,
		Currency:           "RUB",
	}
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	store, err := database.Open(database.Config{Driver: database.DriverSQLite, DSN: dsn}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	db, err := store.DB()
	require.NoError(t, err)

	f := &checkoutFixture{
		store:    store,
		products: repositories.NewGORMProductRepository(db),
		carts:    repositories.NewGORMCartRepository(db),
		orders:   repositories.NewGORMOrderRepository(db),
		pub:      &fakePublisher{},
	}
	f.service = services.NewCheckoutService(
		f.carts, f.products, f.orders, store, f.pub, shipping(), zerolog.Nop())
	return f
}

func (f *checkoutFixture) addProduct(t *testing.T, name, price string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price)}
	created, err := f.products.Create(context.Background(), p)
	require.NoError(t, err)
	require.True(t, created)
	return p
}

func (f *checkoutFixture) addToCart(t *testing.T, chatID int64, productID uint) {
	t.Helper()
	_, err := f.carts.Add(context.Background(), &models.CartItem{UserChatID: chatID, ProductID: productID})
	require.NoError(t, err)
}

func TestAssembleInvoice(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)

	teapot := f.addProduct(t, "Teapot", "199.50")
	cup := f.addProduct(t, "Cup", "3.20")
	f.addToCart(t, 1, teapot.ID)
	f.addToCart(t, 1, cup.ID)

	invoice, err := f.service.AssembleInvoice(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, invoice.Payload)
	assert.Equal(t, "RUB", invoice.Currency)
	require.Len(t, invoice.Items, 2)
	assert.Equal(t, services.LabeledPrice{Label: "Teapot", Amount: 19950}, invoice.Items[0])
	assert.Equal(t, services.LabeledPrice{Label: "Cup", Amount: 320}, invoice.Items[1])
}

func TestAssembleInvoiceEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)
	_, err := f.service.AssembleInvoice(context.Background(), 1)
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}

func TestAssembleInvoiceDeletedProductAborts(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)

	teapot := f.addProduct(t, "Teapot", "10.00")
	f.addToCart(t, 1, teapot.ID)

	// Delete behind the cart's back without triggering the cascade, so the
	// dangling reference is observable. A single pooled connection keeps
	// the pragma and the delete on the same connection.
	db, err := f.store.DB()
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = OFF").Error)
	require.NoError(t, db.Exec("DELETE FROM products WHERE id = ?", teapot.ID).Error)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)

	_, err = f.service.AssembleInvoice(ctx, 1)
	assert.ErrorIs(t, err, services.ErrProductUnavailable)
}

func TestShippingOptions(t *testing.T) {
	f := newCheckoutFixture(t)

	options, err := f.service.ShippingOptions(services.Address{CountryCode: "RU", City: "Saint Petersburg"})
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "shipping", options[0].ID)
	assert.Equal(t, int64(10000), options[0].Prices[0].Amount)
	assert.Equal(t, "pickup", options[1].ID)
	assert.Equal(t, int64(0), options[1].Prices[0].Amount)

	for _, addr := range []services.Address{
		{CountryCode: "RU", City: "Moscow"},
		{CountryCode: "DE", City: "Saint Petersburg"},
		{},
	} {
		options, err := f.service.ShippingOptions(addr)
		assert.ErrorIs(t, err, services.ErrShippingUnavailable)
		assert.Empty(t, options)
	}
}

func TestConfirmPreCheckoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)

	pc := services.PreCheckout{
		OrderID: "prov-1",
		ChatID:  1,
		Snapshot: models.OrderSnapshot{
			Currency: "RUB", TotalAmount: 19950, InvoicePayload: "payload", City: "Saint Petersburg",
		},
	}

	created, err := f.service.ConfirmPreCheckout(ctx, pc)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.service.ConfirmPreCheckout(ctx, pc)
	require.NoError(t, err)
	assert.False(t, created, "a retried confirmation must not create a second order")

	db, err := f.store.DB()
	require.NoError(t, err)
	var orders []models.Order
	require.NoError(t, db.Find(&orders).Error)
	require.Len(t, orders, 1)

	var snapshot models.OrderSnapshot
	require.NoError(t, json.Unmarshal([]byte(orders[0].OrderInfo), &snapshot))
	assert.Equal(t, pc.Snapshot, snapshot)

	assert.Equal(t, []string{"order.created"}, f.pub.events, "only the first confirmation publishes")
}

func TestSettleClearsOnlyThePayersCart(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)

	teapot := f.addProduct(t, "Teapot", "199.50")
	cup := f.addProduct(t, "Cup", "3.20")
	f.addToCart(t, 1, teapot.ID)
	f.addToCart(t, 1, cup.ID)
	f.addToCart(t, 2, teapot.ID)

	major, err := f.service.Settle(ctx, 1, 19950)
	require.NoError(t, err)
	assert.EqualValues(t, 199, major)

	payerItems, err := f.carts.GetByUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, payerItems)

	otherItems, err := f.carts.GetByUser(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, otherItems, 1)

	assert.Contains(t, f.pub.events, "order.settled")
}

func TestSettleOnEmptyCartIsHarmless(t *testing.T) {
	f := newCheckoutFixture(t)
	major, err := f.service.Settle(context.Background(), 1, 500)
	require.NoError(t, err)
	assert.EqualValues(t, 5, major)
}
