package repositories_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"shopbot/internal/database"
	"shopbot/internal/models"
	"shopbot/internal/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	store, err := database.Open(database.Config{Driver: database.DriverSQLite, DSN: dsn}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	db, err := store.DB()
	require.NoError(t, err)
	return db
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestProductNameUniquenessIsBenign(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMProductRepository(newTestDB(t))

	created, err := repo.Create(ctx, &models.Product{Name: "Teapot", Price: price("199.50")})
	require.NoError(t, err)
	assert.True(t, created)

	// Same name again: no error, no second row.
	created, err = repo.Create(ctx, &models.Product{Name: "Teapot", Price: price("10.00")})
	require.NoError(t, err)
	assert.False(t, created)

	products, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].Price.Equal(price("199.50")), "the original row must win")
}

func TestProductGetByIDNotFound(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMProductRepository(newTestDB(t))

	_, err := repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCartAddIsIdempotentPerUserProduct(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	products := repositories.NewGORMProductRepository(db)
	carts := repositories.NewGORMCartRepository(db)

	p := &models.Product{Name: "Teapot", Price: price("10.00")}
	_, err := products.Create(ctx, p)
	require.NoError(t, err)

	added, err := carts.Add(ctx, &models.CartItem{UserChatID: 1, ProductID: p.ID})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = carts.Add(ctx, &models.CartItem{UserChatID: 1, ProductID: p.ID})
	require.NoError(t, err)
	assert.False(t, added, "re-adding the same product must be a no-op")

	// A different user gets their own row.
	added, err = carts.Add(ctx, &models.CartItem{UserChatID: 2, ProductID: p.ID})
	require.NoError(t, err)
	assert.True(t, added)

	items, err := carts.GetByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestProductDeleteCascadesCartItems(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	products := repositories.NewGORMProductRepository(db)
	carts := repositories.NewGORMCartRepository(db)

	doomed := &models.Product{Name: "Doomed", Price: price("5.00")}
	keeper := &models.Product{Name: "Keeper", Price: price("7.00")}
	for _, p := range []*models.Product{doomed, keeper} {
		_, err := products.Create(ctx, p)
		require.NoError(t, err)
	}
	for _, chatID := range []int64{1, 2} {
		_, err := carts.Add(ctx, &models.CartItem{UserChatID: chatID, ProductID: doomed.ID})
		require.NoError(t, err)
		_, err = carts.Add(ctx, &models.CartItem{UserChatID: chatID, ProductID: keeper.ID})
		require.NoError(t, err)
	}

	require.NoError(t, products.Delete(ctx, doomed.ID))

	// Every user's reference to the deleted product is gone, others stay.
	for _, chatID := range []int64{1, 2} {
		items, err := carts.GetByUser(ctx, chatID)
		require.NoError(t, err)
		require.Len(t, items, 1, "chat %d", chatID)
		assert.Equal(t, keeper.ID, items[0].ProductID)
	}
}

func TestCartClearUserIsScoped(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	products := repositories.NewGORMProductRepository(db)
	carts := repositories.NewGORMCartRepository(db)

	p := &models.Product{Name: "Teapot", Price: price("10.00")}
	_, err := products.Create(ctx, p)
	require.NoError(t, err)
	for _, chatID := range []int64{1, 2} {
		_, err := carts.Add(ctx, &models.CartItem{UserChatID: chatID, ProductID: p.ID})
		require.NoError(t, err)
	}

	removed, err := carts.ClearUser(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	items, err := carts.GetByUser(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, items, 1, "the other user's cart is untouched")
}

func TestCartRemoveNotFound(t *testing.T) {
	ctx := context.Background()
	carts := repositories.NewGORMCartRepository(newTestDB(t))
	assert.ErrorIs(t, carts.Remove(ctx, 99), repositories.ErrNotFound)
}

func TestOrderCreateIsIdempotentPerProviderID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	orders := repositories.NewGORMOrderRepository(db)

	created, err := orders.Create(ctx, &models.Order{UserChatID: 1, OrderID: "prov-1", OrderInfo: "{}"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = orders.Create(ctx, &models.Order{UserChatID: 1, OrderID: "prov-1", OrderInfo: "{}"})
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "duplicate confirmations must not add rows")
}

func TestUserUpsertIgnoresKnownChat(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := repositories.NewGORMUserRepository(db)

	require.NoError(t, users.Upsert(ctx, &models.User{ChatID: 7, Name: "Ann"}))
	require.NoError(t, users.Upsert(ctx, &models.User{ChatID: 7, Name: "Other"}))

	var got models.User
	require.NoError(t, db.First(&got, "chat_id = ?", 7).Error)
	assert.Equal(t, "Ann", got.Name, "first contact wins")

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
