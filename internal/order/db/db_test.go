package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-ordering/internal/apperrors"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	// Shared-cache in-memory sqlite vanishes when the last connection closes
	sqldb.SetMaxIdleConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.Order)(nil)))

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func sampleOrder(id string, status models.OrderStatus) models.Order {
	now := time.Now().Round(time.Second)
	return models.Order{
		OrderID:        id,
		Status:         status,
		DeliveryMethod: models.MethodDelivery,
		CustomerName:   "Maria Papadopoulos",
		CustomerPhone:  "+30 697 123 4567",
		CustomerCity:   "Athens",
		Items: []models.OrderItem{
			{Name: "Margherita", Quantity: 2, Size: "large", Price: 11.5},
		},
		PaymentMethod: models.PaymentCash,
		PaymentStatus: models.PaymentPending,
		Subtotal:      23.0,
		DeliveryFee:   5.0,
		Total:         28.0,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
}

func TestCreateAndGetOrder(t *testing.T) {
	store := setupTestDB(t)

	order := sampleOrder("VPAAAAA", models.StatusPending)
	require.NoError(t, store.CreateOrder(order))

	got, err := store.GetOrderByID("VPAAAAA")
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, got.OrderID)
	assert.Equal(t, order.Status, got.Status)
	assert.Equal(t, order.CustomerName, got.CustomerName)
	assert.Equal(t, order.Total, got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Margherita", got.Items[0].Name)
	assert.Equal(t, int64(1), got.Version)
}

func TestGetOrderNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetOrderByID("VPZZZZZ")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestCreateOrderDuplicateIDConflict(t *testing.T) {
	store := setupTestDB(t)

	require.NoError(t, store.CreateOrder(sampleOrder("VPAAAAA", models.StatusPending)))

	err := store.CreateOrder(sampleOrder("VPAAAAA", models.StatusPending))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestUpdateOrderBumpsVersion(t *testing.T) {
	store := setupTestDB(t)

	order := sampleOrder("VPAAAAA", models.StatusPending)
	require.NoError(t, store.CreateOrder(order))

	order.Status = models.StatusConfirmed
	require.NoError(t, store.UpdateOrder(order))

	got, err := store.GetOrderByID("VPAAAAA")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestUpdateOrderStaleVersionConflict(t *testing.T) {
	store := setupTestDB(t)

	order := sampleOrder("VPAAAAA", models.StatusPending)
	require.NoError(t, store.CreateOrder(order))

	// Two callers read version 1; the first write wins
	first := order
	first.Status = models.StatusConfirmed
	require.NoError(t, store.UpdateOrder(first))

	second := order
	second.Status = models.StatusCancelled
	second.RejectionReason = "stale writer"
	err := store.UpdateOrder(second)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	got, err := store.GetOrderByID("VPAAAAA")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status, "losing write must not land")
}

func TestUpdateOrderNotFound(t *testing.T) {
	store := setupTestDB(t)

	order := sampleOrder("VPGHOST", models.StatusPending)
	err := store.UpdateOrder(order)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestUpdateOrderPersistsReviewAndRejection(t *testing.T) {
	store := setupTestDB(t)

	order := sampleOrder("VPAAAAA", models.StatusCompleted)
	require.NoError(t, store.CreateOrder(order))

	now := time.Now().Round(time.Second)
	order.Review = &models.Review{Rating: 4, Comment: "solid", SubmittedAt: now}
	order.Confirmed = true
	order.ConfirmedAt = &now
	require.NoError(t, store.UpdateOrder(order))

	got, err := store.GetOrderByID("VPAAAAA")
	require.NoError(t, err)
	require.NotNil(t, got.Review)
	assert.Equal(t, 4, got.Review.Rating)
	assert.True(t, got.Confirmed)
	require.NotNil(t, got.ConfirmedAt)
}

func TestListOrders(t *testing.T) {
	store := setupTestDB(t)

	oldest := sampleOrder("VPAAAA1", models.StatusPending)
	oldest.CreatedAt = time.Now().Add(-2 * time.Hour)
	middle := sampleOrder("VPAAAA2", models.StatusCompleted)
	middle.CreatedAt = time.Now().Add(-1 * time.Hour)
	newest := sampleOrder("VPAAAA3", models.StatusPending)
	newest.CreatedAt = time.Now()

	for _, o := range []models.Order{oldest, middle, newest} {
		require.NoError(t, store.CreateOrder(o))
	}

	all, err := store.ListOrders("", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "VPAAAA3", all[0].OrderID, "newest first")
	assert.Equal(t, "VPAAAA1", all[2].OrderID)

	pending, err := store.ListOrders(models.StatusPending, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	limited, err := store.ListOrders("", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeleteOrder(t *testing.T) {
	store := setupTestDB(t)

	require.NoError(t, store.CreateOrder(sampleOrder("VPAAAAA", models.StatusCancelled)))
	require.NoError(t, store.DeleteOrder("VPAAAAA"))

	err := store.DeleteOrder("VPAAAAA")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestDeleteCompletedOrders(t *testing.T) {
	store := setupTestDB(t)

	require.NoError(t, store.CreateOrder(sampleOrder("VPAAAA1", models.StatusCompleted)))
	require.NoError(t, store.CreateOrder(sampleOrder("VPAAAA2", models.StatusCompleted)))
	require.NoError(t, store.CreateOrder(sampleOrder("VPAAAA3", models.StatusPreparing)))

	count, err := store.DeleteCompletedOrders()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	remaining, err := store.ListOrders("", 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "VPAAAA3", remaining[0].OrderID)
}
