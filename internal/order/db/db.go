package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-ordering/internal/apperrors"
	"ms-ordering/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreateOrder inserts a new order. A tracking-code collision surfaces as a
// conflict so the engine can retry with a fresh code.
func (d *DB) CreateOrder(order models.Order) error {
	_, err := d.Bun.NewInsert().Model(&order).Exec(context.Background())
	if err != nil {
		if exists, checkErr := d.orderExists(order.OrderID); checkErr == nil && exists {
			return apperrors.Conflict("order id already in use")
		}
		return apperrors.Storage("insert order", err)
	}
	return nil
}

func (d *DB) GetOrderByID(id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("order_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, apperrors.Storage("select order", err)
	}
	return &order, nil
}

// UpdateOrder persists the mutable fields of an order guarded by the version
// column: the write only lands when nobody else has written since the read.
// A stale version surfaces as a conflict, never as a silent lost update.
func (d *DB) UpdateOrder(order models.Order) error {
	previousVersion := order.Version
	order.Version++

	res, err := d.Bun.NewUpdate().
		Model(&order).
		Column("status", "payment_status", "confirmed", "confirmed_at",
			"review", "rejection_reason", "rejected_at", "updated_at", "version").
		Where("order_id = ? AND version = ?", order.OrderID, previousVersion).
		Exec(context.Background())
	if err != nil {
		return apperrors.Storage("update order", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage("update order", err)
	}
	if affected == 0 {
		exists, checkErr := d.orderExists(order.OrderID)
		if checkErr != nil {
			return checkErr
		}
		if !exists {
			return apperrors.NotFound("order not found")
		}
		return apperrors.Conflict("order was modified concurrently, retry")
	}
	return nil
}

// ListOrders returns orders newest-first. The zero status means no filter.
func (d *DB) ListOrders(status models.OrderStatus, limit int) ([]models.Order, error) {
	orders := []models.Order{}
	q := d.Bun.NewSelect().Model(&orders)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Scan(context.Background())
	if err != nil {
		return nil, apperrors.Storage("list orders", err)
	}
	return orders, nil
}

func (d *DB) DeleteOrder(id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Order)(nil)).
		Where("order_id = ?", id).
		Exec(context.Background())
	if err != nil {
		return apperrors.Storage("delete order", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage("delete order", err)
	}
	if affected == 0 {
		return apperrors.NotFound("order not found")
	}
	return nil
}

// DeleteCompletedOrders removes every completed order and reports how many
// rows went away.
func (d *DB) DeleteCompletedOrders() (int, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Order)(nil)).
		Where("status = ?", models.StatusCompleted).
		Exec(context.Background())
	if err != nil {
		return 0, apperrors.Storage("bulk delete completed orders", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.Storage("bulk delete completed orders", err)
	}
	return int(affected), nil
}

func (d *DB) orderExists(id string) (bool, error) {
	exists, err := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Where("order_id = ?", id).
		Exists(context.Background())
	if err != nil {
		return false, apperrors.Storage(fmt.Sprintf("check order %s", id), err)
	}
	return exists, nil
}
