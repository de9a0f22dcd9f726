package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/drxlabs/drx-store-golang/internal/models"
)

const mysqlErrDuplicateEntry = 1062

// MySQLOrderStore implements OrderStore on the 'orders', 'order_items'
// and 'lookup_attempts' tables.
type MySQLOrderStore struct {
	DB *sql.DB
}

func NewMySQLOrderStore(db *sql.DB) *MySQLOrderStore {
	return &MySQLOrderStore{DB: db}
}

func (s *MySQLOrderStore) CreateWithItems(ctx context.Context, order *models.Order, items []CheckoutItem) error {
	if len(items) == 0 {
		return ErrEmptyOrder
	}

	// 1. --- Begin Transaction ---
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback() // Safety net

	// 2. --- Resolve Prices & Lock Stock ---
	type pricedItem struct {
		CheckoutItem
		UnitPrice float64
	}

	priceQuery := `
		SELECT price, stock_quantity
		FROM products
		WHERE id = ? AND status = 'published'
		FOR UPDATE`

	var total float64
	priced := make([]pricedItem, 0, len(items))
	for _, item := range items {
		var price float64
		var stock int
		err := tx.QueryRowContext(ctx, priceQuery, item.ProductID).Scan(&price, &stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: product %d", ErrUnknownProduct, item.ProductID)
			}
			return fmt.Errorf("failed to load product %d: %w", item.ProductID, err)
		}
		if stock < item.Quantity {
			return fmt.Errorf("%w: product %d", ErrOutOfStock, item.ProductID)
		}
		total += price * float64(item.Quantity)
		priced = append(priced, pricedItem{CheckoutItem: item, UnitPrice: price})
	}

	// 3. --- Insert the Order Header ---
	now := time.Now()
	orderQuery := `
		INSERT INTO orders
			(owner_user_id, status, shipping_method, total,
			 tracking_token_hash, tracking_number, idempotency_key,
			 customer_name, customer_phone, customer_email, shipping_address,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, orderQuery,
		order.OwnerUserID, order.Status, order.ShippingMethod, total,
		order.TrackingTokenHash, order.TrackingNumber, order.IdempotencyKey,
		order.CustomerName, order.CustomerPhone, order.CustomerEmail, order.ShippingAddress,
		now, now,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return ErrDuplicateSubmission
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get new order ID: %w", err)
	}

	// 4. --- Insert Line Items & Deduct Stock ---
	itemQuery := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, created_at)
		VALUES (?, ?, ?, ?, ?)`
	stockQuery := "UPDATE products SET stock_quantity = stock_quantity - ? WHERE id = ?"

	for _, item := range priced {
		if _, err := tx.ExecContext(ctx, itemQuery, orderID, item.ProductID, item.Quantity, item.UnitPrice, now); err != nil {
			return fmt.Errorf("failed to save order item: %w", err)
		}
		if _, err := tx.ExecContext(ctx, stockQuery, item.Quantity, item.ProductID); err != nil {
			return fmt.Errorf("failed to deduct stock: %w", err)
		}
	}

	// 5. --- Commit ---
	// Rolling back on any earlier failure guarantees the header is
	// never visible without its items.
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	order.ID = orderID
	order.Total = total
	order.CreatedAt = now
	order.UpdatedAt = now
	return nil
}

func (s *MySQLOrderStore) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	query := `
		SELECT id, owner_user_id, status, shipping_method, total,
		       tracking_number, customer_name, customer_phone, created_at, updated_at
		FROM orders
		WHERE idempotency_key = ?`

	return s.scanOrder(s.DB.QueryRowContext(ctx, query, key))
}

func (s *MySQLOrderStore) FindGuestByTokenHash(ctx context.Context, hash string) (*models.Order, error) {
	// Owned orders are unreachable through this path by design; they
	// must go through the authenticated, ownership-checked route.
	query := `
		SELECT id, owner_user_id, status, shipping_method, total,
		       tracking_number, customer_name, customer_phone, created_at, updated_at
		FROM orders
		WHERE tracking_token_hash = ? AND owner_user_id IS NULL`

	return s.scanOrder(s.DB.QueryRowContext(ctx, query, hash))
}

func (s *MySQLOrderStore) scanOrder(row *sql.Row) (*models.Order, error) {
	var o models.Order
	var ownerID sql.NullInt64

	err := row.Scan(
		&o.ID, &ownerID, &o.Status, &o.ShippingMethod, &o.Total,
		&o.TrackingNumber, &o.CustomerName, &o.CustomerPhone, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if ownerID.Valid {
		o.OwnerUserID = &ownerID.Int64
	}
	return &o, nil
}

func (s *MySQLOrderStore) RecordLookupAttempt(ctx context.Context, attempt models.LookupAttempt) error {
	query := `
		INSERT INTO lookup_attempts (source_address, token_fingerprint, attempted_at)
		VALUES (?, ?, ?)`

	_, err := s.DB.ExecContext(ctx, query, attempt.SourceAddress, attempt.TokenFingerprint, attempt.AttemptedAt)
	if err != nil {
		return fmt.Errorf("failed to record lookup attempt: %w", err)
	}
	return nil
}
