package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-service/internal/orders"
	"storefront-service/internal/stores/postgres"
)

// SQLStore implements Store on postgres.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) InTx(ctx context.Context, fn func(Tx) error) error {
	return postgres.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&sqlTx{tx: tx})
	})
}

const paymentColumns = `p.id, p.order_id, p.method, p.amount, p.payment_status,
	p.gateway_order_id, p.gateway_payment_id, p.gateway_signature, p.created_at, p.updated_at`

func scanPayment(row *sql.Row) (Payment, error) {
	var p Payment
	var gwOrder, gwPayment, gwSig sql.NullString
	err := row.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Status,
		&gwOrder, &gwPayment, &gwSig, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Payment{}, ErrPaymentNotFound
	}
	if err != nil {
		return Payment{}, fmt.Errorf("failed to scan payment: %w", err)
	}
	if gwOrder.Valid {
		p.GatewayOrderID = &gwOrder.String
	}
	if gwPayment.Valid {
		p.GatewayPaymentID = &gwPayment.String
	}
	if gwSig.Valid {
		p.GatewaySignature = &gwSig.String
	}
	return p, nil
}

func (s *SQLStore) PaymentForOrder(ctx context.Context, orderID, userID int64) (Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments p JOIN orders o ON o.id = p.order_id
		WHERE p.order_id = $1 AND o.user_id = $2`
	return scanPayment(s.db.QueryRowContext(ctx, query, orderID, userID))
}

func (s *SQLStore) PaymentByGatewayOrder(ctx context.Context, gatewayOrderID string, userID *int64) (Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments p JOIN orders o ON o.id = p.order_id
		WHERE p.gateway_order_id = $1 AND ($2::bigint IS NULL OR o.user_id = $2)`
	return scanPayment(s.db.QueryRowContext(ctx, query, gatewayOrderID, userID))
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) LockOrder(ctx context.Context, orderID int64) (OrderRef, error) {
	var o OrderRef
	var status string
	query := `SELECT id, user_id, status, total_price FROM orders WHERE id = $1 FOR UPDATE`
	err := t.tx.QueryRowContext(ctx, query, orderID).Scan(&o.ID, &o.UserID, &status, &o.TotalPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return OrderRef{}, ErrOrderNotFound
	}
	if err != nil {
		return OrderRef{}, fmt.Errorf("failed to lock order: %w", err)
	}
	o.Status = orders.Status(status)
	return o, nil
}

func (t *sqlTx) HasPayment(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE order_id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check payment: %w", err)
	}
	return exists, nil
}

func (t *sqlTx) InsertPayment(ctx context.Context, p *Payment) error {
	query := `INSERT INTO payments (order_id, method, amount, payment_status, gateway_order_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := t.tx.QueryRowContext(ctx, query, p.OrderID, string(p.Method), p.Amount, string(p.Status), p.GatewayOrderID).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrPaymentExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (t *sqlTx) LockPayment(ctx context.Context, paymentID int64) (Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1 FOR UPDATE`
	return scanPayment(t.tx.QueryRowContext(ctx, query, paymentID))
}

func (t *sqlTx) UpdatePayment(ctx context.Context, p Payment) error {
	query := `UPDATE payments
		SET payment_status = $2, gateway_payment_id = $3, gateway_signature = $4, updated_at = now()
		WHERE id = $1`
	res, err := t.tx.ExecContext(ctx, query, p.ID, string(p.Status), p.GatewayPaymentID, p.GatewaySignature)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (t *sqlTx) SetOrderStatus(ctx context.Context, orderID int64, status orders.Status) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, string(status))
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}
