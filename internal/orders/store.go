package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-service/internal/stores/postgres"
	"storefront-service/pkg/paginate"
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

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const orderColumns = `id, user_id, shipping_address_id, billing_address_id, total_price, status, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	var shipping, billing sql.NullInt64
	err := row.Scan(&o.ID, &o.UserID, &shipping, &billing, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if shipping.Valid {
		o.ShippingAddressID = &shipping.Int64
	}
	if billing.Valid {
		o.BillingAddressID = &billing.Int64
	}
	return o, nil
}

func queryOrders(ctx context.Context, q queryer, query string, args ...any) ([]Order, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	list := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return list, nil
}

// attachItems loads the items of every order in one query.
func attachItems(ctx context.Context, q queryer, list []Order) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, len(list))
	index := make(map[int64]int, len(list))
	for i, o := range list {
		ids[i] = o.ID
		index[o.ID] = i
		list[i].Items = []Item{}
	}
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price, discounted_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		var productID sql.NullInt64
		if err := rows.Scan(&it.ID, &it.OrderID, &productID, &it.ProductName, &it.Quantity, &it.Price, &it.DiscountedPrice); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if productID.Valid {
			it.ProductID = &productID.Int64
		}
		i := index[it.OrderID]
		list[i].Items = append(list[i].Items, it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}
	return nil
}

func (s *SQLStore) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	list, err := queryOrders(ctx, s.db, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	if err := attachItems(ctx, s.db, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *SQLStore) ListAll(ctx context.Context, status Status, p paginate.Page) ([]Order, int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE ($1 = '' OR status = $1)`, string(status)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}
	list, err := queryOrders(ctx, s.db, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, string(status), p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, err
	}
	if err := attachItems(ctx, s.db, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (s *SQLStore) Get(ctx context.Context, orderID int64) (Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}
	list := []Order{o}
	if err := attachItems(ctx, s.db, list); err != nil {
		return Order{}, err
	}
	return list[0], nil
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) CartLinesForUpdate(ctx context.Context, userID int64) ([]CartLine, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT ci.id, p.id, p.name, p.price, p.discount, ci.quantity
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN products p ON p.id = ci.product_id
		WHERE c.user_id = $1
		ORDER BY p.id, ci.id
		FOR UPDATE OF ci`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart items: %w", err)
	}
	defer rows.Close()

	var lines []CartLine
	for rows.Next() {
		var l CartLine
		var discount sql.NullInt32
		if err := rows.Scan(&l.ItemID, &l.ProductID, &l.ProductName, &l.Price, &discount, &l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		if discount.Valid {
			d := int(discount.Int32)
			l.Discount = &d
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return lines, nil
}

func (t *sqlTx) AddressBelongsTo(ctx context.Context, addressID, userID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2)`,
		addressID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check address: %w", err)
	}
	return exists, nil
}

func (t *sqlTx) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2`, productID, quantity)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func (t *sqlTx) RestockItems(ctx context.Context, orderID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE products p
		SET stock = p.stock + oi.quantity, updated_at = NOW()
		FROM order_items oi
		WHERE oi.order_id = $1 AND oi.product_id = p.id`, orderID)
	if err != nil {
		return fmt.Errorf("failed to restock items: %w", err)
	}
	return nil
}

func (t *sqlTx) InsertOrder(ctx context.Context, o *Order) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, shipping_address_id, billing_address_id, total_price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		o.UserID, o.ShippingAddressID, o.BillingAddressID, o.TotalPrice, string(o.Status)).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (t *sqlTx) InsertItems(ctx context.Context, orderID int64, items []Item) error {
	for i := range items {
		items[i].OrderID = orderID
		err := t.tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, price, discounted_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			orderID, items[i].ProductID, items[i].ProductName, items[i].Quantity, items[i].Price, items[i].DiscountedPrice,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

func (t *sqlTx) DeleteCartItems(ctx context.Context, itemIDs []int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ANY($1)`, itemIDs); err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	return nil
}

func (t *sqlTx) LockOrder(ctx context.Context, orderID int64) (Order, error) {
	o, err := scanOrder(t.tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("failed to lock order: %w", err)
	}
	return o, nil
}

func (t *sqlTx) SetStatus(ctx context.Context, orderID int64, status Status) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, orderID, string(status))
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

func (t *sqlTx) SetShippingAddress(ctx context.Context, orderID, addressID int64) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE orders SET shipping_address_id = $2, updated_at = NOW() WHERE id = $1`, orderID, addressID)
	if err != nil {
		return fmt.Errorf("failed to update shipping address: %w", err)
	}
	return nil
}
