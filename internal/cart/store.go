package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-service/internal/products"
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

func (s *SQLStore) GetOrCreateCart(ctx context.Context, userID int64) (Cart, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return Cart{}, fmt.Errorf("failed to create cart: %w", err)
	}
	return s.FindCart(ctx, userID)
}

func (s *SQLStore) FindCart(ctx context.Context, userID int64) (Cart, error) {
	var c Cart
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1`, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, ErrCartNotFound
		}
		return Cart{}, fmt.Errorf("failed to query cart: %w", err)
	}
	return c, nil
}

func (s *SQLStore) Product(ctx context.Context, productID int64) (Product, error) {
	var p Product
	var discount sql.NullInt32
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, price, discount, stock, image
		FROM products
		WHERE id = $1`, productID).Scan(&p.ID, &p.Name, &p.Price, &discount, &p.Stock, &p.Image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("failed to query product: %w", err)
	}
	fillDiscount(&p, discount)
	return p, nil
}

func fillDiscount(p *Product, discount sql.NullInt32) {
	if discount.Valid {
		d := int(discount.Int32)
		p.Discount = &d
	}
	p.DiscountedPrice = products.DiscountedPrice(p.Price, p.Discount)
}

func (s *SQLStore) InsertItem(ctx context.Context, cartID, productID int64, quantity int) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id`, cartID, productID, quantity).Scan(&id)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return 0, ErrDuplicateItem
		}
		return 0, fmt.Errorf("failed to add product to cart: %w", err)
	}
	return id, nil
}

const itemQuery = `
	SELECT ci.id, ci.cart_id, ci.quantity, ci.created_at,
	       p.id, p.name, p.price, p.discount, p.stock, p.image
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id`

func scanItem(row interface{ Scan(...any) error }) (CartItem, error) {
	var it CartItem
	var discount sql.NullInt32
	err := row.Scan(&it.ID, &it.CartID, &it.Quantity, &it.CreatedAt,
		&it.Product.ID, &it.Product.Name, &it.Product.Price, &discount, &it.Product.Stock, &it.Product.Image)
	if err != nil {
		return CartItem{}, err
	}
	fillDiscount(&it.Product, discount)
	return it, nil
}

func (s *SQLStore) Item(ctx context.Context, cartID, itemID int64) (CartItem, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx, itemQuery+` WHERE ci.cart_id = $1 AND ci.id = $2`, cartID, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CartItem{}, ErrItemNotFound
		}
		return CartItem{}, fmt.Errorf("failed to query cart item: %w", err)
	}
	return it, nil
}

func (s *SQLStore) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2`, quantity, itemID)
	if err != nil {
		return fmt.Errorf("failed to update cart item quantity: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteItem(ctx context.Context, userID, itemID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1 AND ci.id = $2`, userID, itemID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteAllItems(ctx context.Context, cartID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *SQLStore) Items(ctx context.Context, cartID int64) ([]CartItem, error) {
	rows, err := s.db.QueryContext(ctx, itemQuery+` WHERE ci.cart_id = $1 ORDER BY ci.id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []CartItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return items, nil
}
