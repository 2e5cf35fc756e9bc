package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-service/internal/orders"
)

// SQLSource implements Source on postgres.
type SQLSource struct {
	db *sql.DB
}

func NewSQLSource(db *sql.DB) (*SQLSource, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &SQLSource{db: db}, nil
}

func (s *SQLSource) OrderBuckets(ctx context.Context, until time.Time, width time.Duration, n int) ([]Bucket, error) {
	query := `SELECT floor(extract(epoch FROM ($1::timestamptz - updated_at)) / $2)::int AS idx,
			status, count(*), COALESCE(sum(total_price), 0)
		FROM orders
		WHERE updated_at <= $1
		  AND updated_at > $1::timestamptz - make_interval(secs => $3)
		  AND status IN ($4, $5, $6)
		GROUP BY idx, status`
	rows, err := s.db.QueryContext(ctx, query, until, width.Seconds(), width.Seconds()*float64(n),
		string(orders.StatusConfirmed), string(orders.StatusDelivered), string(orders.StatusCancelled))
	if err != nil {
		return nil, fmt.Errorf("failed to query order buckets: %w", err)
	}
	defer rows.Close()

	var out []Bucket
	for rows.Next() {
		var b Bucket
		var status string
		if err := rows.Scan(&b.Index, &status, &b.Orders, &b.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan order bucket: %w", err)
		}
		b.Status = orders.Status(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLSource) ProductSales(ctx context.Context, from, to time.Time) ([]ProductSales, error) {
	query := `SELECT oi.product_name, sum(oi.price * oi.quantity) AS sales
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = $1 AND o.updated_at > $2 AND o.updated_at <= $3
		GROUP BY oi.product_name
		ORDER BY sales DESC, oi.product_name`
	rows, err := s.db.QueryContext(ctx, query, string(orders.StatusDelivered), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query product sales: %w", err)
	}
	defer rows.Close()

	var out []ProductSales
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.ProductName, &p.Sales); err != nil {
			return nil, fmt.Errorf("failed to scan product sales: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var countQueries = map[Entity]string{
	EntityCustomers: `SELECT count(*) FILTER (WHERE date_joined > $1::timestamptz - make_interval(secs => $2::float8)),
			count(*) FILTER (WHERE date_joined > $1 - make_interval(secs => $2 * 2)
			                   AND date_joined <= $1 - make_interval(secs => $2)),
			count(*)
		FROM users WHERE NOT is_staff`,
	EntityProducts: `SELECT count(*) FILTER (WHERE created_at > $1::timestamptz - make_interval(secs => $2::float8)),
			count(*) FILTER (WHERE created_at > $1 - make_interval(secs => $2 * 2)
			                   AND created_at <= $1 - make_interval(secs => $2)),
			count(*)
		FROM products`,
	EntityCategories: `SELECT count(*) FILTER (WHERE created_at > $1::timestamptz - make_interval(secs => $2::float8)),
			count(*) FILTER (WHERE created_at > $1 - make_interval(secs => $2 * 2)
			                   AND created_at <= $1 - make_interval(secs => $2)),
			count(*)
		FROM categories`,
}

func (s *SQLSource) Counts(ctx context.Context, e Entity, now time.Time, window time.Duration) (Counts, error) {
	query, ok := countQueries[e]
	if !ok {
		return Counts{}, fmt.Errorf("unknown dashboard entity %q", e)
	}
	var c Counts
	if err := s.db.QueryRowContext(ctx, query, now, window.Seconds()).Scan(&c.Current, &c.Previous, &c.Total); err != nil {
		return Counts{}, fmt.Errorf("failed to count %s: %w", e, err)
	}
	return c, nil
}
