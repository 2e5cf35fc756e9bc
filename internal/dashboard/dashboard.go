package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"storefront-service/internal/orders"
)

const (
	monthBuckets  = 6
	monthWidth    = 30 * 24 * time.Hour
	dayBuckets    = 30
	dayWidth      = 24 * time.Hour
	weekWindow    = 7 * 24 * time.Hour
	topProductMax = 3
)

// Source runs the aggregate queries a report is built from.
type Source interface {
	// OrderBuckets groups confirmed, delivered and cancelled orders into n buckets of width,
	// bucket 0 ending at until.
	OrderBuckets(ctx context.Context, until time.Time, width time.Duration, n int) ([]Bucket, error)
	// ProductSales sums price times quantity of delivered order items per product, highest first.
	ProductSales(ctx context.Context, from, to time.Time) ([]ProductSales, error)
	Counts(ctx context.Context, e Entity, now time.Time, window time.Duration) (Counts, error)
}

type Service struct {
	src Source
	now func() time.Time
}

func NewService(src Source) (*Service, error) {
	if src == nil {
		return nil, errors.New("dashboard source is nil")
	}
	return &Service{src: src, now: time.Now}, nil
}

// Report computes every dashboard series concurrently. Empty periods stay zero.
func (s *Service) Report(ctx context.Context) (Report, error) {
	now := s.now().UTC()
	r := Report{
		MonthLabels: MonthLabels(now),
		DayLabels:   DayLabels(now),
		GeneratedAt: now,
	}

	cards := make([]Card, 3)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		buckets, err := s.src.OrderBuckets(ctx, now, monthWidth, monthBuckets)
		if err != nil {
			return err
		}
		r.Revenues = revenueSeries(buckets, monthBuckets)
		return nil
	})

	g.Go(func() error {
		buckets, err := s.src.OrderBuckets(ctx, now, dayWidth, dayBuckets)
		if err != nil {
			return err
		}
		r.ConfirmedOrders = countSeries(buckets, orders.StatusConfirmed, dayBuckets)
		r.DeliveredOrders = countSeries(buckets, orders.StatusDelivered, dayBuckets)
		r.CancelledOrders = countSeries(buckets, orders.StatusCancelled, dayBuckets)
		r.DailySales = r.DeliveredOrders
		return nil
	})

	g.Go(func() error {
		current, err := s.src.ProductSales(ctx, now.Add(-weekWindow), now)
		if err != nil {
			return err
		}
		previous, err := s.src.ProductSales(ctx, now.Add(-2*weekWindow), now.Add(-weekWindow))
		if err != nil {
			return err
		}
		r.TopProducts = topProducts(current, previous)
		return nil
	})

	for i, e := range []Entity{EntityCustomers, EntityProducts, EntityCategories} {
		g.Go(func() error {
			c, err := s.src.Counts(ctx, e, now, weekWindow)
			if err != nil {
				return err
			}
			cards[i] = Card{
				Name:       string(e),
				Value:      c.Current,
				Increment:  Increment(c.Current, c.Previous),
				TotalValue: c.Total,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	r.Cards = cards
	return r, nil
}

// MonthLabels names the month of each 30-day bucket, oldest first.
func MonthLabels(now time.Time) []string {
	labels := make([]string, monthBuckets)
	for i := range monthBuckets {
		labels[monthBuckets-1-i] = now.Add(-time.Duration(i) * monthWidth).Format("January")
	}
	return labels
}

// DayLabels names each of the last 30 days as "Jan 02", oldest first.
func DayLabels(now time.Time) []string {
	labels := make([]string, dayBuckets)
	for i := range dayBuckets {
		labels[dayBuckets-1-i] = now.AddDate(0, 0, -i).Format("Jan 02")
	}
	return labels
}

// revenueSeries reverses bucket order so the oldest bucket comes first.
func revenueSeries(buckets []Bucket, n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	for _, b := range buckets {
		if b.Status != orders.StatusDelivered || b.Index < 0 || b.Index >= n {
			continue
		}
		out[n-1-b.Index] = out[n-1-b.Index].Add(b.Revenue)
	}
	return out
}

func countSeries(buckets []Bucket, status orders.Status, n int) []int64 {
	out := make([]int64, n)
	for _, b := range buckets {
		if b.Status != status || b.Index < 0 || b.Index >= n {
			continue
		}
		out[n-1-b.Index] += b.Orders
	}
	return out
}

func topProducts(current, previous []ProductSales) []TopProduct {
	prev := make(map[string]decimal.Decimal, len(previous))
	for _, p := range previous {
		prev[p.ProductName] = p.Sales
	}

	out := make([]TopProduct, 0, topProductMax)
	for _, p := range current {
		if len(out) == topProductMax {
			break
		}
		out = append(out, TopProduct{
			ProductName: p.ProductName,
			SalesPrice:  p.Sales,
			Increment:   salesIncrement(p.Sales, prev[p.ProductName]),
		})
	}
	return out
}

// salesIncrement is the percentage change against last, 0 when last had no sales.
func salesIncrement(current, last decimal.Decimal) float64 {
	if !last.IsPositive() {
		return 0
	}
	f, _ := current.Sub(last).Div(last).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return f
}

// Increment is the percentage change of a count. A rise from zero counts as 100.
func Increment(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	f, _ := decimal.NewFromInt(current - previous).
		Div(decimal.NewFromInt(previous)).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		Float64()
	return f
}
