package dashboard

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"storefront-service/internal/orders"
)

type fakeSource struct {
	months   []Bucket
	days     []Bucket
	current  []ProductSales
	previous []ProductSales
	counts   map[Entity]Counts
	err      error
}

func (f *fakeSource) OrderBuckets(_ context.Context, _ time.Time, width time.Duration, _ int) ([]Bucket, error) {
	if f.err != nil {
		return nil, f.err
	}
	if width == monthWidth {
		return f.months, nil
	}
	return f.days, nil
}

func (f *fakeSource) ProductSales(_ context.Context, _, to time.Time) ([]ProductSales, error) {
	if to.Equal(fixedNow) {
		return f.current, nil
	}
	return f.previous, nil
}

func (f *fakeSource) Counts(_ context.Context, e Entity, _ time.Time, _ time.Duration) (Counts, error) {
	return f.counts[e], nil
}

var fixedNow = time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, src Source) *Service {
	t.Helper()
	s, err := NewService(src)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestIncrement(t *testing.T) {
	tests := []struct {
		current, previous int64
		want              float64
	}{
		{current: 0, previous: 0, want: 0},
		{current: 5, previous: 0, want: 100},
		{current: 3, previous: 2, want: 50},
		{current: 1, previous: 4, want: -75},
		{current: 1, previous: 3, want: -66.67},
		{current: 2, previous: 2, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Increment(tt.current, tt.previous), "current=%d previous=%d", tt.current, tt.previous)
	}
}

func TestLabels(t *testing.T) {
	months := MonthLabels(fixedNow)
	assert.Len(t, months, 6)
	assert.Equal(t, "March", months[5])
	assert.Equal(t, "November", months[0])

	days := DayLabels(fixedNow)
	assert.Len(t, days, 30)
	assert.Equal(t, "Mar 31", days[29])
	assert.Equal(t, "Mar 02", days[0])
}

func TestReport(t *testing.T) {
	src := &fakeSource{
		months: []Bucket{
			{Index: 0, Status: orders.StatusDelivered, Orders: 2, Revenue: dec("250")},
			{Index: 0, Status: orders.StatusConfirmed, Orders: 9, Revenue: dec("999")},
			{Index: 5, Status: orders.StatusDelivered, Orders: 1, Revenue: dec("10.50")},
		},
		days: []Bucket{
			{Index: 0, Status: orders.StatusDelivered, Orders: 2},
			{Index: 0, Status: orders.StatusCancelled, Orders: 1},
			{Index: 29, Status: orders.StatusConfirmed, Orders: 4},
			{Index: 40, Status: orders.StatusConfirmed, Orders: 7},
		},
		current: []ProductSales{
			{ProductName: "Lamp", Sales: dec("300")},
			{ProductName: "Desk", Sales: dec("200")},
			{ProductName: "Chair", Sales: dec("100")},
			{ProductName: "Rug", Sales: dec("50")},
		},
		previous: []ProductSales{
			{ProductName: "Lamp", Sales: dec("200")},
			{ProductName: "Rug", Sales: dec("10")},
		},
		counts: map[Entity]Counts{
			EntityCustomers:  {Current: 4, Previous: 2, Total: 40},
			EntityProducts:   {Current: 1, Previous: 0, Total: 12},
			EntityCategories: {Current: 0, Previous: 0, Total: 3},
		},
	}

	r, err := newTestService(t, src).Report(context.Background())
	require.NoError(t, err)

	require.Len(t, r.Revenues, 6)
	assert.True(t, r.Revenues[5].Equal(dec("250")), "latest bucket is last")
	assert.True(t, r.Revenues[0].Equal(dec("10.50")), "oldest bucket is first")
	assert.True(t, r.Revenues[2].IsZero())

	require.Len(t, r.DailySales, 30)
	assert.Equal(t, int64(2), r.DailySales[29])
	assert.Equal(t, int64(2), r.DeliveredOrders[29])
	assert.Equal(t, int64(1), r.CancelledOrders[29])
	assert.Equal(t, int64(4), r.ConfirmedOrders[0])
	var confirmed int64
	for _, n := range r.ConfirmedOrders {
		confirmed += n
	}
	assert.Equal(t, int64(4), confirmed, "out of range buckets are dropped")

	require.Len(t, r.TopProducts, 3)
	assert.Equal(t, TopProduct{ProductName: "Lamp", SalesPrice: dec("300"), Increment: 50}, r.TopProducts[0])
	assert.Equal(t, "Desk", r.TopProducts[1].ProductName)
	assert.Equal(t, float64(0), r.TopProducts[1].Increment)

	assert.Equal(t, []Card{
		{Name: "Customers", Value: 4, Increment: 100, TotalValue: 40},
		{Name: "Products", Value: 1, Increment: 100, TotalValue: 12},
		{Name: "Categories", Value: 0, Increment: 0, TotalValue: 3},
	}, r.Cards)
	assert.Equal(t, fixedNow, r.GeneratedAt)
}

func TestReportWithoutDataHasNoPlaceholders(t *testing.T) {
	r, err := newTestService(t, &fakeSource{}).Report(context.Background())
	require.NoError(t, err)

	for _, rev := range r.Revenues {
		assert.True(t, rev.IsZero())
	}
	assert.Equal(t, make([]int64, 30), r.DailySales)
	assert.Empty(t, r.TopProducts)
	assert.Len(t, r.Cards, 3)
}

func TestReportPropagatesErrors(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := newTestService(t, &fakeSource{err: boom}).Report(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestExport(t *testing.T) {
	src := &fakeSource{
		months:  []Bucket{{Index: 0, Status: orders.StatusDelivered, Orders: 1, Revenue: dec("250")}},
		current: []ProductSales{{ProductName: "Lamp", Sales: dec("250")}},
		counts:  map[Entity]Counts{EntityCustomers: {Current: 1, Total: 1}},
	}

	var buf bytes.Buffer
	require.NoError(t, newTestService(t, src).Export(context.Background(), &buf))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)

	names := make([]string, 0, len(file.Sheets))
	for _, sh := range file.Sheets {
		names = append(names, sh.Name)
	}
	assert.Equal(t, []string{"Revenue", "Daily orders", "Top products", "Summary"}, names)

	revenue := file.Sheet["Revenue"]
	require.Len(t, revenue.Rows, 7)
	assert.Equal(t, "March", revenue.Rows[6].Cells[0].Value)
	assert.Equal(t, "250.00", revenue.Rows[6].Cells[1].Value)

	top := file.Sheet["Top products"]
	require.Len(t, top.Rows, 2)
	assert.Equal(t, "Lamp", top.Rows[1].Cells[0].Value)
}
