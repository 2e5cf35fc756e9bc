package dashboard

import (
	"context"
	"fmt"
	"io"

	"github.com/tealeg/xlsx"
)

// Export writes the current report as an xlsx workbook.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	r, err := s.Report(ctx)
	if err != nil {
		return err
	}
	file, err := Workbook(r)
	if err != nil {
		return err
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Workbook lays a report out over four sheets.
func Workbook(r Report) (*xlsx.File, error) {
	file := xlsx.NewFile()

	revenue, err := file.AddSheet("Revenue")
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	addHeader(revenue, "Month", "Revenue")
	for i, label := range r.MonthLabels {
		row := revenue.AddRow()
		row.AddCell().SetValue(label)
		row.AddCell().SetValue(r.Revenues[i].StringFixed(2))
	}

	daily, err := file.AddSheet("Daily orders")
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	addHeader(daily, "Day", "Sales", "Confirmed", "Delivered", "Cancelled")
	for i, label := range r.DayLabels {
		row := daily.AddRow()
		row.AddCell().SetValue(label)
		row.AddCell().SetValue(r.DailySales[i])
		row.AddCell().SetValue(r.ConfirmedOrders[i])
		row.AddCell().SetValue(r.DeliveredOrders[i])
		row.AddCell().SetValue(r.CancelledOrders[i])
	}

	top, err := file.AddSheet("Top products")
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	addHeader(top, "Product", "Sales", "Increment %")
	for _, p := range r.TopProducts {
		row := top.AddRow()
		row.AddCell().SetValue(p.ProductName)
		row.AddCell().SetValue(p.SalesPrice.StringFixed(2))
		row.AddCell().SetValue(p.Increment)
	}

	cards, err := file.AddSheet("Summary")
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	addHeader(cards, "Name", "Last 7 days", "Increment %", "Total")
	for _, c := range r.Cards {
		row := cards.AddRow()
		row.AddCell().SetValue(c.Name)
		row.AddCell().SetValue(c.Value)
		row.AddCell().SetValue(c.Increment)
		row.AddCell().SetValue(c.TotalValue)
	}

	return file, nil
}

func addHeader(sheet *xlsx.Sheet, names ...string) {
	row := sheet.AddRow()
	for _, n := range names {
		row.AddCell().SetValue(n)
	}
}
