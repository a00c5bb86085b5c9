package gsheets

import (
	"context"
	"fmt"
	"time"

	"github.com/superself/amazon-monitor/internal/config"
	"github.com/superself/amazon-monitor/internal/models"
	"github.com/superself/amazon-monitor/internal/steplog"
)

// Writer persists per-product computed values into a region's
// spreadsheet, one batched call per logical metric group. Products
// without a sheet tab or without a usable row are skipped and counted,
// never failed: sparse coverage is normal, a failed batch is not.
type Writer struct {
	client        *Client
	spreadsheetID string
	ranges        config.RangesConfig
	updateOffset  int
	now           func() time.Time
}

// NewWriter builds a Writer for one region's spreadsheet.
func NewWriter(client *Client, spreadsheetID string, ranges config.RangesConfig, updateOffset int) *Writer {
	return &Writer{
		client:        client,
		spreadsheetID: spreadsheetID,
		ranges:        ranges,
		updateOffset:  updateOffset,
		now:           time.Now,
	}
}

// SetNow overrides the clock. Useful for testing the append path.
func (w *Writer) SetNow(now func() time.Time) { w.now = now }

func cellRange(title, startCol string, endCol string, row int) string {
	return fmt.Sprintf("%s!%s%d:%s%d", title, startCol, row, endCol, row)
}

// writable reports whether a product can take a row-indexed write.
// Row 1 is always a header; the sentinel is negative.
func writable(p *models.Product) bool {
	return p.SheetTitle != "" && p.RowIndex > 1
}

func (w *Writer) batchUpdate(ctx context.Context, label string, data []ValueRange, skipped int) error {
	if len(data) == 0 {
		steplog.Warnf(Tag, "%s: nothing to update (empty batch; skipped %d)", label, skipped)
		return nil
	}
	if err := w.client.BatchUpdate(ctx, w.spreadsheetID, data); err != nil {
		return fmt.Errorf("%s: batch update: %w", label, err)
	}
	steplog.Infof(Tag, "%s: updated %d ranges; skipped %d", label, len(data), skipped)
	return nil
}

// WriteSellerboardCurrent writes profit and margin at each product's row.
func (w *Writer) WriteSellerboardCurrent(ctx context.Context, products []*models.Product) error {
	done := steplog.Start(Tag, "write current sellerboard data")
	r := w.ranges.Sellerboard.Current

	var data []ValueRange
	skipped := 0
	for _, p := range products {
		if !writable(p) {
			skipped++
			continue
		}
		data = append(data, ValueRange{
			Range:  cellRange(p.SheetTitle, r.Start, r.End, p.RowIndex),
			Values: [][]interface{}{{p.SBCurrent.Profit, p.SBCurrent.Margin}},
		})
	}

	err := w.batchUpdate(ctx, "sellerboard current", data, skipped)
	done(err)
	return err
}

// WriteSellerboardHistorical writes profit, margin and the legacy margin
// formula at the offset-adjusted historical row.
func (w *Writer) WriteSellerboardHistorical(ctx context.Context, products []*models.Product) error {
	done := steplog.Start(Tag, "write historical sellerboard data")
	r := w.ranges.Sellerboard.Historical

	var data []ValueRange
	skipped := 0
	for _, p := range products {
		if p.SheetTitle == "" {
			skipped++
			continue
		}
		row, ok := HistoricalRow(p.RowIndex, w.updateOffset)
		if !ok {
			skipped++
			continue
		}
		// Legacy sheet formula: margin recomputed from the historical
		// sales/profit columns of the same row.
		formula := fmt.Sprintf("=1-%s%d/%s%d", r.End, row, r.Start, row)
		data = append(data, ValueRange{
			Range:  cellRange(p.SheetTitle, r.Start, r.End, row),
			Values: [][]interface{}{{p.SBHistorical.Profit, p.SBHistorical.Margin, formula}},
		})
	}

	err := w.batchUpdate(ctx, "sellerboard historical", data, skipped)
	done(err)
	return err
}

// WriteSns writes subscription count and shipped units at each product's row.
func (w *Writer) WriteSns(ctx context.Context, products []*models.Product) error {
	done := steplog.Start(Tag, "write subscribe & save data")
	r := w.ranges.Sns

	var data []ValueRange
	skipped := 0
	for _, p := range products {
		if !writable(p) {
			skipped++
			continue
		}
		data = append(data, ValueRange{
			Range:  cellRange(p.SheetTitle, r.Start, r.End, p.RowIndex),
			Values: [][]interface{}{{p.Sns.Subscriptions, p.Sns.ShippedUnits}},
		})
	}

	err := w.batchUpdate(ctx, "sns", data, skipped)
	done(err)
	return err
}

// WriteCampaigns writes the six campaign metrics at each product's row.
func (w *Writer) WriteCampaigns(ctx context.Context, products []*models.Product) error {
	done := steplog.Start(Tag, "write campaign data")
	r := w.ranges.Campaigns

	var data []ValueRange
	skipped := 0
	for _, p := range products {
		if !writable(p) {
			skipped++
			continue
		}
		data = append(data, ValueRange{
			Range: cellRange(p.SheetTitle, r.Start, r.End, p.RowIndex),
			Values: [][]interface{}{{
				p.Campaign.Spend,
				p.Campaign.Clicks,
				p.Campaign.CTR,
				p.Campaign.CPC,
				p.Campaign.Orders,
				p.Campaign.ACOS,
			}},
		})
	}

	err := w.batchUpdate(ctx, "campaigns", data, skipped)
	done(err)
	return err
}

// WriteBusinessHistorical writes the corrected weekly units into a single
// cell at the offset-adjusted row.
func (w *Writer) WriteBusinessHistorical(ctx context.Context, products []*models.Product) error {
	done := steplog.Start(Tag, "write historical business data")
	col := w.ranges.Business.HistoricalColumn

	var data []ValueRange
	skipped := 0
	for _, p := range products {
		if p.SheetTitle == "" {
			skipped++
			continue
		}
		row, ok := HistoricalRow(p.RowIndex, w.updateOffset)
		if !ok {
			skipped++
			continue
		}
		data = append(data, ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", p.SheetTitle, col, row),
			Values: [][]interface{}{{p.BizUpdate.Units}},
		})
	}

	err := w.batchUpdate(ctx, "business historical", data, skipped)
	done(err)
	return err
}

// WriteHeliumRanks writes keyword ranks horizontally from the configured
// start column. The row width varies with the product's keyword count.
func (w *Writer) WriteHeliumRanks(ctx context.Context, products []*models.Product) error {
	done := steplog.Start(Tag, "write helium ranks")
	startCol := w.ranges.HeliumStart

	var data []ValueRange
	skipped := 0
	for _, p := range products {
		if !writable(p) || len(p.Helium.Ranks) == 0 {
			skipped++
			continue
		}
		endCol, err := RangeEndCol(startCol, len(p.Helium.Ranks))
		if err != nil {
			done(err)
			return err
		}
		row := make([]interface{}, len(p.Helium.Ranks))
		for i, kw := range p.Helium.Ranks {
			row[i] = kw.Rank
		}
		data = append(data, ValueRange{
			Range:  cellRange(p.SheetTitle, startCol, endCol, p.RowIndex),
			Values: [][]interface{}{row},
		})
	}

	err := w.batchUpdate(ctx, "helium", data, skipped)
	done(err)
	return err
}

// AppendBusinessCurrent appends one row per product to the region-level
// Business sheet, below the last occupied row of the date column. This
// path is a one-shot weekly append: zero rows is an error, and it is not
// safe under concurrent runs (next-free-row is computed with a plain
// read, no locking).
func (w *Writer) AppendBusinessCurrent(ctx context.Context, products []*models.Product, region models.Region) error {
	done := steplog.Start(Tag, "append current business data")

	if len(products) == 0 {
		err := fmt.Errorf("business current: no products to append")
		done(err)
		return err
	}

	title := w.ranges.Business.TitleByRegion(region)
	r := w.ranges.Business.Current

	colA, err := w.client.GetValues(ctx, w.spreadsheetID, title+"!A:A")
	if err != nil {
		done(err)
		return err
	}
	rowStart := len(colA.Values) + 1

	date := weekTuesday(w.now())
	_, isoWeek := date.ISOWeek()
	week := isoWeek - 1

	values := make([][]interface{}, 0, len(products))
	for _, p := range products {
		values = append(values, []interface{}{
			date.Format("02/01/2006"),
			p.ASIN,
			p.BizCurrent.Title,
			p.BizCurrent.SKU,
			p.BizCurrent.Sessions,
			p.BizCurrent.Units,
			p.BizCurrent.Sales,
			p.BizCurrent.Orders,
			"",
			week,
		})
	}

	rng := fmt.Sprintf("%s!%s%d:%s%d", title, r.Start, rowStart, r.End, rowStart+len(values)-1)
	if err := w.client.BatchUpdate(ctx, w.spreadsheetID, []ValueRange{{Range: rng, Values: values}}); err != nil {
		done(err)
		return err
	}

	steplog.Infof(Tag, "appended %d rows to %q starting at row %d", len(values), title, rowStart)
	done(nil)
	return nil
}

// weekTuesday returns the Tuesday of t's ISO week.
func weekTuesday(t time.Time) time.Time {
	wd := (int(t.Weekday()) + 6) % 7 // Monday=0
	return t.AddDate(0, 0, 1-wd)
}
