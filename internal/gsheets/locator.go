package gsheets

import (
	"context"
	"fmt"

	"github.com/superself/amazon-monitor/internal/models"
	"github.com/superself/amazon-monitor/internal/steplog"
)

// AssignRowIndexes resolves the target row for each product that has a
// sheet tab by scanning the tab's date column (A) for the first exact
// match of searchDate. All tabs are read in one batched call. Products
// whose date is not present keep the RowNotFound sentinel.
func AssignRowIndexes(ctx context.Context, client *Client, spreadsheetID string, products []*models.Product, searchDate string) error {
	done := steplog.Start(Tag, "locate row indices for date="+searchDate)

	withTitles := models.WithSheetTitle(products)
	if len(withTitles) == 0 {
		steplog.Warnf(Tag, "no sheet titles found among products")
		done(nil)
		return nil
	}

	ranges := make([]string, len(withTitles))
	for i, p := range withTitles {
		ranges[i] = p.SheetTitle + "!A:A"
	}

	valueRanges, err := client.BatchGet(ctx, spreadsheetID, ranges)
	if err != nil {
		done(err)
		return err
	}
	if len(valueRanges) != len(withTitles) {
		err := fmt.Errorf("batchGet returned %d ranges for %d requests", len(valueRanges), len(withTitles))
		done(err)
		return err
	}

	found := 0
	for i, p := range withTitles {
		p.RowIndex = locateDateRow(valueRanges[i], searchDate)
		if p.RowIndex > 0 {
			found++
		} else {
			steplog.Warnf(Tag, "date %s not found in sheet %q (asin %s)", searchDate, p.SheetTitle, p.ASIN)
		}
	}

	steplog.Infof(Tag, "row indices resolved for %d/%d products", found, len(products))
	done(nil)
	return nil
}

// locateDateRow returns the 1-based index of the first row whose first
// cell equals searchDate exactly (case-sensitive), or RowNotFound. The
// date string is pre-formatted by the caller; no parsing happens here.
func locateDateRow(vr ValueRange, searchDate string) int {
	for i, row := range vr.Values {
		if len(row) == 0 {
			continue
		}
		if s, ok := row[0].(string); ok && s == searchDate {
			return i + 1
		}
	}
	return models.RowNotFound
}

// HistoricalRow applies the update offset to a located row. The result
// is valid only when it lands below the header row: newly added products
// without enough sheet history are skipped, not errors.
func HistoricalRow(rowIndex, offset int) (int, bool) {
	row := rowIndex - offset
	return row, row > 1
}
