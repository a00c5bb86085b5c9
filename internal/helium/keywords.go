package helium

import (
	"context"
	"fmt"
	"strings"

	"github.com/superself/amazon-monitor/internal/gsheets"
	"github.com/superself/amazon-monitor/internal/models"
	"github.com/superself/amazon-monitor/internal/steplog"
)

// At most this many keywords are tracked per product; the sheet header
// reserves ten cells after the "other sales" marker.
const maxKeywords = 10

// UpdateKeywords discovers each product's tracked keywords from the
// first row of its sheet tab, in one batched read. Products whose
// header yields no keywords are skipped with a warning; if no product
// yields any, the phase fails (nothing for the fetcher to do).
func UpdateKeywords(ctx context.Context, client *gsheets.Client, spreadsheetID string, products []*models.Product) error {
	done := steplog.Start(Tag, "discover tracked keywords")

	withTitles := models.WithSheetTitle(products)
	if len(withTitles) == 0 {
		err := fmt.Errorf("no products with sheet tabs")
		done(err)
		return err
	}

	titles := make([]string, len(withTitles))
	for i, p := range withTitles {
		titles[i] = p.SheetTitle
	}

	rows, err := client.FirstRows(ctx, spreadsheetID, titles)
	if err != nil {
		done(err)
		return err
	}

	assigned := 0
	for i, p := range withTitles {
		keywords := extractKeywords(rows[i])
		if len(keywords) == 0 {
			steplog.Warnf(Tag, "%s: no keywords found in sheet %q", p.ASIN, p.SheetTitle)
			continue
		}
		ranks := make([]models.KeywordRank, len(keywords))
		for j, kw := range keywords {
			ranks[j] = models.KeywordRank{Word: kw}
		}
		p.Helium.Ranks = ranks
		assigned++
	}

	if assigned == 0 {
		err := fmt.Errorf("no keywords found for any product")
		done(err)
		return err
	}

	steplog.Infof(Tag, "keywords assigned for %d/%d products", assigned, len(withTitles))
	done(nil)
	return nil
}

// extractKeywords pulls tracked keywords out of a sheet's header row.
// Two layouts exist: an "other sales" marker followed by up to ten
// keyword cells (empties and kw/search placeholder cells dropped), or a
// "target search term:" label with the keyword two cells to its right.
// Keywords are returned lowercased and trimmed.
func extractKeywords(row []string) []string {
	for i, cell := range row {
		c := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case c == "other sales":
			stop := i + 1 + maxKeywords
			if stop > len(row) {
				stop = len(row)
			}
			var keywords []string
			for _, raw := range row[i+1 : stop] {
				kw := strings.ToLower(strings.TrimSpace(raw))
				if kw == "" || strings.HasPrefix(kw, "kw") || strings.HasPrefix(kw, "search") {
					continue
				}
				keywords = append(keywords, kw)
			}
			return keywords
		case strings.HasPrefix(c, "target search term:"):
			if i+2 < len(row) {
				if kw := strings.ToLower(strings.TrimSpace(row[i+2])); kw != "" {
					return []string{kw}
				}
			}
			return nil
		}
	}
	return nil
}
