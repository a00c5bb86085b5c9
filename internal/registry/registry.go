// Package registry loads the per-region product list from the shared
// products spreadsheet. Each region has one tab named after the region,
// with columns asin, sheet title, campaign match string and keyword
// tracker id; row 1 is the header.
package registry

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/superself/amazon-monitor/internal/gsheets"
	"github.com/superself/amazon-monitor/internal/models"
	"github.com/superself/amazon-monitor/internal/steplog"
)

const tag = "[REGISTRY]"

// Load reads a region's registry tab and returns one product per usable
// row. Rows without an ASIN are skipped with a warning; a bad keyword
// tracker id disables rank fetching for that product but keeps the row.
// An empty tab is an error: a region with no products cannot be processed.
func Load(ctx context.Context, client *gsheets.Client, spreadsheetID string, region models.Region) ([]*models.Product, error) {
	done := steplog.Start(tag, "load product registry: "+string(region))

	vr, err := client.GetValues(ctx, spreadsheetID, string(region)+"!A:D")
	if err != nil {
		done(err)
		return nil, err
	}

	var products []*models.Product
	for i, row := range vr.Values {
		if i == 0 {
			continue
		}
		asin := cell(row, 0)
		if asin == "" {
			steplog.Warnf(tag, "row %d: empty asin, skipping", i+1)
			continue
		}
		p := models.NewProduct(asin)
		p.SheetTitle = cell(row, 1)
		p.Campaign.Name = cell(row, 2)
		if raw := cell(row, 3); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil {
				steplog.Warnf(tag, "row %d: bad keyword tracker id %q for %s, rank fetching disabled", i+1, raw, asin)
			} else {
				p.Helium.ID = id
			}
		}
		products = append(products, p)
	}

	if len(products) == 0 {
		err := fmt.Errorf("registry tab %q has no products", string(region))
		done(err)
		return nil, err
	}

	steplog.Infof(tag, "loaded %d product(s) for %s", len(products), region)
	done(nil)
	return products, nil
}

func cell(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}
