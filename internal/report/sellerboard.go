package report

import (
	"github.com/superself/amazon-monitor/internal/models"
	"github.com/superself/amazon-monitor/internal/steplog"
	"github.com/superself/amazon-monitor/internal/tabular"
)

const sbTag = "[SB]"

func sellerboardSpec() tabular.Spec {
	return tabular.Spec{
		Fields: []tabular.Field{
			{Name: "asin", Index: tabular.ByName, Aliases: []string{"ASIN"}},
			{Name: "sales", Index: tabular.ByName, Aliases: []string{"Sales"}, Numeric: true, Agg: tabular.VerbSum},
			{Name: "profit", Index: tabular.ByName, Aliases: []string{"Net profit"}, Numeric: true, Agg: tabular.VerbSum},
		},
		GroupBy: "asin",
	}
}

// LoadSellerboardCurrent reads the current Sellerboard workbook and fills
// SBCurrent (profit, margin) for registry products present in the export.
func LoadSellerboardCurrent(path string, products []*models.Product) error {
	return loadSellerboard(path, products, "current", func(p *models.Product, sb models.Sellerboard) {
		p.SBCurrent = sb
	})
}

// LoadSellerboardHistorical reads the correction workbook and fills
// SBHistorical the same way.
func LoadSellerboardHistorical(path string, products []*models.Product) error {
	return loadSellerboard(path, products, "historical", func(p *models.Product, sb models.Sellerboard) {
		p.SBHistorical = sb
	})
}

func loadSellerboard(path string, products []*models.Product, snapshot string, assign func(*models.Product, models.Sellerboard)) error {
	done := steplog.Start(sbTag, "load "+snapshot+" data: "+path)

	table, err := tabular.ReadXLSX(path)
	if err != nil {
		done(err)
		return err
	}
	g, err := tabular.Normalize(table, sellerboardSpec())
	if err != nil {
		done(err)
		return err
	}

	byASIN := make(map[string]models.Sellerboard, g.Len())
	for i, asin := range g.Keys {
		sales := g.Numeric["sales"][i]
		profit := g.Numeric["profit"][i]
		byASIN[asin] = models.Sellerboard{
			Profit: profit,
			Margin: tabular.Ratio(profit, sales, 4),
		}
	}

	updated := 0
	for _, p := range products {
		sb, ok := byASIN[p.ASIN]
		if !ok {
			continue
		}
		assign(p, sb)
		updated++
	}
	if updated == 0 {
		err := &tabular.NoMatchError{Path: path}
		done(err)
		return err
	}

	steplog.Infof(sbTag, "%s filled for %d / %d products", snapshot, updated, len(products))
	done(nil)
	return nil
}
