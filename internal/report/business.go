// Package report maps weekly export files onto in-memory product records.
// Each loader wraps the tabular normalizer with its source's column layout
// and writes aggregated values into the product metric blocks.
package report

import (
	"github.com/superself/amazon-monitor/internal/models"
	"github.com/superself/amazon-monitor/internal/steplog"
	"github.com/superself/amazon-monitor/internal/tabular"
)

const brTag = "[BR]"

// Business Report columns are selected by position: the UK and US exports
// use different header names for the same columns, so names are useless.
const (
	brASINCol     = 1
	brTitleCol    = 2
	brSKUCol      = 3
	brSessionsCol = 4
	brUnitsCol    = 14
	brSalesCol    = 18
	brOrdersCol   = 20
)

func businessSpec() tabular.Spec {
	return tabular.Spec{
		Fields: []tabular.Field{
			{Name: "asin", Index: brASINCol},
			{Name: "title", Index: brTitleCol},
			{Name: "sku", Index: brSKUCol},
			{Name: "sessions", Index: brSessionsCol, Numeric: true, Agg: tabular.VerbFirst},
			{Name: "units", Index: brUnitsCol, Numeric: true, Agg: tabular.VerbSum},
			{Name: "sales", Index: brSalesCol, Numeric: true, Agg: tabular.VerbSum},
			{Name: "orders", Index: brOrdersCol, Numeric: true, Agg: tabular.VerbSum},
		},
		GroupBy: "asin",
	}
}

// LoadBusinessCurrent aggregates the current-week Business Report and
// fills BizCurrent per product. ASINs missing from the registry get a
// fresh product record appended, so the weekly append row still covers
// them. Returns the (possibly extended) product slice.
func LoadBusinessCurrent(path string, products []*models.Product) ([]*models.Product, error) {
	done := steplog.Start(brTag, "load current data: "+path)

	g, err := readBusiness(path)
	if err != nil {
		done(err)
		return products, err
	}

	applied := 0
	for i, asin := range g.Keys {
		if asin == "" {
			continue
		}
		p := models.ByASIN(products, asin)
		if p == nil {
			p = models.NewProduct(asin)
			products = append(products, p)
		}
		p.BizCurrent = models.Business{
			Title:    g.Text["title"][i],
			SKU:      g.Text["sku"][i],
			Sessions: int(g.Numeric["sessions"][i]),
			Units:    int(g.Numeric["units"][i]),
			Sales:    tabular.Round(g.Numeric["sales"][i], 2),
			Orders:   int(g.Numeric["orders"][i]),
		}
		applied++
	}
	if applied == 0 {
		err := &tabular.NoMatchError{Path: path}
		done(err)
		return products, err
	}

	steplog.Infof(brTag, "current filled for %d products", applied)
	done(nil)
	return products, nil
}

// LoadBusinessHistorical aggregates the correction export and fills only
// the retroactive weekly units per product.
func LoadBusinessHistorical(path string, products []*models.Product) ([]*models.Product, error) {
	done := steplog.Start(brTag, "load historical data: "+path)

	g, err := readBusiness(path)
	if err != nil {
		done(err)
		return products, err
	}

	applied := 0
	for i, asin := range g.Keys {
		if asin == "" {
			continue
		}
		p := models.ByASIN(products, asin)
		if p == nil {
			p = models.NewProduct(asin)
			products = append(products, p)
		}
		p.BizUpdate = models.BusinessUpdate{Units: int(g.Numeric["units"][i])}
		applied++
	}
	if applied == 0 {
		err := &tabular.NoMatchError{Path: path}
		done(err)
		return products, err
	}

	steplog.Infof(brTag, "historical filled for %d products", applied)
	done(nil)
	return products, nil
}

func readBusiness(path string) (*tabular.Grouped, error) {
	table, err := tabular.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	return tabular.Normalize(table, businessSpec())
}
