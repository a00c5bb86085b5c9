package report

import (
	"errors"

	"github.com/superself/amazon-monitor/internal/models"
	"github.com/superself/amazon-monitor/internal/steplog"
	"github.com/superself/amazon-monitor/internal/tabular"
)

const snsTag = "[SNS]"

// Subscribe & Save export column headers.
const (
	snsShippedUnitsCol  = "SnS shipped units"
	snsSubscriptionsCol = "Subscriptions Count"
)

// LoadSns fills subscription metrics from the two Subscribe & Save
// exports: shipped units from the performance report, subscription
// counts from the managed-products report. A missing metric column is
// logged and leaves zeros in place; only file-level problems are errors.
func LoadSns(performancePath, productsPath string, products []*models.Product) error {
	done := steplog.Start(snsTag, "load subscribe & save data")

	shipped, err := sumByASIN(performancePath, snsShippedUnitsCol)
	if err != nil {
		done(err)
		return err
	}
	subscriptions, err := sumByASIN(productsPath, snsSubscriptionsCol)
	if err != nil {
		done(err)
		return err
	}

	for _, p := range products {
		p.Sns = models.Sns{
			ShippedUnits:  int(shipped[p.ASIN]),
			Subscriptions: int(subscriptions[p.ASIN]),
		}
	}

	done(nil)
	return nil
}

func sumByASIN(path, valueCol string) (map[string]float64, error) {
	table, err := tabular.ReadCSV(path)
	if err != nil {
		return nil, err
	}

	g, err := tabular.Normalize(table, tabular.Spec{
		Fields: []tabular.Field{
			{Name: "asin", Index: tabular.ByName, Aliases: []string{"ASIN"}},
			{Name: "value", Index: tabular.ByName, Aliases: []string{valueCol}, Numeric: true, Agg: tabular.VerbSum},
		},
		GroupBy: "asin",
	})
	if err != nil {
		var schemaErr *tabular.SchemaError
		if errors.As(err, &schemaErr) {
			steplog.Warnf(snsTag, "treating as zeros: %v", schemaErr)
			return map[string]float64{}, nil
		}
		return nil, err
	}

	out := make(map[string]float64, g.Len())
	for i, asin := range g.Keys {
		out[asin] = g.Numeric["value"][i]
	}
	return out, nil
}
