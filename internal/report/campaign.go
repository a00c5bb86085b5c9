package report

import (
	"strings"

	"github.com/superself/amazon-monitor/internal/models"
	"github.com/superself/amazon-monitor/internal/steplog"
	"github.com/superself/amazon-monitor/internal/tabular"
)

const ppcTag = "[PPC]"

// Campaign states that count toward advertising metrics.
const (
	CampaignEnabled  = "ENABLED"
	CampaignPaused   = "PAUSED"
	CampaignArchived = "ARCHIVED"
)

func campaignSpec() tabular.Spec {
	return tabular.Spec{
		Fields: []tabular.Field{
			{Name: "name", Index: tabular.ByName, Aliases: []string{"Campaigns"}},
			{Name: "state", Index: tabular.ByName, Aliases: []string{"State"}},
			{Name: "spend", Index: tabular.ByName, Aliases: []string{"Spend(GBP)", "Spend"}, Numeric: true, Agg: tabular.VerbSum},
			{Name: "sales", Index: tabular.ByName, Aliases: []string{"Sales(GBP)", "Sales"}, Numeric: true, Agg: tabular.VerbSum},
			{Name: "clicks", Index: tabular.ByName, Aliases: []string{"Clicks"}, Numeric: true, Agg: tabular.VerbSum},
			{Name: "orders", Index: tabular.ByName, Aliases: []string{"Orders"}, Numeric: true, Agg: tabular.VerbSum},
			{Name: "impressions", Index: tabular.ByName, Aliases: []string{"Impressions"}, Numeric: true, Agg: tabular.VerbSum},
		},
		GroupBy: "name",
		Filter:  &tabular.RowFilter{Field: "state", Allowed: []string{CampaignEnabled, CampaignPaused}},
	}
}

// LoadCampaigns aggregates the PPC campaigns export and fills campaign
// metrics for every product whose campaign name matches at least one
// campaign row (case-insensitive substring, as campaign names embed the
// product code plus targeting suffixes).
func LoadCampaigns(path string, products []*models.Product) error {
	done := steplog.Start(ppcTag, "load campaigns: "+path)

	table, err := tabular.ReadCSV(path)
	if err != nil {
		done(err)
		return err
	}
	g, err := tabular.Normalize(table, campaignSpec())
	if err != nil {
		done(err)
		return err
	}

	updated := 0
	for _, p := range products {
		if p.Campaign.Name == "" {
			continue
		}
		if applyCampaignMetrics(p, g) {
			updated++
		}
	}
	if updated == 0 {
		err := &tabular.NoMatchError{Path: path}
		done(err)
		return err
	}

	steplog.Infof(ppcTag, "filled metrics for %d product(s)", updated)
	done(nil)
	return nil
}

func applyCampaignMetrics(p *models.Product, g *tabular.Grouped) bool {
	needle := strings.ToLower(p.Campaign.Name)

	var spend, sales, clicks, orders, impressions float64
	matched := false
	for i, key := range g.Keys {
		if !strings.Contains(strings.ToLower(key), needle) {
			continue
		}
		matched = true
		spend += g.Numeric["spend"][i]
		sales += g.Numeric["sales"][i]
		clicks += g.Numeric["clicks"][i]
		orders += g.Numeric["orders"][i]
		impressions += g.Numeric["impressions"][i]
	}
	if !matched {
		return false
	}

	p.Campaign = models.Campaign{
		Name:   p.Campaign.Name,
		Spend:  tabular.Round(spend, 2),
		Clicks: int(clicks),
		Orders: int(orders),
		CTR:    tabular.Ratio(clicks, impressions, 4),
		CPC:    tabular.Ratio(spend, clicks, 2),
		ACOS:   tabular.Ratio(spend, sales, 4),
	}
	return true
}
