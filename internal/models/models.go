// Package models defines the in-memory product record that all loaders
// mutate and all sheet writers read. Metric blocks are value structs and
// default to zero-valued instances, so writers never branch on nil.
package models

// Region identifies a marketplace region. Each region has its own
// registry tab, spreadsheet and set of weekly export files.
type Region string

const (
	RegionUK Region = "uk"
	RegionUS Region = "us"
	RegionFR Region = "fr"
	RegionIT Region = "it"
	RegionES Region = "es"
	RegionDE Region = "de"
)

// AllRegions lists regions in processing order.
var AllRegions = []Region{RegionUK, RegionUS, RegionFR, RegionIT, RegionES, RegionDE}

// ParseRegion returns the Region for a flag value, or false if unknown.
func ParseRegion(s string) (Region, bool) {
	for _, r := range AllRegions {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// RowNotFound is the sentinel row index meaning the product's row could
// not be located by date. It must never be used to address a write.
const RowNotFound = -1

// Campaign holds aggregated PPC metrics for one product's campaign group.
type Campaign struct {
	Name   string
	Spend  float64
	Clicks int
	CTR    float64
	CPC    float64
	Orders int
	ACOS   float64
}

// Sellerboard holds revenue metrics from one Sellerboard snapshot.
type Sellerboard struct {
	Profit float64
	Margin float64
}

// KeywordRank is one tracked keyword and its averaged organic rank.
type KeywordRank struct {
	Word string
	Rank float64
}

// Helium ties a product to its Helium 10 ranking account entry.
// Ranks is ordered; rank columns are written in this order.
type Helium struct {
	ID    int
	Ranks []KeywordRank
}

// Business holds aggregated Business Report metrics for one ASIN.
type Business struct {
	Title    string
	SKU      string
	Sessions int
	Units    int
	Sales    float64
	Orders   int
}

// BusinessUpdate carries the historical-correction slice of the
// Business Report: only weekly units are corrected retroactively.
type BusinessUpdate struct {
	Units int
}

// Sns holds Subscribe & Save metrics for one ASIN.
type Sns struct {
	Subscriptions int
	ShippedUnits  int
}

// Product is one marketplace item for the duration of a run. Records
// are built fresh from the registry each run and discarded at exit.
type Product struct {
	ASIN       string
	SheetTitle string
	RowIndex   int

	Campaign     Campaign
	SBCurrent    Sellerboard
	SBHistorical Sellerboard
	Helium       Helium
	BizCurrent   Business
	BizUpdate    BusinessUpdate
	Sns          Sns
}

// NewProduct returns a product with the row index unresolved.
func NewProduct(asin string) *Product {
	return &Product{ASIN: asin, RowIndex: RowNotFound}
}

// ByASIN returns the product with the given ASIN, or nil.
func ByASIN(products []*Product, asin string) *Product {
	for _, p := range products {
		if p.ASIN == asin {
			return p
		}
	}
	return nil
}

// WithSheetTitle returns the subset of products that have a sheet tab.
func WithSheetTitle(products []*Product) []*Product {
	out := make([]*Product, 0, len(products))
	for _, p := range products {
		if p.SheetTitle != "" {
			out = append(out, p)
		}
	}
	return out
}
