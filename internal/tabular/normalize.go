// Package tabular reads CSV/Excel marketplace exports and aggregates them
// through a declarative column specification: select columns by position
// or alias, coerce currency-formatted numbers, filter by a categorical
// column, and group rows by a key applying per-field aggregation verbs.
package tabular

import (
	"math"
	"strconv"
	"strings"
)

// Verb is a per-field aggregation verb.
type Verb string

const (
	// VerbSum adds values across all rows sharing a group key.
	VerbSum Verb = "sum"
	// VerbFirst keeps the value from the first row (in original order)
	// with the group key. Used for descriptive fields like title or SKU.
	VerbFirst Verb = "first"
)

// ByName marks a Field as selected via Name/Aliases rather than position.
const ByName = -1

// Field maps one source column onto a canonical field name.
type Field struct {
	// Name is the canonical field name in the result.
	Name string
	// Aliases are acceptable source column headers, tried in priority
	// order before Name itself. Regional exports rename columns (for
	// example "Spend" vs "Spend(GBP)").
	Aliases []string
	// Index selects the source column by position when >= 0.
	// Set to ByName to select via Aliases/Name.
	Index int
	// Numeric requests currency-stripping numeric coercion.
	Numeric bool
	// Agg is the aggregation verb; defaults to VerbFirst when empty.
	Agg Verb
}

// RowFilter keeps only rows whose field value is in the allowed set.
type RowFilter struct {
	Field   string
	Allowed []string
}

// Spec is the declarative normalization recipe for one export format.
type Spec struct {
	Fields  []Field
	GroupBy string // canonical name of the grouping field
	Filter  *RowFilter
}

// Grouped is the aggregation result: one entry per unique group key,
// ordered by first appearance.
type Grouped struct {
	Keys    []string
	Text    map[string][]string
	Numeric map[string][]float64
}

// Len returns the number of groups.
func (g *Grouped) Len() int { return len(g.Keys) }

// Normalize aggregates a table according to spec. It guarantees non-empty
// input groups; whether every group matches a known product is the
// caller's concern.
func Normalize(t *Table, spec Spec) (*Grouped, error) {
	cols, err := resolveColumns(t, spec.Fields)
	if err != nil {
		return nil, err
	}

	rows := t.Rows
	if spec.Filter != nil {
		rows = filterRows(rows, cols[spec.Filter.Field], spec.Filter.Allowed)
		if len(rows) == 0 {
			return nil, &NoApplicableRowsError{Path: t.Path}
		}
	}

	groupCol := cols[spec.GroupBy]
	g := &Grouped{
		Text:    make(map[string][]string),
		Numeric: make(map[string][]float64),
	}
	index := make(map[string]int) // group key -> position in g.Keys

	for _, row := range rows {
		key := strings.TrimSpace(cell(row, groupCol))
		pos, seen := index[key]
		if !seen {
			pos = len(g.Keys)
			index[key] = pos
			g.Keys = append(g.Keys, key)
			for _, f := range spec.Fields {
				if f.Numeric {
					g.Numeric[f.Name] = append(g.Numeric[f.Name], 0)
				} else {
					g.Text[f.Name] = append(g.Text[f.Name], "")
				}
			}
		}

		for _, f := range spec.Fields {
			raw := cell(row, cols[f.Name])
			if f.Numeric {
				v := CoerceNumber(raw)
				switch f.Agg {
				case VerbSum:
					g.Numeric[f.Name][pos] += v
				default: // first
					if !seen {
						g.Numeric[f.Name][pos] = v
					}
				}
			} else if !seen {
				g.Text[f.Name][pos] = strings.TrimSpace(raw)
			}
		}
	}

	return g, nil
}

func resolveColumns(t *Table, fields []Field) (map[string]int, error) {
	cols := make(map[string]int, len(fields))
	var missing []string

	for _, f := range fields {
		if f.Index >= 0 {
			if f.Index >= len(t.Header) {
				missing = append(missing, f.Name)
				continue
			}
			cols[f.Name] = f.Index
			continue
		}

		idx := -1
		for _, name := range append(append([]string{}, f.Aliases...), f.Name) {
			if i := headerIndex(t.Header, name); i >= 0 {
				idx = i
				break
			}
		}
		if idx < 0 {
			missing = append(missing, f.Name)
			continue
		}
		cols[f.Name] = idx
	}

	if len(missing) > 0 {
		return nil, &SchemaError{Path: t.Path, Missing: missing}
	}
	return cols, nil
}

func headerIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func filterRows(rows [][]string, col int, allowed []string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		v := strings.TrimSpace(cell(row, col))
		for _, a := range allowed {
			if v == a {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// currencyGlyphs are stripped before numeric parsing: thousands commas,
// currency symbols, and the non-breaking spaces some locales use as
// group separators.
var currencyGlyphs = strings.NewReplacer(
	",", "",
	"$", "",
	"£", "",
	"€", "",
	"\u00a0", "",
	"\u202f", "",
)

// CoerceNumber parses a currency-formatted cell. Unparseable cells
// coerce to 0 rather than failing the row.
func CoerceNumber(raw string) float64 {
	s := strings.TrimSpace(currencyGlyphs.Replace(raw))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Round rounds v to the given number of decimal places. Derived ratios
// are rounded once, when written to the model, not repeatedly.
func Round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

// Ratio returns num/den rounded to places, or 0.0 when den is zero.
func Ratio(num, den float64, places int) float64 {
	if den == 0 {
		return 0
	}
	return Round(num/den, places)
}
