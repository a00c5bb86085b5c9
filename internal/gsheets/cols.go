package gsheets

import (
	"fmt"
	"strings"
)

// ColToNum converts a column label to its 1-based number (A=1, Z=26, AA=27).
func ColToNum(col string) (int, error) {
	col = strings.ToUpper(strings.TrimSpace(col))
	if col == "" {
		return 0, fmt.Errorf("empty column label")
	}
	num := 0
	for _, ch := range col {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column label: %s", col)
		}
		num = num*26 + int(ch-'A') + 1
	}
	return num, nil
}

// NumToCol converts a 1-based column number to its label (bijective base 26).
func NumToCol(num int) (string, error) {
	if num <= 0 {
		return "", fmt.Errorf("column number must be >= 1, got %d", num)
	}
	var letters []byte
	for num > 0 {
		num--
		letters = append(letters, byte('A'+num%26))
		num /= 26
	}
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters), nil
}

// RangeEndCol returns the column that ends a span of the given width
// starting at startCol. Keyword-rank rows have a variable width (one
// column per keyword), so the end column is computed, not configured.
func RangeEndCol(startCol string, width int) (string, error) {
	start, err := ColToNum(startCol)
	if err != nil {
		return "", err
	}
	if width < 1 {
		return "", fmt.Errorf("width must be >= 1, got %d", width)
	}
	return NumToCol(start + width - 1)
}
