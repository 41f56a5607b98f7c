package datatable

import (
	"reflect"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Text comparison goes through a single collator configured for
// case-insensitive, numeric-substring-aware ordering, so "file2" sorts before
// "file10". Collators are not goroutine-safe, hence the mutex.
var (
	textCollator   = collate.New(language.Und, collate.IgnoreCase, collate.Numeric)
	textCollatorMu sync.Mutex
)

// compareText compares two strings with the shared collator.
func compareText(a, b string) int {
	textCollatorMu.Lock()
	defer textCollatorMu.Unlock()
	return textCollator.CompareString(a, b)
}

// isNullValue reports whether a cell value counts as null for ordering.
func isNullValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// toNumber converts common numeric types to float64.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// compareValues compares two non-null cell values: numerically when both are
// numbers, otherwise by collated text.
func compareValues(a, b any) int {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	return compareText(ToText(a), ToText(b))
}

// compareCells applies one sort rule's comparison to two cell values.
// Null values sort after non-null values in BOTH directions: the descending
// inversion applies only to comparisons between two non-null values. Do not
// change this without auditing every consumer's descending views.
func compareCells(a, b any, desc bool) int {
	an, bn := isNullValue(a), isNullValue(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	c := compareValues(a, b)
	if desc {
		c = -c
	}
	return c
}
