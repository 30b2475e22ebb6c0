package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ============================================================================
// CELL VALUES — normalization, formatting, ordering
// ============================================================================
// A cell holds one of: float64, string, bool, time.Time, or nil (missing).
// Everything else is normalized into that set on construction.
// ============================================================================

// Normalize converts a raw cell value into the dataset's value set.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return x
	case float32:
		return Normalize(float64(x))
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []byte:
		return string(x)
	case string, bool, time.Time:
		return x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	default:
		return strings.TrimSpace(fmtAny(x))
	}
}

// IsMissing reports whether a normalized cell is null.
func IsMissing(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

// Format returns the string representation used for text matching and labels.
// Missing values format as "".
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	default:
		return fmtAny(x)
	}
}

// CleanNumeric strips every character except digits, '.' and '-'.
// "$1,234.50" → "1234.50".
func CleanNumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ToFloat is the permissive numeric conversion: numbers pass through,
// strings are cleaned and parsed, anything else fails.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case string:
		c := CleanNumeric(x)
		if c == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(c, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// looksNumeric is the strict load-time check: the value must clean to a number
// and carry no letters ("$1,200" and "12%" pass, "A1" and "USD 5" do not).
func looksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) {
			return false
		}
	}
	_, ok := ToFloat(s)
	return ok
}

// Compare orders two cells for sorting group keys and pivot columns.
// Numbers sort before dates, dates before booleans, booleans before strings;
// missing values sort last.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := a.(type) {
	case float64:
		y := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case time.Time:
		return x.Compare(b.(time.Time))
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case string:
		return strings.Compare(x, b.(string))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case float64:
		if IsMissing(v) {
			return 4
		}
		return 0
	case time.Time:
		return 1
	case bool:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}

func fmtAny(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.Trim(string(b), `"`)
}
