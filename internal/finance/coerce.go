package finance

import (
	"math"
	"strconv"
	"strings"
)

// Fee configuration is hand-entered and has accumulated several field names
// for the same logical value over the years. Each logical field resolves
// through a fixed priority list: first key holding a usable value wins.
var (
	amountAliases = []string{"amount", "value", "expectedAmount", "installmentAmount", "total", "fee"}
	weightAliases = []string{"weight", "ratio", "share", "portion"}
	labelAliases  = []string{"label", "name", "title", "term"}
	fromAliases   = []string{"from", "start", "startDate", "dueFrom"}
	toAliases     = []string{"to", "end", "endDate", "dueTo"}
	orderAliases  = []string{"order", "sortOrder", "position", "index", "no", "sn"}
	monthAliases  = []string{"month", "monthIndex", "m"}
	dayAliases    = []string{"day", "dayOfMonth", "d"}

	classFeeAliases = []string{"feePerYear", "fee", "yearFee"}
	planIDAliases   = []string{"planId", "planID", "plan"}
	planNameAliases = []string{"name", "title"}
)

// toNumber coerces a hand-entered value to a finite float64. Strings are
// parsed after stripping thousands separators; anything else fails.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return toNumber(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case bool, nil:
		return 0, false
	default:
		return 0, false
	}
}

// toString coerces a value to a trimmed display string; numbers render
// without a trailing ".0".
func toString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == math.Trunc(s) && math.Abs(s) < 1e15 {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}

// firstNumber resolves a numeric field through its alias list.
func firstNumber(m map[string]any, aliases []string) (float64, bool) {
	for _, key := range aliases {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		if n, ok := toNumber(v); ok {
			return n, true
		}
	}
	return 0, false
}

// firstString resolves a string field through its alias list.
func firstString(m map[string]any, aliases []string) string {
	for _, key := range aliases {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		if s := toString(v); s != "" {
			return s
		}
	}
	return ""
}

// toBool reads hand-entered boolean-ish values ("true"/"yes"/1).
func toBool(v any, def bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1":
			return true
		case "false", "no", "n", "0":
			return false
		}
		return def
	case float64:
		return b != 0
	case nil:
		return def
	default:
		return def
	}
}

// normalizeClassName makes class lookups case and whitespace insensitive:
// lower-cased with inner whitespace runs collapsed to single spaces.
func normalizeClassName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// asObject returns v as a string-keyed map when it is one.
func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// monthNumber resolves a month given either a number (1-12) or a name.
func monthNumber(v any) (int, bool) {
	if n, ok := toNumber(v); ok && n >= 1 && n <= 12 {
		return int(n), true
	}
	name := strings.ToLower(strings.TrimSpace(toString(v)))
	if len(name) < 3 {
		return 0, false
	}
	months := []string{"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december"}
	for i, m := range months {
		if strings.HasPrefix(m, name) || strings.HasPrefix(name, m[:3]) {
			return i + 1, true
		}
	}
	return 0, false
}
