package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Locale controls numeric parsing of text cells. A zero separator means
// auto-detect per value.
type Locale struct {
	DecimalSeparator   rune
	ThousandsSeparator rune
}

type cellState int

const (
	cellMissing cellState = iota
	cellOK
	cellDropped
)

// ParseNumeric parses a text cell into a number. It accepts percent signs,
// thousands separators and either '.' or ',' as decimal separator. Without a
// configured locale a lone comma followed by exactly three digits is
// ambiguous and the cell is not coercible.
func ParseNumeric(s string, loc Locale) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := loc.DecimalSeparator
	thou := loc.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			switch {
			case strings.Count(raw, ",") > 1:
				dec = '.'
				thou = ','
			case len(raw)-cpos-1 == 3:
				// "1,234": thousands or decimal cannot be told apart
				return 0, false
			default:
				dec = ','
			}
		} else {
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// coerceNumeric classifies a raw cell. Text goes through ParseNumeric; other
// driver values (int64, float64, []byte, ...) go through cast.
func coerceNumeric(v any, loc Locale) (float64, cellState) {
	switch t := v.(type) {
	case nil:
		return 0, cellMissing
	case []byte:
		return coerceNumeric(string(t), loc)
	case string:
		if isMissingText(t) {
			return 0, cellMissing
		}
		if f, ok := ParseNumeric(t, loc); ok {
			return f, cellOK
		}
		return 0, cellDropped
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, cellDropped
	}
	return f, cellOK
}

// CoerceString renders a raw cell as a categorical value. Integral floats are
// printed without exponent so that identifiers such as MSISDNs survive a
// numeric database column.
func CoerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if isMissingText(t) {
			return ""
		}
		return strings.TrimSpace(t)
	case []byte:
		return CoerceString(string(t))
	case float64:
		if math.IsNaN(t) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return CoerceString(float64(t))
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func isMissingText(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "na", "n/a", "nan", "null", "none", "\\n":
		return true
	}
	return false
}
