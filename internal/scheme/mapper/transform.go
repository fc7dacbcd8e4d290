package mapper

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"schemematch/internal/scheme/models"
	pstrings "schemematch/pkg/platform/strings"
)

// apply turns v into a field value. ok is false when the value is malformed
// for the field; err reports a transform this build cannot run.
func apply(t *models.Transform, v models.Value) (string, bool, error) {
	if t == nil {
		out := pstrings.Collapse(v.Text())
		return out, out != "", nil
	}
	switch t.Kind {
	case models.TransformFormat:
		out, ok, err := format(t.Format, v)
		if err != nil || !ok {
			return "", false, err
		}
		if t.Pattern != nil && !t.Pattern.MatchString(out) {
			return "", false, nil
		}
		return out, true, nil
	case models.TransformEnum:
		out, ok := t.Mapping[pstrings.Fold(v.Text())]
		return out, ok, nil
	default:
		return "", false, fmt.Errorf("unknown transform kind %q", t.Kind)
	}
}

func format(style models.FormatStyle, v models.Value) (string, bool, error) {
	raw := v.Text()
	var out string
	switch style {
	case models.FormatText, "":
		out = pstrings.Collapse(raw)
	case models.FormatUpper:
		out = pstrings.Upper(raw)
	case models.FormatLower:
		out = pstrings.Lower(raw)
	case models.FormatTitle:
		out = pstrings.Title(raw)
	case models.FormatInteger:
		return integer(v)
	case models.FormatDigits:
		out = strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, raw)
	default:
		return "", false, fmt.Errorf("unknown format %q", style)
	}
	return out, out != "", nil
}

// maxExactInteger bounds the whole numbers a float64 holds exactly.
const maxExactInteger = 1 << 53

// integer accepts whole numbers only; 35.0 renders as "35", 35.5 is rejected.
// Magnitudes beyond 2^53 are rejected rather than rendered imprecisely.
func integer(v models.Value) (string, bool, error) {
	var n float64
	switch v.Kind() {
	case models.ValueNumber:
		n = v.Num()
	case models.ValueString:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64)
		if err != nil {
			return "", false, nil
		}
		n = parsed
	default:
		return "", false, nil
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || math.Abs(n) > maxExactInteger {
		return "", false, nil
	}
	return strconv.FormatInt(int64(n), 10), true, nil
}
