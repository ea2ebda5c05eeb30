package scoring

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	MinRating = 0
	MaxRating = 10
)

// Normalize maps a rating delivered on an unknown scale onto 0..10.
// Values above 10 are read as 0..100. Absent or non-numeric input is 0.
func Normalize(value any) int {
	n, ok := toFloat(value)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return MinRating
	}
	if n > MaxRating {
		n = n / 10
	}
	rounded := int(math.Floor(n + 0.5))
	if rounded < MinRating {
		return MinRating
	}
	if rounded > MaxRating {
		return MaxRating
	}
	return rounded
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case *float64:
		if v == nil {
			return 0, false
		}
		return *v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
