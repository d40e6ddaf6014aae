package metrics

import (
	"strconv"
	"strings"

	"github.com/avoronova/fieldpulse-api/internal/models"
)

// realizedCountKey is the questionnaire key that mirrors the realized-product
// total; rows imported from before product lists existed carry only this.
const realizedCountKey = "fckp_realized"

// Metric types a goal can track.
const (
	TypeQuestion      = "question"       // one questionnaire value, Key = question key
	TypeProductTotal  = "product_total"  // total realized products, Key unused
	TypeProductSingle = "product_single" // one product name, Key = product name
)

// Descriptor identifies which numeric field or product count a goal tracks.
type Descriptor struct {
	Type string
	Key  string
}

// Valid reports whether the type is one of the known metric types.
func (d Descriptor) Valid() bool {
	switch d.Type {
	case TypeQuestion, TypeProductTotal, TypeProductSingle:
		return true
	}
	return false
}

// ParseNumber converts user-entered report values to a float. Both `.` and
// `,` work as decimal separators; empty or unparsable input is 0, never an
// error. Historical payloads depend on this forgiving dialect.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Value extracts this metric's contribution from a single report payload.
func (d Descriptor) Value(p models.ReportPayload) float64 {
	switch d.Type {
	case TypeQuestion:
		return ParseNumber(p.Values[d.Key])
	case TypeProductTotal:
		if p.Products != nil {
			return float64(len(p.Products))
		}
		// legacy rows carry only a scalar realized count, either as its own
		// field or under the questionnaire key
		if p.RealizedCount != nil {
			return *p.RealizedCount
		}
		return ParseNumber(p.Values[realizedCountKey])
	case TypeProductSingle:
		n := 0
		for _, name := range p.Products {
			if name == d.Key {
				n++
			}
		}
		return float64(n)
	}
	return 0
}

// Label renders a human-readable name for the metric, resolving question
// keys against the current questionnaire.
func (d Descriptor) Label(questions []models.Question) string {
	switch d.Type {
	case TypeQuestion:
		for _, q := range questions {
			if q.Key == d.Key {
				return strings.TrimSpace(q.Text)
			}
		}
		return d.Key
	case TypeProductTotal:
		return "Products (total)"
	case TypeProductSingle:
		return "Product: " + d.Key
	}
	return d.Key
}
