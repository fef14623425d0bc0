// Package category holds the closed enumerations for the categorical inputs
// (city and job level). Membership is decided against configuration; values
// outside an enumeration are rejected by validation and encoded as "absent"
// by estimators.
package category

import "strings"

// Defaults used when configuration does not override them.
var (
	DefaultCities    = []string{"jakarta", "bandung", "surabaya", "yogyakarta", "medan", "semarang", "bali"}
	DefaultJobLevels = []string{"junior", "mid", "senior", "lead"}
)

// Enumeration is an ordered, closed set of normalized values.
// The zero value is empty and contains nothing.
type Enumeration struct {
	values []string
	index  map[string]int
}

// New builds an Enumeration from values. Values are normalized and
// duplicates keep their first position.
func New(values ...string) Enumeration {
	e := Enumeration{index: make(map[string]int, len(values))}
	for _, v := range values {
		n := Normalize(v)
		if n == "" {
			continue
		}
		if _, dup := e.index[n]; dup {
			continue
		}
		e.index[n] = len(e.values)
		e.values = append(e.values, n)
	}
	return e
}

// Normalize trims surrounding whitespace and lower-cases v.
func Normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Index returns the position of v (after normalization) or -1.
func (e Enumeration) Index(v string) int {
	if i, ok := e.index[Normalize(v)]; ok {
		return i
	}
	return -1
}

// Contains reports whether v is a member after normalization.
func (e Enumeration) Contains(v string) bool { return e.Index(v) >= 0 }

// Len returns the number of members.
func (e Enumeration) Len() int { return len(e.values) }

// Values returns a copy of the members in order.
func (e Enumeration) Values() []string {
	out := make([]string, len(e.values))
	copy(out, e.values)
	return out
}

// OneHot writes the one-hot encoding of v into dst (len(dst) == Len()).
// Unknown or empty values leave dst all zero.
func (e Enumeration) OneHot(v string, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	if i := e.Index(v); i >= 0 && i < len(dst) {
		dst[i] = 1
	}
}
