// Package nutrition looks up nutrient facts for a food name and normalises
// them into a fixed record shape.
package nutrition

import (
	"context"
	"errors"
)

// ErrNotFound means the provider answered but had no matching food.
var ErrNotFound = errors.New("no nutrition data for food")

// ErrUpstreamUnavailable covers network failures, timeouts, non-2xx answers and
// unreadable bodies from the provider.
var ErrUpstreamUnavailable = errors.New("nutrition provider unavailable")

// Amount is a quantity with its unit, e.g. 52 kcal or 4.6 mg.
type Amount struct {
	Value float64 `json:"amount"`
	Unit  string  `json:"unit"`
}

// Record is the normalised nutrient data for one food. Target fields are nil
// when the provider reported nothing for them; they are never defaulted to 0.
type Record struct {
	FoodName string
	SourceID string
	Calories *Amount
	Protein  *Amount
	Fat      *Amount
	Carbs    *Amount
	Fiber    *Amount
	Extras   map[string]Amount
}

// Nutrients flattens the record into one name -> amount map. Absent target
// fields are left out.
func (r Record) Nutrients() map[string]Amount {
	out := make(map[string]Amount, 5+len(r.Extras))
	for name, a := range map[string]*Amount{
		"calories": r.Calories,
		"protein":  r.Protein,
		"fat":      r.Fat,
		"carbs":    r.Carbs,
		"fiber":    r.Fiber,
	} {
		if a != nil {
			out[name] = *a
		}
	}
	for name, a := range r.Extras {
		if _, taken := out[name]; !taken {
			out[name] = a
		}
	}
	return out
}

// Provider resolves a food query to a Record. Implementations return
// ErrNotFound or ErrUpstreamUnavailable (possibly wrapped) on failure.
type Provider interface {
	Lookup(ctx context.Context, query string) (Record, error)
}
