package types

import (
	"fmt"
	"strings"
)

// Address is the delivery/shop address payload stored as jsonb.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Landmark   *string `json:"landmark,omitempty"`
	Lat        float64 `json:"lat,omitempty"`
	Lng        float64 `json:"lng,omitempty"`
}

// Validate reports the first missing required field, if any.
func (a Address) Validate() error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"line1", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
	} {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("address field %s is required", field.name)
		}
	}
	return nil
}
