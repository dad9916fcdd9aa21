// Package features turns a caller's named-field record into the fixed-order
// vector the model was fit on.
package features

import "fmt"

// Schema is an ordered list of feature names. Position i of an assembled
// vector always holds the value of Names[i].
type Schema struct {
	Names []string
}

// HousePrice is the 12-field schema the house price model was trained with.
// Reordering it silently corrupts every prediction.
var HousePrice = Schema{Names: []string{
	"Area",
	"Bedrooms",
	"Bathrooms",
	"Floors",
	"YearBuilt",
	"Location_Rural",
	"Location_Suburban",
	"Location_Urban",
	"Condition_Fair",
	"Condition_Good",
	"Condition_Poor",
	"Garage_Yes",
}}

// Len returns the vector length produced by this schema.
func (s Schema) Len() int {
	return len(s.Names)
}

// Index returns the vector position of name, or -1.
func (s Schema) Index(name string) int {
	for i, n := range s.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Matches reports an error unless names equals the schema exactly, in order.
func (s Schema) Matches(names []string) error {
	if len(names) != len(s.Names) {
		return fmt.Errorf("expected %d features, artifact declares %d", len(s.Names), len(names))
	}
	for i, n := range s.Names {
		if names[i] != n {
			return fmt.Errorf("feature %d: expected %q, artifact declares %q", i, n, names[i])
		}
	}
	return nil
}
