package series

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Source identifies the upstream statistics service.
type Source string

const (
	SourceFRED Source = "FRED"
	SourceEIA  Source = "EIA"
)

// ErrNoData is returned when a service answers without any observations.
var ErrNoData = errors.New("no observations returned")

// Observation is one dated value of a named series.
type Observation struct {
	Date   time.Time `json:"date"`
	Value  float64   `json:"value"`
	Series string    `json:"series"`
	Source Source    `json:"source"`
}

// Spec describes how to fetch one series.
type Spec struct {
	Name   string            `validate:"required"`
	Source Source            `validate:"oneof=FRED EIA"`
	ID     string            `validate:"required_if=Source FRED"`
	Route  string            `validate:"required_if=Source EIA"`
	Params map[string]string // EIA query parameters besides api_key
}

// Label names a series in failure lists, e.g. "PPI Paperboard (FRED)".
func (s Spec) Label() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.Source)
}

var validate = validator.New()

// ValidateCatalog checks every spec and rejects duplicate names.
func ValidateCatalog(specs []Spec) error {
	seen := make(map[string]struct{}, len(specs))
	for i, s := range specs {
		if err := validate.Struct(s); err != nil {
			return fmt.Errorf("series %d (%q): %w", i, s.Name, err)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("series %q listed twice", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
