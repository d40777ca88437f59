package normalizer

import (
	"errors"
	"fmt"

	"startercode/internal/models"
)

// Snapshot issues. None of them stop a run; they are reported so that
// upstream catalog problems are visible.
var (
	ErrMissingDatasetName   = errors.New("dataset has no name")
	ErrDuplicateDatasetID   = errors.New("duplicate dataset id")
	ErrDuplicateDatasetName = errors.New("duplicate dataset name")
	ErrMissingResourceID    = errors.New("resource has no id")
	ErrDuplicateResourceID  = errors.New("duplicate resource id within dataset")
)

// Validator inspects a snapshot for inconsistencies.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns one error per problem found, in snapshot order.
func (v *Validator) Validate(datasets []models.Dataset) []error {
	var issues []error

	ids := make(map[string]bool, len(datasets))
	names := make(map[string]bool, len(datasets))

	for i := range datasets {
		ds := &datasets[i]

		if ds.Name.Empty() {
			issues = append(issues, fmt.Errorf("%w at index %d", ErrMissingDatasetName, i))
		} else if names[ds.Name.Value] {
			issues = append(issues, fmt.Errorf("%w: %s", ErrDuplicateDatasetName, ds.Name.Value))
		} else {
			names[ds.Name.Value] = true
		}

		if !ds.ID.Empty() {
			if ids[ds.ID.Value] {
				issues = append(issues, fmt.Errorf("%w: %s", ErrDuplicateDatasetID, ds.ID.Value))
			}

			ids[ds.ID.Value] = true
		}

		issues = append(issues, v.validateResources(ds)...)
	}

	return issues
}

func (v *Validator) validateResources(ds *models.Dataset) []error {
	var issues []error

	seen := make(map[string]bool, len(ds.Resources))

	for j, res := range ds.Resources {
		if res.ID.Empty() {
			issues = append(issues, fmt.Errorf("%w: %s resource %d", ErrMissingResourceID, ds.Name, j))

			continue
		}

		if seen[res.ID.Value] {
			issues = append(issues, fmt.Errorf("%w: %s/%s", ErrDuplicateResourceID, ds.Name, res.ID.Value))
		}

		seen[res.ID.Value] = true
	}

	return issues
}
