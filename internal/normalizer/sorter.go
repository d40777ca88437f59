package normalizer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"startercode/internal/models"
)

// ErrKeyCollision means two rows resolved to the same composite key.
var ErrKeyCollision = errors.New("composite key collision")

// SortRows orders rows by dataset title, dataset name and resource name.
// Rows without a dataset come last; the resource id breaks remaining ties.
// Comparison is byte-wise and case-sensitive.
func SortRows(rows []*models.ResourceRow) {
	slices.SortStableFunc(rows, compareRows)
}

func compareRows(a, b *models.ResourceRow) int {
	if a.HasDataset() != b.HasDataset() {
		if a.HasDataset() {
			return -1
		}

		return 1
	}

	if c := compareText(a.DatasetField("title"), b.DatasetField("title")); c != 0 {
		return c
	}

	if c := compareText(a.DatasetField("name"), b.DatasetField("name")); c != 0 {
		return c
	}

	if c := compareText(a.Resource.Name, b.Resource.Name); c != 0 {
		return c
	}

	if c := strings.Compare(a.DatasetRef, b.DatasetRef); c != 0 {
		return c
	}

	return compareText(a.Resource.ID, b.Resource.ID)
}

// compareText orders absent values after present ones.
func compareText(a, b models.Text) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return 1
	case !b.Valid:
		return -1
	}

	return strings.Compare(a.Value, b.Value)
}

// Key returns the composite key {datasetName}_{resourceID}. The back-reference
// stands in for the name when the row has no dataset.
func Key(row *models.ResourceRow) string {
	name := row.DatasetRef
	if row.HasDataset() {
		name = row.Dataset.Name.String()
	}

	return name + "_" + row.Resource.ID.String()
}

// AssignKeys sets every row's Key and fails if any key repeats.
func AssignKeys(rows []*models.ResourceRow) error {
	seen := make(map[string]int, len(rows))

	var collisions []string

	for _, row := range rows {
		row.Key = Key(row)

		seen[row.Key]++
		if seen[row.Key] == 2 {
			collisions = append(collisions, row.Key)
		}
	}

	if len(collisions) > 0 {
		return fmt.Errorf("%w: %s", ErrKeyCollision, strings.Join(collisions, ", "))
	}

	return nil
}
