package normalizer

import "startercode/internal/models"

// Explode flattens datasets into one row per (dataset, resource) pair.
//
// Each resource is joined on its package_id back-reference, first against
// dataset ids and then against dataset names. A resource without a
// back-reference belongs to the dataset it is nested in. A back-reference
// that matches nothing leaves the row's Dataset nil.
func Explode(datasets []models.Dataset) []*models.ResourceRow {
	byID := make(map[string]*models.Dataset, len(datasets))
	byName := make(map[string]*models.Dataset, len(datasets))

	total := 0

	for i := range datasets {
		ds := &datasets[i]
		total += len(ds.Resources)

		if id := ds.ID.Value; ds.ID.Valid && id != "" {
			if _, seen := byID[id]; !seen {
				byID[id] = ds
			}
		}

		if name := ds.Name.Value; ds.Name.Valid && name != "" {
			if _, seen := byName[name]; !seen {
				byName[name] = ds
			}
		}
	}

	rows := make([]*models.ResourceRow, 0, total)

	for i := range datasets {
		enclosing := &datasets[i]

		for _, res := range enclosing.Resources {
			row := &models.ResourceRow{Resource: res}

			if ref := res.PackageID; ref.Empty() {
				row.Dataset = enclosing
				row.DatasetRef = enclosing.ID.Or(enclosing.Name.Value)
			} else {
				row.DatasetRef = ref.Value
				if ds, ok := byID[ref.Value]; ok {
					row.Dataset = ds
				} else if ds, ok := byName[ref.Value]; ok {
					row.Dataset = ds
				}
			}

			rows = append(rows, row)
		}
	}

	return rows
}
