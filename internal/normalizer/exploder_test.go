package normalizer

import (
	"fmt"
	"testing"

	"startercode/internal/models"
)

func dataset(name string, resourceIDs ...string) models.Dataset {
	ds := models.Dataset{
		ID:    models.NewText("id-" + name),
		Name:  models.NewText(name),
		Title: models.NewText("Title " + name),
	}

	for _, id := range resourceIDs {
		ds.Resources = append(ds.Resources, models.Resource{
			ID:  models.NewText(id),
			URL: models.NewText("https://example.org/" + id + ".csv"),
		})
	}

	return ds
}

func TestExplode_RowCountMatchesResources(t *testing.T) {
	for n := 0; n <= 7; n++ {
		t.Run(fmt.Sprintf("%d resources", n), func(t *testing.T) {
			ids := make([]string, n)
			for i := range ids {
				ids[i] = fmt.Sprintf("r%d", i)
			}

			datasets := []models.Dataset{dataset("a", ids...), dataset("empty"), dataset("b", "x")}

			rows := Explode(datasets)
			if got, want := len(rows), n+1; got != want {
				t.Fatalf("len(rows) = %d, want %d", got, want)
			}

			for _, row := range rows {
				if !row.HasDataset() {
					t.Errorf("row %s has no dataset", row.Resource.ID)
				}
			}
		})
	}
}

func TestExplode_Join(t *testing.T) {
	a := dataset("a", "r1")
	b := dataset("b")

	a.Resources = append(a.Resources,
		models.Resource{ID: models.NewText("by-id"), PackageID: models.NewText("id-b")},
		models.Resource{ID: models.NewText("by-name"), PackageID: models.NewText("b")},
		models.Resource{ID: models.NewText("orphan"), PackageID: models.NewText("gone")},
	)

	rows := Explode([]models.Dataset{a, b})
	if len(rows) != 4 {
		t.Fatalf("len(rows) = %d, want 4", len(rows))
	}

	tests := []struct {
		resource string
		dataset  string
		ref      string
	}{
		{"r1", "a", "id-a"},
		{"by-id", "b", "id-b"},
		{"by-name", "b", "b"},
		{"orphan", "", "gone"},
	}

	for i, tt := range tests {
		row := rows[i]
		if row.Resource.ID.Value != tt.resource {
			t.Fatalf("rows[%d] resource = %s, want %s", i, row.Resource.ID, tt.resource)
		}

		got := ""
		if row.HasDataset() {
			got = row.Dataset.Name.Value
		}

		if got != tt.dataset {
			t.Errorf("%s joined to %q, want %q", tt.resource, got, tt.dataset)
		}

		if row.DatasetRef != tt.ref {
			t.Errorf("%s DatasetRef = %q, want %q", tt.resource, row.DatasetRef, tt.ref)
		}
	}
}

func TestExplode_MissingOptionalFields(t *testing.T) {
	ds := models.Dataset{Name: models.NewText("n"), Resources: []models.Resource{{}}}

	rows := Explode([]models.Dataset{ds})
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}

	if rows[0].Resource.Filename.Valid {
		t.Error("absent filename decoded as present")
	}

	if rows[0].DatasetRef != "n" {
		t.Errorf("DatasetRef = %q, want dataset name fallback", rows[0].DatasetRef)
	}
}
