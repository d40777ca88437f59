package models

// Category is the content class a resource is rendered as.
type Category string

// Known categories.
const (
	CategoryTabular    Category = "table_data"
	CategoryGeospatial Category = "geo_data"
)

// Categories lists every known category in rendering order.
var Categories = []Category{CategoryTabular, CategoryGeospatial}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}

	return false
}

// ResourceRow is one (dataset, resource) pair after exploding the catalog.
// Dataset is nil when the resource's back-reference matched no dataset.
type ResourceRow struct {
	Dataset  *Dataset
	Resource Resource

	// DatasetRef is the back-reference the row was joined on.
	DatasetRef string

	// Derived presentation fields.
	Publisher Text
	TagNames  []string
	Keywords  string
	Metadata  string

	Category Category
	Key      string
}

// HasDataset reports whether the join found a dataset.
func (r *ResourceRow) HasDataset() bool {
	return r.Dataset != nil
}

// DatasetField returns a dataset field, or an absent Text if there is no dataset.
func (r *ResourceRow) DatasetField(name string) Text {
	if r.Dataset == nil {
		return Text{}
	}

	return r.Dataset.Field(name)
}

// HasTag reports whether the row's tag names contain tag exactly.
func (r *ResourceRow) HasTag(tag string) bool {
	for _, name := range r.TagNames {
		if name == tag {
			return true
		}
	}

	return false
}
