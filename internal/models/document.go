package models

// RenderedDocument is one starter-code document for one resource row.
type RenderedDocument struct {
	Key        string
	Category   Category
	DatasetRef string
	ResourceID string
	Family     string
	Template   string
	// Path is relative to the output work directory.
	Path    string
	Content []byte
}

// RenderedRow groups the documents rendered for a single row, one per
// template family.
type RenderedRow struct {
	Row       *ResourceRow
	Documents []RenderedDocument
}

// OverviewDocument is the index listing every rendered row.
type OverviewDocument struct {
	Path    string
	Content string
	Rows    int
}
