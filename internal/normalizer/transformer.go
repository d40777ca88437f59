package normalizer

import (
	"fmt"
	"strings"

	"startercode/internal/config"
	"startercode/internal/models"
	"startercode/pkg/utils"
)

// Transformer derives the presentation fields of a row.
type Transformer struct {
	strings      *utils.StringHelper
	separator    string
	metadataKeys []string
}

// NewTransformer creates a transformer from the classification settings.
func NewTransformer(cfg config.ClassificationConfig) *Transformer {
	return &Transformer{
		strings:      utils.NewStringHelper(),
		separator:    cfg.KeywordSeparator,
		metadataKeys: cfg.MetadataKeys,
	}
}

// Transform fills Publisher, TagNames, Keywords and Metadata in place.
func (t *Transformer) Transform(row *models.ResourceRow) {
	// The catalog's author field is what the portal shows as publisher.
	row.Publisher = row.DatasetField("author")
	row.TagNames = TagNames(row.Dataset)
	row.Keywords = Keywords(row.Dataset, t.separator)
	row.Metadata = t.metadataBlock(row)
}

// TagNames returns the names of the dataset's tags, skipping nameless ones.
// It never returns nil.
func TagNames(ds *models.Dataset) []string {
	names := []string{}
	if ds == nil {
		return names
	}

	for _, tag := range ds.Tags {
		if tag.Name.Empty() {
			continue
		}

		names = append(names, tag.Name.Value)
	}

	return names
}

// Keywords joins the display names of the dataset's groups.
func Keywords(ds *models.Dataset, sep string) string {
	if ds == nil {
		return ""
	}

	parts := make([]string, 0, len(ds.Groups))

	for _, g := range ds.Groups {
		if !g.DisplayName.Valid {
			continue
		}

		parts = append(parts, g.DisplayName.Value)
	}

	return strings.Join(parts, sep)
}

func (t *Transformer) metadataBlock(row *models.ResourceRow) string {
	var sb strings.Builder

	for _, key := range t.metadataKeys {
		fmt.Fprintf(&sb, "- **%s** `%s`\n", t.strings.Capitalize(key), t.metadataValue(row, key))
	}

	return sb.String()
}

func (t *Transformer) metadataValue(row *models.ResourceRow, key string) string {
	switch key {
	case "publisher":
		return row.Publisher.String()
	case "keywords":
		return row.Keywords
	case "tags":
		return strings.Join(row.TagNames, ", ")
	}

	return row.DatasetField(key).String()
}
