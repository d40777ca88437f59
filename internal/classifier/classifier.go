// Package classifier assigns resource rows to a rendering category.
package classifier

import (
	"strings"

	"startercode/internal/config"
	"startercode/internal/models"
)

// Rule is one category predicate.
type Rule struct {
	Category models.Category
	Match    func(row *models.ResourceRow) bool
}

// Classifier evaluates its rules in order. Every rule is checked and the
// last matching one decides the category.
type Classifier struct {
	rules []Rule
}

// Result summarizes a Partition call.
type Result struct {
	Classified   []*models.ResourceRow
	PerCategory  map[models.Category]int
	Unclassified int
	// Ambiguous counts rows that matched more than one rule.
	Ambiguous int
}

// New builds the tabular and geospatial rules from configuration.
func New(cfg config.ClassificationConfig) *Classifier {
	formats := make(map[string]bool, len(cfg.TableFormats))
	for _, f := range cfg.TableFormats {
		formats[strings.ToLower(f)] = true
	}

	tabular := func(row *models.ResourceRow) bool {
		return formats[strings.ToLower(row.Resource.Format.Value)] && !row.HasTag(cfg.GeoMarkerTag)
	}

	geospatial := func(row *models.ResourceRow) bool {
		return strings.Contains(row.Resource.URL.Value, cfg.GeoURLNeedle) && row.HasTag(cfg.CityMarkerTag)
	}

	return NewWithRules(
		Rule{Category: models.CategoryTabular, Match: tabular},
		Rule{Category: models.CategoryGeospatial, Match: geospatial},
	)
}

// NewWithRules creates a classifier with explicit rules.
func NewWithRules(rules ...Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the row's category, whether any rule matched, and how many
// rules matched in total.
func (c *Classifier) Classify(row *models.ResourceRow) (models.Category, bool, int) {
	var (
		category models.Category
		matches  int
	)

	for _, rule := range c.rules {
		if rule.Match(row) {
			category = rule.Category
			matches++
		}
	}

	return category, matches > 0, matches
}

// Partition classifies rows, sets their Category, and returns only the
// classified ones in input order.
func (c *Classifier) Partition(rows []*models.ResourceRow) Result {
	res := Result{
		Classified:  make([]*models.ResourceRow, 0, len(rows)),
		PerCategory: make(map[models.Category]int, len(c.rules)),
	}

	for _, row := range rows {
		category, ok, matches := c.Classify(row)
		if !ok {
			row.Category = ""
			res.Unclassified++

			continue
		}

		if matches > 1 {
			res.Ambiguous++
		}

		row.Category = category
		res.PerCategory[category]++
		res.Classified = append(res.Classified, row)
	}

	return res
}
