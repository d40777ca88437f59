// Package normalizer turns a catalog snapshot into resource rows with derived
// presentation fields, and orders and keys them.
package normalizer

import (
	"startercode/internal/config"
	"startercode/internal/logger"
	"startercode/internal/models"
)

// Processor runs validation, explosion and feature derivation.
type Processor struct {
	validator   *Validator
	transformer *Transformer
	log         *logger.Logger
}

// NewProcessor creates a new processor instance.
func NewProcessor(cfg *config.Config, log *logger.Logger) *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(cfg.Classification),
		log:         log,
	}
}

// Process returns one normalized row per resource in the snapshot, together
// with any snapshot issues found. Issues are logged but never fatal.
func (p *Processor) Process(datasets []models.Dataset) ([]*models.ResourceRow, []error) {
	issues := p.validator.Validate(datasets)
	for _, issue := range issues {
		p.log.Warn("snapshot issue", "error", issue)
	}

	rows := Explode(datasets)

	orphans := 0

	for _, row := range rows {
		p.transformer.Transform(row)

		if !row.HasDataset() {
			orphans++

			p.log.Debug("resource references unknown dataset",
				"resource", row.Resource.ID.String(), "ref", row.DatasetRef)
		}
	}

	p.log.Info("snapshot normalized", "datasets", len(datasets), "rows", len(rows), "orphans", orphans)

	return rows, issues
}
