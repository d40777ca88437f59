package normalizer

import (
	"errors"
	"testing"

	"startercode/internal/config"
	"startercode/internal/logger"
	"startercode/internal/models"
)

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor(config.Default(), logger.Discard())

	a := dataset("a", "r1", "r2")
	a.Author = models.NewText("Statistik")

	rows, issues := p.Process([]models.Dataset{a, dataset("b")})
	if len(issues) != 0 {
		t.Errorf("issues = %v, want none", issues)
	}

	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}

	for _, row := range rows {
		if row.Publisher.Value != "Statistik" {
			t.Errorf("Publisher = %q, want Statistik", row.Publisher)
		}

		if row.Metadata == "" {
			t.Error("Metadata block not derived")
		}
	}
}

func TestValidator_Validate(t *testing.T) {
	dup := dataset("a", "r1", "r1")
	noName := models.Dataset{Resources: []models.Resource{{}}}

	issues := NewValidator().Validate([]models.Dataset{dup, dataset("a"), noName})

	want := []error{ErrDuplicateResourceID, ErrDuplicateDatasetName, ErrDuplicateDatasetID, ErrMissingDatasetName, ErrMissingResourceID}
	if len(issues) != len(want) {
		t.Fatalf("issues = %v, want %d", issues, len(want))
	}

	for i, w := range want {
		if !errors.Is(issues[i], w) {
			t.Errorf("issues[%d] = %v, want %v", i, issues[i], w)
		}
	}
}
