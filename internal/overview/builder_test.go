package overview

import (
	"strings"
	"testing"
	"time"

	"startercode/internal/config"
	"startercode/internal/models"
	"startercode/internal/render"
	"startercode/internal/validator"
	"startercode/pkg/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedClock = func() time.Time { return time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC) }

func renderedRow(name, title, resourceID, resourceName, format string) *models.RenderedRow {
	key := name + "_" + resourceID

	return &models.RenderedRow{
		Row: &models.ResourceRow{
			Dataset: &models.Dataset{
				Name:  models.NewText(name),
				Title: models.NewText(title),
			},
			Resource: models.Resource{
				ID:     models.NewText(resourceID),
				Name:   models.NewText(resourceName),
				Format: models.NewText(format),
				URL:    models.NewText("https://data.stadt-zuerich.ch/dataset/" + name + "/download/" + resourceID + ".csv"),
			},
			Category: models.CategoryTabular,
			Key:      key,
		},
		Documents: []models.RenderedDocument{
			{Key: key, Family: config.FamilyRMarkdown, Path: "01_r-markdown/" + key + ".Rmd"},
			{Key: key, Family: config.FamilyPython, Path: "02_python/" + key + ".ipynb"},
		},
	}
}

func newBuilder(t *testing.T, mutate func(*config.Config)) *Builder {
	t.Helper()

	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	templates, err := render.LoadTemplates("")
	require.NoError(t, err)

	return NewBuilder(cfg, templates, WithClock(fixedClock))
}

func TestCleanTitle(t *testing.T) {
	b := newBuilder(t, func(c *config.Config) { c.Overview.TitleMaxChars = 10 })

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"short", "Air", "Air"},
		{"exactly max", "0123456789", "0123456789"},
		{"over max", "0123456789A", "0123456789…"},
		{"brackets", "[a]b", " a b"},
		{"pipe and newline", "a|b\nc", "a/b c"},
		{"runes not bytes", "äöüäöüäöüä", "äöüäöüäöüä"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.CleanTitle(tt.title))
		})
	}
}

func TestRow_Links(t *testing.T) {
	b := newBuilder(t, func(c *config.Config) { c.Publish.RenkuSessionID = "S1" })

	cells := b.Row(renderedRow("air-quality", "Air Quality", "r1", "Luft 2024", "CSV"))
	require.Len(t, cells, 7)

	assert.Equal(t, "[Air Quality](https://data.stadt-zuerich.ch/dataset/air-quality)", cells[0])
	assert.Equal(t,
		"[![Open In Colab](https://colab.research.google.com/assets/colab-badge.svg)](https://githubtocolab.com/opendatazurich/starter-code/blob/main/02_python/air-quality_r1.ipynb)",
		cells[1])
	assert.Equal(t,
		"[![launch - renku](https://renkulab.io/renku-badge.svg)](https://renkulab.io/p/opendatazurich/starter-code/sessions/S1/start?PACKAGE_ID=air-quality&RESOURCE_ID=r1)",
		cells[2])
	assert.Equal(t, "[Python GitHub](https://github.com/opendatazurich/starter-code/blob/main/02_python/air-quality_r1.ipynb)", cells[3])
	assert.Equal(t, "[R GitHub](https://github.com/opendatazurich/starter-code/blob/main/01_r-markdown/air-quality_r1.Rmd)", cells[4])
	assert.True(t, strings.HasPrefix(cells[5], "[![SQL]("), cells[5])
	assert.Contains(t, cells[5], "read_csv(")
	assert.NotContains(t, cells[5], "|")
	assert.Equal(t, "Luft 2024", cells[6])
}

func TestRow_DefaultRenkuSession(t *testing.T) {
	b := newBuilder(t, nil)

	cells := b.Row(renderedRow("air-quality", "Luft", "r1", "", "CSV"))

	assert.Contains(t, cells[2], "/sessions/"+config.DefaultRenkuSessionID+"/start?PACKAGE_ID=air-quality&RESOURCE_ID=r1")
}

func TestRow_OptionalCells(t *testing.T) {
	b := newBuilder(t, func(c *config.Config) { c.Publish.RenkuSessionID = "" })

	rr := renderedRow("roads", "Roads", "g1", "", "GeoJSON")
	rr.Documents = rr.Documents[:1]

	cells := b.Row(rr)

	assert.Empty(t, cells[1], "no python document, no colab link")
	assert.Empty(t, cells[2], "no renku session configured")
	assert.Empty(t, cells[3])
	assert.NotEmpty(t, cells[4])
	assert.Empty(t, cells[5], "sql workbench is only offered for csv and parquet")
	assert.Equal(t, NoFilename, cells[6])
}

func TestLinks_Badges(t *testing.T) {
	cfg := config.Default()
	links := NewLinks(cfg, renderedRow("air-quality", "Air Quality", "r1", "x", "csv"))

	assert.Equal(t,
		"[![Jupyter Binder](https://mybinder.org/badge_logo.svg)](https://mybinder.org/v2/gh/opendatazurich/starter-code/main?filepath=02_python/air-quality_r1.ipynb)",
		links.BinderBadge())
	assert.Contains(t, links.ColabBadge(), "githubtocolab.com")
}

func TestPackageShowURL(t *testing.T) {
	got := packageShowURL("https://data.stadt-zuerich.ch/api/3/action/current_package_list_with_resources", "air-quality")
	assert.Equal(t, "https://data.stadt-zuerich.ch/api/3/action/package_show?id=air-quality", got)
}

func TestBuild(t *testing.T) {
	b := newBuilder(t, func(c *config.Config) {
		c.Overview.AlignColumns = true
		c.Overview.Sign = true
	})

	rows := []*models.RenderedRow{
		renderedRow("air-quality", "Air Quality", "r1", "Luft 2024", "CSV"),
		renderedRow("bikes", `Bikes | "Velo"`, "r9", "Zählung", "parquet"),
	}

	doc, err := b.Build(rows)
	require.NoError(t, err)

	assert.Equal(t, "index.md", doc.Path)
	assert.Equal(t, 2, doc.Rows)
	assert.Contains(t, doc.Content, "Launch ready-made code for 2 resources")
	assert.Contains(t, doc.Content, "*Updated 2026-10-18 08:00:00*")

	result := validator.NewMarkdownValidator().ValidateOverview(doc.Content, 2)
	assert.True(t, result.IsValid, result.String())
	assert.Equal(t, 7, result.Stats.Columns)

	meta, err := metadata.Verify(doc.Content)
	require.NoError(t, err)
	assert.True(t, meta.Validation)
	assert.Equal(t, 2, meta.Rows)
}

func TestBuild_Idempotent(t *testing.T) {
	b := newBuilder(t, func(c *config.Config) { c.Overview.Sign = true })
	rows := []*models.RenderedRow{renderedRow("air-quality", "Air Quality", "r1", "Luft", "CSV")}

	first, err := b.Build(rows)
	require.NoError(t, err)

	second, err := b.Build(rows)
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content)
}

func TestBuild_Unaligned(t *testing.T) {
	b := newBuilder(t, nil)

	doc, err := b.Build(nil)
	require.NoError(t, err)

	assert.Contains(t, doc.Content, "| Title (abbreviated to 200 chars) | Python Colab | Python Renku | Python GitHub | R GitHub | SQL Workbench | File |\n")
	assert.Contains(t, doc.Content, "| :-- | :-- | :-- | :-- | :-- | :-- | :-- |\n")
	assert.NotContains(t, doc.Content, metadata.TagStart)
}

func TestReadme(t *testing.T) {
	b := newBuilder(t, nil)

	readme, err := b.Readme(42)
	require.NoError(t, err)

	assert.Contains(t, readme, "42 resources")
	assert.Contains(t, readme, "[https://opendatazurich.github.io/starter-code/](https://opendatazurich.github.io/starter-code/)")
	assert.NotContains(t, readme, "{{")
}
