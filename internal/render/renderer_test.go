package render

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"startercode/internal/config"
	"startercode/internal/models"
	"startercode/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedClock = func() time.Time { return time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC) }

func newRow() *models.ResourceRow {
	ds := &models.Dataset{
		Name:            models.NewText("air-quality"),
		Title:           models.NewText("Air Quality"),
		Notes:           models.NewText("Hourly values.\nMeasured at 3 stations."),
		MaintainerEmail: models.NewText("opendata@zuerich.ch"),
	}

	return &models.ResourceRow{
		Dataset: ds,
		Resource: models.Resource{
			ID:     models.NewText("r1"),
			Name:   models.NewText("Luftqualität 2024"),
			Format: models.NewText("CSV"),
			URL:    models.NewText("https://data.example.org/r1.csv"),
		},
		Metadata: "- **Publisher** `UGZ`\n",
		Category: models.CategoryTabular,
		Key:      "air-quality_r1",
	}
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()

	templates, err := LoadTemplates("")
	require.NoError(t, err)

	r, err := NewRenderer(config.Default(), templates, WithClock(fixedClock))
	require.NoError(t, err)

	return r
}

func documentByFamily(t *testing.T, rr *models.RenderedRow, family string) models.RenderedDocument {
	t.Helper()

	for _, doc := range rr.Documents {
		if doc.Family == family {
			return doc
		}
	}

	t.Fatalf("no %s document", family)

	return models.RenderedDocument{}
}

func TestBuiltinTemplatesResolve(t *testing.T) {
	assert.Empty(t, newRenderer(t).UnresolvedTokens())
}

func TestRender_Tabular(t *testing.T) {
	rr, err := newRenderer(t).Render(newRow())
	require.NoError(t, err)
	require.Len(t, rr.Documents, 2)

	py := documentByFamily(t, rr, config.FamilyPython)
	assert.Equal(t, "02_python/air-quality_r1.ipynb", py.Path)
	assert.Equal(t, "template_python.ipynb", py.Template)
	assert.NoError(t, validator.ValidateNotebook(py.Content))

	rmd := documentByFamily(t, rr, config.FamilyRMarkdown)
	assert.Equal(t, "01_r-markdown/air-quality_r1.Rmd", rmd.Path)

	text := string(rmd.Content)
	assert.Contains(t, text, `subtitle: "Air Quality"`)
	assert.Contains(t, text, `date: "2026-10-18"`)
	assert.Contains(t, text, `url <- "https://data.example.org/r1.csv"`)
	assert.Contains(t, text, "[Direct link by **OpenDataZurich** for dataset](https://data.stadt-zuerich.ch/dataset/air-quality)")
	assert.NotContains(t, text, "{{")
}

func TestRender_LoaderCellCarriesResourceMetadata(t *testing.T) {
	rr, err := newRenderer(t).Render(newRow())
	require.NoError(t, err)

	nb, err := validator.ParseNotebook(documentByFamily(t, rr, config.FamilyPython).Content)
	require.NoError(t, err)

	src, err := nb.CellSource("load-data")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(src, "# Package_id"), src)
	assert.Contains(t, src, "# Format                   : CSV\n")
	assert.Contains(t, src, "# Description              : None\n")
	assert.True(t, strings.HasSuffix(src, "df = get_dataset('https://data.example.org/r1.csv')\n"), src)
}

func TestRender_EscapesFreeText(t *testing.T) {
	row := newRow()
	row.Dataset.Title = models.NewText(`He said "hi" \ bye`)
	row.Dataset.Notes = models.NewText(`C:\data "raw"`)

	rr, err := newRenderer(t).Render(row)
	require.NoError(t, err)

	rmd := string(documentByFamily(t, rr, config.FamilyRMarkdown).Content)
	assert.Contains(t, rmd, `subtitle: "He said 'hi' | bye"`)
	assert.Contains(t, rmd, `C:|data 'raw'`)

	var nb struct {
		Cells []struct {
			Source []string `json:"source"`
		} `json:"cells"`
	}

	require.NoError(t, json.Unmarshal(documentByFamily(t, rr, config.FamilyPython).Content, &nb))
	assert.Contains(t, strings.Join(nb.Cells[0].Source, ""), "# **He said 'hi' | bye**")
}

// notebookText joins the source of every cell of a rendered notebook.
func notebookText(t *testing.T, content []byte) string {
	t.Helper()

	var nb struct {
		Cells []struct {
			Source []string `json:"source"`
		} `json:"cells"`
	}

	require.NoError(t, json.Unmarshal(content, &nb))

	var sb strings.Builder
	for _, cell := range nb.Cells {
		sb.WriteString(strings.Join(cell.Source, ""))
	}

	return sb.String()
}

func TestRender_StructuredValuesKeepJSONSpecials(t *testing.T) {
	row := newRow()
	row.Metadata = "- **Publisher** `Stadt Zuerich\\Statistik`\n"
	row.Dataset.MaintainerEmail = models.NewText(`"SSZ" <ssz@zuerich.ch>`)
	row.Resource.Format = models.NewText(`CSV"`)
	row.Resource.URL = models.NewText(`https://x.org/a\b.csv`)

	rr, err := newRenderer(t).Render(row)
	require.NoError(t, err)

	py := documentByFamily(t, rr, config.FamilyPython)
	require.NoError(t, validator.ValidateNotebook(py.Content))

	text := notebookText(t, py.Content)
	assert.Contains(t, text, "`Stadt Zuerich\\Statistik`")
	assert.Contains(t, text, `Contact "SSZ" <ssz@zuerich.ch>.`)
	assert.Contains(t, text, "(`CSV\"`, file")
	assert.Contains(t, text, `df = get_dataset('https://x.org/a\b.csv')`)
	assert.Contains(t, text, "for dataset](https://data.stadt-zuerich.ch/dataset/air-quality)\n\nhttps://x.org/a\\b.csv")
	assert.NotContains(t, text, "\b", "no backspace from a decoded \\b escape")

	rmd := string(documentByFamily(t, rr, config.FamilyRMarkdown).Content)
	assert.Contains(t, rmd, `url <- "https://x.org/a\b.csv"`)
}

func TestRender_InvalidUTF8(t *testing.T) {
	row := newRow()
	row.Dataset.MaintainerEmail = models.NewText("Z\xfcrich@example.org")

	_, err := newRenderer(t).Render(row)
	require.ErrorIs(t, err, ErrRenderValidation)
	assert.ErrorIs(t, err, validator.ErrInvalidUTF8)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, config.FamilyPython, verr.Family)
	assert.Contains(t, err.Error(), TokenContact)
}

func TestRender_AbsentValuesRenderNone(t *testing.T) {
	row := newRow()
	row.Dataset.MaintainerEmail = models.Text{}

	rr, err := newRenderer(t).Render(row)
	require.NoError(t, err)

	rmd := string(documentByFamily(t, rr, config.FamilyRMarkdown).Content)
	assert.Contains(t, rmd, "### Remarks\n\nNone\n")
	assert.Contains(t, rmd, "Contact None.")
	assert.Contains(t, rmd, "file `None`")
}

func TestRender_RemarksFromExtras(t *testing.T) {
	row := newRow()
	row.Dataset.Extras = map[string]models.Text{"sszBemerkungen": models.NewText("Provisional \"2024\" data")}

	rr, err := newRenderer(t).Render(row)
	require.NoError(t, err)

	assert.Contains(t, string(documentByFamily(t, rr, config.FamilyRMarkdown).Content), "Provisional '2024' data")
}

func TestRender_MalformedRow(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.ResourceRow)
		missing string
	}{
		{"no url", func(r *models.ResourceRow) { r.Resource.URL = models.Text{} }, "resource url"},
		{"no id", func(r *models.ResourceRow) { r.Resource.ID = models.NewText("") }, "resource id"},
		{"no title", func(r *models.ResourceRow) { r.Dataset.Title = models.Text{} }, "dataset title"},
		{"no dataset", func(r *models.ResourceRow) { r.Dataset = nil }, "dataset name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := newRow()
			tt.mutate(row)

			_, err := newRenderer(t).Render(row)
			require.ErrorIs(t, err, ErrMalformedRow)

			var malformed *MalformedRowError
			require.True(t, errors.As(err, &malformed))
			assert.Contains(t, malformed.Missing, tt.missing)
		})
	}
}

func customRenderer(t *testing.T, python string) *Renderer {
	t.Helper()

	fsys := fstest.MapFS{
		"template_python.ipynb":      {Data: []byte(python)},
		"template_python_geo.ipynb":  {Data: []byte(python)},
		"template_rmarkdown.Rmd":     {Data: []byte("{{ DATASET_TITLE }}")},
		"template_rmarkdown_geo.Rmd": {Data: []byte("{{ DATASET_TITLE }}")},
	}

	r, err := NewRenderer(config.Default(), NewTemplateSet(fsys), WithClock(fixedClock))
	require.NoError(t, err)

	return r
}

func TestRender_StructuredParseFailure(t *testing.T) {
	// The identifier is substituted outside of a string, which breaks the JSON.
	r := customRenderer(t, `{"cells": [{"id": "load-data", "source": []}], "name": {{ DATASET_IDENTIFIER }}}`)

	_, err := r.Render(newRow())
	require.ErrorIs(t, err, ErrRenderValidation)
	assert.ErrorIs(t, err, validator.ErrInvalidJSON)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, config.FamilyPython, verr.Family)
}

func TestRender_MissingCodeCell(t *testing.T) {
	r := customRenderer(t, `{"cells": [{"id": "other", "source": []}]}`)

	_, err := r.Render(newRow())
	require.ErrorIs(t, err, ErrRenderValidation)
	assert.ErrorIs(t, err, ErrMissingCodeCell)
}

func TestRender_UnresolvedToken(t *testing.T) {
	r := customRenderer(t, `{"cells": [{"id": "load-data", "source": ["{{ DATASET_OWNER }}"]}]}`)

	assert.Equal(t, map[string][]string{
		"template_python.ipynb":     {"{{ DATASET_OWNER }}"},
		"template_python_geo.ipynb": {"{{ DATASET_OWNER }}"},
	}, r.UnresolvedTokens())

	_, err := r.Render(newRow())
	require.ErrorIs(t, err, ErrUnresolvedToken)
	assert.ErrorIs(t, err, ErrRenderValidation)
}

func TestRender_Idempotent(t *testing.T) {
	r := newRenderer(t)

	first, err := r.Render(newRow())
	require.NoError(t, err)

	second, err := r.Render(newRow())
	require.NoError(t, err)

	for i := range first.Documents {
		assert.Equal(t, first.Documents[i].Content, second.Documents[i].Content)
	}
}

func TestNewRenderer_MissingTemplate(t *testing.T) {
	_, err := NewRenderer(config.Default(), NewTemplateSet(fstest.MapFS{}))
	require.Error(t, err)
}
