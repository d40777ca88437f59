package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"startercode/internal/catalog"
	"startercode/internal/config"
	"startercode/internal/logger"
	"startercode/internal/models"
	"startercode/internal/pipeline"
	"startercode/internal/validator"
	"startercode/pkg/metadata"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedClock = func() time.Time { return time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC) }

const airQualityPage = `{"success": true, "result": [
  {"name": "air-quality", "title": "Air Quality", "tags": [],
   "resources": [
     {"id": "r1", "name": "Luft 2024", "format": "CSV", "url": "https://data.example.org/r1.csv"},
     {"id": "r2", "name": "Stations", "format": "GeoJSON", "url": "https://data.example.org/r2.geojson"}
   ]}
]}`

const cityPage = `{"success": true, "result": [
  {"name": "bike-lanes", "title": "Bike \"Lanes\"", "notes": "Path C:\\data", "tags": [{"name": "stzh"}],
   "resources": [
     {"id": "g1", "name": "Lanes", "format": "GeoJSON", "url": "https://data.example.org/wfs?format=geojson"}
   ]}
]}`

const emptyPage = `{"success": true, "result": []}`

// newCKAN serves the given pages in offset order, then empty pages.
func newCKAN(t *testing.T, pages ...string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/current_package_list_with_resources") {
			http.NotFound(w, r)

			return
		}

		offset := r.URL.Query().Get("offset")
		limit := r.URL.Query().Get("limit")
		assert.Equal(t, "1", limit)

		page := emptyPage

		switch offset {
		case "0":
			if len(pages) > 0 {
				page = pages[0]
			}
		case "1":
			if len(pages) > 1 {
				page = pages[1]
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)

	return server
}

func newConfig(t *testing.T, server *httptest.Server) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Portal.APIURL = server.URL + "/api/3/action/current_package_list_with_resources"
	cfg.Fetch.PageSize = 1
	cfg.Fetch.PageIntervalMs = 0
	cfg.Output.WorkDir = t.TempDir()
	cfg.Overview.Sign = true
	require.NoError(t, cfg.Validate())

	return cfg
}

func run(t *testing.T, cfg *config.Config, src catalog.Source) *pipeline.Result {
	t.Helper()

	p, err := pipeline.New(cfg, src, logger.Discard(), pipeline.WithClock(fixedClock))
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Write(res))

	return res
}

func TestUpdater_AirQuality(t *testing.T) {
	server := newCKAN(t, airQualityPage)
	cfg := newConfig(t, server)

	res := run(t, cfg, catalog.NewClient(cfg, logger.Discard()))

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "air-quality_r1", res.Rows[0].Row.Key)
	assert.Equal(t, models.CategoryTabular, res.Rows[0].Row.Category)
	assert.Equal(t, 0, res.Report.PerCategory[models.CategoryGeospatial])

	for _, doc := range res.Rows[0].Documents {
		assert.Equal(t, models.CategoryTabular, doc.Category)
	}

	index, err := os.ReadFile(filepath.Join(cfg.Output.WorkDir, "index.md"))
	require.NoError(t, err)

	result := validator.NewMarkdownValidator().ValidateOverview(string(index), 1)
	assert.True(t, result.IsValid, result.String())

	_, err = metadata.Verify(string(index))
	assert.NoError(t, err)
}

func TestUpdater_GeoAndEscaping(t *testing.T) {
	server := newCKAN(t, airQualityPage, cityPage)
	cfg := newConfig(t, server)

	res := run(t, cfg, catalog.NewClient(cfg, logger.Discard()))

	assert.Equal(t, 2, res.Report.Datasets)
	require.Len(t, res.Rows, 2)

	// Ordered by title: "Air Quality" < "Bike 'Lanes'".
	assert.Equal(t, "air-quality_r1", res.Rows[0].Row.Key)
	assert.Equal(t, "bike-lanes_g1", res.Rows[1].Row.Key)
	assert.Equal(t, models.CategoryGeospatial, res.Rows[1].Row.Category)

	rmd, err := os.ReadFile(filepath.Join(cfg.Output.WorkDir, "01_r-markdown", "bike-lanes_g1.Rmd"))
	require.NoError(t, err)
	assert.Contains(t, string(rmd), `subtitle: "Bike 'Lanes'"`)

	nb, err := os.ReadFile(filepath.Join(cfg.Output.WorkDir, "02_python", "bike-lanes_g1.ipynb"))
	require.NoError(t, err)
	assert.NoError(t, validator.ValidateNotebook(nb))
	assert.Contains(t, string(nb), "Path C:|data")
}

func TestUpdater_Idempotent(t *testing.T) {
	server := newCKAN(t, airQualityPage, cityPage)

	cfg1 := newConfig(t, server)
	first := run(t, cfg1, catalog.NewClient(cfg1, logger.Discard()))

	cfg2 := newConfig(t, server)
	second := run(t, cfg2, catalog.NewClient(cfg2, logger.Discard()))

	if diff := cmp.Diff(documents(first), documents(second)); diff != "" {
		t.Errorf("rendered documents differ between runs (-first +second):\n%s", diff)
	}

	if diff := cmp.Diff(first.Overview.Content, second.Overview.Content); diff != "" {
		t.Errorf("overview differs between runs (-first +second):\n%s", diff)
	}
}

func TestUpdater_SnapshotRoundTrip(t *testing.T) {
	server := newCKAN(t, airQualityPage, cityPage)
	cfg := newConfig(t, server)

	datasets, err := catalog.NewClient(cfg, logger.Discard()).Fetch(context.Background())
	require.NoError(t, err)

	snapshot := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, catalog.SaveSnapshot(datasets, snapshot))

	live := run(t, cfg, catalog.NewClient(cfg, logger.Discard()))
	offline := run(t, newConfig(t, server), catalog.NewFileSource(snapshot))

	if diff := cmp.Diff(documents(live), documents(offline)); diff != "" {
		t.Errorf("snapshot run differs from live run (-live +offline):\n%s", diff)
	}
}

func documents(res *pipeline.Result) map[string]string {
	out := make(map[string]string)

	for _, rr := range res.Rows {
		for _, doc := range rr.Documents {
			out[doc.Path] = string(doc.Content)
		}
	}

	return out
}
