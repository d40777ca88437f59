package config

import "startercode/internal/models"

// Family names of the built-in templates.
const (
	FamilyPython    = "python"
	FamilyRMarkdown = "rmarkdown"
)

// DefaultRenkuSessionID is the launcher of the published Renku project.
const DefaultRenkuSessionID = "01JZT3TY89P6YRMMJXV9PEDQZW"

// Default returns the configuration for the Zurich open-data portal.
func Default() *Config {
	cfg := &Config{
		Annotate: AnnotateConfig{DryRun: true},
	}
	cfg.ApplyDefaults()

	return cfg
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	c.applyPortalDefaults()
	c.applyFetchDefaults()
	c.applyClassificationDefaults()
	c.applyTemplateDefaults()

	if c.Output.WorkDir == "" {
		c.Output.WorkDir = "_work"
	}

	if c.Overview.FileName == "" {
		c.Overview.FileName = "index.md"
	}

	if c.Overview.TitleMaxChars == 0 {
		c.Overview.TitleMaxChars = 200
	}

	if c.Annotate.APIURL == "" {
		c.Annotate.APIURL = "https://data.stadt-zuerich.ch/api/3/action/resource_patch"
	}

	if c.Annotate.Field == "" {
		c.Annotate.Field = "description"
	}

	if c.Annotate.MessagePrefix == "" {
		c.Annotate.MessagePrefix = "Datensatz direkt online analysieren mit"
	}

	if c.Annotate.RateLimit == 0 {
		c.Annotate.RateLimit = 1.0
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) applyPortalDefaults() {
	if c.Portal.Provider == "" {
		c.Portal.Provider = "OpenDataZurich"
	}

	if c.Portal.ProviderLink == "" {
		c.Portal.ProviderLink = "https://data.stadt-zuerich.ch/"
	}

	if c.Portal.DatasetBaseURL == "" {
		c.Portal.DatasetBaseURL = "https://data.stadt-zuerich.ch/dataset/"
	}

	if c.Portal.APIURL == "" {
		c.Portal.APIURL = "https://data.stadt-zuerich.ch/api/3/action/current_package_list_with_resources"
	}

	if c.Portal.RemarksField == "" {
		c.Portal.RemarksField = "sszBemerkungen"
	}

	if c.Publish.GitHubAccount == "" {
		c.Publish.GitHubAccount = "opendatazurich"
	}

	if c.Publish.RepoName == "" {
		c.Publish.RepoName = "starter-code"
	}

	if c.Publish.Branch == "" {
		c.Publish.Branch = "main"
	}

	if c.Publish.RenkuNamespace == "" {
		c.Publish.RenkuNamespace = "opendatazurich"
	}

	if c.Publish.RenkuProjectSlug == "" {
		c.Publish.RenkuProjectSlug = "starter-code"
	}

	if c.Publish.RenkuSessionID == "" {
		c.Publish.RenkuSessionID = DefaultRenkuSessionID
	}
}

func (c *Config) applyFetchDefaults() {
	if c.Fetch.PageSize == 0 {
		c.Fetch.PageSize = 500
	}

	if c.Fetch.PageIntervalMs == 0 {
		c.Fetch.PageIntervalMs = 2000
	}

	if c.Fetch.BufferSizeKb == 0 {
		c.Fetch.BufferSizeKb = 256 * 1024
	}

	r := &c.Fetch.Retry
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 3
	}

	if r.InitialDelayMs == 0 {
		r.InitialDelayMs = 500
	}

	if r.MaxDelayMs == 0 {
		r.MaxDelayMs = 30000
	}

	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}

	if r.TimeoutSec == 0 {
		r.TimeoutSec = 60
	}
}

func (c *Config) applyClassificationDefaults() {
	cl := &c.Classification
	if len(cl.TableFormats) == 0 {
		cl.TableFormats = []string{"csv", "parquet"}
	}

	if cl.GeoMarkerTag == "" {
		cl.GeoMarkerTag = "geodaten"
	}

	if cl.CityMarkerTag == "" {
		cl.CityMarkerTag = "stzh"
	}

	if cl.GeoURLNeedle == "" {
		cl.GeoURLNeedle = "geojson"
	}

	if cl.KeywordSeparator == "" {
		cl.KeywordSeparator = ","
	}

	if len(cl.MetadataKeys) == 0 {
		cl.MetadataKeys = []string{
			"publisher",
			"maintainer",
			"maintainer_email",
			"keywords",
			"tags",
			"metadata_created",
			"metadata_modified",
		}
	}

	if len(cl.ResourceKeys) == 0 {
		cl.ResourceKeys = []string{"package_id", "description", "format", "resource_type", "name", "url"}
	}
}

func (c *Config) applyTemplateDefaults() {
	t := &c.Templates
	if t.CodeCellID == "" {
		t.CodeCellID = "load-data"
	}

	if len(t.Families) == 0 {
		t.Families = []FamilyConfig{
			{Name: FamilyPython, Extension: ".ipynb", OutputDir: "02_python", Structured: true},
			{Name: FamilyRMarkdown, Extension: ".Rmd", OutputDir: "01_r-markdown"},
		}
	}

	if t.Categories == nil {
		t.Categories = map[string]CategoryTemplates{
			string(models.CategoryTabular): {Templates: map[string]string{
				FamilyPython:    "template_python.ipynb",
				FamilyRMarkdown: "template_rmarkdown.Rmd",
			}},
			string(models.CategoryGeospatial): {Templates: map[string]string{
				FamilyPython:    "template_python_geo.ipynb",
				FamilyRMarkdown: "template_rmarkdown_geo.Rmd",
			}},
		}
	}

	if t.Readme == "" {
		t.Readme = "template_md_readme.md"
	}

	if t.Header == "" {
		t.Header = "template_md_header.md"
	}
}
