// Package config provides configuration management for the starter-code updater.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"startercode/internal/models"
	"startercode/pkg/utils"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingProvider          = errors.New("portal.provider is required")
	ErrMissingAPIURL            = errors.New("portal.api_url is required")
	ErrMissingDatasetBaseURL    = errors.New("portal.dataset_base_url is required")
	ErrMissingRepo              = errors.New("publish.github_account and publish.repo_name are required")
	ErrInvalidPageSize          = errors.New("fetch.page_size must be at least 1")
	ErrInvalidPageInterval      = errors.New("fetch.page_interval_ms must be non-negative")
	ErrInvalidMaxAttempts       = errors.New("fetch.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("fetch.retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("fetch.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("fetch.retry.timeout_sec must be at least 1")
	ErrNoTableFormats           = errors.New("classification.table_formats must not be empty")
	ErrMissingMarkerTag         = errors.New("classification.geo_marker_tag and city_marker_tag are required")
	ErrMissingURLNeedle         = errors.New("classification.geo_url_needle is required")
	ErrNoFamilies               = errors.New("templates.families must not be empty")
	ErrDuplicateFamily          = errors.New("templates.families contains a duplicate name")
	ErrInvalidFamily            = errors.New("templates.families entries need name, extension and output_dir")
	ErrUnknownCategory          = errors.New("templates.categories names an unknown category")
	ErrMissingCategory          = errors.New("templates.categories is missing a category")
	ErrMissingTemplate          = errors.New("category has no template for family")
	ErrMultipleStructured       = errors.New("at most one template family may be structured")
	ErrMissingWorkDir           = errors.New("output.work_dir is required")
	ErrInvalidTitleMaxChars     = errors.New("overview.title_max_chars must be at least 1")
	ErrInvalidAnnotateRate      = errors.New("annotate.rate_limit must be positive")
	ErrMissingAnnotateURL       = errors.New("annotate.api_url is required when annotate is enabled")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'text' or 'json'")
	ErrInvalidURL               = errors.New("must be an absolute http(s) URL")
)

// Config represents the complete updater configuration.
type Config struct {
	Portal         PortalConfig         `yaml:"portal"`
	Publish        PublishConfig        `yaml:"publish"`
	Fetch          FetchConfig          `yaml:"fetch"`
	Classification ClassificationConfig `yaml:"classification"`
	Templates      TemplatesConfig      `yaml:"templates"`
	Output         OutputConfig         `yaml:"output"`
	Overview       OverviewConfig       `yaml:"overview"`
	Annotate       AnnotateConfig       `yaml:"annotate"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// PortalConfig describes the open-data portal the catalog comes from.
type PortalConfig struct {
	Provider       string `yaml:"provider"`
	ProviderLink   string `yaml:"provider_link"`
	DatasetBaseURL string `yaml:"dataset_base_url"`
	APIURL         string `yaml:"api_url"`
	// RemarksField names the portal-specific free-text remarks field.
	RemarksField string `yaml:"remarks_field"`
}

// PublishConfig identifies where the rendered tree is published and launched from.
type PublishConfig struct {
	GitHubAccount    string `yaml:"github_account"`
	RepoName         string `yaml:"repo_name"`
	Branch           string `yaml:"branch"`
	RenkuNamespace   string `yaml:"renku_namespace"`
	RenkuProjectSlug string `yaml:"renku_project_slug"`
	RenkuSessionID   string `yaml:"renku_session_id"`
}

// FetchConfig controls catalog retrieval.
type FetchConfig struct {
	PageSize       int         `yaml:"page_size"`
	PageIntervalMs int         `yaml:"page_interval_ms"`
	BufferSizeKb   int         `yaml:"buffer_size_kb"`
	Retry          RetryPolicy `yaml:"retry"`
	// Snapshot, when set, is read instead of calling the catalog API.
	Snapshot string `yaml:"snapshot"`
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// ClassificationConfig holds the inputs to the format classifier and the
// feature normalizer.
type ClassificationConfig struct {
	TableFormats     []string `yaml:"table_formats"`
	GeoMarkerTag     string   `yaml:"geo_marker_tag"`
	CityMarkerTag    string   `yaml:"city_marker_tag"`
	GeoURLNeedle     string   `yaml:"geo_url_needle"`
	KeywordSeparator string   `yaml:"keyword_separator"`
	MetadataKeys     []string `yaml:"metadata_keys"`
	ResourceKeys     []string `yaml:"resource_keys"`
}

// FamilyConfig is one template family, e.g. Python notebooks.
type FamilyConfig struct {
	Name       string `yaml:"name"`
	Extension  string `yaml:"extension"`
	OutputDir  string `yaml:"output_dir"`
	Structured bool   `yaml:"structured"`
}

// CategoryTemplates maps a category to one template file per family.
type CategoryTemplates struct {
	Templates map[string]string `yaml:"templates"`
	Subdir    string            `yaml:"subdir"`
}

// TemplatesConfig locates the templates.
type TemplatesConfig struct {
	// Dir is the template directory; empty uses the built-in templates.
	Dir        string                       `yaml:"dir"`
	CodeCellID string                       `yaml:"code_cell_id"`
	Families   []FamilyConfig               `yaml:"families"`
	Categories map[string]CategoryTemplates `yaml:"categories"`
	Readme     string                       `yaml:"readme"`
	Header     string                       `yaml:"header"`
}

// OutputConfig defines where rendered files are written.
type OutputConfig struct {
	WorkDir      string `yaml:"work_dir"`
	SnapshotPath string `yaml:"snapshot_path"`
}

// OverviewConfig controls the index document.
type OverviewConfig struct {
	FileName      string `yaml:"file_name"`
	TitleMaxChars int    `yaml:"title_max_chars"`
	AlignColumns  bool   `yaml:"align_columns"`
	Sign          bool   `yaml:"sign"`
}

// AnnotateConfig controls writing launch badges back to the catalog.
type AnnotateConfig struct {
	Enabled       bool    `yaml:"enabled"`
	APIURL        string  `yaml:"api_url"`
	APIToken      string  `yaml:"api_token"`
	DryRun        bool    `yaml:"dry_run"`
	Field         string  `yaml:"field"`
	MessagePrefix string  `yaml:"message_prefix"`
	RateLimit     float64 `yaml:"rate_limit"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	ShowProgress bool   `yaml:"show_progress"`
}

// LoadConfig loads configuration from a YAML file, applies defaults and
// environment overrides, and validates the result.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyDefaults()
	cfg.MergeEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeEnv applies the CKAN_API_TOKEN and CATALOG_API_URL environment overrides.
func (c *Config) MergeEnv() {
	if token := os.Getenv("CKAN_API_TOKEN"); token != "" {
		c.Annotate.APIToken = token
	}

	if apiURL := os.Getenv("CATALOG_API_URL"); apiURL != "" {
		c.Portal.APIURL = apiURL
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Portal.Provider == "" {
		return ErrMissingProvider
	}

	if c.Portal.APIURL == "" {
		return ErrMissingAPIURL
	}

	if c.Portal.DatasetBaseURL == "" {
		return ErrMissingDatasetBaseURL
	}

	urls := utils.NewHTTPHelper()
	if !urls.IsValidURL(c.Portal.APIURL) {
		return fmt.Errorf("portal.api_url %q: %w", c.Portal.APIURL, ErrInvalidURL)
	}

	if !urls.IsValidURL(c.Portal.DatasetBaseURL) {
		return fmt.Errorf("portal.dataset_base_url %q: %w", c.Portal.DatasetBaseURL, ErrInvalidURL)
	}

	if c.Publish.GitHubAccount == "" || c.Publish.RepoName == "" {
		return ErrMissingRepo
	}

	if err := c.validateFetch(); err != nil {
		return err
	}

	if len(c.Classification.TableFormats) == 0 {
		return ErrNoTableFormats
	}

	if c.Classification.GeoMarkerTag == "" || c.Classification.CityMarkerTag == "" {
		return ErrMissingMarkerTag
	}

	if c.Classification.GeoURLNeedle == "" {
		return ErrMissingURLNeedle
	}

	if err := c.validateTemplates(); err != nil {
		return err
	}

	if c.Output.WorkDir == "" {
		return ErrMissingWorkDir
	}

	if c.Overview.TitleMaxChars < 1 {
		return ErrInvalidTitleMaxChars
	}

	if c.Annotate.Enabled {
		if c.Annotate.APIURL == "" {
			return ErrMissingAnnotateURL
		}

		if !utils.NewHTTPHelper().IsValidURL(c.Annotate.APIURL) {
			return fmt.Errorf("annotate.api_url %q: %w", c.Annotate.APIURL, ErrInvalidURL)
		}

		if c.Annotate.RateLimit <= 0 {
			return ErrInvalidAnnotateRate
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.PageSize < 1 {
		return ErrInvalidPageSize
	}

	if c.Fetch.PageIntervalMs < 0 {
		return ErrInvalidPageInterval
	}

	if c.Fetch.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Fetch.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Fetch.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Fetch.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	return nil
}

func (c *Config) validateTemplates() error {
	if len(c.Templates.Families) == 0 {
		return ErrNoFamilies
	}

	seen := make(map[string]bool, len(c.Templates.Families))
	structured := 0

	for i, fam := range c.Templates.Families {
		if fam.Name == "" || fam.Extension == "" || fam.OutputDir == "" {
			return fmt.Errorf("%w: families[%d]", ErrInvalidFamily, i)
		}

		if seen[fam.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateFamily, fam.Name)
		}

		seen[fam.Name] = true

		if fam.Structured {
			structured++
		}
	}

	if structured > 1 {
		return ErrMultipleStructured
	}

	for name := range c.Templates.Categories {
		if !models.Category(name).Valid() {
			return fmt.Errorf("%w: %s", ErrUnknownCategory, name)
		}
	}

	for _, cat := range models.Categories {
		ct, ok := c.Templates.Categories[string(cat)]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingCategory, cat)
		}

		for _, fam := range c.Templates.Families {
			if ct.Templates[fam.Name] == "" {
				return fmt.Errorf("%w: %s/%s", ErrMissingTemplate, cat, fam.Name)
			}
		}
	}

	return nil
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// PageInterval returns the minimum spacing between catalog page requests.
func (f *FetchConfig) PageInterval() time.Duration {
	return time.Duration(f.PageIntervalMs) * time.Millisecond
}

// Family returns the family with the given name.
func (c *Config) Family(name string) (FamilyConfig, bool) {
	for _, fam := range c.Templates.Families {
		if fam.Name == name {
			return fam, true
		}
	}

	return FamilyConfig{}, false
}

// OutputDir returns the output directory, relative to the work dir, for a
// family and category: {family.output_dir}/{category.subdir}.
func (c *Config) OutputDir(family string, category models.Category) string {
	fam, _ := c.Family(family)
	dir := strings.TrimSuffix(fam.OutputDir, "/")

	if sub := strings.Trim(c.Templates.Categories[string(category)].Subdir, "/"); sub != "" {
		dir += "/" + sub
	}

	return dir
}

// GitHubPage returns the GitHub Pages URL of the published repo.
func (c *Config) GitHubPage() string {
	return fmt.Sprintf("https://%s.github.io/%s/", c.Publish.GitHubAccount, c.Publish.RepoName)
}

// GitHubRepo returns the web URL of the published repo.
func (c *Config) GitHubRepo() string {
	return fmt.Sprintf("https://www.github.com/%s/%s", c.Publish.GitHubAccount, c.Publish.RepoName)
}

// AccountRepo returns "{account}/{repo}".
func (c *Config) AccountRepo() string {
	return c.Publish.GitHubAccount + "/" + c.Publish.RepoName
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Provider: %s, Families: %d, WorkDir: %s}",
		c.Portal.Provider,
		len(c.Templates.Families),
		c.Output.WorkDir,
	)
}
