// Package overview builds the index document that lists every rendered
// resource together with its launch links, plus the README boilerplate.
package overview

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"startercode/internal/config"
	"startercode/internal/formatter"
	"startercode/internal/models"
	"startercode/internal/render"
	"startercode/internal/validator"
	"startercode/pkg/metadata"
	"startercode/pkg/utils"
)

// Generator is written into the overview's integrity block.
const Generator = "startercode-updater"

// NoFilename fills the file column for resources without a name.
const NoFilename = "No filename provided"

// Boilerplate tokens.
const (
	TokenGitHubPage        = "GITHUB_PAGE"
	TokenGitHubRepo        = "GITHUB_REPO"
	TokenGitHubAccountRepo = "GITHUB_ACCOUNT_REPO"
	TokenProvider          = "PROVIDER"
	TokenDataPortal        = "DATA_PORTAL"
	TokenDatasetCount      = "DATASET_COUNT"
	TokenTodayDate         = "TODAY_DATE"
)

var (
	ErrUnresolvedBoilerplate = errors.New("unresolved boilerplate token")
	ErrInvalidOverview       = errors.New("overview failed validation")
)

var titleReplacer = strings.NewReplacer("[", " ", "]", " ", "|", "/", "\r\n", " ", "\n", " ", "\r", " ")

var cellReplacer = strings.NewReplacer("|", "/", "\r\n", " ", "\n", " ", "\r", " ")

// Builder assembles the overview and README documents.
type Builder struct {
	cfg       *config.Config
	templates *render.TemplateSet
	strings   *utils.StringHelper
	validator *validator.MarkdownValidator
	now       func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock fixes the time used for dates and signatures.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates an overview builder.
func NewBuilder(cfg *config.Config, templates *render.TemplateSet, opts ...Option) *Builder {
	b := &Builder{
		cfg:       cfg,
		templates: templates,
		strings:   utils.NewStringHelper(),
		validator: validator.NewMarkdownValidator(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Columns returns the overview table header.
func (b *Builder) Columns() []string {
	return []string{
		fmt.Sprintf("Title (abbreviated to %d chars)", b.cfg.Overview.TitleMaxChars),
		"Python Colab",
		"Python Renku",
		"Python GitHub",
		"R GitHub",
		"SQL Workbench",
		"File",
	}
}

// CleanTitle makes a dataset title safe for a link label inside a table
// cell and truncates it.
func (b *Builder) CleanTitle(title string) string {
	return b.strings.TruncateString(titleReplacer.Replace(title), b.cfg.Overview.TitleMaxChars)
}

// Row returns the table cells for one rendered row.
func (b *Builder) Row(rr *models.RenderedRow) []string {
	links := NewLinks(b.cfg, rr)
	colab, renku, pyGitHub, rGitHub, sql := links.Markdown()

	title := fmt.Sprintf("[%s](%s)", b.CleanTitle(rr.Row.DatasetField("title").String()), links.Dataset)

	file := NoFilename
	if name := strings.TrimSpace(cellReplacer.Replace(rr.Row.Resource.Name.Value)); name != "" {
		file = name
	}

	return []string{title, colab, renku, pyGitHub, rGitHub, sql, file}
}

// Table renders the overview table, one line per rendered row in input order.
func (b *Builder) Table(rows []*models.RenderedRow) string {
	var sb strings.Builder

	writeRow(&sb, b.Columns())

	sep := make([]string, len(b.Columns()))
	for i := range sep {
		sep[i] = ":--"
	}

	writeRow(&sb, sep)

	for _, rr := range rows {
		writeRow(&sb, b.Row(rr))
	}

	return sb.String()
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("| ")
	sb.WriteString(strings.Join(cells, " | "))
	sb.WriteString(" |\n")
}

// Build assembles the overview: header boilerplate followed by the table.
// The table is aligned and signed when configured.
func (b *Builder) Build(rows []*models.RenderedRow) (*models.OverviewDocument, error) {
	header, err := b.boilerplate(b.cfg.Templates.Header, len(rows))
	if err != nil {
		return nil, err
	}

	content := strings.TrimRight(header, "\n") + "\n\n" + b.Table(rows)

	if b.cfg.Overview.AlignColumns {
		content = formatter.FormatMarkdown(content)
	}

	result := b.validator.ValidateOverview(content, len(rows))
	if !result.IsValid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOverview, result.Errors[0].Message)
	}

	if b.cfg.Overview.Sign {
		content = metadata.Sign(content, metadata.Options{
			Validated: result.IsValid,
			Rows:      len(rows),
			Generator: Generator,
			Now:       b.now(),
		})
	}

	return &models.OverviewDocument{
		Path:    b.cfg.Overview.FileName,
		Content: content,
		Rows:    len(rows),
	}, nil
}

// Readme renders the README boilerplate for count rendered rows.
func (b *Builder) Readme(count int) (string, error) {
	return b.boilerplate(b.cfg.Templates.Readme, count)
}

func (b *Builder) boilerplate(name string, count int) (string, error) {
	text, err := b.templates.Get(name)
	if err != nil {
		return "", err
	}

	out, unresolved := render.Substitute(text, b.values(count))
	if len(unresolved) > 0 {
		return "", fmt.Errorf("%w in %s: %s", ErrUnresolvedBoilerplate, name, strings.Join(unresolved, ", "))
	}

	return out, nil
}

func (b *Builder) values(count int) map[string]string {
	return map[string]string{
		TokenGitHubPage:        b.cfg.GitHubPage(),
		TokenGitHubRepo:        b.cfg.GitHubRepo(),
		TokenGitHubAccountRepo: b.cfg.AccountRepo(),
		TokenProvider:          b.cfg.Portal.Provider,
		TokenDataPortal:        b.cfg.Portal.ProviderLink,
		TokenDatasetCount:      strconv.Itoa(count),
		TokenTodayDate:         b.now().Format("2006-01-02 15:04:05"),
	}
}
