// Package render fills the starter-code templates for each resource row.
package render

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"startercode/internal/config"
	"startercode/internal/models"
	"startercode/internal/validator"
	"startercode/pkg/utils"
)

// Renderer produces one document per template family for a row.
type Renderer struct {
	cfg       *config.Config
	templates *TemplateSet
	strings   *utils.StringHelper
	now       func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock fixes the time used for TODAY_DATE.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// NewRenderer checks that every configured template can be read.
func NewRenderer(cfg *config.Config, templates *TemplateSet, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		cfg:       cfg,
		templates: templates,
		strings:   utils.NewStringHelper(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	for _, cat := range models.Categories {
		for _, fam := range cfg.Templates.Families {
			name := cfg.Templates.Categories[string(cat)].Templates[fam.Name]
			if _, err := templates.Get(name); err != nil {
				return nil, err
			}
		}
	}

	return r, nil
}

// UnresolvedTokens reports, per template file, placeholders that rendering
// would leave behind. Rows rendered from such a template fail validation.
func (r *Renderer) UnresolvedTokens() map[string][]string {
	out := make(map[string][]string)

	for _, cat := range models.Categories {
		for _, name := range r.cfg.Templates.Categories[string(cat)].Templates {
			content, err := r.templates.Get(name)
			if err != nil {
				continue
			}

			if unresolved := Unresolved(content, DocumentTokens); len(unresolved) > 0 {
				out[name] = unresolved
			}
		}
	}

	return out
}

// Render fills every family's template for the row's category. The row
// fails as a whole if any family fails.
func (r *Renderer) Render(row *models.ResourceRow) (*models.RenderedRow, error) {
	if missing := RequiredMissing(row); len(missing) > 0 {
		return nil, &MalformedRowError{Key: row.Key, Missing: missing}
	}

	templates, ok := r.cfg.Templates.Categories[string(row.Category)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, row.Category)
	}

	out := &models.RenderedRow{Row: row}

	for _, fam := range r.cfg.Templates.Families {
		name := templates.Templates[fam.Name]

		content, err := r.renderFamily(row, fam, name)
		if err != nil {
			return nil, err
		}

		out.Documents = append(out.Documents, models.RenderedDocument{
			Key:        row.Key,
			Category:   row.Category,
			DatasetRef: row.Dataset.Name.Value,
			ResourceID: row.Resource.ID.Value,
			Family:     fam.Name,
			Template:   name,
			Path:       path.Join(r.cfg.OutputDir(fam.Name, row.Category), row.Key+fam.Extension),
			Content:    content,
		})
	}

	return out, nil
}

// RequiredMissing lists the required fields a row lacks.
func RequiredMissing(row *models.ResourceRow) []string {
	var missing []string

	if row.DatasetField("name").Empty() {
		missing = append(missing, "dataset name")
	}

	if row.DatasetField("title").Empty() {
		missing = append(missing, "dataset title")
	}

	if row.Resource.ID.Empty() {
		missing = append(missing, "resource id")
	}

	if row.Resource.URL.Empty() {
		missing = append(missing, "resource url")
	}

	return missing
}

func (r *Renderer) renderFamily(row *models.ResourceRow, fam config.FamilyConfig, name string) ([]byte, error) {
	tpl, err := r.templates.Get(name)
	if err != nil {
		return nil, &ValidationError{Key: row.Key, Family: fam.Name, Template: name, Err: err}
	}

	values := r.values(row, fam)

	if fam.Structured {
		if err := jsonEscapeValues(values); err != nil {
			return nil, &ValidationError{Key: row.Key, Family: fam.Name, Template: name, Err: err}
		}
	}

	text, unresolved := Substitute(tpl, values)
	if len(unresolved) > 0 {
		return nil, &ValidationError{
			Key:      row.Key,
			Family:   fam.Name,
			Template: name,
			Err:      fmt.Errorf("%w: %s", ErrUnresolvedToken, strings.Join(unresolved, ", ")),
		}
	}

	if !fam.Structured {
		return []byte(text), nil
	}

	content, err := r.finishNotebook(row, text)
	if err != nil {
		return nil, &ValidationError{Key: row.Key, Family: fam.Name, Template: name, Err: err}
	}

	return content, nil
}

// jsonEscapeValues encodes every value as the body of a JSON string, since
// the structured templates only place tokens inside strings.
func jsonEscapeValues(values map[string]string) error {
	for _, token := range DocumentTokens {
		v := values[token]
		if !utf8.ValidString(v) {
			return fmt.Errorf("%w: %s", validator.ErrInvalidUTF8, token)
		}

		values[token] = validator.EscapeString(v)
	}

	return nil
}

// finishNotebook parses the substituted notebook, prefixes the loader cell
// with the resource's metadata and serializes it again.
func (r *Renderer) finishNotebook(row *models.ResourceRow, text string) ([]byte, error) {
	nb, err := validator.ParseNotebook([]byte(text))
	if err != nil {
		return nil, err
	}

	if id := r.cfg.Templates.CodeCellID; id != "" {
		src, err := nb.CellSource(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMissingCodeCell, err)
		}

		if err := nb.SetCellSource(id, r.resourceComment(row)+src); err != nil {
			return nil, err
		}
	}

	return nb.Bytes()
}

// resourceComment renders the resource fields as aligned code comments.
func (r *Renderer) resourceComment(row *models.ResourceRow) string {
	var sb strings.Builder

	for _, key := range r.cfg.Classification.ResourceKeys {
		value := r.strings.NormalizeWhitespace(row.Resource.Field(key).String())
		fmt.Fprintf(&sb, "# %-25s: %s\n", r.strings.Capitalize(key), value)
	}

	return sb.String()
}

func (r *Renderer) values(row *models.ResourceRow, fam config.FamilyConfig) map[string]string {
	portal := r.cfg.Portal
	name := row.Dataset.Name.Value
	datasetURL := portal.DatasetBaseURL + name

	metadata := row.Metadata
	portalLink := fmt.Sprintf("[Direct link by **%s** for dataset](%s)", portal.Provider, datasetURL)

	if fam.Structured {
		metadata = EscapeQuotes(metadata)
		portalLink = fmt.Sprintf("[Direct link by %s for dataset](%s)\n\n%s", portal.Provider, datasetURL, row.Resource.URL.Value)
	}

	return map[string]string{
		TokenProvider:           portal.Provider,
		TokenDocumentTitle:      "Open Government Data, " + portal.Provider,
		TokenTodayDate:          r.now().Format(time.DateOnly),
		TokenDatasetTitle:       EscapeText(row.Dataset.Title.Value),
		TokenDatasetDescription: EscapeText(row.DatasetField("notes").String()),
		TokenDatasetRemarks:     EscapeText(row.DatasetField(portal.RemarksField).String()),
		TokenDatasetIdentifier:  name,
		TokenDatasetMetadata:    metadata,
		TokenPortalLink:         portalLink,
		TokenContact:            row.DatasetField("maintainer_email").String(),
		TokenFileURL:            row.Resource.URL.Value,
		TokenResourceFormat:     row.Resource.Format.String(),
		TokenResourceName:       EscapeText(row.Resource.Name.String()),
		TokenResourceFilename:   EscapeText(row.Resource.Filename.String()),
	}
}
