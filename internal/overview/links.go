package overview

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"startercode/internal/config"
	"startercode/internal/models"
)

// Links holds the cross-references of one overview row.
type Links struct {
	Dataset      string
	Colab        string
	Renku        string
	Binder       string
	PythonGitHub string
	RGitHub      string
	SQLWorkbench string
}

// Badge images.
const (
	colabBadge  = "https://colab.research.google.com/assets/colab-badge.svg"
	binderBadge = "https://mybinder.org/badge_logo.svg"
	renkuBadge  = "https://renkulab.io/renku-badge.svg"
	sqlBadge    = "https://img.shields.io/badge/SQL-grey?style=flat&logo=DuckDB&logoSize=auto&labelColor=grey&color=grey&link=https%3A%2F%2Fsql-workbench.com"
)

// NewLinks builds the links of a rendered row. Links to a family that was
// not rendered stay empty.
func NewLinks(cfg *config.Config, rr *models.RenderedRow) Links {
	pub := cfg.Publish
	row := rr.Row
	name := row.DatasetField("name").Value

	l := Links{Dataset: cfg.Portal.DatasetBaseURL + url.PathEscape(name)}

	if doc, ok := document(rr, config.FamilyPython); ok {
		blob := fmt.Sprintf("%s/%s/blob/%s/%s", pub.GitHubAccount, pub.RepoName, pub.Branch, doc.Path)

		l.PythonGitHub = "https://github.com/" + blob
		l.Colab = "https://githubtocolab.com/" + blob
		l.Binder = fmt.Sprintf("https://mybinder.org/v2/gh/%s/%s/%s?filepath=%s",
			pub.GitHubAccount, pub.RepoName, pub.Branch, doc.Path)

		if pub.RenkuSessionID != "" {
			l.Renku = fmt.Sprintf("https://renkulab.io/p/%s/%s/sessions/%s/start?PACKAGE_ID=%s&RESOURCE_ID=%s",
				pub.RenkuNamespace, pub.RenkuProjectSlug, pub.RenkuSessionID,
				url.QueryEscape(name), url.QueryEscape(row.Resource.ID.Value))
		}
	}

	if doc, ok := document(rr, config.FamilyRMarkdown); ok {
		l.RGitHub = fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", pub.GitHubAccount, pub.RepoName, pub.Branch, doc.Path)
	}

	format := strings.ToLower(row.Resource.Format.Value)
	if format == "csv" || format == "parquet" {
		l.SQLWorkbench = sqlWorkbenchURL(cfg, name, format, row.Resource.URL.Value)
	}

	return l
}

func document(rr *models.RenderedRow, family string) (models.RenderedDocument, bool) {
	for _, doc := range rr.Documents {
		if doc.Family == family {
			return doc, true
		}
	}

	return models.RenderedDocument{}, false
}

// workbenchEscape encodes text for a sql-workbench query fragment, where a
// literal hyphen stands for a space.
func workbenchEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "-", "%20")
}

// sqlWorkbenchURL opens the resource in sql-workbench.com with a short
// DuckDB session that loads metadata and data straight from the portal.
func sqlWorkbenchURL(cfg *config.Config, name, format, downloadURL string) string {
	metadataURL := packageShowURL(cfg.Portal.APIURL, name)

	queries := []string{
		"v0",
		"%20%20-This-is-autogenerated-code-to-analyze-(meta)-data-from-" + workbenchEscape(cfg.Portal.Provider),
		"%20%20-All-information-refers-to-the-data-set-that-can-be-found-here%3A-" + workbenchEscape(cfg.Portal.DatasetBaseURL+name),
		"%20%20-get-metadata",
		"CREATE-TABLE-metadata-AS-SELECT-*-FROM-read_json(%22" + workbenchEscape(metadataURL) + "%22)~",
		"%20%20-use-this-to-display-metadata",
		"%20%20SELECT-result.title%2C-result.notes%2C-result." + workbenchEscape(cfg.Portal.RemarksField) + "-FROM-metadata~",
		"%20%20-get-data",
		"CREATE-TABLE-data-AS-SELECT-*-FROM-read_" + format +
			"(%22https%3A%2F%2Fcors.sqlqry.run%2F%3Furl%3D" + workbenchEscape(downloadURL) + "%22)~",
		"%20%20-show-the-first-5-rows-of-the-data",
		"SELECT-*-FROM-data-LIMIT-5~",
	}

	return "https://sql-workbench.com/#queries=" + strings.Join(queries, ",")
}

// packageShowURL derives the package_show action from the catalog action URL.
func packageShowURL(apiURL, name string) string {
	u, err := url.Parse(apiURL)
	if err != nil {
		return ""
	}

	u.Path = path.Join(path.Dir(u.Path), "package_show")
	u.RawQuery = url.Values{"id": {name}}.Encode()

	return u.String()
}

// Markdown renders the links as overview table cells.
func (l Links) Markdown() (colab, renku, pyGitHub, rGitHub, sql string) {
	if l.Colab != "" {
		colab = fmt.Sprintf("[![Open In Colab](%s)](%s)", colabBadge, l.Colab)
	}

	if l.Renku != "" {
		renku = fmt.Sprintf("[![launch - renku](%s)](%s)", renkuBadge, l.Renku)
	}

	if l.PythonGitHub != "" {
		pyGitHub = fmt.Sprintf("[Python GitHub](%s)", l.PythonGitHub)
	}

	if l.RGitHub != "" {
		rGitHub = fmt.Sprintf("[R GitHub](%s)", l.RGitHub)
	}

	if l.SQLWorkbench != "" {
		sql = fmt.Sprintf("[![SQL](%s)](%s)", sqlBadge, l.SQLWorkbench)
	}

	return colab, renku, pyGitHub, rGitHub, sql
}

// ColabBadge and BinderBadge are the launch badges written back to the catalog.
func (l Links) ColabBadge() string {
	return fmt.Sprintf("[![Open In Colab](%s)](%s)", colabBadge, l.Colab)
}

// BinderBadge returns the Binder launch badge.
func (l Links) BinderBadge() string {
	return fmt.Sprintf("[![Jupyter Binder](%s)](%s)", binderBadge, l.Binder)
}
