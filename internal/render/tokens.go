package render

import "strings"

// Placeholder names understood by the starter-code templates.
const (
	TokenProvider           = "PROVIDER"
	TokenDocumentTitle      = "DOCUMENT_TITLE"
	TokenTodayDate          = "TODAY_DATE"
	TokenDatasetTitle       = "DATASET_TITLE"
	TokenDatasetDescription = "DATASET_DESCRIPTION"
	TokenDatasetRemarks     = "DATASET_REMARKS"
	TokenDatasetIdentifier  = "DATASET_IDENTIFIER"
	TokenDatasetMetadata    = "DATASET_METADATA"
	TokenPortalLink         = "PORTAL_LINK"
	TokenContact            = "CONTACT"
	TokenFileURL            = "FILE_URL"
	TokenResourceFormat     = "RESOURCE_FORMAT"
	TokenResourceName       = "RESOURCE_NAME"
	TokenResourceFilename   = "RESOURCE_FILENAME"
)

// DocumentTokens is the fixed placeholder set of per-resource templates.
var DocumentTokens = []string{
	TokenProvider,
	TokenDocumentTitle,
	TokenTodayDate,
	TokenDatasetTitle,
	TokenDatasetDescription,
	TokenDatasetRemarks,
	TokenDatasetIdentifier,
	TokenDatasetMetadata,
	TokenPortalLink,
	TokenContact,
	TokenFileURL,
	TokenResourceFormat,
	TokenResourceName,
	TokenResourceFilename,
}

var (
	quoteReplacer     = strings.NewReplacer(`"`, `'`)
	backslashReplacer = strings.NewReplacer(`\`, `|`)
)

// EscapeText makes free text safe for quoted and structured templates:
// double quotes become single quotes, then backslashes become pipes.
func EscapeText(s string) string {
	return backslashReplacer.Replace(quoteReplacer.Replace(s))
}

// EscapeQuotes only replaces double quotes.
func EscapeQuotes(s string) string {
	return quoteReplacer.Replace(s)
}
