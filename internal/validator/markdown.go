// Package validator checks rendered documents: notebooks after substitution
// and the markdown overview table.
package validator

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"startercode/pkg/metadata"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Line    int
	Column  int
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// ValidationStats contains validation statistics.
type ValidationStats struct {
	TotalRows   int
	ValidRows   int
	InvalidRows int
	Columns     int
}

// MarkdownValidator checks the overview table.
type MarkdownValidator struct {
	titleLink *regexp.Regexp
}

// NewMarkdownValidator creates a new validator.
func NewMarkdownValidator() *MarkdownValidator {
	return &MarkdownValidator{
		titleLink: regexp.MustCompile(`^\[[^\[\]]*\]\([^()\s]+\)$`),
	}
}

// ValidateOverview checks that the first markdown table in content has a
// consistent column count and that every row starts with a title link.
// expectedRows < 0 skips the row count check.
func (v *MarkdownValidator) ValidateOverview(content string, expectedRows int) *ValidationResult {
	result := &ValidationResult{
		IsValid:  true,
		Errors:   []ValidationError{},
		Warnings: []string{},
	}

	_, clean := metadata.Extract(content)
	lines := strings.Split(clean, "\n")

	header := -1

	for i, line := range lines {
		if isTableLine(line) {
			header = i

			break
		}
	}

	if header < 0 {
		result.addError(ValidationError{Message: "no table found"})

		return result
	}

	result.Stats.Columns = len(SplitRow(lines[header]))

	if header+1 >= len(lines) || !isSeparatorRow(lines[header+1]) {
		result.addError(ValidationError{Line: header + 2, Message: "missing separator row after header"})

		return result
	}

	for i := header + 2; i < len(lines) && isTableLine(lines[i]); i++ {
		result.Stats.TotalRows++

		if errs := v.validateRow(lines[i], i+1, result.Stats.Columns); len(errs) > 0 {
			result.Stats.InvalidRows++
			for _, e := range errs {
				result.addError(e)
			}

			continue
		}

		result.Stats.ValidRows++
	}

	if expectedRows >= 0 && result.Stats.TotalRows != expectedRows {
		result.addError(ValidationError{
			Message: fmt.Sprintf("row count mismatch: got %d, expected %d", result.Stats.TotalRows, expectedRows),
		})
	}

	return result
}

// ValidateIntegrity checks the integrity of the markdown content using the metadata block.
func (v *MarkdownValidator) ValidateIntegrity(content string) *ValidationResult {
	result := &ValidationResult{
		IsValid: true,
	}

	meta, err := metadata.Verify(content)
	if err != nil {
		result.addError(ValidationError{
			Message: fmt.Sprintf("integrity check failed: %v", err),
		})

		return result
	}

	if !meta.Validation {
		result.Warnings = append(result.Warnings, "document was signed without passing validation")
	}

	result.Stats.TotalRows = meta.Rows

	return result
}

func (v *MarkdownValidator) validateRow(line string, lineNum, columns int) []ValidationError {
	var errs []ValidationError

	cells := SplitRow(line)
	if len(cells) != columns {
		errs = append(errs, ValidationError{
			Line:    lineNum,
			Column:  1,
			Message: fmt.Sprintf("expected %d columns, got %d", columns, len(cells)),
		})

		return errs
	}

	if !v.titleLink.MatchString(cells[0]) {
		errs = append(errs, ValidationError{
			Line:    lineNum,
			Column:  1,
			Field:   "title",
			Value:   truncate(cells[0], 50),
			Message: "title cell is not a single markdown link",
		})
	}

	if cells[len(cells)-1] == "" {
		errs = append(errs, ValidationError{
			Line:    lineNum,
			Column:  len(cells),
			Field:   "file",
			Message: "file cell is empty",
		})
	}

	return errs
}

// SplitRow splits a markdown table row into trimmed cells.
func SplitRow(line string) []string {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")

	parts := strings.Split(trimmed, "|")

	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}

	return cells
}

func isTableLine(line string) bool {
	trimmed := strings.TrimSpace(line)

	return len(trimmed) > 1 && strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|")
}

func isSeparatorRow(line string) bool {
	if !isTableLine(line) {
		return false
	}

	for _, cell := range SplitRow(line) {
		if strings.Trim(cell, "-: ") != "" || !strings.Contains(cell, "-") {
			return false
		}
	}

	return true
}

func (r *ValidationResult) addError(e ValidationError) {
	r.IsValid = false
	r.Errors = append(r.Errors, e)
}

func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) > maxRunes {
		return string(runes[:maxRunes]) + "..."
	}

	return s
}

// String returns string representation of validation result.
func (r *ValidationResult) String() string {
	status := "✅ VALID"
	if !r.IsValid {
		status = "❌ INVALID"
	}

	return fmt.Sprintf(
		"%s | Total: %d | Valid: %d | Invalid: %d | Warnings: %d",
		status,
		r.Stats.TotalRows,
		r.Stats.ValidRows,
		r.Stats.InvalidRows,
		len(r.Warnings),
	)
}

// PrintErrors writes validation errors in readable format.
func (r *ValidationResult) PrintErrors(w io.Writer) {
	if len(r.Errors) == 0 {
		return
	}

	fmt.Fprintln(w, "❌ Validation Errors:")

	for _, err := range r.Errors {
		if err.Line == 0 {
			fmt.Fprintf(w, "  %s\n", err.Message)

			continue
		}

		fmt.Fprintf(w, "  Line %d, Col %d", err.Line, err.Column)

		if err.Field != "" {
			fmt.Fprintf(w, " [%s]", err.Field)
		}

		fmt.Fprintf(w, ": %s\n", err.Message)

		if err.Value != "" {
			fmt.Fprintf(w, "    Found: %q\n", err.Value)
		}
	}
}

// PrintWarnings writes validation warnings.
func (r *ValidationResult) PrintWarnings(w io.Writer) {
	if len(r.Warnings) == 0 {
		return
	}

	fmt.Fprintln(w, "⚠️  Validation Warnings:")

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  %s\n", warn)
	}
}
