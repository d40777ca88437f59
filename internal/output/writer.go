// Package output persists the rendered tree under the work directory.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"startercode/internal/logger"
	"startercode/internal/models"
)

// ReadmeName is the README written next to the overview.
const ReadmeName = "README.md"

// ErrUnsafePath is returned for paths that would leave the work directory.
var ErrUnsafePath = errors.New("path escapes work directory")

// Writer writes documents below a root directory. Files already written stay
// in place when a later write fails.
type Writer struct {
	root   string
	logger *logger.Logger
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string, log *logger.Logger) *Writer {
	return &Writer{root: dir, logger: log}
}

// Root returns the work directory.
func (w *Writer) Root() string {
	return w.root
}

// WriteFile writes content to rel, creating parent directories.
func (w *Writer) WriteFile(rel string, content []byte) error {
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, rel)
	}

	target := filepath.Join(w.root, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}

	if err := os.WriteFile(target, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}

	w.logger.Debug("wrote file", "path", target, "bytes", len(content))

	return nil
}

// WriteRows writes every document of every row and returns the number of
// files written. done, if non-nil, is called once per row.
func (w *Writer) WriteRows(rows []*models.RenderedRow, done func()) (int, error) {
	written := 0

	for _, rr := range rows {
		for _, doc := range rr.Documents {
			if err := w.WriteFile(doc.Path, doc.Content); err != nil {
				return written, err
			}

			written++
		}

		if done != nil {
			done()
		}
	}

	return written, nil
}

// WriteOverview writes the overview document.
func (w *Writer) WriteOverview(doc *models.OverviewDocument) error {
	return w.WriteFile(doc.Path, []byte(doc.Content))
}

// WriteReadme writes the README.
func (w *Writer) WriteReadme(content string) error {
	return w.WriteFile(ReadmeName, []byte(content))
}
