package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ohler55/ojg/jp"
)

// Notebook errors.
var (
	ErrInvalidJSON    = errors.New("document is not valid JSON")
	ErrNotNotebook    = errors.New("document is not a notebook")
	ErrCellNotFound   = errors.New("code cell not found")
	ErrDuplicateCell  = errors.New("code cell id is not unique")
	ErrInvalidCellID  = errors.New("invalid cell id")
	ErrInvalidCellKey = errors.New("cell is not an object")
	ErrInvalidUTF8    = errors.New("document is not valid UTF-8")
)

// Notebook is a parsed Jupyter notebook kept as generic JSON so that fields
// this package does not know about survive a round trip.
type Notebook struct {
	root map[string]any
}

// ParseNotebook decodes a notebook. Raw control characters inside JSON
// strings are tolerated, since substituted catalog text often carries
// literal newlines and tabs. Invalid UTF-8 is rejected rather than
// replaced.
func ParseNotebook(data []byte) (*Notebook, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}

	var root any
	if err := json.Unmarshal(escapeControlChars(data), &root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not an object", ErrNotNotebook)
	}

	if _, ok := obj["cells"].([]any); !ok {
		return nil, fmt.Errorf("%w: missing cells array", ErrNotNotebook)
	}

	return &Notebook{root: obj}, nil
}

// ValidateNotebook reports whether data parses as a notebook.
func ValidateNotebook(data []byte) error {
	_, err := ParseNotebook(data)

	return err
}

// Cell returns the unique cell with the given id.
func (n *Notebook) Cell(id string) (map[string]any, error) {
	if id == "" || strings.ContainsAny(id, `'\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCellID, id)
	}

	expr, err := jp.ParseString(fmt.Sprintf("$.cells[?(@.id == '%s')]", id))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCellID, err)
	}

	matches := expr.Get(n.root)

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrCellNotFound, id)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCell, id)
	}

	cell, ok := matches[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCellKey, id)
	}

	return cell, nil
}

// CellSource returns the joined source of the cell with the given id.
func (n *Notebook) CellSource(id string) (string, error) {
	cell, err := n.Cell(id)
	if err != nil {
		return "", err
	}

	switch src := cell["source"].(type) {
	case string:
		return src, nil
	case []any:
		var sb strings.Builder

		for _, line := range src {
			if s, ok := line.(string); ok {
				sb.WriteString(s)
			}
		}

		return sb.String(), nil
	}

	return "", nil
}

// SetCellSource replaces the source of the cell with the given id.
func (n *Notebook) SetCellSource(id, source string) error {
	cell, err := n.Cell(id)
	if err != nil {
		return err
	}

	cell["source"] = SplitSource(source)

	return nil
}

// Bytes serializes the notebook. Object keys come out sorted, so equal
// notebooks always produce equal bytes.
func (n *Notebook) Bytes() ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")

	if err := enc.Encode(n.root); err != nil {
		return nil, fmt.Errorf("failed to encode notebook: %w", err)
	}

	return buf.Bytes(), nil
}

// EscapeString returns s encoded as the body of a JSON string, without the
// surrounding quotes. HTML characters are kept as they are.
func EscapeString(s string) string {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)

	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	return string(out[1 : len(out)-1])
}

// SplitSource splits text into notebook source lines, each keeping its
// trailing newline.
func SplitSource(source string) []any {
	lines := strings.SplitAfter(source, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	out := make([]any, len(lines))
	for i, line := range lines {
		out[i] = line
	}

	return out
}

// escapeControlChars rewrites control characters that appear inside JSON
// strings as escape sequences. Bytes outside strings are left alone.
func escapeControlChars(data []byte) []byte {
	var (
		out      []byte
		inString bool
		escaped  bool
	)

	for i, b := range data {
		if !inString {
			if b == '"' {
				inString = true
			}

			if out != nil {
				out = append(out, b)
			}

			continue
		}

		switch {
		case escaped:
			escaped = false
		case b == '\\':
			escaped = true
		case b == '"':
			inString = false
		case b < 0x20:
			if out == nil {
				out = append(make([]byte, 0, len(data)+16), data[:i]...)
			}

			out = append(out, controlEscape(b)...)

			continue
		}

		if out != nil {
			out = append(out, b)
		}
	}

	if out == nil {
		return data
	}

	return out
}

func controlEscape(b byte) string {
	switch b {
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	}

	return fmt.Sprintf(`\u%04x`, b)
}
