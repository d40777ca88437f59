package render

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"slices"
	"strings"
)

//go:embed templates/*
var builtin embed.FS

// TemplateSet reads template files from a directory or the built-in set.
type TemplateSet struct {
	fsys  fs.FS
	cache map[string]string
}

// LoadTemplates opens dir, or the built-in templates when dir is empty.
func LoadTemplates(dir string) (*TemplateSet, error) {
	if dir == "" {
		sub, err := fs.Sub(builtin, "templates")
		if err != nil {
			return nil, fmt.Errorf("built-in templates: %w", err)
		}

		return NewTemplateSet(sub), nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("template dir: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("template dir %s is not a directory", dir)
	}

	return NewTemplateSet(os.DirFS(dir)), nil
}

// NewTemplateSet wraps any file system, e.g. fstest.MapFS in tests.
func NewTemplateSet(fsys fs.FS) *TemplateSet {
	return &TemplateSet{fsys: fsys, cache: make(map[string]string)}
}

// Get returns the content of the named template.
func (ts *TemplateSet) Get(name string) (string, error) {
	if content, ok := ts.cache[name]; ok {
		return content, nil
	}

	data, err := fs.ReadFile(ts.fsys, name)
	if err != nil {
		return "", fmt.Errorf("template %s: %w", name, err)
	}

	ts.cache[name] = string(data)

	return ts.cache[name], nil
}

// tokenPattern matches anything that looks like a placeholder, including
// misspelled or oddly spaced ones.
var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]*)\s*\}\}`)

// Placeholder returns the literal placeholder text for a token name.
func Placeholder(name string) string {
	return "{{ " + name + " }}"
}

// Unresolved lists placeholders in text that the given token names would
// not replace, sorted and without duplicates.
func Unresolved(text string, known []string) []string {
	var out []string

	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		if m[0] == Placeholder(m[1]) && slices.Contains(known, m[1]) {
			continue
		}

		out = append(out, m[0])
	}

	slices.Sort(out)

	return slices.Compact(out)
}

// Substitute replaces every known placeholder in one pass; substituted values
// are never scanned again. It also returns the placeholders left unresolved.
func Substitute(text string, values map[string]string) (string, []string) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}

	slices.Sort(names)

	unresolved := Unresolved(text, names)

	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, Placeholder(name), values[name])
	}

	return strings.NewReplacer(pairs...).Replace(text), unresolved
}
