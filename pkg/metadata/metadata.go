// Package metadata provides an integrity block for generated markdown documents.
//
// The block is an HTML comment appended to the end of the document, so it does
// not show up when the markdown is rendered:
//
//	<!-- METADATA_START
//	VALIDATION: TRUE
//	ROWS: 412
//	GENERATOR: startercode
//	LAST_MODIFY: 2026-10-18T00:00:00Z
//	HASH: 3b1f...
//	METADATA_END -->
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// TagStart is the start of the metadata block.
	TagStart = "<!-- METADATA_START"
	// TagEnd is the end of the metadata block.
	TagEnd = "METADATA_END -->"
)

// Metadata verification errors.
var (
	ErrNoMetadataBlock = errors.New("no metadata block found")
	ErrNoHashFound     = errors.New("no hash found in metadata")
	ErrHashMismatch    = errors.New("hash mismatch")
)

// Metadata contains the document status information.
type Metadata struct {
	LastModify time.Time
	Generator  string
	Hash       string
	Rows       int
	Validation bool
}

// Options controls what Sign writes into the block.
type Options struct {
	Validated bool
	Rows      int
	Generator string
	// Now is the signing time; zero means time.Now.
	Now time.Time
}

var metadataRegex = regexp.MustCompile(`(?s)\n*<!--\s*METADATA_START\s*\n(.*?)\n\s*METADATA_END\s*-->\n?`)

// Extract removes the metadata block from content and returns both the
// metadata and the cleaned content. The cleaned content is what gets hashed.
func Extract(content string) (*Metadata, string) {
	match := metadataRegex.FindStringSubmatch(content)
	cleanContent := metadataRegex.ReplaceAllString(content, "")
	cleanContent = strings.TrimRight(cleanContent, "\n")

	if len(match) < 2 {
		return nil, cleanContent
	}

	meta := &Metadata{}

	for _, line := range strings.Split(match[1], "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		switch key {
		case "VALIDATION":
			meta.Validation = strings.EqualFold(val, "TRUE")
		case "ROWS":
			if n, err := strconv.Atoi(val); err == nil {
				meta.Rows = n
			}
		case "GENERATOR":
			meta.Generator = val
		case "LAST_MODIFY":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				meta.LastModify = t
			}
		case "HASH":
			meta.Hash = val
		}
	}

	return meta, cleanContent
}

// CalculateHash computes the SHA-256 hash of the content (excluding metadata).
func CalculateHash(content string) string {
	_, clean := Extract(content)
	hash := sha256.Sum256([]byte(clean))

	return hex.EncodeToString(hash[:])
}

// Sign replaces any existing metadata block with a fresh one.
func Sign(content string, opts Options) string {
	_, clean := Extract(content)

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	valStr := "FALSE"
	if opts.Validated {
		valStr = "TRUE"
	}

	var sb strings.Builder

	sb.WriteString(clean)
	sb.WriteString("\n\n")
	sb.WriteString(TagStart + "\n")
	fmt.Fprintf(&sb, "VALIDATION: %s\n", valStr)
	fmt.Fprintf(&sb, "ROWS: %d\n", opts.Rows)

	if opts.Generator != "" {
		fmt.Fprintf(&sb, "GENERATOR: %s\n", opts.Generator)
	}

	fmt.Fprintf(&sb, "LAST_MODIFY: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "HASH: %s\n", CalculateHash(clean))
	sb.WriteString(TagEnd + "\n")

	return sb.String()
}

// Verify checks if the content matches the hash in its metadata.
func Verify(content string) (*Metadata, error) {
	meta, clean := Extract(content)
	if meta == nil {
		return nil, ErrNoMetadataBlock
	}

	if meta.Hash == "" {
		return meta, ErrNoHashFound
	}

	calculated := CalculateHash(clean)
	if calculated != meta.Hash {
		return meta, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, meta.Hash, calculated)
	}

	return meta, nil
}
