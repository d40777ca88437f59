// Package catalog retrieves snapshots of the open-data catalog.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"startercode/internal/models"
)

// Catalog errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrRequestFailed        = errors.New("catalog reported failure")
	ErrEmptySnapshot        = errors.New("snapshot file is empty")
)

// Source yields one complete catalog snapshot.
type Source interface {
	Fetch(ctx context.Context) ([]models.Dataset, error)
}

// envelope is the CKAN action API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

func (e *apiError) String() string {
	if e == nil {
		return "no error details"
	}

	if e.Type != "" {
		return e.Type + ": " + e.Message
	}

	return e.Message
}

// decodeDatasets accepts either a bare dataset array or a CKAN envelope.
func decodeDatasets(data []byte) ([]models.Dataset, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptySnapshot
	}

	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("failed to decode envelope: %w", err)
		}

		if !env.Success {
			return nil, fmt.Errorf("%w: %s", ErrRequestFailed, env.Error)
		}

		trimmed = env.Result
	}

	var datasets []models.Dataset
	if err := json.Unmarshal(trimmed, &datasets); err != nil {
		return nil, fmt.Errorf("failed to decode datasets: %w", err)
	}

	return datasets, nil
}

// FileSource reads a snapshot previously written by SaveSnapshot or
// downloaded from the portal.
type FileSource struct {
	Path string
}

// NewFileSource creates a source backed by a snapshot file.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Fetch reads and decodes the snapshot file.
func (f *FileSource) Fetch(ctx context.Context) ([]models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", f.Path, err)
	}

	datasets, err := decodeDatasets(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", f.Path, err)
	}

	return datasets, nil
}

// SaveSnapshot writes datasets as an indented JSON array.
func SaveSnapshot(datasets []models.Dataset, path string) error {
	data, err := json.MarshalIndent(datasets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}
