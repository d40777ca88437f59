// Package annotate writes launch badges for rendered resources back to the
// catalog through the CKAN action API.
package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"startercode/internal/logger"
	"startercode/pkg/utils"
)

var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrActionFailed         = errors.New("ckan action failed")
	ErrMissingToken         = errors.New("api token is required to patch resources")
)

// Client patches catalog resources.
type Client interface {
	Patch(ctx context.Context, resourceID string, fields map[string]string) error
}

// Ensure CKANClient implements Client.
var _ Client = (*CKANClient)(nil)

// CKANClient calls the resource_patch action.
type CKANClient struct {
	httpClient *http.Client
	endpoint   string
	token      string
	logger     *logger.Logger
}

type actionResponse struct {
	Success bool `json:"success"`
	Error   *struct {
		Type    string `json:"__type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewCKANClient creates a client for the given resource_patch endpoint.
func NewCKANClient(endpoint, token string, log *logger.Logger) *CKANClient {
	return &CKANClient{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

// Patch sets fields on one resource.
func (c *CKANClient) Patch(ctx context.Context, resourceID string, fields map[string]string) (err error) {
	if c.token == "" {
		return ErrMissingToken
	}

	body := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}

	body["id"] = resourceID

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = utils.NewHTTPHelper().BuildHeaders(map[string]string{
		"Content-Type":  "application/json",
		"Authorization": c.token,
	})

	c.logger.Debug("patching resource", "resource", resourceID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var ar actionResponse
	if jsonErr := json.Unmarshal(data, &ar); jsonErr == nil && ar.Error != nil {
		return fmt.Errorf("%w: %s: %s", ErrActionFailed, ar.Error.Type, ar.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	if !ar.Success {
		return fmt.Errorf("%w: success=false", ErrActionFailed)
	}

	return nil
}
