// Package extractor provides the client for the external AI extraction
// service.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
)

// HTTPClient calls the extraction service over HTTP. The service accepts a
// document reference and returns the structured policy data it read from the
// certificate.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTP(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type extractRequest struct {
	DocumentID string `json:"document_id"`
}

type extractFailure struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (c *HTTPClient) Extract(ctx context.Context, documentID id.DocumentID) (*verification.ExtractedPolicyData, error) {
	body, err := json.Marshal(extractRequest{DocumentID: documentID.String()})
	if err != nil {
		return nil, fmt.Errorf("encode extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &verification.ExtractionError{
			Code:      "extraction_unreachable",
			Message:   err.Error(),
			Retryable: true,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure extractFailure
		if decodeErr := json.NewDecoder(resp.Body).Decode(&failure); decodeErr != nil || failure.Code == "" {
			failure = extractFailure{
				Code:      fmt.Sprintf("extraction_http_%d", resp.StatusCode),
				Message:   "extraction service returned an error",
				Retryable: resp.StatusCode >= 500,
			}
		}
		return nil, &verification.ExtractionError{
			Code:      failure.Code,
			Message:   failure.Message,
			Retryable: failure.Retryable,
		}
	}

	var extracted verification.ExtractedPolicyData
	if err := json.NewDecoder(resp.Body).Decode(&extracted); err != nil {
		return nil, &verification.ExtractionError{
			Code:    "extraction_bad_payload",
			Message: fmt.Sprintf("decode extraction payload: %v", err),
		}
	}
	return &extracted, nil
}
