package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iblflow/orchestrator/domain"
)

// HTTPGateway commits records to the IBL database service over HTTP.
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPGateway creates a gateway client for the given base URL.
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type commitRequest struct {
	Domain string              `json:"domain"`
	Record domain.CommitRecord `json:"record"`
}

// Commit posts the record once. Transport failures and non-success statuses
// both surface as CommitGatewayError; the caller keeps the record unchanged
// and never retries on its own.
func (g *HTTPGateway) Commit(ctx context.Context, d domain.Domain, record domain.CommitRecord) (*domain.CommitResult, error) {
	body, err := json.Marshal(commitRequest{Domain: string(d), Record: record})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal commit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/records", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &domain.CommitGatewayError{Domain: d, Detail: "gateway unreachable", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.CommitGatewayError{Domain: d, Detail: "failed to read gateway response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.CommitGatewayError{
			Domain: d,
			Detail: fmt.Sprintf("gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	var result domain.CommitResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &domain.CommitGatewayError{Domain: d, Detail: "malformed gateway response", Err: err}
	}
	if !result.Success {
		return nil, &domain.CommitGatewayError{Domain: d, Detail: result.Detail}
	}
	return &result, nil
}
