// Package eligibility queries the external country-eligibility service.
package eligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bnema/poolwallet-cli/internal/ports"
)

const maxResponseBytes = 1 << 16

// Gate asks GET {endpoint}?address=0x... and expects {"allowed": bool}.
type Gate struct {
	endpoint string
	client   *http.Client
}

var _ ports.EligibilityGate = (*Gate)(nil)

// AllowAll is used when no eligibility service is configured.
type AllowAll struct{}

func (AllowAll) Allowed(context.Context, string) (bool, error) {
	return true, nil
}

// New returns AllowAll for an empty endpoint.
func New(endpoint string, client *http.Client) (ports.EligibilityGate, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return AllowAll{}, nil
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid eligibility url %q", endpoint)
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Gate{endpoint: endpoint, client: client}, nil
}

func (g *Gate) Allowed(ctx context.Context, address string) (bool, error) {
	target, err := url.Parse(g.endpoint)
	if err != nil {
		return false, fmt.Errorf("parse eligibility url: %w", err)
	}
	query := target.Query()
	query.Set("address", address)
	target.RawQuery = query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", "pw/eligibility")

	response, err := g.client.Do(request)
	if err != nil {
		return false, fmt.Errorf("perform request: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return false, fmt.Errorf("status %d: %s", response.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Allowed *bool `json:"allowed"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false, fmt.Errorf("decode payload: %w", err)
	}
	if payload.Allowed == nil {
		return false, fmt.Errorf("decode payload: missing allowed field")
	}

	return *payload.Allowed, nil
}
