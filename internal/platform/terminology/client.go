// Package terminology is the client for the external medical-terminology
// lookup service. The engine only ever persists the concept id and the
// preferred term; everything else the service returns is passed through
// untouched.
package terminology

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Concept is one terminology concept as returned by the lookup service.
type Concept struct {
	ConceptID          string `json:"conceptId"`
	Active             bool   `json:"active"`
	PreferredTerm      string `json:"preferredTerm"`
	FullySpecifiedName string `json:"fullySpecifiedName"`
	DefinitionStatus   string `json:"definitionStatus"`
}

// Lookup resolves a concept id to its terminology record.
type Lookup interface {
	Concept(ctx context.Context, conceptID string) (*Concept, error)
}

// Client is the HTTP implementation of Lookup.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Concept(ctx context.Context, conceptID string) (*Concept, error) {
	u := fmt.Sprintf("%s/concepts/%s", c.baseURL, url.PathEscape(conceptID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("terminology lookup %s: %w", conceptID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("concept %s not found", conceptID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("terminology lookup %s: status %d", conceptID, resp.StatusCode)
	}

	var concept Concept
	if err := json.NewDecoder(resp.Body).Decode(&concept); err != nil {
		return nil, fmt.Errorf("decode concept %s: %w", conceptID, err)
	}
	return &concept, nil
}
