package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

const catalogPath = "/public-course"

// CatalogItem is one course extracted from the upstream catalog.
type CatalogItem struct {
	Name      string
	SourceID  string
	SortOrder int
	Raw       json.RawMessage
}

type CatalogResult struct {
	Items         []CatalogItem
	UpstreamCount int
}

type CatalogClient struct {
	baseURL string
	apiKey  string
	aliases CatalogAliases
	http    *http.Client
}

func NewCatalogClient(baseURL, apiKey string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		aliases: DefaultCatalogAliases,
		http:    newHTTPClient(timeout),
	}
}

// Fetch downloads and normalizes the catalog. A non-2xx response yields a
// *StatusError; transport failures are returned as is.
func (c *CatalogClient) Fetch(ctx context.Context) (*CatalogResult, error) {
	req, err := http.NewRequest(http.MethodGet, joinURL(c.baseURL, catalogPath), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-ai-api-key", c.apiKey)
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	status, decoded, raw, err := doJSON(ctx, c.http, req)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &StatusError{Status: status, Body: truncate(string(raw), 512)}
	}
	if decoded == nil {
		return nil, errors.New("upstream catalog returned non-JSON body")
	}

	items := ExtractCatalogItems(decoded, c.aliases)
	return &CatalogResult{Items: MapCatalogItems(items, c.aliases), UpstreamCount: len(items)}, nil
}

// ExtractCatalogItems accepts a bare array or an object wrapping one.
func ExtractCatalogItems(payload any, aliases CatalogAliases) []any {
	switch v := payload.(type) {
	case []any:
		return v
	case map[string]any:
		return firstArray(v, aliases.Items)
	}
	return nil
}

// MapCatalogItems skips items without a usable name. SortOrder is the 1-based
// position in the upstream list, so skipped items leave gaps.
func MapCatalogItems(items []any, aliases CatalogAliases) []CatalogItem {
	out := make([]CatalogItem, 0, len(items))
	for idx, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name := firstString(obj, aliases.Name)
		if name == "" {
			continue
		}
		raw, _ := json.Marshal(obj)
		out = append(out, CatalogItem{
			Name:      name,
			SourceID:  firstString(obj, aliases.SourceID),
			SortOrder: idx + 1,
			Raw:       raw,
		})
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
