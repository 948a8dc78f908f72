// Package paper talks to the remote document service: paginated listing
// of document IDs and per-document content download. Errors are
// classified for the retrying fetcher: *APIError (wrapped in
// fetch.TerminalError) is never retried, fetch.ErrUnavailable and plain
// transport errors are.
package paper

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"paperdump/internal/fetch"
)

// Doc is the result of one document download.
type Doc struct {
	Title string
	Owner string
	// Body is the raw HTML export; empty in metadata-only downloads.
	Body []byte
}

// Client enumerates documents and downloads them.
type Client interface {
	// ListDocIDs returns the flat, deduplicated sequence of document
	// identifiers from the paginated listing.
	ListDocIDs() ([]string, error)

	// Download fetches one document. With includeContent false only the
	// title and owner are retrieved.
	Download(id string, includeContent bool) (*Doc, error)
}

// APIError is a semantic rejection by the remote service.
type APIError struct {
	Summary string
}

func (e *APIError) Error() string { return e.Summary }

// HTTPClient implements Client against the Dropbox Paper REST API.
type HTTPClient struct {
	// APIBase serves the RPC-style endpoints (listing), ContentBase the
	// content-download endpoint. Overridable for tests.
	APIBase     string
	ContentBase string
	Token       string
	HTTPClient  *http.Client
}

func NewHTTPClient(token string) *HTTPClient {
	return &HTTPClient{
		APIBase:     "https://api.dropboxapi.com/2",
		ContentBase: "https://content.dropboxapi.com/2",
		Token:       token,
		HTTPClient:  &http.Client{Timeout: 60 * time.Second},
	}
}

type listResult struct {
	DocIDs []string `json:"doc_ids"`
	Cursor struct {
		Value string `json:"value"`
	} `json:"cursor"`
	HasMore bool `json:"has_more"`
}

func (c *HTTPClient) ListDocIDs() ([]string, error) {
	var ids []string
	seen := make(map[string]bool)

	result, err := c.listPage("/paper/docs/list", `{}`)
	if err != nil {
		return nil, fmt.Errorf("paper/docs/list: %w", err)
	}
	for {
		for _, id := range result.DocIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		if !result.HasMore {
			return ids, nil
		}
		arg, _ := json.Marshal(map[string]string{"cursor": result.Cursor.Value})
		result, err = c.listPage("/paper/docs/list/continue", string(arg))
		if err != nil {
			return nil, fmt.Errorf("paper/docs/list/continue: %w", err)
		}
	}
}

func (c *HTTPClient) listPage(endpoint, body string) (*listResult, error) {
	req, err := http.NewRequest("POST", c.APIBase+endpoint, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, classifyStatus(resp)
	}
	var result listResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Download(id string, includeContent bool) (*Doc, error) {
	arg, _ := json.Marshal(map[string]any{
		"doc_id":        id,
		"export_format": map[string]string{".tag": "html"},
	})
	req, err := http.NewRequest("POST", c.ContentBase+"/paper/docs/download", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Dropbox-API-Arg", string(arg))
	if !includeContent {
		// Metadata arrives in a response header; skip the body bytes.
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp)
	}

	var meta struct {
		Title string `json:"title"`
		Owner string `json:"owner"`
	}
	if raw := resp.Header.Get("Dropbox-API-Result"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return nil, fmt.Errorf("bad Dropbox-API-Result header: %v", err)
		}
	}

	doc := &Doc{Title: meta.Title, Owner: meta.Owner}
	if includeContent {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading doc body: %v", err)
		}
		doc.Body = body
	}
	return doc, nil
}

// classifyStatus maps an HTTP error response onto the retry taxonomy.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return fetch.ErrUnavailable
	case resp.StatusCode == http.StatusConflict:
		// The endpoint-specific error: the service rejected the request
		// semantically. Never retried.
		var apiErr struct {
			Summary string `json:"error_summary"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Summary != "" {
			return &fetch.TerminalError{Err: &APIError{Summary: apiErr.Summary}}
		}
		return &fetch.TerminalError{Err: &APIError{Summary: strings.TrimSpace(string(body))}}
	default:
		return fmt.Errorf("http status %s", resp.Status)
	}
}
