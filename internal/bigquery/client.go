package bigquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client executes SQL against the BigQuery v2 REST API (jobs.query) and
// returns rows as column-name keyed values. It is the only suspension point
// in a pipeline run; timeouts belong to the injected http.Client.
type Client struct {
	baseURL    string
	project    string
	token      string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bigquery API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, baseURL, project, token string) *Client {
	if baseURL == "" {
		baseURL = "https://bigquery.googleapis.com/bigquery/v2"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL:    baseURL,
		project:    project,
		token:      token,
		httpClient: httpClient,
	}
}

type queryRequest struct {
	Query        string `json:"query"`
	UseLegacySQL bool   `json:"useLegacySql"`
	TimeoutMs    int    `json:"timeoutMs,omitempty"`
}

type queryResponse struct {
	Schema struct {
		Fields []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"fields"`
	} `json:"schema"`
	Rows []struct {
		F []struct {
			V any `json:"v"`
		} `json:"f"`
	} `json:"rows"`
	JobComplete bool `json:"jobComplete"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Query runs sql and returns the full result set. Pagination is not needed:
// every rule query carries its own LIMIT.
func (c *Client) Query(ctx context.Context, sql string) ([]Row, error) {
	if c.project == "" {
		return nil, fmt.Errorf("bigquery project is required")
	}
	body, err := json.Marshal(queryRequest{Query: sql})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query request: %w", err)
	}

	url := fmt.Sprintf("%s/projects/%s/queries", c.baseURL, c.project)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(raw)}
	}

	var qr queryResponse
	if err := json.Unmarshal(raw, &qr); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}
	if qr.Error != nil {
		return nil, fmt.Errorf("query failed: %s", qr.Error.Message)
	}
	if !qr.JobComplete {
		return nil, fmt.Errorf("query did not complete within the request timeout")
	}

	cols := make([]string, 0, len(qr.Schema.Fields))
	for _, f := range qr.Schema.Fields {
		cols = append(cols, f.Name)
	}

	rows := make([]Row, 0, len(qr.Rows))
	for _, r := range qr.Rows {
		row := Row{}
		for i, cell := range r.F {
			if i >= len(cols) {
				break
			}
			row[cols[i]] = cell.V
		}
		rows = append(rows, row)
	}
	return rows, nil
}
