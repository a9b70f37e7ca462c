package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avlasov/paperdock/internal/client/models"
	"github.com/avlasov/paperdock/internal/common"
)

// RESTClient implements API against the server's JSON HTTP interface.
type RESTClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewRESTClient returns a client for the given base URL. token may be empty.
func NewRESTClient(baseURL, token string) *RESTClient {
	return &RESTClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func kindPath(kind models.EntityType) string {
	switch kind {
	case models.EntityDocument:
		return "/api/documents/"
	case models.EntityTag:
		return "/api/tags/"
	case models.EntityCorrespondent:
		return "/api/correspondents/"
	case models.EntityDocumentType:
		return "/api/document_types/"
	default:
		return "/api/unknown/"
	}
}

// changesPage mirrors the server's incremental-changes response.
type changesPage struct {
	Results    []json.RawMessage `json:"results"`
	DeletedIDs []int64           `json:"deleted"`
	NextCursor string            `json:"cursor"`
}

func (c *RESTClient) FetchChanged(ctx context.Context, kind models.EntityType, since string) (*ChangeSet, error) {
	u := c.baseURL + kindPath(kind) + "changes/"
	if since != "" {
		u += "?" + url.Values{"since": {since}}.Encode()
	}

	body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var page changesPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode %s changes: %w", kind, err)
	}
	return &ChangeSet{
		Changed:    page.Results,
		DeletedIDs: page.DeletedIDs,
		NextCursor: page.NextCursor,
	}, nil
}

func (c *RESTClient) Create(ctx context.Context, kind models.EntityType, payload json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, c.baseURL+kindPath(kind), payload)
}

func (c *RESTClient) Update(ctx context.Context, kind models.EntityType, id int64, payload json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("%s%s%d/", c.baseURL, kindPath(kind), id), payload)
}

func (c *RESTClient) Delete(ctx context.Context, kind models.EntityType, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s%s%d/", c.baseURL, kindPath(kind), id), nil)
	return err
}

func (c *RESTClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, c.baseURL+"/api/status/", nil)
	return err
}

func (c *RESTClient) do(ctx context.Context, method, u string, payload json.RawMessage) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", common.ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, common.ErrNotFound
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusPreconditionFailed:
		// The server returns its winning copy in the conflict body.
		return nil, &ConflictError{Server: data}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s", common.ErrUnavailable, resp.Status)
	default:
		return nil, fmt.Errorf("unexpected response %s: %s", resp.Status, data)
	}
}
