package blobstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/clipdeck-backend/pkg/config"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
)

const pingTimeout = 5 * time.Second

// ErrNotFound is returned when the requested document does not exist yet.
var ErrNotFound = errors.New("blobstore: document not found")

// ErrPreconditionFailed is returned when the supplied sha no longer matches
// the stored document, i.e. another writer got there first.
var ErrPreconditionFailed = errors.New("blobstore: sha precondition failed")

// Document is a versioned blob: raw bytes plus the content sha the server
// currently associates with them.
type Document struct {
	Content []byte
	SHA     string
}

// Client talks to the versioned blob store over its JSON document API.
// Writes carry the last-read sha as an optimistic-concurrency precondition.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logger.Logger
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient validates the configuration and returns a blob store client.
func NewClient(cfg config.StorageConfig, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BlobBaseURL), "/")
	if base == "" {
		return nil, errors.New("blob store base URL is required")
	}
	timeout := cfg.BlobTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		token:      strings.TrimSpace(cfg.BlobToken),
		logger:     logg,
	}, nil
}

type documentPayload struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// Get fetches the document at path along with its current sha.
func (c *Client) Get(ctx context.Context, path string) (*Document, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("blobstore get %s: %w", path, err)
	}
	defer c.closeBody(ctx, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, c.unexpectedStatus("get", path, resp)
	}

	var payload documentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("blobstore get %s: decoding response: %w", path, err)
	}
	content, err := base64.StdEncoding.DecodeString(payload.Content)
	if err != nil {
		return nil, fmt.Errorf("blobstore get %s: decoding content: %w", path, err)
	}
	return &Document{Content: content, SHA: payload.SHA}, nil
}

// Put writes content to path. sha must be the last-read sha of the document,
// or empty when creating it. The new sha is returned on success;
// ErrPreconditionFailed is returned when the stored sha moved.
func (c *Client) Put(ctx context.Context, path string, content []byte, sha string) (string, error) {
	body, err := json.Marshal(documentPayload{
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
	})
	if err != nil {
		return "", fmt.Errorf("blobstore put %s: encoding payload: %w", path, err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("blobstore put %s: %w", path, err)
	}
	defer c.closeBody(ctx, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict, http.StatusPreconditionFailed:
		return "", ErrPreconditionFailed
	default:
		return "", c.unexpectedStatus("put", path, resp)
	}

	var payload documentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("blobstore put %s: decoding response: %w", path, err)
	}
	return payload.SHA, nil
}

// Ping verifies the blob store endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("blobstore ping: %w", err)
	}
	defer c.closeBody(ctx, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("blobstore ping: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/documents/%s", c.baseURL, url.PathEscape(strings.TrimLeft(path, "/")))
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("blobstore %s %s: %w", strings.ToLower(method), path, err)
	}
	c.authorize(req)
	return req, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) unexpectedStatus(op, path string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("blobstore %s %s: status %d: %s", op, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
}

func (c *Client) closeBody(ctx context.Context, body io.Closer) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && c.logger != nil {
		c.logger.Warn(ctx, "failed to close blobstore response body")
	}
}
