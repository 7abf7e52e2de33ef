package vizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/clipdeck-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
)

var errLoggerRequired = errors.New("vizard logger is required")

// Client queries the Vizard clipping service for job progress. It is
// read-only: the dashboard never drives Vizard, it only reports on it.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logger.Logger
}

// NewClient initializes the Vizard wrapper. Like the publishing client, a
// missing API key defers to CONFIGURATION_ERROR at call time.
func NewClient(cfg config.VizardConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		logger:     logg,
	}, nil
}

// Configured reports whether an API credential is on file.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type project struct {
	ID     int64  `json:"projectId"`
	Status string `json:"status"`
}

type projectListResponse struct {
	Code     int       `json:"code"`
	Projects []project `json:"projects"`
}

// InFlightCount returns how many clipping jobs Vizard reports as still
// processing. The caller controls the deadline through ctx.
func (c *Client) InFlightCount(ctx context.Context) (int, error) {
	if !c.Configured() {
		return 0, pkgerrors.New(pkgerrors.CodeConfiguration, "no Vizard API key on file")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/open-api/v1/project/list", nil)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building vizard request")
	}
	req.Header.Set("VIZARDAI_API_KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "vizard unreachable")
	}
	defer c.closeBody(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, pkgerrors.New(pkgerrors.CodeUpstream,
			fmt.Sprintf("vizard returned status %d", resp.StatusCode))
	}

	var parsed projectListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decoding vizard response")
	}

	count := 0
	for _, p := range parsed.Projects {
		if strings.EqualFold(p.Status, "processing") {
			count++
		}
	}

	ctx = c.logger.WithFields(ctx, map[string]any{"in_flight": count})
	c.logger.Info(ctx, "vizard project poll")
	return count, nil
}

func (c *Client) closeBody(ctx context.Context, body io.Closer) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && c.logger != nil {
		c.logger.Warn(ctx, "failed to close vizard response body")
	}
}
