package timesvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseSizeBytes = 1 << 20

// Config for the external time service. The service exposes a single
// POST /tool endpoint that answers current-time and conversion queries.
type Config struct {
	URL     string        `split_words:"true" required:"true"`
	Timeout time.Duration `split_words:"true" default:"10s"`
}

// Client calls the time service over REST.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("time service url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid time service url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// CurrentTime holds the service's answer for a current-time query.
type CurrentTime struct {
	Timezone string `json:"timezone"`
	Datetime string `json:"datetime"`
	IsDST    bool   `json:"is_dst"`
}

// Conversion holds the service's answer for a time-conversion query.
type Conversion struct {
	Target struct {
		Datetime string `json:"datetime"`
	} `json:"target"`
	TimeDifference string `json:"time_difference"`
}

func (c *Client) GetCurrentTime(ctx context.Context, timezone string) (*CurrentTime, error) {
	args := map[string]any{}
	if tz := strings.TrimSpace(timezone); tz != "" {
		args["timezone"] = tz
	}

	var out CurrentTime
	if err := c.callTool(ctx, "get_current_time", args, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ConvertTime(ctx context.Context, sourceTimezone, timeOfDay, targetTimezone string) (*Conversion, error) {
	args := map[string]any{
		"source_timezone": sourceTimezone,
		"time":            timeOfDay,
		"target_timezone": targetTimezone,
	}

	var out Conversion
	if err := c.callTool(ctx, "convert_time", args, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) callTool(ctx context.Context, name string, args map[string]any, out any) error {
	payload, err := json.Marshal(map[string]any{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		return fmt.Errorf("marshal tool payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tool", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build time service request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute time service request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("read time service response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("time service http status=%d body=%s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode time service response: %w", err)
	}
	return nil
}
