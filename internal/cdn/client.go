package cdn

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Gen7Fuel/thehub-sub000/internal/config"
)

const requestTimeout = 15 * time.Second

// Client uploads deposit-slip photos to the CDN service. Only the
// stored filename is kept on the ledger entry; the image itself never
// touches the database.
type Client struct {
	http *resty.Client
}

func New(cfg config.CDNConfig) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(requestTimeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	if cfg.APIKey != "" {
		c.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Client{http: c}
}

type uploadResponse struct {
	Filename string `json:"filename"`
}

// Upload stores the image bytes under a site-scoped name and returns
// the filename the CDN assigned.
func (c *Client) Upload(ctx context.Context, site, filename string, data []byte) (string, error) {
	var out uploadResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(data)).
		SetFormData(map[string]string{"site": site}).
		SetResult(&out).
		Post("/uploads")
	if err != nil {
		return "", fmt.Errorf("cdn upload: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("cdn upload: status %d", resp.StatusCode())
	}
	if out.Filename == "" {
		return "", fmt.Errorf("cdn upload: empty filename in response")
	}
	return out.Filename, nil
}

