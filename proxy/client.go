package proxy

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/feitianbubu/aistudio"
)

// Client retrieves artifacts from a running proxy over HTTP
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient creates a client for the proxy at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: strings.TrimSuffix(baseURL, "/") + "/api/download",
		client:   &http.Client{Timeout: timeout},
	}
}

// Retrieve implements aistudio.Retriever
func (c *Client) Retrieve(ctx context.Context, artifactURL string) (*aistudio.Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?url="+url.QueryEscape(artifactURL), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &aistudio.TransportError{Op: "retrieve artifact", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &aistudio.RemoteError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &aistudio.TransportError{Op: "read artifact", Err: err}
	}

	artifact := &aistudio.Artifact{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		artifact.Filename = params["filename"]
	}
	return artifact, nil
}
