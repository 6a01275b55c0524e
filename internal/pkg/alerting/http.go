package alerting

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// userAgent identifies this controller's webhook client to the receiving
// end so operators can tell its traffic apart in proxy/ingress logs.
const userAgent = "signature-reloader/alerting"

// httpClient is the shared webhook client every sender in this package
// posts through, with optional proxy support for clusters that only permit
// egress via an HTTP proxy.
type httpClient struct {
	client *http.Client
}

// newHTTPClient builds an httpClient. An empty proxyURL leaves the
// transport's default (direct) dialing behavior untouched.
func newHTTPClient(proxyURL string) *httpClient {
	transport := &http.Transport{}

	if proxyURL != "" {
		proxy, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxy)
		}
	}

	return &httpClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
	}
}

// post sends body as a JSON POST.
func (c *httpClient) post(ctx context.Context, url string, body []byte) error {
	return c.send(ctx, url, "application/json", body)
}

// postText sends body as a plain-text POST, for sinks (the raw, non-structured
// sender) that expect a bare message instead of a JSON envelope.
func (c *httpClient) postText(ctx context.Context, url string, text string) error {
	return c.send(ctx, url, "text/plain", []byte(text))
}

func (c *httpClient) send(ctx context.Context, url, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
