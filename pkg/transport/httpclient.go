package transport

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/richard-senior/matchodds/internal/logger"
)

// CABundleEnv names an optional PEM bundle appended to the system roots, for corporate proxies
const CABundleEnv = "MATCHODDS_CA_BUNDLE"

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// HTTPClient fetches pages and JSON documents, decoding compressed bodies
type HTTPClient struct {
	client  *http.Client
	headers map[string]string
}

// NewHTTPClient returns a client with the given timeout. Extra headers are sent on every request.
func NewHTTPClient(timeout time.Duration, headers map[string]string) *HTTPClient {
	return &HTTPClient{client: newStdClient(timeout), headers: headers}
}

// WithClient wraps an existing *http.Client, used by tests against httptest servers
func WithClient(c *http.Client, headers map[string]string) *HTTPClient {
	return &HTTPClient{client: c, headers: headers}
}

// loadCABundle reads the optional extra CA bundle
func loadCABundle() ([]byte, error) {
	path := os.Getenv(CABundleEnv)
	if path == "" {
		return nil, nil
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Failed to read CA bundle", path, err)
		return nil, err
	}
	return pem, nil
}

func newStdClient(timeout time.Duration) *http.Client {
	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		logger.Warn("Failed to get system cert pool", err)
		rootCAs = x509.NewCertPool()
	}
	if pem, err := loadCABundle(); err == nil && pem != nil {
		if ok := rootCAs.AppendCertsFromPEM(pem); !ok {
			logger.Warn("Failed to append CA bundle")
		} else {
			logger.Info("Added CA bundle to root CAs")
		}
	}

	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: rootCAs},
			Proxy:           http.ProxyFromEnvironment,
		},
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}
}

// GetBody fetches a url and returns the decoded body. Non 200 responses are errors.
func (c *HTTPClient) GetBody(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request to %s returned error status %d", url, resp.StatusCode)
	}

	reader, err := decodeBody(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return data, nil
}

// GetHTML fetches a page
func (c *HTTPClient) GetHTML(ctx context.Context, url string) ([]byte, error) {
	return c.GetBody(ctx, url, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
}

// GetJSON fetches a url and decodes the JSON body into v
func (c *HTTPClient) GetJSON(ctx context.Context, url string, v any) error {
	data, err := c.GetBody(ctx, url, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}

// decodeBody wraps the body in the reader matching its Content-Encoding
func decodeBody(encoding string, body io.ReadCloser) (io.ReadCloser, error) {
	switch encoding {
	case "gzip":
		r, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return r, nil
	case "deflate":
		return flate.NewReader(body), nil
	case "br":
		return io.NopCloser(brotli.NewReader(body)), nil
	case "", "identity":
	default:
		logger.Warn("Unknown content encoding:", encoding)
	}
	return io.NopCloser(body), nil
}
