package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/petal-labs/modalmcp/tool"
)

const maxErrorBody = 4 << 10

// Transport carries catalog fetches and tool calls to a server.
type Transport interface {
	Schema(ctx context.Context) (tool.CatalogDocument, error)
	Invoke(ctx context.Context, req tool.CallRequest) (tool.CallResponse, error)
}

// HTTPTransport speaks the server's JSON API.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport targets baseURL. A nil httpClient gets a pooled client
// without an overall timeout; calls are bounded by their context.
func NewHTTPTransport(baseURL string, httpClient *http.Client) *HTTPTransport {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          20,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// BaseURL returns the server address without a trailing slash.
func (t *HTTPTransport) BaseURL() string {
	return t.baseURL
}

// Schema fetches GET /mcp/schema.
func (t *HTTPTransport) Schema(ctx context.Context) (tool.CatalogDocument, error) {
	url := t.baseURL + "/mcp/schema"
	var doc tool.CatalogDocument
	if err := t.do(ctx, "fetch schema", http.MethodGet, url, nil, &doc); err != nil {
		return tool.CatalogDocument{}, err
	}
	return doc, nil
}

// Invoke posts the call envelope to POST /mcp.
func (t *HTTPTransport) Invoke(ctx context.Context, req tool.CallRequest) (tool.CallResponse, error) {
	url := t.baseURL + "/mcp"
	body, err := json.Marshal(req)
	if err != nil {
		return tool.CallResponse{}, fmt.Errorf("client: encode call request: %w", err)
	}
	var resp tool.CallResponse
	if err := t.do(ctx, "call tool", http.MethodPost, url, body, &resp); err != nil {
		return tool.CallResponse{}, err
	}
	return resp, nil
}

func (t *HTTPTransport) do(ctx context.Context, op, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &TransportError{Op: op, URL: url, Err: err}
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return &TransportError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := strings.TrimSpace(string(snippet))
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &TransportError{Op: op, URL: url, StatusCode: resp.StatusCode, Err: errors.New(message)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, URL: url, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
