package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/petal-labs/modalmcp/tool"
)

const (
	toolDeployApp = "modal_deploy_app"
	toolRun       = "modal_run"
)

// Binding documents one callable tool.
type Binding struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	InputSchema  tool.Schema `json:"input_schema"`
	OutputSchema tool.Schema `json:"output_schema"`
}

// Option configures New.
type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient sets the HTTP client used by the default transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Client calls the tools of one server. Bindings are fixed at construction.
type Client struct {
	transport Transport
	catalog   *tool.Catalog
	bindings  map[string]Binding
	logger    *slog.Logger
}

// New fetches the catalog from baseURL. Any failure is a *TransportError and
// no client is returned.
func New(ctx context.Context, baseURL string, opts ...Option) (*Client, error) {
	o := buildOptions(opts)
	return newClient(ctx, NewHTTPTransport(baseURL, o.httpClient), o)
}

// NewWithTransport is New over an arbitrary transport.
func NewWithTransport(ctx context.Context, transport Transport, opts ...Option) (*Client, error) {
	return newClient(ctx, transport, buildOptions(opts))
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

func newClient(ctx context.Context, transport Transport, o options) (*Client, error) {
	doc, err := transport.Schema(ctx)
	if err != nil {
		return nil, err
	}
	catalog, err := tool.NewCatalog(doc)
	if err != nil {
		return nil, &TransportError{Op: "parse schema", Err: err}
	}

	bindings := make(map[string]Binding, catalog.Len())
	for _, descriptor := range catalog.List() {
		bindings[descriptor.Name] = bindingFor(descriptor)
	}
	o.logger.Debug("bound remote tools", "tools", catalog.Names())
	return &Client{
		transport: transport,
		catalog:   catalog,
		bindings:  bindings,
		logger:    o.logger,
	}, nil
}

// Schema returns the fetched catalog document.
func (c *Client) Schema() tool.CatalogDocument {
	return c.catalog.Document()
}

// Tools lists bindings in catalog order.
func (c *Client) Tools() []Binding {
	out := make([]Binding, 0, len(c.bindings))
	for _, name := range c.catalog.Names() {
		b, _ := c.Binding(name)
		out = append(out, b)
	}
	return out
}

// Binding returns the binding for name.
func (c *Client) Binding(name string) (Binding, bool) {
	if _, ok := c.bindings[name]; !ok {
		return Binding{}, false
	}
	// Lookup hands back a deep copy, so callers cannot mutate the table.
	descriptor, _ := c.catalog.Lookup(name)
	return bindingFor(descriptor), true
}

func bindingFor(descriptor tool.ToolDescriptor) Binding {
	return Binding{
		Name:         descriptor.Name,
		Description:  descriptor.Description,
		InputSchema:  descriptor.InputSchema,
		OutputSchema: descriptor.OutputSchema,
	}
}

// Describe returns the tool description, or a placeholder for unknown names.
func (c *Client) Describe(name string) string {
	if b, ok := c.bindings[name]; ok && b.Description != "" {
		return b.Description
	}
	return "No description available."
}

// Call invokes name with a plain input map.
func (c *Client) Call(ctx context.Context, name string, input map[string]any) (map[string]any, error) {
	return c.CallInput(ctx, name, tool.NewInput(input))
}

// CallInput invokes name with an ordered input.
func (c *Client) CallInput(ctx context.Context, name string, input tool.Input) (map[string]any, error) {
	if _, ok := c.bindings[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnboundTool, name)
	}
	resp, err := c.transport.Invoke(ctx, tool.CallRequest{ToolName: name, ToolInput: input})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &CallError{ToolName: name, Message: *resp.Error}
	}
	if resp.ToolOutput == nil {
		return map[string]any{}, nil
	}
	return resp.ToolOutput, nil
}

// DeployApp calls modal_deploy_app. An empty appName is omitted.
func (c *Client) DeployApp(ctx context.Context, appPath, appName string) (map[string]any, error) {
	var in tool.Input
	in.Set("app_path", appPath)
	if appName != "" {
		in.Set("app_name", appName)
	}
	return c.CallInput(ctx, toolDeployApp, in)
}

// RunFunction calls modal_run. kwargs are passed as --key value flags in order.
func (c *Client) RunFunction(ctx context.Context, appPath, functionName string, kwargs tool.Input) (map[string]any, error) {
	var in tool.Input
	in.Set("app_path", appPath)
	in.Set("function_name", functionName)
	if kwargs.Len() > 0 {
		in.Set("kwargs", kwargs)
	}
	return c.CallInput(ctx, toolRun, in)
}
