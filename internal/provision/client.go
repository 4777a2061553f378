package provision

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/David-Antunes/gone-topo/api"
	addApi "github.com/David-Antunes/gone-topo/api/Add"
	connectApi "github.com/David-Antunes/gone-topo/api/Connect"
	projectApi "github.com/David-Antunes/gone-topo/api/Projects"
	"github.com/David-Antunes/gone-topo/internal/metrics"
	"github.com/go-playground/validator/v10"
	"golang.org/x/net/context/ctxhttp"
	"golang.org/x/time/rate"
)

var provisionLog = log.New(os.Stderr, "PROVISION INFO: ", log.Ltime)

var validate = validator.New()

const maxBackoff = 30 * time.Second

type Options struct {
	Username      string
	Password      string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MaxRetries    int
	Backoff       time.Duration
	Metrics       *metrics.Registry
}

// Client talks to the emulation server's /v2 REST API.
type Client struct {
	client     *http.Client
	endpoint   string
	username   string
	password   string
	timeout    time.Duration
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	metrics    *metrics.Registry
}

var _ Provisioner = (*Client)(nil)

func NewClient(client *http.Client, endpoint string, opts Options) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Client{
		client:     client,
		endpoint:   strings.TrimRight(endpoint, "/"),
		username:   opts.Username,
		password:   opts.Password,
		timeout:    opts.Timeout,
		limiter:    rate.NewLimiter(limit, opts.Burst),
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		metrics:    opts.Metrics,
	}
}

func (c *Client) do(ctx context.Context, op string, method string, path string, body any, out any) error {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Op: op, Err: err}
		}

		start := time.Now()
		err := c.roundTrip(ctx, op, method, path, body, out)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.metrics.RecordRequest(op, outcome, time.Since(start))

		if err == nil {
			return nil
		}
		if attempt >= c.maxRetries || !retryable(method, err) || ctx.Err() != nil {
			return err
		}

		wait := c.retryWait(attempt)
		provisionLog.Println(op+":", "retrying in", wait, "after", err)
		c.metrics.RecordRetry(op)
		select {
		case <-ctx.Done():
			return &TransportError{Op: op, Err: ctx.Err()}
		case <-time.After(wait):
		}
	}
}

// retryWait doubles the backoff per attempt, up to maxBackoff.
func (c *Client) retryWait(attempt int) time.Duration {
	if attempt >= 32 || c.backoff > maxBackoff>>attempt {
		return maxBackoff
	}
	return c.backoff << attempt
}

func (c *Client) roundTrip(ctx context.Context, op string, method string, path string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reader, err := encodeBody(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	req, err := http.NewRequest(method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	res, err := ctxhttp.Do(ctx, c.client, req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return statusError(op, res)
	}
	if err := decodeBody(res, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) CreateNode(ctx context.Context, projectId string, req addApi.CreateNodeRequest) (api.Node, error) {
	node := api.Node{}
	if err := validate.Struct(req); err != nil {
		return node, fmt.Errorf("create_node: invalid request: %w", err)
	}
	err := c.do(ctx, "create_node", http.MethodPost, "/v2/projects/"+url.PathEscape(projectId)+"/nodes", req, &node)
	return node, err
}

func (c *Client) CreateLink(ctx context.Context, projectId string, req connectApi.CreateLinkRequest) (api.Link, error) {
	link := api.Link{}
	if err := validate.Struct(req); err != nil {
		return link, fmt.Errorf("create_link: invalid request: %w", err)
	}
	err := c.do(ctx, "create_link", http.MethodPost, "/v2/projects/"+url.PathEscape(projectId)+"/links", req, &link)
	return link, err
}

func (c *Client) ListNodes(ctx context.Context, projectId string) ([]api.Node, error) {
	nodes := make([]api.Node, 0)
	err := c.do(ctx, "list_nodes", http.MethodGet, "/v2/projects/"+url.PathEscape(projectId)+"/nodes", nil, &nodes)
	return nodes, err
}

func (c *Client) ListLinks(ctx context.Context, projectId string) ([]api.Link, error) {
	links := make([]api.Link, 0)
	err := c.do(ctx, "list_links", http.MethodGet, "/v2/projects/"+url.PathEscape(projectId)+"/links", nil, &links)
	return links, err
}

func (c *Client) ListProjects(ctx context.Context) ([]api.Project, error) {
	projects := make([]api.Project, 0)
	err := c.do(ctx, "list_projects", http.MethodGet, "/v2/projects", nil, &projects)
	return projects, err
}

func (c *Client) LoadProject(ctx context.Context, path string) (api.Project, error) {
	project := api.Project{}
	err := c.do(ctx, "load_project", http.MethodPost, "/v2/projects/load", &projectApi.LoadProjectRequest{Path: path}, &project)
	return project, err
}

func (c *Client) ListComputes(ctx context.Context) ([]api.Compute, error) {
	computes := make([]api.Compute, 0)
	err := c.do(ctx, "list_computes", http.MethodGet, "/v2/computes", nil, &computes)
	return computes, err
}

func (c *Client) ListTemplates(ctx context.Context) ([]api.Template, error) {
	templates := make([]api.Template, 0)
	err := c.do(ctx, "list_templates", http.MethodGet, "/v2/templates", nil, &templates)
	return templates, err
}

func (c *Client) Version(ctx context.Context) (api.Version, error) {
	version := api.Version{}
	err := c.do(ctx, "version", http.MethodGet, "/v2/version", nil, &version)
	return version, err
}
