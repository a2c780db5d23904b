package pagerduty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/dynoinc/incidentreport/internal/apierr"
	"github.com/dynoinc/incidentreport/internal/incident"
	"github.com/dynoinc/incidentreport/internal/metrics"
	"github.com/dynoinc/incidentreport/internal/otel/semconv"
)

var tracer = otel.Tracer("github.com/dynoinc/incidentreport/internal/pagerduty")

const (
	PagingOffset = "offset"
	PagingCursor = "cursor"

	acceptHeader = "application/vnd.pagerduty+json;version=2"
)

type Config struct {
	APIKey         string `envconfig:"API_KEY"`
	BaseURL        string `split_words:"true" default:"https://api.pagerduty.com"`
	PageLimit      int    `split_words:"true" default:"25"`
	TimeZone       string `split_words:"true" default:"UTC"`
	IncidentPaging string `split_words:"true" default:"offset"`
}

type Client struct {
	cfg        Config
	baseURL    *url.URL
	httpClient *http.Client
	metrics    *metrics.API
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient sets the client whose transport requests go through.
// Authentication and tracing are layered on top of it.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

func WithMetrics(m *metrics.API) Option {
	return func(client *Client) {
		client.metrics = m
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(client *Client) {
		client.logger = l
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("PagerDuty API key is required")
	}
	if cfg.PageLimit <= 0 {
		return nil, fmt.Errorf("page limit must be positive, got %d", cfg.PageLimit)
	}
	if cfg.IncidentPaging != PagingOffset && cfg.IncidentPaging != PagingCursor {
		return nil, fmt.Errorf("unknown incident paging mode %q", cfg.IncidentPaging)
	}

	baseURL, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	c := &Client{
		cfg:        cfg,
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.httpClient = &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				TokenType:   "Token",
				AccessToken: "token=" + cfg.APIKey,
			}),
			Base: otelhttp.NewTransport(base),
		},
	}

	return c, nil
}

// fetchAll requests every page of the collection under key and returns the
// items in the order the API produced them.
func fetchAll(ctx context.Context, c *Client, endpoint, path, key string, q url.Values, pager Pager) (_ []incident.Record, err error) {
	var (
		all   []incident.Record
		pages int
	)

	ctx, span := tracer.Start(ctx, "GET "+endpoint, trace.WithAttributes(semconv.EndpointKey.String(endpoint)))
	defer func() {
		span.SetAttributes(semconv.PageCountKey.Int(pages))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	pager.Start(q)
	for {
		page, err := c.get(ctx, endpoint, path, q)
		if err != nil {
			return nil, err
		}
		pages++

		items, info, err := decodePage(page, key)
		if err != nil {
			return nil, &apierr.DecodeError{URL: path, Err: err}
		}

		all = append(all, items...)
		c.metrics.ObserveItems(endpoint, len(items))
		c.logger.DebugContext(ctx, "fetched page", "path", path, "page", pages, "items", len(items), "more", info.More)

		if !pager.Next(q, info) {
			return all, nil
		}
	}
}

func decodePage(page map[string]json.RawMessage, key string) ([]incident.Record, PageInfo, error) {
	raw, ok := page[key]
	if !ok {
		return nil, PageInfo{}, fmt.Errorf("missing %q in response", key)
	}

	var items []incident.Record
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, PageInfo{}, fmt.Errorf("decoding %q: %w", key, err)
	}

	info := PageInfo{Items: len(items)}
	if more, ok := page["more"]; ok {
		if err := json.Unmarshal(more, &info.More); err != nil {
			return nil, PageInfo{}, fmt.Errorf("decoding \"more\": %w", err)
		}
	}
	if last, ok := page["last"]; ok {
		// Cursors are opaque; accept strings and numbers alike.
		var cursor any
		if err := json.Unmarshal(last, &cursor); err != nil {
			return nil, PageInfo{}, fmt.Errorf("decoding \"last\": %w", err)
		}
		switch v := cursor.(type) {
		case string:
			info.Cursor = v
		case float64:
			info.Cursor = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}

	return items, info, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) (map[string]json.RawMessage, error) {
	q := url.Values{
		"total":     {"false"},
		"time_zone": {c.cfg.TimeZone},
		"limit":     {strconv.Itoa(c.cfg.PageLimit)},
	}
	for k, v := range params {
		q[k] = v
	}

	u := c.baseURL.JoinPath(path)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(endpoint, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apierr.StatusError{
			Method:     http.MethodGet,
			URL:        path,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var page map[string]json.RawMessage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &apierr.DecodeError{URL: path, Err: err}
	}

	return page, nil
}
