package output

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/dynoinc/incidentreport/internal/apierr"
	"github.com/dynoinc/incidentreport/internal/report"
)

const contentPath = "/wiki/rest/api/content/"

type ConfluenceConfig struct {
	URL      string
	User     string
	APIToken string `envconfig:"API_TOKEN"`
	SpaceKey string `split_words:"true"`
	Title    string
}

// Confluence publishes reports as a single wiki page.
type Confluence struct {
	cfg        ConfluenceConfig
	httpClient *http.Client
	logger     *slog.Logger
}

func NewConfluence(cfg ConfluenceConfig, httpClient *http.Client, logger *slog.Logger) (*Confluence, error) {
	if cfg.URL == "" || cfg.User == "" || cfg.APIToken == "" {
		return nil, errors.New("confluence URL, user and API token are required")
	}
	if cfg.SpaceKey == "" || cfg.Title == "" {
		return nil, errors.New("confluence space key and page title are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(cfg.User + ":" + cfg.APIToken))

	return &Confluence{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: httpClient.Timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{TokenType: "Basic", AccessToken: credentials}),
				Base:   otelhttp.NewTransport(base),
			},
		},
		logger: logger,
	}, nil
}

func (c *Confluence) Write(ctx context.Context, reports ...report.Report) error {
	id, err := c.CreatePage(ctx, c.cfg.SpaceKey, c.cfg.Title, WikiMarkup(reports...))
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "confluence page created", "id", id, "space", c.cfg.SpaceKey, "title", c.cfg.Title)
	return nil
}

type createPageRequest struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	Body struct {
		Storage struct {
			Value          string `json:"value"`
			Representation string `json:"representation"`
		} `json:"storage"`
	} `json:"body"`
}

// CreatePage creates a page holding wiki markup and returns its id.
func (c *Confluence) CreatePage(ctx context.Context, spaceKey, title, body string) (string, error) {
	var payload createPageRequest
	payload.Type = "page"
	payload.Title = title
	payload.Space.Key = spaceKey
	payload.Body.Storage.Value = body
	payload.Body.Storage.Representation = "wiki"

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding page: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.URL, "/") + contentPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", contentPath, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response from %s: %w", contentPath, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &apierr.StatusError{
			Method:     http.MethodPost,
			URL:        contentPath,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var page struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &page); err != nil {
		return "", &apierr.DecodeError{URL: contentPath, Err: err}
	}
	if page.ID == "" {
		return "", &apierr.DecodeError{URL: contentPath, Err: errors.New("missing page id")}
	}

	return page.ID, nil
}

var wikiEscaper = strings.NewReplacer(
	`|`, `\|`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
	"\r\n", " ",
	"\n", " ",
)

// WikiMarkup renders reports as Confluence wiki tables, each under a heading.
func WikiMarkup(reports ...report.Report) string {
	var sb strings.Builder
	for i, r := range reports {
		if i > 0 {
			sb.WriteString("\n")
		}

		fmt.Fprintf(&sb, "h2. %s\n", Title(r))
		writeWikiRow(&sb, "||", r.Header)
		for _, row := range r.Rows {
			writeWikiRow(&sb, "|", row)
		}
	}
	return sb.String()
}

func writeWikiRow(sb *strings.Builder, sep string, cells []string) {
	sb.WriteString(sep)
	for _, cell := range cells {
		cell = wikiEscaper.Replace(cell)
		if cell == "" {
			cell = " "
		}
		sb.WriteString(cell)
		sb.WriteString(sep)
	}
	sb.WriteString("\n")
}

// Title names a report for headings: "Incidents" for a flat listing,
// "Incidents by <column>" for a grouped one.
func Title(r report.Report) string {
	if len(r.Header) == 2 && r.Header[1] == report.ColumnCount {
		return "Incidents by " + r.Header[0]
	}
	return "Incidents"
}
