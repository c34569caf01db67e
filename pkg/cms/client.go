// Package cms provides a client for the headless CMS REST API: taxonomy
// categories and structured-content publication.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/marche-ricette/recipe-connector/internal/resilience"
)

const (
	taxonomyPrefix = "/o/headless-admin-taxonomy/v1.0"
	deliveryPrefix = "/o/headless-delivery/v1.0"

	// DefaultPageSize matches the largest page the connector ever needs.
	DefaultPageSize = 250
)

// Client defines the CMS operations used by the connector.
type Client interface {
	// ListVocabularyCategories returns the flattened categories of a vocabulary.
	ListVocabularyCategories(ctx context.Context, vocabularyID string) (*CategoryPage, error)
	// ListChildCategories returns the flattened children of a category.
	ListChildCategories(ctx context.Context, parentID int64) (*CategoryPage, error)
	// CreateStructuredContent publishes content into a structured-content folder.
	CreateStructuredContent(ctx context.Context, folderID int64, content StructuredContent) (*StructuredContentResponse, error)
}

// Option configures the CMS client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPageSize sets the pageSize query parameter for category listings.
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRetry sets the retry policy for category reads.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithScope sets the token scope requested from the TokenProvider.
func WithScope(scope string) Option {
	return func(c *httpClient) {
		if scope != "" {
			c.scope = scope
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	baseURL  string
	tokens   TokenProvider
	scope    string
	pageSize int
	retry    resilience.RetryConfig
	http     *http.Client
}

// NewClient creates a CMS client for baseURL authenticating with tokens.
func NewClient(baseURL string, tokens TokenProvider, opts ...Option) Client {
	c := &httpClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		tokens:   tokens,
		scope:    DefaultScope,
		pageSize: DefaultPageSize,
		retry:    resilience.DefaultRetryConfig(),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ListVocabularyCategories(ctx context.Context, vocabularyID string) (*CategoryPage, error) {
	path := fmt.Sprintf("%s/taxonomy-vocabularies/%s/taxonomy-categories", taxonomyPrefix, url.PathEscape(vocabularyID))
	return c.listCategories(ctx, path, "vocabulary "+vocabularyID)
}

func (c *httpClient) ListChildCategories(ctx context.Context, parentID int64) (*CategoryPage, error) {
	path := fmt.Sprintf("%s/taxonomy-categories/%d/taxonomy-categories", taxonomyPrefix, parentID)
	return c.listCategories(ctx, path, "category "+strconv.FormatInt(parentID, 10))
}

func (c *httpClient) listCategories(ctx context.Context, path, what string) (*CategoryPage, error) {
	params := url.Values{
		"flatten":  {"true"},
		"pageSize": {strconv.Itoa(c.pageSize)},
	}
	reqURL := c.baseURL + path + "?" + params.Encode()

	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("cms", "list categories")
	}

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*CategoryPage, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "cms: create request")
		}
		req.Header.Set("Accept", "application/json")

		body, err := c.do(ctx, req, "list categories of "+what)
		if err != nil {
			return nil, err
		}

		var page CategoryPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, resilience.Upstream(err, "cms: decode categories of "+what)
		}
		return &page, nil
	})
}

func (c *httpClient) CreateStructuredContent(ctx context.Context, folderID int64, content StructuredContent) (*StructuredContentResponse, error) {
	payload, err := json.Marshal(content)
	if err != nil {
		return nil, eris.Wrap(err, "cms: marshal structured content")
	}

	reqURL := fmt.Sprintf("%s%s/structured-content-folders/%d/structured-contents", c.baseURL, deliveryPrefix, folderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "cms: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(ctx, req, "create structured content")
	if err != nil {
		return nil, err
	}

	var created StructuredContentResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &created); err != nil {
			return nil, resilience.Upstream(err, "cms: decode structured content")
		}
	}
	if created.ExternalReferenceCode == "" {
		created.ExternalReferenceCode = content.ExternalReferenceCode
	}
	if created.Title == "" {
		created.Title = content.Title
	}

	zap.L().Info("cms: structured content created",
		zap.Int64("id", created.ID),
		zap.String("title", created.Title),
		zap.String("external_reference_code", created.ExternalReferenceCode),
	)
	return &created, nil
}

// do authorizes and sends req. Non-2xx statuses and transport failures
// match resilience.ErrUpstreamUnavailable; retryable statuses are also
// TransientErrors.
func (c *httpClient) do(ctx context.Context, req *http.Request, op string) ([]byte, error) {
	token, err := c.tokens.Token(ctx, c.scope)
	if err != nil {
		return nil, resilience.Upstream(err, "cms: "+op)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		zap.L().Warn("cms: request failed", zap.String("op", op), zap.Error(err))
		return nil, resilience.Upstream(err, "cms: "+op)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.Upstream(err, "cms: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zap.L().Error("cms: unexpected status",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 512)),
		)
		statusErr := eris.Errorf("status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.Upstream(resilience.NewTransientError(statusErr, resp.StatusCode), "cms: "+op)
		}
		return nil, resilience.Upstream(statusErr, "cms: "+op)
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
