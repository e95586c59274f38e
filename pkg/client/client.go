// Package client is a Go client for the Blogium HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx response. Message comes from the server's error
// body when it has one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("blogium: status %d", e.StatusCode)
	}
	return fmt.Sprintf("blogium: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      *ArticleCache
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithCache(cache *ArticleCache) Option {
	return func(c *Client) { c.cache = cache }
}

// New returns a client for the API rooted at baseURL, for example
// "https://blogium.dev/api". A default ArticleCache is attached unless
// WithCache overrides it.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      NewArticleCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Cache() *ArticleCache {
	return c.cache
}

// ListArticles serves repeated queries from the cache until the entry
// expires.
func (c *Client) ListArticles(ctx context.Context, params ListParams) (*ArticlePage, error) {
	if c.cache != nil {
		if page, ok := c.cache.Get(params); ok {
			return page, nil
		}
	}

	var page ArticlePage
	if err := c.do(ctx, http.MethodGet, "/articles?"+query(params).Encode(), nil, &page); err != nil {
		return nil, err
	}
	if page.Articles == nil {
		page.Articles = []Article{}
	}

	if c.cache != nil {
		c.cache.Put(params, &page)
	}
	return &page, nil
}

func (c *Client) GetArticle(ctx context.Context, slug string) (*Article, error) {
	return c.article(ctx, http.MethodGet, "/articles/"+url.PathEscape(slug), nil)
}

func (c *Client) CreateArticle(ctx context.Context, in ArticleInput) (*Article, error) {
	defer c.invalidate()
	return c.article(ctx, http.MethodPost, "/articles", in)
}

func (c *Client) UpdateArticle(ctx context.Context, slug string, in ArticleInput) (*Article, error) {
	defer c.invalidate()
	return c.article(ctx, http.MethodPut, "/articles/"+url.PathEscape(slug), in)
}

func (c *Client) DeleteArticle(ctx context.Context, slug string) error {
	defer c.invalidate()
	return c.do(ctx, http.MethodDelete, "/articles/"+url.PathEscape(slug), nil, nil)
}

func (c *Client) FavoriteArticle(ctx context.Context, slug string) (*Article, error) {
	defer c.invalidate()
	return c.article(ctx, http.MethodPost, "/articles/"+url.PathEscape(slug)+"/favorite", nil)
}

func (c *Client) UnfavoriteArticle(ctx context.Context, slug string) (*Article, error) {
	defer c.invalidate()
	return c.article(ctx, http.MethodDelete, "/articles/"+url.PathEscape(slug)+"/favorite", nil)
}

func (c *Client) invalidate() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

func (c *Client) article(ctx context.Context, method, path string, body any) (*Article, error) {
	var env articleEnvelope
	if err := c.do(ctx, method, path, body, &env); err != nil {
		return nil, err
	}
	return &env.Article, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&errBody) == nil {
			apiErr.Message = errBody.Message
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func query(params ListParams) url.Values {
	q := url.Values{}
	if params.Tag != "" {
		q.Set("tag", params.Tag)
	}
	if params.Author != "" {
		q.Set("author", params.Author)
	}
	if params.Favorited != "" {
		q.Set("favorited", params.Favorited)
	}
	if params.Search != "" {
		q.Set("search", params.Search)
	}
	if params.Limit != nil {
		q.Set("limit", strconv.Itoa(*params.Limit))
	}
	if params.Offset != nil {
		q.Set("offset", strconv.Itoa(*params.Offset))
	}
	return q
}
