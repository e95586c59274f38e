package mediumimport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/blogium/blogium-api/internal/services"
	"github.com/mmcdole/gofeed"
)

// FeedSource reads a Medium user's public RSS feed.
type FeedSource struct {
	parser  *gofeed.Parser
	baseURL string
}

// NewFeedSource reads feeds below baseURL, e.g. https://medium.com/feed/.
func NewFeedSource(baseURL string, client *http.Client) *FeedSource {
	parser := gofeed.NewParser()
	parser.UserAgent = "Blogium/1.0"
	if client != nil {
		parser.Client = client
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &FeedSource{parser: parser, baseURL: baseURL}
}

func (f *FeedSource) URL(username string) string {
	return f.baseURL + "@" + username
}

// Fetch returns the parsed feed. A 404 from Medium means the account does
// not exist; any other failure is an upstream error.
func (f *FeedSource) Fetch(ctx context.Context, username string) (*gofeed.Feed, error) {
	feed, err := f.parser.ParseURLWithContext(f.URL(username), ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, ErrMediumUserNotFound
		}
		return nil, fmt.Errorf("%w: medium feed for @%s: %v", services.ErrUpstream, username, err)
	}
	return feed, nil
}
