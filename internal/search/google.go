package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/krezak/searchdeck/internal/metrics"
)

// Client queries the Google Custom Search JSON API for one credential pair.
type Client struct {
	cx  string
	svc *customsearch.Service
}

// NewClient builds a client bound to a single API key and engine ID. Extra
// options are appended after the API key, so tests can point the service at a
// local endpoint.
func NewClient(ctx context.Context, apiKey, engineID string, opts ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(engineID) == "" {
		return nil, errors.New("api key and engine id are required")
	}
	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("custom search service: %w", err)
	}
	return &Client{cx: engineID, svc: svc}, nil
}

func (c *Client) Engine() string { return c.cx }

func (c *Client) Search(ctx context.Context, query string, start int, sort string) (*Page, error) {
	call := c.svc.Cse.List().Context(ctx).Cx(c.cx).Q(query).Num(PageSize)
	if start > 1 {
		call = call.Start(int64(start))
	}
	if sort != "" {
		call = call.Sort(sort)
	}
	resp, err := call.Do()
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(c.cx, classify(err)).Inc()
		return nil, fmt.Errorf("custom search: %w", err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(c.cx, "ok").Inc()

	page := &Page{Results: make([]Result, 0, len(resp.Items))}
	for _, item := range resp.Items {
		if item == nil || item.Link == "" {
			continue
		}
		page.Results = append(page.Results, Result{
			Title:       item.HtmlTitle,
			Link:        item.Link,
			DisplayLink: item.DisplayLink,
			Snippet:     item.HtmlSnippet,
			Breadcrumb:  breadcrumb(item),
		})
	}
	if resp.Queries != nil && len(resp.Queries.NextPage) > 0 && resp.Queries.NextPage[0] != nil {
		page.NextStart = int(resp.Queries.NextPage[0].StartIndex)
	}
	if si := resp.SearchInformation; si != nil {
		if n, err := strconv.ParseInt(si.TotalResults, 10, 64); err == nil {
			page.TotalResults = n
		}
		page.SearchTime = si.SearchTime
		metrics.SearchDuration.WithLabelValues(c.cx).Observe(si.SearchTime)
	}
	return page, nil
}

// quotaReasons are the googleapi error reasons that mean a key ran out of
// budget rather than the request being wrong.
var quotaReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
	"quotaExceeded":         true,
}

// IsQuota reports whether err is a quota or rate-limit rejection.
func IsQuota(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == 429 {
		return true
	}
	if gerr.Code != 403 {
		return false
	}
	for _, item := range gerr.Errors {
		if quotaReasons[item.Reason] {
			return true
		}
	}
	return false
}

// IsAuth reports whether err is an authorization rejection of the credential
// pair itself (bad key, key not enabled for the API, forbidden engine).
func IsAuth(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == 401 || (gerr.Code == 403 && !IsQuota(err))
}

func classify(err error) string {
	switch {
	case IsQuota(err):
		return "quota"
	case IsAuth(err):
		return "auth"
	default:
		return "error"
	}
}
