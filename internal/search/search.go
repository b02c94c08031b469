package search

import (
	"context"
)

// PageSize is the hard per-call result limit of the Custom Search JSON API.
const PageSize = 10

// MaxStart is the highest start index the API serves; nothing past result 100
// is available regardless of the reported total.
const MaxStart = 100

// Result is a single search hit shaped for display.
type Result struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	DisplayLink string `json:"display_link"`
	Snippet     string `json:"snippet"`
	Breadcrumb  string `json:"breadcrumb_trail"`
}

// Page is one API page of results plus the pagination and timing metadata
// the front-end renders.
type Page struct {
	Results      []Result
	NextStart    int // 0 when there is no next page
	TotalResults int64
	SearchTime   float64 // seconds, as reported by the API
}

// Searcher issues one Custom Search call. start is 1-based; sort is ""
// (relevance) or "date".
type Searcher interface {
	Search(ctx context.Context, query string, start int, sort string) (*Page, error)
	Engine() string
}
