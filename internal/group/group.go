// Package group partitions search results by domain for grouped display.
package group

import (
	"net/url"
	"strings"

	"github.com/krezak/searchdeck/internal/search"
)

// Group is one domain's results in their original rank order.
type Group struct {
	Domain  string          `json:"domain"`
	Results []search.Result `json:"results"`
}

// ByDomain partitions results by domain, preserving intra-group rank order
// and first-seen group order. The partition is deterministic: equal input
// yields an identical grouping.
func ByDomain(results []search.Result) []Group {
	index := map[string]int{}
	var groups []Group
	for _, r := range results {
		d := Domain(r)
		i, ok := index[d]
		if !ok {
			i = len(groups)
			index[d] = i
			groups = append(groups, Group{Domain: d})
		}
		groups[i].Results = append(groups[i].Results, r)
	}
	return groups
}

// Domain derives the grouping key for a result: the lowercased URL host with
// any "www." prefix stripped. The display link is the fallback when the URL
// does not parse.
func Domain(r search.Result) string {
	if u, err := url.Parse(r.Link); err == nil && u.Hostname() != "" {
		return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}
	return strings.TrimPrefix(strings.ToLower(r.DisplayLink), "www.")
}
