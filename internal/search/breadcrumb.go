package search

import (
	"encoding/json"
	"regexp"
	"strings"

	customsearch "google.golang.org/api/customsearch/v1"
)

var (
	schemeRe = regexp.MustCompile(`^https?://`)
	// Cut the URL at the first query string or page extension; what remains
	// is the path hierarchy worth showing.
	pathEndRe = regexp.MustCompile(`(\?|\.php|\.html).*`)
)

const (
	maxSegmentLen = 30
	maxTrailLen   = 95
)

// breadcrumb derives a "domain > section > page" trail for a result. It
// prefers the structured pagemap listitem entries and falls back to carving
// the trail out of the URL.
func breadcrumb(item *customsearch.Result) string {
	if trail := trailFromPagemap(item); trail != "" {
		return trail
	}
	return trailFromURL(item.Link)
}

func trailFromPagemap(item *customsearch.Result) string {
	if len(item.Pagemap) == 0 {
		return ""
	}
	var pm struct {
		Listitem []struct {
			Name string `json:"name"`
		} `json:"listitem"`
	}
	if err := json.Unmarshal(item.Pagemap, &pm); err != nil || len(pm.Listitem) == 0 {
		return ""
	}
	// The last listitem is the current page; the domain leads the trail.
	parts := []string{item.DisplayLink}
	for _, li := range pm.Listitem[:len(pm.Listitem)-1] {
		parts = append(parts, li.Name)
	}
	return strings.Join(parts, " > ")
}

func trailFromURL(link string) string {
	trimmed := schemeRe.ReplaceAllString(link, "")
	trimmed = pathEndRe.ReplaceAllString(trimmed, "")
	return refineTrail(strings.Split(strings.TrimSuffix(trimmed, "/"), "/"))
}

// refineTrail keeps the domain and the final segment readable and elides long
// middle segments so the trail fits on one line.
func refineTrail(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	if len(segments) == 1 {
		return segments[0]
	}
	parts := make([]string, 0, len(segments))
	parts = append(parts, segments[0])
	for _, seg := range segments[1 : len(segments)-1] {
		if len(seg) > maxSegmentLen {
			seg = "..."
		}
		parts = append(parts, seg)
	}
	parts = append(parts, segments[len(segments)-1])
	trail := strings.Join(parts, " > ")
	if len(trail) > maxTrailLen {
		trail = trail[:maxTrailLen] + "..."
	}
	return trail
}
