// Package export renders search results for download.
package export

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/krezak/searchdeck/internal/group"
)

var tagRe = regexp.MustCompile(`<[^>]+>`)

// plain strips the API's HTML markup from titles and snippets.
func plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(s, "")))
}

// WriteResults renders grouped results as a simple PDF: the query as the
// document heading, one bold heading per domain, and each result as a
// clickable title followed by its snippet.
func WriteResults(w io.Writer, query string, groups []group.Group) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(query, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 9, fmt.Sprintf("Search results: %s", query), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, g := range groups {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, g.Domain, "", 1, "L", false, 0, "")
		for _, r := range g.Results {
			pdf.SetFont("Helvetica", "", 11)
			pdf.SetTextColor(0, 0, 180)
			pdf.WriteLinkString(5.5, plain(r.Title), r.Link)
			pdf.Ln(6)
			pdf.SetTextColor(0, 0, 0)
			if snippet := plain(r.Snippet); snippet != "" {
				pdf.SetFont("Helvetica", "", 9)
				pdf.MultiCell(0, 4.5, snippet, "", "L", false)
			}
			pdf.Ln(1.5)
		}
		pdf.Ln(3)
	}

	return pdf.Output(w)
}
