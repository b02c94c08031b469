// Package catalog loads the website previewer's spreadsheet: one sheet per
// category, one curated website per row.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Website is one curated entry of the previewer tab.
type Website struct {
	Title        string `json:"title"`
	Link         string `json:"link"`
	RequireProxy bool   `json:"proxy_required"`
}

// Category groups websites under a sheet name, in row order.
type Category struct {
	Name     string    `json:"name"`
	Websites []Website `json:"websites"`
}

// Catalog preserves sheet order.
type Catalog struct {
	Categories []Category
}

const (
	colName  = "Website Name"
	colLink  = "Website Link"
	colProxy = "Require Proxy"
)

// Load reads the spreadsheet. A missing file yields an empty catalog so the
// previewer degrades to a disabled tab instead of failing startup. Sheets
// without the expected header columns are skipped.
func Load(path string) (*Catalog, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Catalog{}, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cat := &Catalog{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		if len(rows) < 1 {
			continue
		}
		name, link, proxy := headerColumns(rows[0])
		if name < 0 || link < 0 {
			continue
		}
		c := Category{Name: sheet}
		for _, row := range rows[1:] {
			title := cell(row, name)
			href := cell(row, link)
			if title == "" || href == "" {
				continue
			}
			c.Websites = append(c.Websites, Website{
				Title:        title,
				Link:         href,
				RequireProxy: truthy(cell(row, proxy)),
			})
		}
		if len(c.Websites) > 0 {
			cat.Categories = append(cat.Categories, c)
		}
	}
	return cat, nil
}

func headerColumns(header []string) (name, link, proxy int) {
	name, link, proxy = -1, -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case colName:
			name = i
		case colLink:
			link = i
		case colProxy:
			proxy = i
		}
	}
	return
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// truthy matches the spreadsheet's loose proxy flags, including the "1.0"
// that numeric cells round-trip as.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "yes":
		return true
	}
	return false
}
