// Package credentials manages the named API-key and search-engine-ID files
// that back the portal's credential pairs.
package credentials

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one named value in a credential file. Order is significant: pairs
// are formed positionally across the two files.
type Entry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// File is an ordered credential file loaded into memory.
type File struct {
	Path    string
	Entries []Entry
}

// Pair joins an API key with the search-engine ID it is used with.
type Pair struct {
	Name       string // key entry name, the pair's identity for logs and admin UI
	APIKey     string
	EngineName string
	EngineID   string
}

// LoadFile parses a credential file of 'NAME'='VALUE' lines. Quotes are
// optional on read; blank lines and '#' comments are skipped. Duplicate
// names are rejected so a pair's identity stays unambiguous.
func LoadFile(path string) (*File, error) {
	f := &File{Path: path}
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	seen := map[string]bool{}
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		name := unquote(strings.TrimSpace(line[:eq]))
		value := unquote(strings.TrimSpace(line[eq+1:]))
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("%s: duplicate entry %q", filepath.Base(path), name)
		}
		seen[name] = true
		f.Entries = append(f.Entries, Entry{Name: name, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return f, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Pairs zips the i-th key with the i-th engine. A trailing unpaired entry in
// either file is dropped; the caller logs the mismatch.
func Pairs(keys, engines *File) []Pair {
	n := len(keys.Entries)
	if len(engines.Entries) < n {
		n = len(engines.Entries)
	}
	out := make([]Pair, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Pair{
			Name:       keys.Entries[i].Name,
			APIKey:     keys.Entries[i].Value,
			EngineName: engines.Entries[i].Name,
			EngineID:   engines.Entries[i].Value,
		})
	}
	return out
}

// Save writes the file back in the quoted format, via a temp file and rename
// so the watcher sees exactly one change.
func (f *File) Save() error {
	tmp := f.Path + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	w := bufio.NewWriter(fh)
	for _, e := range f.Entries {
		fmt.Fprintf(w, "'%s'='%s'\n", e.Name, e.Value)
	}
	if err := w.Flush(); err != nil {
		fh.Close()
		return err
	}
	if err := fh.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}
