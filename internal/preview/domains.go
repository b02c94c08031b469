// Package preview fetches and rewrites pages of domains that opted into the
// portal's proxy, and loads the opt-in list itself.
package preview

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Domains is the set of hosts eligible for proxying, loaded from
// proxied_domains.txt.
type Domains struct {
	list []string
}

// LoadDomains reads one domain per line; '#' comments and blank lines are
// ignored. A missing file yields an empty set so the proxy feature degrades
// to disabled.
func LoadDomains(path string) (*Domains, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Domains{}, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d := &Domains{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d.list = append(d.list, strings.ToLower(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return d, nil
}

// List returns the domains in file order.
func (d *Domains) List() []string {
	out := make([]string, len(d.list))
	copy(out, d.list)
	return out
}

// Match reports whether host is an opted-in domain or a subdomain of one.
func (d *Domains) Match(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, dom := range d.list {
		if host == dom || strings.HasSuffix(host, "."+dom) {
			return true
		}
	}
	return false
}

// Save writes the list back, one domain per line, atomically.
func Save(path string, domains []string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	w := bufio.NewWriter(f)
	for _, dom := range domains {
		fmt.Fprintln(w, dom)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ApplyChanges edits a domain list the way the admin panel sends it: deletes
// first, then renames, then appends.
func ApplyChanges(domains []string, add []string, rename map[string]string, del []string) []string {
	drop := map[string]bool{}
	for _, name := range del {
		drop[name] = true
	}
	out := make([]string, 0, len(domains)+len(add))
	for _, dom := range domains {
		if drop[dom] {
			continue
		}
		if to, ok := rename[dom]; ok && to != "" {
			dom = to
		}
		out = append(out, dom)
	}
	return append(out, add...)
}
