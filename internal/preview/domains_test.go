package preview

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadDomains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxied_domains.txt")
	content := "# internal sites\nexample.com\n\nDocs.Example.ORG\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	d, err := LoadDomains(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"example.com", "docs.example.org"}
	if !reflect.DeepEqual(d.List(), want) {
		t.Fatalf("domains = %v, want %v", d.List(), want)
	}
}

func TestLoadDomainsMissingFile(t *testing.T) {
	d, err := LoadDomains(filepath.Join(t.TempDir(), "absent.txt"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(d.List()) != 0 || d.Match("example.com") {
		t.Fatalf("expected empty set, got %v", d.List())
	}
}

func TestMatchSubdomains(t *testing.T) {
	d := &Domains{list: []string{"example.com"}}
	cases := []struct {
		host string
		want bool
	}{
		{"example.com", true},
		{"www.example.com", true},
		{"a.b.example.com", true},
		{"EXAMPLE.COM", true},
		{"example.org", false},
		{"notexample.com", false},
	}
	for _, tc := range cases {
		if got := d.Match(tc.host); got != tc.want {
			t.Fatalf("Match(%q) = %v, want %v", tc.host, got, tc.want)
		}
	}
}

func TestApplyChangesAndSave(t *testing.T) {
	domains := []string{"a.com", "b.com", "c.com"}
	got := ApplyChanges(domains, []string{"d.com"}, map[string]string{"a.com": "alpha.com"}, []string{"b.com"})
	want := []string{"alpha.com", "c.com", "d.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("changes = %v, want %v", got, want)
	}

	path := filepath.Join(t.TempDir(), "proxied_domains.txt")
	if err := Save(path, got); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, err := LoadDomains(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(back.List(), want) {
		t.Fatalf("round trip = %v, want %v", back.List(), want)
	}
}
