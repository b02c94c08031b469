package credentials

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFileQuotedFormat(t *testing.T) {
	path := writeFile(t, "api_keys.env", `
'primary'='AIzaKey1'
# backup account
'backup'='AIzaKey2'
plain=value3
`)
	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(f.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(f.Entries))
	}
	if f.Entries[0].Name != "primary" || f.Entries[0].Value != "AIzaKey1" {
		t.Fatalf("entry 0 = %+v", f.Entries[0])
	}
	if f.Entries[2].Name != "plain" || f.Entries[2].Value != "value3" {
		t.Fatalf("unquoted entry = %+v", f.Entries[2])
	}
}

func TestLoadFileRejectsDuplicates(t *testing.T) {
	path := writeFile(t, "api_keys.env", "'a'='1'\n'a'='2'\n")
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), `"a"`) {
		t.Fatalf("expected duplicate error naming the entry, got %v", err)
	}
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	f, err := LoadFile(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(f.Entries) != 0 {
		t.Fatalf("expected empty file, got %+v", f.Entries)
	}
}

func TestPairsZipPositionally(t *testing.T) {
	keys := &File{Entries: []Entry{{"k1", "key1"}, {"k2", "key2"}, {"k3", "key3"}}}
	engines := &File{Entries: []Entry{{"e1", "cx1"}, {"e2", "cx2"}}}
	pairs := Pairs(keys, engines)
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(pairs))
	}
	if pairs[1].Name != "k2" || pairs[1].APIKey != "key2" || pairs[1].EngineID != "cx2" {
		t.Fatalf("pair 1 = %+v", pairs[1])
	}
}

func TestApplyChangeSet(t *testing.T) {
	f := &File{Entries: []Entry{{"a", "1"}, {"b", "2"}, {"c", "3"}}}
	err := f.Apply(ChangeSet{
		Delete: []string{"b"},
		Update: []Update{{Original: "a", Name: "alpha", Value: "10"}},
		Add:    []Entry{{"d", "4"}},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := []Entry{{"alpha", "10"}, {"c", "3"}, {"d", "4"}}
	if len(f.Entries) != len(want) {
		t.Fatalf("entries = %+v", f.Entries)
	}
	for i := range want {
		if f.Entries[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, f.Entries[i], want[i])
		}
	}
}

func TestApplyRejectsNameCollisions(t *testing.T) {
	f := &File{Entries: []Entry{{"a", "1"}, {"b", "2"}}}
	if err := f.Apply(ChangeSet{Add: []Entry{{"a", "9"}}}); err == nil {
		t.Fatal("expected collision error on add")
	}
	f = &File{Entries: []Entry{{"a", "1"}, {"b", "2"}}}
	if err := f.Apply(ChangeSet{Update: []Update{{Original: "b", Name: "a"}}}); err == nil {
		t.Fatal("expected collision error on rename")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	f := &File{Path: "x.env", Entries: []Entry{{"a", "1"}, {"b", "2"}}}
	c := f.Clone()
	if err := c.Apply(ChangeSet{Add: []Entry{{"c", "3"}}, Delete: []string{"a"}}); err != nil {
		t.Fatalf("apply to clone: %v", err)
	}
	if len(f.Entries) != 2 || f.Entries[0] != (Entry{"a", "1"}) {
		t.Fatalf("original mutated by edit to clone: %+v", f.Entries)
	}
	if c.Path != "x.env" || len(c.Entries) != 2 {
		t.Fatalf("clone = %+v", c)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engines.env")
	f := &File{Path: path, Entries: []Entry{{"main", "cx-abc"}, {"news", "cx-def"}}}
	if err := f.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, err := LoadFile(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(back.Entries) != 2 || back.Entries[0] != f.Entries[0] || back.Entries[1] != f.Entries[1] {
		t.Fatalf("round trip mismatch: %+v", back.Entries)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "'main'='cx-abc'") {
		t.Fatalf("file not written in quoted format:\n%s", raw)
	}
}
