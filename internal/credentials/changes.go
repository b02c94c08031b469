package credentials

import "fmt"

// Update renames an entry, replaces its value, or both. An empty Name keeps
// the original name; an empty Value keeps the original value.
type Update struct {
	Original string `json:"original"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

// ChangeSet is one admin edit applied to a credential file.
type ChangeSet struct {
	Add    []Entry  `json:"add"`
	Update []Update `json:"upd"`
	Delete []string `json:"del"`
}

func (cs ChangeSet) Empty() bool {
	return len(cs.Add) == 0 && len(cs.Update) == 0 && len(cs.Delete) == 0
}

// Clone copies the file so an edit can be validated without touching the
// original. Key and engine files are edited together, and a rejected edit to
// one must not leave a half-applied edit to the other.
func (f *File) Clone() *File {
	return &File{Path: f.Path, Entries: append([]Entry(nil), f.Entries...)}
}

// Apply rewrites the in-memory entry list: deletes first, then renames and
// value updates in place (preserving order), then appends. The file on disk
// is untouched until Save.
func (f *File) Apply(cs ChangeSet) error {
	drop := map[string]bool{}
	for _, name := range cs.Delete {
		drop[name] = true
	}
	updates := map[string]Update{}
	for _, u := range cs.Update {
		updates[u.Original] = u
	}

	out := make([]Entry, 0, len(f.Entries)+len(cs.Add))
	names := map[string]bool{}
	for _, e := range f.Entries {
		if drop[e.Name] {
			continue
		}
		if u, ok := updates[e.Name]; ok {
			if u.Name != "" {
				e.Name = u.Name
			}
			if u.Value != "" {
				e.Value = u.Value
			}
		}
		if names[e.Name] {
			return fmt.Errorf("update collides with existing entry %q", e.Name)
		}
		names[e.Name] = true
		out = append(out, e)
	}
	for _, e := range cs.Add {
		if e.Name == "" {
			return fmt.Errorf("added entry needs a name")
		}
		if names[e.Name] {
			return fmt.Errorf("entry %q already exists", e.Name)
		}
		names[e.Name] = true
		out = append(out, e)
	}
	f.Entries = out
	return nil
}
