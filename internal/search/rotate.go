package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/krezak/searchdeck/internal/metrics"
)

// ErrCredentialsExhausted is returned when every credential pair failed with
// a quota or authorization error for a query.
var ErrCredentialsExhausted = errors.New("no usable search credentials remain")

// DefaultCooldown is how long a quota-failed pair is skipped by later queries.
const DefaultCooldown = 5 * time.Minute

type rotatorEntry struct {
	name      string
	engine    string
	client    Searcher
	coolUntil time.Time
}

// Rotator tries credential pairs in configuration order, falling over to the
// next pair on quota or authorization failures. Each pair is tried at most
// once per call. A pair that hit its quota enters a cooldown window and is
// skipped by subsequent calls until the window lapses, unless no other pair
// is left to try.
type Rotator struct {
	mu       sync.Mutex
	entries  []*rotatorEntry
	cooldown time.Duration
}

func NewRotator(cooldown time.Duration) *Rotator {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Rotator{cooldown: cooldown}
}

// Add appends a pair. Priority follows insertion order.
func (r *Rotator) Add(name, engine string, client Searcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, &rotatorEntry{name: name, engine: engine, client: client})
}

func (r *Rotator) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Engines lists the distinct engine names in first-seen order, for the
// engine selector in the UI.
func (r *Rotator) Engines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, e := range r.entries {
		if _, ok := seen[e.engine]; ok {
			continue
		}
		seen[e.engine] = struct{}{}
		out = append(out, e.engine)
	}
	return out
}

// candidates snapshots the pairs eligible for a query against the named
// engine (empty selects all). Cooling pairs are skipped unless that would
// leave nothing to try.
func (r *Rotator) candidates(engine string) []*rotatorEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var matching, hot []*rotatorEntry
	for _, e := range r.entries {
		if engine != "" && e.engine != engine {
			continue
		}
		matching = append(matching, e)
		if now.After(e.coolUntil) {
			hot = append(hot, e)
		}
	}
	if len(hot) > 0 {
		return hot
	}
	return matching
}

func (r *Rotator) markCooling(e *rotatorEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.coolUntil = time.Now().Add(r.cooldown)
}

// Search issues the query with the first eligible pair and walks down the
// priority order on quota or auth failures. Any other failure is terminal:
// surfacing a malformed request through every key would only mask it.
func (r *Rotator) Search(ctx context.Context, engine, query string, start int, sort string) (*Page, error) {
	cands := r.candidates(engine)
	if len(cands) == 0 {
		return nil, ErrCredentialsExhausted
	}
	for i, e := range cands {
		page, err := e.client.Search(ctx, query, start, sort)
		if err == nil {
			return page, nil
		}
		switch {
		case IsQuota(err):
			r.markCooling(e)
			metrics.CredentialRotationsTotal.WithLabelValues("quota").Inc()
		case IsAuth(err):
			r.markCooling(e)
			metrics.CredentialRotationsTotal.WithLabelValues("auth").Inc()
		default:
			return nil, err
		}
		if i == len(cands)-1 {
			return nil, fmt.Errorf("%w: tried %d pair(s), last %q: %v",
				ErrCredentialsExhausted, len(cands), e.name, err)
		}
	}
	return nil, ErrCredentialsExhausted
}
