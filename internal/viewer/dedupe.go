// Package viewer holds client-side view state: the auto-refreshing session
// list of a device and the per-session view that analyzes tracks and merges
// transcripts. All state is owned by an explicit value with Start/Stop.
package viewer

import "sync"

// Deduper remembers which resources were already requested so that each is
// fetched at most once until Reset. Keys in flight and keys completed are
// treated alike.
type Deduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Claim marks key as requested. It reports false when key was already
// claimed, in which case the caller must not fetch.
func (d *Deduper) Claim(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Do runs fn if key was not claimed yet. It reports whether fn ran.
func (d *Deduper) Do(key string, fn func() error) (bool, error) {
	if !d.Claim(key) {
		return false, nil
	}
	return true, fn()
}

// Forget releases key so that it can be fetched again.
func (d *Deduper) Forget(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
}

func (d *Deduper) Has(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[key]
	return ok
}

// Reset forgets every key.
func (d *Deduper) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]struct{})
}
