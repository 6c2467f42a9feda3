// Package prefixindex maintains the folderName -> session prefix lookup that
// lets short session references be resolved without rescanning a device.
package prefixindex

import (
	"context"
	"sync"
)

// Entry maps one session folder to its full dated prefix.
type Entry struct {
	Org        string
	Device     string
	FolderName string
	Prefix     string
}

// Index is a secondary index over listing results. Lookup reports false when
// the folder was never recorded.
type Index interface {
	Lookup(ctx context.Context, org, device, folderName string) (string, bool, error)
	Record(ctx context.Context, entries ...Entry) error
}

type memKey struct{ org, device, folder string }

// MemoryIndex is a process-local Index.
type MemoryIndex struct {
	mu sync.RWMutex
	m  map[memKey]string
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{m: make(map[memKey]string)}
}

func (i *MemoryIndex) Lookup(_ context.Context, org, device, folderName string) (string, bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	p, ok := i.m[memKey{org, device, folderName}]
	return p, ok, nil
}

func (i *MemoryIndex) Record(_ context.Context, entries ...Entry) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, e := range entries {
		i.m[memKey{e.Org, e.Device, e.FolderName}] = e.Prefix
	}
	return nil
}

// Len reports the number of recorded folders.
func (i *MemoryIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.m)
}
