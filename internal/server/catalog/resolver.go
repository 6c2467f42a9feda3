package catalog

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/recviewer/internal/common"
	"github.com/dmitrijs2005/recviewer/internal/keys"
	"github.com/dmitrijs2005/recviewer/internal/logging"
	"github.com/dmitrijs2005/recviewer/internal/objectstore"
	"github.com/dmitrijs2005/recviewer/internal/server/prefixindex"
)

// ErrSessionNotFound is returned when a folder name does not resolve to any
// session under the device.
var ErrSessionNotFound = fmt.Errorf("session %w", common.ErrorNotFound)

// Resolver turns a short session folder name into its full dated prefix.
type Resolver interface {
	Resolve(ctx context.Context, org, device, folderName string) (string, error)
}

// ScanResolver walks every object under the device until it finds a key whose
// folder segment equals folderName. Cost is linear in the device's objects.
type ScanResolver struct {
	store objectstore.Store
}

func NewScanResolver(store objectstore.Store) *ScanResolver {
	return &ScanResolver{store: store}
}

func (r *ScanResolver) Resolve(ctx context.Context, org, device, folderName string) (string, error) {
	var found string
	err := objectstore.Walk(ctx, r.store, keys.DevicePrefix(org, device), func(o objectstore.Object) error {
		k, ok := keys.ParseSessionKey(o.Key)
		if ok && k.Folder == folderName {
			found = k.Prefix()
			return objectstore.ErrStop
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrSessionNotFound
	}
	return found, nil
}

// IndexedResolver consults a prefix index first and falls back to another
// resolver on a miss, recording what the fallback finds. Index failures are
// logged and treated as misses.
type IndexedResolver struct {
	index    prefixindex.Index
	fallback Resolver
	log      logging.Logger
}

func NewIndexedResolver(index prefixindex.Index, fallback Resolver, log logging.Logger) *IndexedResolver {
	if log == nil {
		log = logging.Nop()
	}
	return &IndexedResolver{index: index, fallback: fallback, log: log}
}

func (r *IndexedResolver) Resolve(ctx context.Context, org, device, folderName string) (string, error) {
	p, ok, err := r.index.Lookup(ctx, org, device, folderName)
	if err != nil {
		r.log.Warn(ctx, "prefix index lookup failed", "org", org, "device", device, "folder", folderName, "error", err)
	}
	if ok {
		return p, nil
	}

	p, err = r.fallback.Resolve(ctx, org, device, folderName)
	if err != nil {
		return "", err
	}
	if err := r.index.Record(ctx, prefixindex.Entry{Org: org, Device: device, FolderName: folderName, Prefix: p}); err != nil {
		r.log.Warn(ctx, "prefix index record failed", "prefix", p, "error", err)
	}
	return p, nil
}
