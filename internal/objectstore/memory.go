package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

const defaultMaxKeys = 1000

type memObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// MemoryStore is an in-process Store used by tests and the "memory" backend.
// Listings are returned in lexicographic key order like S3.
type MemoryStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memObject
	now     func() time.Time
}

func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{bucket: bucket, objects: map[string]memObject{}, now: time.Now}
}

// Seed stores an object with an explicit LastModified.
func (m *MemoryStore) Seed(key string, data []byte, lastModified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: data, lastModified: lastModified}
}

func (m *MemoryStore) sortedKeys(prefix string) []string {
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (m *MemoryStore) ListObjects(ctx context.Context, in ListInput) (ListPage, error) {
	if err := ctx.Err(); err != nil {
		return ListPage{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	maxKeys := int(in.MaxKeys)
	if maxKeys <= 0 {
		maxKeys = defaultMaxKeys
	}

	var page ListPage
	last := ""
	count := 0

	for _, k := range m.sortedKeys(in.Prefix) {
		if in.ContinuationToken != "" && k <= in.ContinuationToken {
			continue
		}
		if last != "" && k <= last {
			continue
		}
		if count == maxKeys {
			page.NextToken = last
			break
		}

		if in.Delimiter != "" {
			rest := strings.TrimPrefix(k, in.Prefix)
			if i := strings.Index(rest, in.Delimiter); i >= 0 {
				cp := in.Prefix + rest[:i+len(in.Delimiter)]
				page.CommonPrefixes = append(page.CommonPrefixes, cp)
				// 0xff sorts after every key that starts with cp
				last = cp + "\xff"
				count++
				continue
			}
		}

		o := m.objects[k]
		page.Items = append(page.Items, Object{Key: k, Size: int64(len(o.data)), LastModified: o.lastModified})
		last = k
		count++
	}

	return page, nil
}

func (m *MemoryStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(o.data), nil
}

func (m *MemoryStore) OpenObject(ctx context.Context, key string) (*Reader, error) {
	data, err := m.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	ct := m.objects[key].contentType
	m.mu.RUnlock()
	return &Reader{Body: io.NopCloser(bytes.NewReader(data)), ContentType: ct, ContentLength: int64(len(data))}, nil
}

func (m *MemoryStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: bytes.Clone(data), contentType: contentType, lastModified: m.now()}
	return nil
}

func (m *MemoryStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	expires := m.now().Add(ttl).Unix()
	return fmt.Sprintf("memory://%s/%s?expires=%d", m.bucket, url.PathEscape(key), expires), nil
}
