// Package objectstore abstracts the bucket-style object store the recordings
// live in: prefix listing (recursive or delimiter-scoped), whole-object reads
// and writes, and time-limited read URLs.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/recviewer/internal/common"
)

// ErrNotFound is returned by GetObject and OpenObject for absent keys.
var ErrNotFound = fmt.Errorf("object %w", common.ErrorNotFound)

// Delimiter used for single-level listings.
const Delimiter = "/"

// Object describes one listed object.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ListInput selects one page of a listing. An empty Delimiter lists
// recursively; "/" returns direct children as CommonPrefixes.
type ListInput struct {
	Prefix            string
	Delimiter         string
	ContinuationToken string
	MaxKeys           int32
}

// ListPage is one page of results. NextToken is empty on the last page.
type ListPage struct {
	Items          []Object
	CommonPrefixes []string
	NextToken      string
}

// Reader is a streamed object body.
type Reader struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Store is the object-store capability.
type Store interface {
	ListObjects(ctx context.Context, in ListInput) (ListPage, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
	OpenObject(ctx context.Context, key string) (*Reader, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Walk visits every object under prefix, following continuation tokens
// page by page. A listing failure aborts the walk; fn returning an error
// stops it and that error is returned. ErrStop ends the walk cleanly.
func Walk(ctx context.Context, s Store, prefix string, fn func(Object) error) error {
	token := ""
	for {
		page, err := s.ListObjects(ctx, ListInput{Prefix: prefix, ContinuationToken: token})
		if err != nil {
			return err
		}
		for _, o := range page.Items {
			if err := fn(o); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
		}
		if page.NextToken == "" {
			return nil
		}
		token = page.NextToken
	}
}

// ErrStop can be returned from a Walk callback to end the walk early.
var ErrStop = errors.New("stop walk")

// Children returns the names of the direct child "directories" of prefix
// using a delimiter-scoped listing; it never descends further.
func Children(ctx context.Context, s Store, prefix string) ([]string, error) {
	var names []string
	token := ""
	for {
		page, err := s.ListObjects(ctx, ListInput{Prefix: prefix, Delimiter: Delimiter, ContinuationToken: token})
		if err != nil {
			return nil, err
		}
		for _, p := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(p, prefix), Delimiter)
			if name != "" {
				names = append(names, name)
			}
		}
		if page.NextToken == "" {
			return names, nil
		}
		token = page.NextToken
	}
}
