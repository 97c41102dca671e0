// Package memblob keeps blobs in memory. Used in tests and local runs.
package memblob

import (
	"context"
	"io"
	"io/ioutil"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
)

var nowFunc = time.Now // mockable

type Object struct {
	Content     []byte
	ContentType string
}

type Store struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]Object // {bucket/path: object}
}

var _ core.BlobStore = (*Store)(nil) // interface compliance check

// New returns a Store serving URLs under baseURL, eg. "http://localhost:8000/blobs".
func New(baseURL string) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

func key(bucket, path string) string {
	return bucket + "/" + strings.TrimPrefix(path, "/")
}

func (s *Store) Put(ctx context.Context, bucket, path string, r io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := ioutil.ReadAll(r)
	if err != nil {
		return errors.Wrapf(err, "reading %s", key(bucket, path))
	}
	s.mu.Lock()
	s.objects[key(bucket, path)] = Object{Content: content, ContentType: contentType}
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, bucket, path string) error {
	s.mu.Lock()
	delete(s.objects, key(bucket, path))
	s.mu.Unlock()
	return nil
}

// Get returns a stored object.
func (s *Store) Get(bucket, path string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key(bucket, path)]
	return obj, ok
}

func (s *Store) PublicURL(bucket, path string) string {
	return s.baseURL + "/" + key(bucket, path)
}

func (s *Store) SignedURL(_ context.Context, bucket, path string, expiry time.Duration) (string, error) {
	if _, ok := s.Get(bucket, path); !ok {
		return "", core.NewNotFoundError("file")
	}
	q := make(url.Values)
	q.Set("expires", strconv.FormatInt(nowFunc().Add(expiry).Unix(), 10))
	return s.PublicURL(bucket, path) + "?" + q.Encode(), nil
}
