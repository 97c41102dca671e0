// Package ossblob stores blobs in Aliyun OSS buckets.
package ossblob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
)

type Store struct {
	client   *oss.Client
	endpoint string // without scheme

	mu      sync.Mutex
	buckets map[string]*oss.Bucket
}

var _ core.BlobStore = (*Store)(nil) // interface compliance check

func New(conf core.StorageConfig) (*Store, error) {
	client, err := oss.New(conf.Endpoint, conf.AccessKeyID, conf.AccessKeySecret)
	if err != nil {
		return nil, errors.Wrap(err, "oss.New")
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(conf.Endpoint, "https://"), "http://")
	return &Store{
		client:   client,
		endpoint: strings.TrimRight(endpoint, "/"),
		buckets:  make(map[string]*oss.Bucket),
	}, nil
}

func (s *Store) bucket(name string) (*oss.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bkt, ok := s.buckets[name]; ok {
		return bkt, nil
	}
	bkt, err := s.client.Bucket(name)
	if err != nil {
		return nil, errors.Wrapf(err, "client.Bucket(%s)", name)
	}
	s.buckets[name] = bkt
	return bkt, nil
}

func (s *Store) Put(ctx context.Context, bucket, path string, r io.Reader, contentType string) error {
	bkt, err := s.bucket(bucket)
	if err != nil {
		return err
	}
	opts := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if err = bkt.PutObject(strings.TrimPrefix(path, "/"), r, opts...); err != nil {
		return errors.Wrapf(err, "putting %s/%s", bucket, path)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, bucket, path string) error {
	bkt, err := s.bucket(bucket)
	if err != nil {
		return err
	}
	if err = bkt.DeleteObject(strings.TrimPrefix(path, "/"), oss.WithContext(ctx)); err != nil {
		return errors.Wrapf(err, "deleting %s/%s", bucket, path)
	}
	return nil
}

func (s *Store) PublicURL(bucket, path string) string {
	return fmt.Sprintf("https://%s.%s/%s", bucket, s.endpoint, strings.TrimPrefix(path, "/"))
}

func (s *Store) SignedURL(_ context.Context, bucket, path string, expiry time.Duration) (string, error) {
	bkt, err := s.bucket(bucket)
	if err != nil {
		return "", err
	}
	url, err := bkt.SignURL(strings.TrimPrefix(path, "/"), oss.HTTPGet, int64(expiry/time.Second))
	if err != nil {
		return "", errors.Wrapf(err, "signing %s/%s", bucket, path)
	}
	return url, nil
}
