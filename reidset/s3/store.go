// Package s3 provides an S3-compatible storage adapter for reidset.
//
// The adapter works with AWS S3, MinIO, LocalStack and other S3-compatible
// object stores. It serves both annotation trees (read by the loaders) and
// catalog snapshots.
//
// Put buffers the payload and issues a single PutObject with
// If-None-Match: *, so an existing key is never overwritten. Split files
// and manifests are small; there is no multipart path.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/justapithecus/reidset/reidset"
)

// maxPutSize is the S3 PutObject limit.
const maxPutSize = 5 * 1024 * 1024 * 1024

// API defines the subset of the S3 client used by the store.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config holds configuration for the S3 store.
type Config struct {
	// Bucket is the S3 bucket name. Required.
	Bucket string

	// Prefix is an optional key prefix for all operations.
	// A trailing slash is added if missing.
	Prefix string
}

// Store implements reidset.Store on an S3-compatible backend.
type Store struct {
	client API
	bucket string
	prefix string
}

// New creates an S3 store.
//
// The client must be configured with credentials, region and endpoint,
// typically via github.com/aws/aws-sdk-go-v2/config:
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store, err := s3store.New(s3.NewFromConfig(cfg), s3store.Config{Bucket: "reid-data"})
func New(client API, cfg Config) (*Store, error) {
	if client == nil {
		return nil, errors.New("s3: client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	prefix := cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

// Factory returns a reidset.StoreFactory for New.
func Factory(client API, cfg Config) reidset.StoreFactory {
	return func() (reidset.Store, error) { return New(client, cfg) }
}

// Put writes data to key. Returns reidset.ErrPathExists if the key exists.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) error {
	fullKey, err := s.validateKey(key)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, maxPutSize+1))
	if err != nil {
		return fmt.Errorf("s3: buffering payload: %w", err)
	}
	if n > maxPutSize {
		return fmt.Errorf("s3: payload for %q exceeds %d bytes", key, int64(maxPutSize))
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(fullKey),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(n),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		if isPreconditionFailed(err) {
			return reidset.ErrPathExists
		}
		return fmt.Errorf("s3: put object: %w", err)
	}
	return nil
}

// Get retrieves key. Returns reidset.ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullKey, err := s.validateKey(key)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, reidset.ErrNotFound
		}
		return nil, fmt.Errorf("s3: get object: %w", err)
	}
	return out.Body, nil
}

// Exists reports whether key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	fullKey, err := s.validateKey(key)
	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("s3: head object: %w", err)
	}
	return true, nil
}

// List returns all keys under prefix, relative to the store prefix, sorted.
// Pagination is handled internally.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix, err := s.validatePrefix(prefix)
	if err != nil {
		return nil, err
	}

	var keys []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(fullPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("s3: list objects: %w", err)
		}
		for _, obj := range out.Contents {
			if obj.Key != nil {
				keys = append(keys, strings.TrimPrefix(*obj.Key, s.prefix))
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	slices.Sort(keys)
	return keys, nil
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	fullKey, err := s.validateKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		return fmt.Errorf("s3: delete object: %w", err)
	}
	return nil
}

func (s *Store) validateKey(key string) (string, error) {
	if key == "" {
		return "", reidset.ErrInvalidPath
	}
	cleaned := strings.TrimPrefix(path.Clean(key), "/")
	if cleaned == "" || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", reidset.ErrInvalidPath
	}
	return s.prefix + cleaned, nil
}

func (s *Store) validatePrefix(prefix string) (string, error) {
	if prefix == "" {
		return s.prefix, nil
	}
	cleaned := strings.TrimPrefix(path.Clean(prefix), "/")
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", reidset.ErrInvalidPath
	}
	if cleaned == "." || cleaned == "" {
		return s.prefix, nil
	}
	if strings.HasSuffix(prefix, "/") {
		cleaned += "/"
	}
	return s.prefix + cleaned, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "404":
			return true
		}
	}
	return false
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "PreconditionFailed"
	}
	return false
}

var _ reidset.Store = (*Store)(nil)
