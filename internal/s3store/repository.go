// Package s3store implements the object store adapter. It stores one binary
// blob per logical file in a single bucket and translates every SDK failure
// into one of the sentinel errors in internal/common, so callers never
// inspect provider-specific error codes.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/audioapi/internal/common"
	"github.com/dmitrijs2005/audioapi/internal/logging"
)

// Client is the subset of the S3 SDK used by this adapter. *s3.Client
// satisfies it; tests substitute fakes.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var _ Client = (*s3.Client)(nil)

// StoredFile describes an object stored in the bucket.
type StoredFile struct {
	Name string
	URL  string
}

// Repository stores and retrieves blobs in the bucket registered for one
// resource.
type Repository struct {
	client Client
	bucket string
	// endpoint is non-empty when running against LocalStack/MinIO; it changes
	// how public object URLs are built.
	endpoint string
	log      logging.Logger
}

// NewRepository binds a repository to the bucket registered for resource.
// An unregistered resource is a programming error and fails immediately
// with common.ErrBucketNotConfigured.
func NewRepository(client Client, resource Resource, endpoint string, log logging.Logger) (*Repository, error) {
	bucket, ok := Buckets[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrBucketNotConfigured, resource)
	}
	return &Repository{client: client, bucket: bucket, endpoint: endpoint, log: log}, nil
}

// objectURL builds the public retrieval URL for a key. With a custom
// endpoint configured the URL is path-style; otherwise it is the
// virtual-hosted AWS form.
func (r *Repository) objectURL(key string) string {
	if r.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(r.endpoint, "/"), r.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", r.bucket, key)
}

// Put uploads body under the exact key given by the caller. The caller is
// responsible for choosing a collision-resistant key; this adapter never
// renames.
func (r *Repository) Put(ctx context.Context, key string, body io.Reader) (StoredFile, error) {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		r.log.Error(ctx, "failed to put object", "bucket", r.bucket, "key", key, "error", err)
		return StoredFile{}, wrapErr(err)
	}

	r.log.Info(ctx, "object stored", "bucket", r.bucket, "key", key)
	return StoredFile{Name: key, URL: r.objectURL(key)}, nil
}

// Get returns the object body for key. The caller must close the returned
// reader. A missing key yields common.ErrFileNotFound.
func (r *Repository) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", common.ErrFileNotFound, key)
		}
		r.log.Error(ctx, "failed to get object", "bucket", r.bucket, "key", key, "error", err)
		return nil, wrapErr(err)
	}
	return out.Body, nil
}

// List enumerates every object in the bucket. An empty bucket yields an
// empty slice, never an error.
func (r *Repository) List(ctx context.Context) ([]StoredFile, error) {
	files := []StoredFile{}
	var token *string
	for {
		out, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(r.bucket),
			ContinuationToken: token,
		})
		if err != nil {
			r.log.Error(ctx, "failed to list objects", "bucket", r.bucket, "error", err)
			return nil, wrapErr(err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			files = append(files, StoredFile{Name: key, URL: r.objectURL(key)})
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	return files, nil
}

// Delete removes the object stored under key.
func (r *Repository) Delete(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		r.log.Error(ctx, "failed to delete object", "bucket", r.bucket, "key", key, "error", err)
		return wrapErr(err)
	}
	r.log.Info(ctx, "object deleted", "bucket", r.bucket, "key", key)
	return nil
}

// DeleteAll removes every object in the bucket. Test fixtures use it to
// reset state between cases; production flows never call it.
func (r *Repository) DeleteAll(ctx context.Context) error {
	files, err := r.List(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	ids := make([]types.ObjectIdentifier, 0, len(files))
	for _, f := range files {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(f.Name)})
	}
	_, err = r.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(r.bucket),
		Delete: &types.Delete{Objects: ids},
	})
	if err != nil {
		r.log.Error(ctx, "failed to delete all objects", "bucket", r.bucket, "error", err)
		return wrapErr(err)
	}
	return nil
}

// wrapErr translates an SDK error into the adapter's error taxonomy:
// a service-reported failure becomes common.ErrPersistence, anything else
// (network, auth, context cancellation) becomes common.ErrS3Client.
func wrapErr(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %s", common.ErrPersistence, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("%w: %v", common.ErrS3Client, err)
}
