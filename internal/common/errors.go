// Package common defines shared constants and sentinel errors used across
// the audio API layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Object store errors.
	ErrS3Client            = errors.New("s3 client error")
	ErrPersistence         = errors.New("s3 persistence error")
	ErrFileNotFound        = errors.New("file not found")
	ErrBucketNotConfigured = errors.New("bucket not configured")

	// Metadata store errors.
	ErrDBClient     = errors.New("db client error")
	ErrDBStatus     = errors.New("db status error")
	ErrItemNotFound = errors.New("item not found")
)
