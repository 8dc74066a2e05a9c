// Package s3api defines the storage operations a publish run needs.
// The interface is a subset of *s3.Client so tests can mock it and other
// S3-compatible clients can be adapted to it.
package s3api

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API defines the interface for the storage operations used by this module.
type S3API interface {
	// PutObject uploads an object
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)

	// ListObjectsV2 lists one page of objects in a bucket
	ListObjectsV2(
		ctx context.Context,
		params *s3.ListObjectsV2Input,
		optFns ...func(*s3.Options),
	) (*s3.ListObjectsV2Output, error)

	// DeleteObjects deletes up to 1000 objects in one request
	DeleteObjects(
		ctx context.Context,
		params *s3.DeleteObjectsInput,
		optFns ...func(*s3.Options),
	) (*s3.DeleteObjectsOutput, error)
}

// MaxKeys is the provider limit for list pages and delete batches.
const MaxKeys = 1000

// Verify that the AWS S3 client implements our interface
var _ S3API = (*s3.Client)(nil)
