package testutil

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// MockBuilder provides a fluent interface for building MockS3Client instances.
type MockBuilder struct {
	client *MockS3Client
}

// NewMockBuilder creates a new MockBuilder.
func NewMockBuilder() *MockBuilder {
	return &MockBuilder{
		client: &MockS3Client{},
	}
}

// Build returns the configured MockS3Client.
func (b *MockBuilder) Build() *MockS3Client {
	return b.client
}

// WithPutObject configures the PutObject behavior.
func (b *MockBuilder) WithPutObject(
	fn func(context.Context, *s3.PutObjectInput) (*s3.PutObjectOutput, error),
) *MockBuilder {
	b.client.PutObjectFunc = func(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithListObjectsV2 configures the ListObjectsV2 behavior.
func (b *MockBuilder) WithListObjectsV2(
	fn func(context.Context, *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error),
) *MockBuilder {
	b.client.ListObjectsV2Func = func(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
		return fn(ctx, params)
	}
	return b
}

// WithDeleteObjects configures the DeleteObjects behavior.
func (b *MockBuilder) WithDeleteObjects(
	fn func(context.Context, *s3.DeleteObjectsInput) (*s3.DeleteObjectsOutput, error),
) *MockBuilder {
	b.client.DeleteObjectsFunc = func(ctx context.Context, params *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithSuccessfulUpload configures the mock to always return successful uploads.
func (b *MockBuilder) WithSuccessfulUpload() *MockBuilder {
	return b.WithPutObject(func(_ context.Context, params *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		if params.Body != nil {
			_, _ = io.Copy(io.Discard, params.Body)
		}
		return &s3.PutObjectOutput{ETag: aws.String(`"test-etag"`)}, nil
	})
}

// WithFailedUpload configures the mock to always return upload failures.
func (b *MockBuilder) WithFailedUpload(err error) *MockBuilder {
	return b.WithPutObject(func(context.Context, *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return nil, err
	})
}

// WithPages serves the given pages in order, chaining them with synthetic
// continuation tokens. The last page is not truncated.
func (b *MockBuilder) WithPages(pages ...[]types.Object) *MockBuilder {
	return b.WithListObjectsV2(func(_ context.Context, params *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
		idx := 0
		if token := aws.ToString(params.ContinuationToken); token != "" {
			idx = pageIndex(token)
		}
		if idx >= len(pages) {
			return &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}, nil
		}

		out := &s3.ListObjectsV2Output{
			Name:        params.Bucket,
			Contents:    pages[idx],
			KeyCount:    aws.Int32(int32(len(pages[idx]))),
			IsTruncated: aws.Bool(idx < len(pages)-1),
		}
		if idx < len(pages)-1 {
			out.NextContinuationToken = aws.String(pageToken(idx + 1))
		}
		return out, nil
	})
}

// WithEmptyBucket configures the mock to return an empty bucket listing.
func (b *MockBuilder) WithEmptyBucket() *MockBuilder {
	return b.WithPages(nil)
}

// WithSuccessfulDelete reports every requested object as deleted.
func (b *MockBuilder) WithSuccessfulDelete() *MockBuilder {
	return b.WithDeleteObjects(func(_ context.Context, params *s3.DeleteObjectsInput) (*s3.DeleteObjectsOutput, error) {
		out := &s3.DeleteObjectsOutput{}
		for _, obj := range params.Delete.Objects {
			out.Deleted = append(out.Deleted, types.DeletedObject{Key: obj.Key})
		}
		return out, nil
	})
}

// WithInvalidCredentials makes every operation fail the way S3 does when the
// access key is unknown.
func (b *MockBuilder) WithInvalidCredentials() *MockBuilder {
	err := CredentialError()
	b.WithFailedUpload(err)
	b.WithListObjectsV2(func(context.Context, *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
		return nil, err
	})
	return b.WithDeleteObjects(func(context.Context, *s3.DeleteObjectsInput) (*s3.DeleteObjectsOutput, error) {
		return nil, err
	})
}

// APIError builds a client-fault API error with the given code and message.
func APIError(code, message string) error {
	return &smithy.GenericAPIError{Code: code, Message: message, Fault: smithy.FaultClient}
}

// CredentialError returns the error S3 reports for an unknown access key.
func CredentialError() error {
	return APIError("InvalidAccessKeyId", "The AWS Access Key Id you provided does not exist in our records.")
}
