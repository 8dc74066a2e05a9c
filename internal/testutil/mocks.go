// Package testutil provides test doubles for the publish pipeline.
package testutil

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/s3api"
)

// MockS3Client is a mock implementation of the S3API interface for testing.
// Each operation can be customized through its function field and every call
// is recorded for later assertions.
type MockS3Client struct {
	PutObjectFunc     func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2Func func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjectsFunc func(context.Context, *s3.DeleteObjectsInput, ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)

	mu          sync.Mutex
	putCalls    []*s3.PutObjectInput
	listCalls   []*s3.ListObjectsV2Input
	deleteCalls []*s3.DeleteObjectsInput
}

// PutObject mocks the S3 PutObject operation.
func (m *MockS3Client) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	m.putCalls = append(m.putCalls, params)
	m.mu.Unlock()

	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

// ListObjectsV2 mocks the S3 ListObjectsV2 operation.
func (m *MockS3Client) ListObjectsV2(
	ctx context.Context,
	params *s3.ListObjectsV2Input,
	optFns ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, params)
	m.mu.Unlock()

	if m.ListObjectsV2Func != nil {
		return m.ListObjectsV2Func(ctx, params, optFns...)
	}
	return &s3.ListObjectsV2Output{}, nil
}

// DeleteObjects mocks the S3 DeleteObjects operation.
func (m *MockS3Client) DeleteObjects(
	ctx context.Context,
	params *s3.DeleteObjectsInput,
	optFns ...func(*s3.Options),
) (*s3.DeleteObjectsOutput, error) {
	m.mu.Lock()
	m.deleteCalls = append(m.deleteCalls, params)
	m.mu.Unlock()

	if m.DeleteObjectsFunc != nil {
		return m.DeleteObjectsFunc(ctx, params, optFns...)
	}
	return &s3.DeleteObjectsOutput{}, nil
}

// PutCalls returns the recorded PutObject inputs.
func (m *MockS3Client) PutCalls() []*s3.PutObjectInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*s3.PutObjectInput(nil), m.putCalls...)
}

// ListCalls returns the recorded ListObjectsV2 inputs.
func (m *MockS3Client) ListCalls() []*s3.ListObjectsV2Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*s3.ListObjectsV2Input(nil), m.listCalls...)
}

// DeleteCalls returns the recorded DeleteObjects inputs.
func (m *MockS3Client) DeleteCalls() []*s3.DeleteObjectsInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*s3.DeleteObjectsInput(nil), m.deleteCalls...)
}

// Ensure MockS3Client implements S3API interface.
var _ s3api.S3API = (*MockS3Client)(nil)
