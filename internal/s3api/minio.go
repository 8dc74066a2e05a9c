package s3api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/encrypt"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
)

// MinioAPI adapts a minio-go client to S3API for S3-compatible endpoints.
//
// minio-go has no continuation tokens; the adapter uses the last key of a
// page as the token and resumes with StartAfter.
type MinioAPI struct {
	client *minio.Client
}

// NewMinioAPI wraps client.
func NewMinioAPI(client *minio.Client) *MinioAPI {
	return &MinioAPI{client: client}
}

// PutObject uploads params.Body as a single object.
func (m *MinioAPI) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	_ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	opts, err := putOptions(params)
	if err != nil {
		return nil, err
	}

	size := int64(-1)
	if params.ContentLength != nil {
		size = *params.ContentLength
	}

	info, err := m.client.PutObject(ctx, aws.ToString(params.Bucket), aws.ToString(params.Key), params.Body, size, opts)
	if err != nil {
		return nil, translateError(err)
	}

	return &s3.PutObjectOutput{
		ETag:      aws.String(info.ETag),
		VersionId: aws.String(info.VersionID),
	}, nil
}

// ListObjectsV2 returns one page of at most MaxKeys objects.
func (m *MinioAPI) ListObjectsV2(
	ctx context.Context,
	params *s3.ListObjectsV2Input,
	_ ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	limit := int(aws.ToInt32(params.MaxKeys))
	if limit <= 0 || limit > MaxKeys {
		limit = MaxKeys
	}

	// Cancelling stops the listing goroutine once the page is full.
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := m.client.ListObjects(listCtx, aws.ToString(params.Bucket), minio.ListObjectsOptions{
		Prefix:     aws.ToString(params.Prefix),
		StartAfter: aws.ToString(params.ContinuationToken),
		Recursive:  true,
		MaxKeys:    limit,
	})

	out := &s3.ListObjectsV2Output{
		Name:        params.Bucket,
		MaxKeys:     aws.Int32(int32(limit)),
		IsTruncated: aws.Bool(false),
	}

	for obj := range objects {
		if obj.Err != nil {
			return nil, translateError(obj.Err)
		}
		if len(out.Contents) == limit {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = out.Contents[limit-1].Key
			break
		}
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(obj.Key),
			Size:         aws.Int64(obj.Size),
			ETag:         aws.String(obj.ETag),
			LastModified: aws.Time(obj.LastModified),
		})
	}

	out.KeyCount = aws.Int32(int32(len(out.Contents)))
	return out, nil
}

// DeleteObjects removes the requested objects.
//
// minio-go reports request-level failures once per object. When every object
// fails with the same error the call fails as a whole, matching the batch
// semantics of the S3 API.
func (m *MinioAPI) DeleteObjects(
	ctx context.Context,
	params *s3.DeleteObjectsInput,
	_ ...func(*s3.Options),
) (*s3.DeleteObjectsOutput, error) {
	if params.Delete == nil || len(params.Delete.Objects) == 0 {
		return &s3.DeleteObjectsOutput{}, nil
	}

	requested := params.Delete.Objects
	objectsCh := make(chan minio.ObjectInfo, len(requested))
	for _, obj := range requested {
		objectsCh <- minio.ObjectInfo{
			Key:       aws.ToString(obj.Key),
			VersionID: aws.ToString(obj.VersionId),
		}
	}
	close(objectsCh)

	failed := make(map[string]struct{})
	var objectErrors []types.Error
	var errs []error

	for rErr := range m.client.RemoveObjects(ctx, aws.ToString(params.Bucket), objectsCh, minio.RemoveObjectsOptions{}) {
		failed[rErr.ObjectName] = struct{}{}
		errs = append(errs, rErr.Err)

		resp := minio.ToErrorResponse(rErr.Err)
		objectErrors = append(objectErrors, types.Error{
			Key:     aws.String(rErr.ObjectName),
			Code:    aws.String(resp.Code),
			Message: aws.String(errorMessage(rErr.Err, resp)),
		})
	}

	if err := batchFailure(errs, len(requested)); err != nil {
		return nil, err
	}

	out := &s3.DeleteObjectsOutput{Errors: objectErrors}
	for _, obj := range requested {
		if _, ok := failed[aws.ToString(obj.Key)]; ok {
			continue
		}
		out.Deleted = append(out.Deleted, types.DeletedObject{Key: obj.Key})
	}
	return out, nil
}

// batchFailure returns the error for the whole request when every object
// failed the same way and the cause is the connection or the credentials
// rather than the objects. minio-go reports such failures once per object.
func batchFailure(errs []error, requested int) error {
	if requested == 0 || len(errs) != requested || errs[0] == nil {
		return nil
	}
	for _, err := range errs[1:] {
		if err == nil || err.Error() != errs[0].Error() {
			return nil
		}
	}

	if minio.ToErrorResponse(errs[0]).Code == "" {
		return errs[0]
	}
	translated := translateError(errs[0])
	if errors.IsCredentialError(translated) {
		return translated
	}
	return nil
}

// putOptions maps the SDK request fields onto minio-go options.
func putOptions(params *s3.PutObjectInput) (minio.PutObjectOptions, error) {
	opts := minio.PutObjectOptions{
		ContentType:             aws.ToString(params.ContentType),
		CacheControl:            aws.ToString(params.CacheControl),
		ContentDisposition:      aws.ToString(params.ContentDisposition),
		ContentEncoding:         aws.ToString(params.ContentEncoding),
		ContentLanguage:         aws.ToString(params.ContentLanguage),
		WebsiteRedirectLocation: aws.ToString(params.WebsiteRedirectLocation),
		StorageClass:            string(params.StorageClass),
	}
	if params.Expires != nil {
		opts.Expires = *params.Expires
	}

	if len(params.Metadata) > 0 || params.ACL != "" {
		opts.UserMetadata = make(map[string]string, len(params.Metadata)+1)
		for k, v := range params.Metadata {
			opts.UserMetadata[k] = v
		}
		// x-amz-* keys are sent as headers, not as x-amz-meta-*.
		if params.ACL != "" {
			opts.UserMetadata["x-amz-acl"] = string(params.ACL)
		}
	}

	if tagging := aws.ToString(params.Tagging); tagging != "" {
		values, err := url.ParseQuery(tagging)
		if err != nil {
			return opts, fmt.Errorf("parse tagging %q: %w", tagging, err)
		}
		opts.UserTags = make(map[string]string, len(values))
		for k := range values {
			opts.UserTags[k] = values.Get(k)
		}
	}

	switch params.ServerSideEncryption {
	case types.ServerSideEncryptionAes256:
		opts.ServerSideEncryption = encrypt.NewSSE()
	case types.ServerSideEncryptionAwsKms:
		sse, err := encrypt.NewSSEKMS(aws.ToString(params.SSEKMSKeyId), nil)
		if err != nil {
			return opts, fmt.Errorf("configure SSE-KMS: %w", err)
		}
		opts.ServerSideEncryption = sse
	}

	return opts, nil
}

// translateError turns minio error responses into smithy API errors so
// callers classify both backends the same way.
func translateError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "" {
		return err
	}

	fault := smithy.FaultClient
	if resp.StatusCode >= 500 {
		fault = smithy.FaultServer
	}
	return &smithy.GenericAPIError{
		Code:    resp.Code,
		Message: resp.Message,
		Fault:   fault,
	}
}

func errorMessage(err error, resp minio.ErrorResponse) string {
	if resp.Message != "" {
		return resp.Message
	}
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

var _ S3API = (*MinioAPI)(nil)
