package upload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/descriptor"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/s3types"
)

// Summary is the outcome of an upload pass.
type Summary struct {
	// Attempted counts the files a put request was issued for
	Attempted int

	// Keys are the keys uploaded successfully, in upload order
	Keys []string

	// Warnings are per-file problems, in the order they occurred
	Warnings []string

	// GaveUp is set when a credential failure stopped the pass
	GaveUp bool
}

// Uploader issues one PutObject per local file.
type Uploader struct {
	s3Client s3api.S3API
	resolver *descriptor.Resolver
	logger   *slog.Logger
}

// New creates a new Uploader. A nil resolver disables descriptors.
func New(s3Client s3api.S3API, resolver *descriptor.Resolver, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Uploader{
		s3Client: s3Client,
		resolver: resolver,
		logger:   logger,
	}
}

// UploadAll uploads files in order. Failures become warnings and the pass
// continues, except after a credential failure: every remaining file is then
// skipped without a request and without a warning.
func (u *Uploader) UploadAll(
	ctx context.Context,
	bucket string,
	files []s3types.LocalFile,
	translate s3types.PathTranslator,
) Summary {
	if translate == nil {
		translate = s3types.Identity
	}

	var summary Summary
	giveUp := false

	for _, file := range files {
		localPath := file.Path()
		key := translate(localPath)

		if giveUp {
			u.logger.InfoContext(ctx, "skipping upload after credential failure",
				"local_path", localPath,
				"key", key)
			continue
		}

		data, err := file.Content()
		if err != nil {
			summary.Warnings = append(summary.Warnings, putWarning(localPath, bucket, key, err))
			u.logger.ErrorContext(ctx, "failed to read file",
				"local_path", localPath,
				"error", err)
			continue
		}

		overrides, descWarnings := u.resolver.Resolve(localPath)
		summary.Warnings = append(summary.Warnings, descWarnings...)
		if !overrides.IsZero() {
			u.logger.DebugContext(ctx, "applying descriptor overrides",
				"local_path", localPath,
				"key", key)
		}

		input := BuildInput(bucket, key, file.Name(), data, overrides)

		summary.Attempted++
		if _, err := u.s3Client.PutObject(ctx, input); err != nil {
			summary.Warnings = append(summary.Warnings, putWarning(localPath, bucket, key, err))
			u.logger.ErrorContext(ctx, "upload failed",
				"local_path", localPath,
				"error", errors.NewError("put", err).WithBucket(bucket).WithKey(key))

			if errors.IsCredentialError(err) {
				giveUp = true
				summary.GaveUp = true
				u.logger.ErrorContext(ctx, "credential failure, giving up on remaining uploads",
					"bucket", bucket)
			}
			continue
		}

		summary.Keys = append(summary.Keys, key)
		u.logger.InfoContext(ctx, "uploaded file",
			"local_path", localPath,
			"bucket", bucket,
			"key", key,
			"content_type", aws.ToString(input.ContentType))
	}

	return summary
}

// BuildInput builds the put request for one file: base fields first, then
// every non-zero override on top.
func BuildInput(bucket, key, name string, data []byte, overrides s3types.ObjectParams) *s3.PutObjectInput {
	params := s3types.ObjectParams{ContentType: DetectContentType(name, data)}.Merge(overrides)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(params.ContentType),
		Expires:       params.Expires,
		Metadata:      params.Metadata,
	}

	input.CacheControl = optional(params.CacheControl)
	input.ContentDisposition = optional(params.ContentDisposition)
	input.ContentEncoding = optional(params.ContentEncoding)
	input.ContentLanguage = optional(params.ContentLanguage)
	input.WebsiteRedirectLocation = optional(params.WebsiteRedirectLocation)
	input.SSEKMSKeyId = optional(params.SSEKMSKeyID)
	input.Tagging = optional(params.Tagging)

	if params.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(params.StorageClass)
	}
	if params.ACL != "" {
		input.ACL = awstypes.ObjectCannedACL(params.ACL)
	}
	if params.ServerSideEncryption != "" {
		input.ServerSideEncryption = awstypes.ServerSideEncryption(params.ServerSideEncryption)
	}

	return input
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return aws.String(v)
}

func putWarning(localPath, bucket, key string, err error) string {
	return fmt.Sprintf("Failed to put '%s' to 's3://%s/%s': %s", localPath, bucket, key, errors.Detail(err))
}
