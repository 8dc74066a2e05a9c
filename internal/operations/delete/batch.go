// Package delete removes deletion candidates in provider-sized batches.
package delete

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/s3api"
)

// BatchDeleter issues DeleteObjects requests of at most maxBatchSize keys.
type BatchDeleter struct {
	s3Client     s3api.S3API
	logger       *slog.Logger
	maxBatchSize int
}

// New creates a new BatchDeleter with the S3 batch limit.
func New(s3Client s3api.S3API, logger *slog.Logger) *BatchDeleter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BatchDeleter{
		s3Client:     s3Client,
		logger:       logger,
		maxBatchSize: s3api.MaxKeys,
	}
}

// Delete removes candidates batch by batch, in order, and returns the number
// of objects the provider confirmed as deleted.
//
// Per-object errors inside a batch become warnings. A failed batch request
// becomes one warning and no later batch is attempted.
func (b *BatchDeleter) Delete(
	ctx context.Context,
	bucket string,
	candidates []types.ObjectIdentifier,
) (int, []string) {
	total := 0
	var warnings []string

	for _, batch := range b.splitIntoBatches(candidates) {
		output, err := b.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &types.Delete{
				Objects: batch,
				Quiet:   aws.Bool(false),
			},
		})
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to delete objects [%s] from 's3://%s': %s",
				strings.Join(keysOf(batch), ", "), bucket, errors.Detail(err)))
			b.logger.ErrorContext(ctx, "batch delete failed, skipping remaining batches",
				"bucket", bucket,
				"batch_size", len(batch),
				"error", errors.NewError("delete", err).WithBucket(bucket))
			break
		}

		total += len(output.Deleted)
		for _, objErr := range output.Errors {
			warnings = append(warnings, fmt.Sprintf("Error deleting object '%s': %s",
				aws.ToString(objErr.Key), objectErrorDetail(objErr)))
		}

		deleted := make([]string, 0, len(output.Deleted))
		for _, obj := range output.Deleted {
			deleted = append(deleted, aws.ToString(obj.Key))
		}
		b.logger.InfoContext(ctx, "deleted objects",
			"bucket", bucket,
			"count", len(deleted),
			"keys", deleted,
			"errors", len(output.Errors))
	}

	return total, warnings
}

// splitIntoBatches splits ids into consecutive chunks of at most maxBatchSize.
func (b *BatchDeleter) splitIntoBatches(ids []types.ObjectIdentifier) [][]types.ObjectIdentifier {
	var batches [][]types.ObjectIdentifier
	for i := 0; i < len(ids); i += b.maxBatchSize {
		end := i + b.maxBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[i:end])
	}
	return batches
}

func keysOf(ids []types.ObjectIdentifier) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, aws.ToString(id.Key))
	}
	return keys
}

func objectErrorDetail(e types.Error) string {
	if msg := aws.ToString(e.Message); msg != "" {
		return msg
	}
	return aws.ToString(e.Code)
}
