// Package list pages through a bucket listing and collects the objects that
// no longer have a local counterpart.
package list

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/keyfilter"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/s3api"
)

// Paginator walks a bucket listing with continuation tokens.
type Paginator struct {
	s3Client s3api.S3API
	logger   *slog.Logger
	pageSize int32
}

// New creates a Paginator requesting full pages.
func New(s3Client s3api.S3API, logger *slog.Logger) *Paginator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Paginator{
		s3Client: s3Client,
		logger:   logger,
		pageSize: s3api.MaxKeys,
	}
}

// Candidates returns every listed object whose key is not in keep.
//
// A failed request ends the walk: the candidates gathered so far are
// returned with one warning, and the listing is not retried.
func (p *Paginator) Candidates(
	ctx context.Context,
	bucket string,
	keep keyfilter.KeySet,
) ([]types.ObjectIdentifier, []string) {
	var candidates []types.ObjectIdentifier
	var warnings []string
	var token *string
	pages := 0

	for {
		out, err := p.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			MaxKeys:           aws.Int32(p.pageSize),
			ContinuationToken: token,
		})
		if err != nil {
			warnings = append(warnings, listWarning(bucket, errors.Detail(err)))
			p.logger.ErrorContext(ctx, "listing aborted",
				"bucket", bucket,
				"pages", pages,
				"error", errors.NewError("list", err).WithBucket(bucket))
			break
		}
		pages++

		page := keyfilter.Filter(keep, out.Contents)
		candidates = append(candidates, page...)
		p.logger.DebugContext(ctx, "listed page",
			"bucket", bucket,
			"page", pages,
			"objects", len(out.Contents),
			"candidates", len(page))

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		if aws.ToString(out.NextContinuationToken) == "" {
			warnings = append(warnings, listWarning(bucket, "truncated response without a continuation token"))
			break
		}
		token = out.NextContinuationToken
	}

	p.logger.InfoContext(ctx, "listing complete",
		"bucket", bucket,
		"pages", pages,
		"candidates", len(candidates))

	return candidates, warnings
}

func listWarning(bucket, detail string) string {
	return fmt.Sprintf("Failed to list objects in 's3://%s': %s", bucket, detail)
}
