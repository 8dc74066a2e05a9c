package s3publish

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/reconcile"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/s3types"
)

// Publish uploads the files selected by cfg and, when cfg.Sync is set,
// deletes the objects the run did not upload.
//
// Per-file, listing and deletion problems are collected in
// Result.Warnings; Result.Failed reports a run that uploaded nothing while
// producing warnings. An error is returned only when the run could not
// start (missing revision, invalid config, unreadable local tree), and then
// no request has been sent.
func (c *Client) Publish(ctx context.Context, cfg *s3types.PublishConfig) (*s3types.Result, error) {
	return reconcile.New(c.s3Client, c.fs, c.logger).Run(ctx, cfg)
}

// IndexLink returns the public URL of the run's entry page, or "" when
// cfg has no PathToIndex.
func IndexLink(result *s3types.Result, cfg *s3types.PublishConfig) string {
	if result == nil || cfg == nil || cfg.PathToIndex == "" || result.BucketURL == "" {
		return ""
	}
	return result.BucketURL + cfg.Translate(cfg.PathToIndex)
}
