// Package reconcile runs a full publish: upload, then optionally list and
// delete what the upload did not refresh.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/descriptor"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/keyfilter"
	deleteop "github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/operations/delete"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/operations/list"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/operations/upload"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/selector"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/s3types"
)

// Manager sequences the phases of a run against one storage client and one
// local tree.
type Manager struct {
	s3Client s3api.S3API
	fs       billy.Filesystem
	logger   *slog.Logger
}

// New creates a Manager reading local files from fs.
func New(s3Client s3api.S3API, fs billy.Filesystem, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		s3Client: s3Client,
		fs:       fs,
		logger:   logger,
	}
}

// Validate checks cfg for problems that make a run meaningless.
func Validate(cfg *s3types.PublishConfig) error {
	if cfg == nil {
		return errors.NewValidationError("publish config is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return errors.NewValidationError("bucket name is required")
	}
	if len(cfg.FilesToPublish) == 0 {
		return errors.NewValidationError("at least one file pattern is required")
	}
	if cfg.ParamsExt != "" && !strings.HasPrefix(cfg.ParamsExt, ".") {
		return errors.NewValidationError("descriptor extension must start with '.'")
	}
	if err := selector.ValidatePatterns(cfg.FilesToPublish); err != nil {
		return errors.NewError("validate", err)
	}
	if err := selector.ValidatePatterns(cfg.Exclude); err != nil {
		return errors.NewError("validate", err)
	}
	return nil
}

// Run performs one reconciliation.
//
// Problems with individual files, listings or batches are reported as
// warnings in the result. An error is returned only when the run could not
// start: a missing revision, an invalid config or a failed file selection.
// In that case no request has been sent and the result carries the code.
func (m *Manager) Run(ctx context.Context, cfg *s3types.PublishConfig) (*s3types.Result, error) {
	start := time.Now()
	result := &s3types.Result{RunID: uuid.NewString()}

	if cfg == nil || strings.TrimSpace(cfg.Revision) == "" {
		result.Code = errors.CodeMissingRevision
		err := errors.NewError("publish", errors.ErrMissingRevision)
		if cfg != nil {
			err = err.WithBucket(cfg.Bucket)
		}
		return result, err
	}

	logger := m.logger.With("run_id", result.RunID, "bucket", cfg.Bucket)
	result.BucketURL = WebsiteURL(cfg.Bucket, cfg.Region)

	if err := Validate(cfg); err != nil {
		result.Code = errors.CodeOf(err)
		return result, err
	}

	sel := selector.New(m.fs)
	if cfg.ParamsExt != "" {
		sel.Skip(func(rel string) bool { return descriptor.IsSidecar(rel, cfg.ParamsExt) })
	}
	files, err := sel.Select(ctx, cfg.FilesToPublish, cfg.Exclude)
	if err != nil {
		result.Code = errors.CodeOf(err)
		return result, errors.NewError("select", err).WithBucket(cfg.Bucket)
	}

	logger.InfoContext(ctx, "starting publish",
		"revision", cfg.Revision,
		"files", len(files),
		"sync", cfg.Sync)

	resolver := descriptor.NewResolver(descriptor.BillyLookup{FS: m.fs}, cfg.ParamsExt)
	summary := upload.New(m.s3Client, resolver, logger).UploadAll(ctx, cfg.Bucket, files, cfg.Translate)

	result.Attempted = summary.Attempted
	result.FileCount = len(summary.Keys)
	result.Warnings = append(result.Warnings, summary.Warnings...)

	switch {
	case cfg.Sync && summary.GaveUp:
		// Skipped files are missing from the keep set.
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"Skipping removal of stale objects from 's3://%s': uploads stopped after a credential failure", cfg.Bucket))
		logger.ErrorContext(ctx, "skipping sync after credential failure")

	case cfg.Sync:
		keep := keyfilter.NewKeySet(summary.Keys...)

		candidates, listWarnings := list.New(m.s3Client, logger).Candidates(ctx, cfg.Bucket, keep)
		result.Warnings = append(result.Warnings, listWarnings...)

		deleted, deleteWarnings := deleteop.New(m.s3Client, logger).Delete(ctx, cfg.Bucket, candidates)
		result.Deleted = deleted
		result.Warnings = append(result.Warnings, deleteWarnings...)
	}

	if result.Failed() {
		result.Code = errors.CodePublishFailed
	}
	result.Duration = time.Since(start)

	logger.InfoContext(ctx, "publish finished",
		"uploaded", result.FileCount,
		"attempted", result.Attempted,
		"deleted", result.Deleted,
		"warnings", len(result.Warnings),
		"failed", result.Failed(),
		"duration", result.Duration)

	return result, nil
}
