// Package s3publish publishes a tree of build artifacts to an S3 bucket.
//
// A publish run uploads every selected local file with a single PutObject
// request. Per-file request fields such as Cache-Control can be set in a
// sidecar descriptor: for a file "index.html" and descriptor extension
// ".s3params", the JSON object in ".index.html.s3params" overrides the
// inferred fields.
//
// With Sync enabled, objects in the bucket that were not uploaded by the run
// are deleted afterwards. Only successful uploads protect a key, so a file
// that failed to upload does not keep a stale remote copy alive.
//
// Failures are reported as warnings in the Result rather than as errors. If
// the provider rejects the credentials, the remaining uploads are skipped.
//
// Example:
//
//	client, err := s3publish.New(ctx,
//	    s3publish.WithRegion("eu-central-1"),
//	    s3publish.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.Publish(ctx, &s3types.PublishConfig{
//	    Bucket:         "docs",
//	    Region:         "eu-central-1",
//	    FilesToPublish: []string{"dist/**"},
//	    Sync:           true,
//	    ParamsExt:      ".s3params",
//	    Revision:       os.Getenv("GITHUB_SHA"),
//	})
package s3publish
