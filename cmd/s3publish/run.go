package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/urfave/cli/v2"

	s3publish "github.com/input-output-hk/catalyst-forge-libs/aws/s3publish"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/credentials"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/revision"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/s3types"
)

// Process exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// getenv reads the CI variables consulted for the revision.
var getenv = os.Getenv

func run(c *cli.Context) int {
	ctx := c.Context
	stderr := c.App.ErrWriter

	searchDir := "."
	if c.IsSet("workdir") {
		searchDir = c.String("workdir")
	}

	cfg, err := config.Load(config.LoadOptions{
		File:      c.String("config"),
		SearchDir: searchDir,
		DotEnv:    c.String("env-file"),
		Overrides: overrides(c),
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format, stderr)

	workDir, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	fs := osfs.New(workDir)

	rev, err := revision.Resolver{FS: fs, Getenv: getenv}.Resolve(cfg.Revision)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	opts, err := clientOptions(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCode(nil, err)
	}
	opts = append(opts, s3publish.WithFilesystem(fs))

	client, err := s3publish.New(ctx, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCode(nil, err)
	}

	publishCfg := cfg.PublishConfig(rev)
	result, err := client.Publish(ctx, publishCfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCode(result, err)
	}

	writeReport(c.App.Writer, result, publishCfg)
	return exitCode(result, nil)
}

// clientOptions translates cfg into client options, fetching the key pair
// from Secrets Manager when a secret is configured.
func clientOptions(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]s3types.Option, error) {
	opts := []s3types.Option{
		s3publish.WithBackend(s3types.Backend(cfg.Backend)),
		s3publish.WithRegion(cfg.Region),
		s3publish.WithLogger(logger),
		s3publish.WithForcePathStyle(cfg.ForcePathStyle),
		s3publish.WithDisableSSL(cfg.DisableSSL),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, s3publish.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Proxy != "" {
		opts = append(opts, s3publish.WithProxy(cfg.Proxy))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, s3publish.WithTimeout(cfg.Timeout))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, s3publish.WithMaxRetries(cfg.MaxRetries))
	}

	switch {
	case cfg.AccessKeyID != "":
		opts = append(opts, s3publish.WithStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken))
	case cfg.CredentialsSecret != "":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		creds, err := credentials.NewSourceFromConfig(awsCfg, logger).Fetch(ctx, cfg.CredentialsSecret)
		if err != nil {
			return nil, err
		}
		opts = append(opts, s3publish.WithStaticCredentials(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken))
	}

	return opts, nil
}

// exitCode maps a run outcome to the process exit code.
func exitCode(result *s3types.Result, err error) int {
	if err != nil {
		switch errors.CodeOf(err) {
		case errors.CodeInvalidInput, errors.CodeInvalidConfig, errors.CodeMissingRevision:
			return exitUsage
		default:
			return exitFailed
		}
	}
	if result != nil && result.Failed() {
		return exitFailed
	}
	return exitOK
}

func writeReport(w io.Writer, result *s3types.Result, cfg *s3types.PublishConfig) {
	fmt.Fprintf(w, "Published %d of %d files to s3://%s (revision %s)\n",
		result.FileCount, result.Attempted, cfg.Bucket, cfg.Revision)
	if cfg.Sync {
		fmt.Fprintf(w, "Deleted %d objects\n", result.Deleted)
	}
	fmt.Fprintf(w, "Website: %s\n", result.BucketURL)

	if link := s3publish.IndexLink(result, cfg); link != "" {
		label := cfg.LinkLabel
		if label == "" {
			label = "Index"
		}
		fmt.Fprintf(w, "%s: %s\n", label, link)
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(w, "Warnings (%d):\n", len(result.Warnings))
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
	if result.Failed() {
		fmt.Fprintln(w, "Publish failed: no file was uploaded")
	}
}

func newLogger(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
