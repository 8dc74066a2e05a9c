package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/s3types"
)

func parseOverrides(t *testing.T, args ...string) map[string]any {
	t.Helper()

	var got map[string]any
	app := newApp()
	app.Action = func(c *cli.Context) error {
		got = overrides(c)
		return nil
	}
	require.NoError(t, app.Run(append([]string{"s3publish"}, args...)))
	return got
}

func TestOverrides(t *testing.T) {
	got := parseOverrides(t,
		"--bucket", "docs",
		"--files", "dist/**",
		"--files", "extra/*.txt",
		"--sync",
		"--timeout", "5s",
		"--log-level", "debug",
	)

	assert.Equal(t, map[string]any{
		"bucket":    "docs",
		"files":     []string{"dist/**", "extra/*.txt"},
		"sync":      true,
		"timeout":   5 * time.Second,
		"log.level": "debug",
	}, got)
}

func TestOverrides_BracePatternsAreNotSplit(t *testing.T) {
	got := parseOverrides(t,
		"--files", "dist/**/*.{html,css}",
		"--exclude", "dist/{maps,tmp}/**",
	)

	assert.Equal(t, []string{"dist/**/*.{html,css}"}, got["files"])
	assert.Equal(t, []string{"dist/{maps,tmp}/**"}, got["exclude"])
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		result *s3types.Result
		err    error
		want   int
	}{
		{name: "clean run", result: &s3types.Result{FileCount: 2}, want: exitOK},
		{name: "warnings with uploads", result: &s3types.Result{FileCount: 1, Warnings: []string{"w"}}, want: exitOK},
		{name: "nothing uploaded with warnings", result: &s3types.Result{Warnings: []string{"w"}}, want: exitFailed},
		{name: "nothing selected", result: &s3types.Result{}, want: exitOK},
		{name: "missing revision", err: errors.NewError("publish", errors.ErrMissingRevision), want: exitUsage},
		{name: "invalid input", err: errors.NewValidationError("bucket is required"), want: exitUsage},
		{name: "other error", err: fmt.Errorf("boom"), want: exitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.result, tt.err))
		})
	}
}

func TestWriteReport(t *testing.T) {
	cfg := &s3types.PublishConfig{
		Bucket:      "docs",
		Revision:    "abc123",
		Sync:        true,
		PathToIndex: "index.html",
		LinkLabel:   "Docs",
	}
	result := &s3types.Result{
		BucketURL: "http://docs.s3-website-us-east-1.amazonaws.com/",
		FileCount: 1,
		Attempted: 2,
		Deleted:   3,
		Warnings:  []string{"Failed to put 'b.html' to 's3://docs/b.html': SlowDown: slow down"},
	}

	var buf bytes.Buffer
	writeReport(&buf, result, cfg)

	assert.Equal(t, "Published 1 of 2 files to s3://docs (revision abc123)\n"+
		"Deleted 3 objects\n"+
		"Website: http://docs.s3-website-us-east-1.amazonaws.com/\n"+
		"Docs: http://docs.s3-website-us-east-1.amazonaws.com/index.html\n"+
		"Warnings (1):\n"+
		"  - Failed to put 'b.html' to 's3://docs/b.html': SlowDown: slow down\n",
		buf.String())
}

func TestWriteReport_Failed(t *testing.T) {
	var buf bytes.Buffer
	writeReport(&buf, &s3types.Result{Warnings: []string{"w"}}, &s3types.PublishConfig{Bucket: "docs"})

	assert.Contains(t, buf.String(), "Publish failed: no file was uploaded")
	assert.NotContains(t, buf.String(), "Deleted")
}

func TestRun_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer

	code := -1
	app := newApp()
	app.ErrWriter = &stderr
	app.Action = func(c *cli.Context) error {
		code = run(c)
		return nil
	}

	require.NoError(t, app.Run([]string{"s3publish",
		"--workdir", dir,
		"--env-file", filepath.Join(dir, "missing.env"),
		"--files", "**",
	}))
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "bucket is required")
}

func TestRun_MissingRevision(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644))

	t.Setenv("GITHUB_SHA", "")
	t.Setenv("CI_COMMIT_SHA", "")

	var stderr bytes.Buffer
	code := -1
	app := newApp()
	app.ErrWriter = &stderr
	app.Action = func(c *cli.Context) error {
		code = run(c)
		return nil
	}

	require.NoError(t, app.RunContext(context.Background(), []string{"s3publish",
		"--workdir", dir,
		"--env-file", filepath.Join(dir, "missing.env"),
		"--bucket", "docs",
		"--files", "**",
	}))
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "revision")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "bucket", "docs")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"bucket":"docs"`)
}
