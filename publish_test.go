package s3publish

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/s3types"
)

func publishConfig() *s3types.PublishConfig {
	return &s3types.PublishConfig{
		Bucket:         "docs",
		Region:         "us-east-1",
		FilesToPublish: []string{"public/**"},
		PathTranslation: func(p string) string {
			return strings.TrimPrefix(p, "public/")
		},
		PathToIndex: "public/index.html",
		LinkLabel:   "Docs",
		Sync:        true,
		ParamsExt:   ".s3params",
		Revision:    "deadbeef",
	}
}

func TestClient_Publish(t *testing.T) {
	fs := testutil.MemFS(t, map[string]string{
		"public/index.html":           "<html></html>",
		"public/css/site.css":         "body{}",
		"public/.index.html.s3params": `{"CacheControl":"max-age=60"}`,
	})
	bucket := testutil.NewBucket("index.html", "stale.html")
	client := NewWithClient(bucket, WithFilesystem(fs), WithLogger(slog.New(slog.DiscardHandler)))

	result, err := client.Publish(context.Background(), publishConfig())
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 2, result.FileCount)
	assert.Equal(t, 1, result.Deleted)
	assert.False(t, result.Failed())
	assert.Equal(t, "http://docs.s3-website-us-east-1.amazonaws.com/", result.BucketURL)
	assert.Equal(t, []string{"css/site.css", "index.html"}, bucket.Keys())

	obj, ok := bucket.Object("css/site.css")
	require.True(t, ok)
	assert.Contains(t, *obj.Input.ContentType, "text/css")

	index, ok := bucket.Object("index.html")
	require.True(t, ok)
	assert.Equal(t, "max-age=60", *index.Input.CacheControl)
}

func TestClient_Publish_InvalidCredentials(t *testing.T) {
	fs := testutil.MemFS(t, map[string]string{
		"public/a.html": "a",
		"public/b.html": "b",
	})
	mock := testutil.NewMockBuilder().WithInvalidCredentials().Build()
	client := NewWithClient(mock, WithFilesystem(fs))

	result, err := client.Publish(context.Background(), publishConfig())
	require.NoError(t, err)
	assert.True(t, result.Failed())
	assert.Equal(t, errors.CodePublishFailed, result.Code)
	assert.Len(t, mock.PutCalls(), 1)
}

func TestClient_Publish_MissingRevision(t *testing.T) {
	mock := testutil.NewMockBuilder().Build()
	client := NewWithClient(mock, WithFilesystem(testutil.MemFS(t, nil)))

	cfg := publishConfig()
	cfg.Revision = ""

	result, err := client.Publish(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsMissingRevision(err))
	assert.Equal(t, errors.CodeMissingRevision, result.Code)
	assert.Empty(t, mock.PutCalls())
	assert.Empty(t, mock.ListCalls())
}

func TestIndexLink(t *testing.T) {
	result := &s3types.Result{BucketURL: "http://docs.s3-website-us-east-1.amazonaws.com/"}

	assert.Equal(t,
		"http://docs.s3-website-us-east-1.amazonaws.com/index.html",
		IndexLink(result, publishConfig()))

	noIndex := publishConfig()
	noIndex.PathToIndex = ""
	assert.Empty(t, IndexLink(result, noIndex))
	assert.Empty(t, IndexLink(nil, publishConfig()))
}
