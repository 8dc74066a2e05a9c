package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucket_Pagination(t *testing.T) {
	keys := SequentialKeys("k", 2500)
	b := NewBucket(keys...)

	var got []string
	var token *string
	for {
		out, err := b.ListObjectsV2(context.Background(), &s3.ListObjectsV2Input{
			Bucket:            aws.String("b"),
			MaxKeys:           aws.Int32(1000),
			ContinuationToken: token,
		})
		require.NoError(t, err)
		for _, obj := range out.Contents {
			got = append(got, aws.ToString(obj.Key))
		}
		if !aws.ToBool(out.IsTruncated) {
			assert.Nil(t, out.NextContinuationToken)
			break
		}
		token = out.NextContinuationToken
	}

	assert.Equal(t, keys, got)
	assert.Equal(t, 3, b.ListCalls)
}

func TestBucket_PutAndDelete(t *testing.T) {
	b := NewBucket("old")
	ctx := context.Background()

	_, err := b.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String("b"),
		Key:         aws.String("new"),
		Body:        strings.NewReader("hello"),
		ContentType: aws.String("text/plain"),
	})
	require.NoError(t, err)

	obj, ok := b.Object("new")
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), obj.Body)
	assert.Equal(t, "text/plain", aws.ToString(obj.Input.ContentType))

	out, err := b.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String("b"),
		Delete: &types.Delete{Objects: Identifiers("old")},
	})
	require.NoError(t, err)
	assert.Len(t, out.Deleted, 1)
	assert.Equal(t, []string{"new"}, b.Keys())
	assert.Equal(t, []int{1}, b.DeleteSizes)
}

func TestMockBuilder_WithPages(t *testing.T) {
	client := NewMockBuilder().
		WithPages(Objects("a", "b"), Objects("c")).
		Build()
	ctx := context.Background()

	first, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String("b")})
	require.NoError(t, err)
	assert.True(t, aws.ToBool(first.IsTruncated))
	require.NotNil(t, first.NextContinuationToken)

	second, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:            aws.String("b"),
		ContinuationToken: first.NextContinuationToken,
	})
	require.NoError(t, err)
	assert.False(t, aws.ToBool(second.IsTruncated))
	assert.Len(t, second.Contents, 1)
	assert.Len(t, client.ListCalls(), 2)
}
