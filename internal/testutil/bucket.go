package testutil

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/s3api"
)

// StoredObject is an object held by Bucket.
type StoredObject struct {
	Body  []byte
	Input s3.PutObjectInput
}

// Bucket is an in-memory S3API backed by a single logical bucket namespace.
// Listing is ordered by key and paginated with opaque tokens.
type Bucket struct {
	mu      sync.Mutex
	objects map[string]StoredObject

	// PageSize caps listing pages below the requested MaxKeys when set.
	PageSize int

	ListCalls    int
	DeleteCalls  int
	DeleteSizes  []int
	PutOrder    []string
}

// NewBucket returns a bucket pre-populated with empty objects at keys.
func NewBucket(keys ...string) *Bucket {
	b := &Bucket{objects: make(map[string]StoredObject)}
	for _, k := range keys {
		b.objects[k] = StoredObject{Input: s3.PutObjectInput{Key: aws.String(k)}}
	}
	return b
}

// Keys returns the stored keys in lexical order.
func (b *Bucket) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sortedKeys()
}

// Object returns the stored object for key.
func (b *Bucket) Object(key string) (StoredObject, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[key]
	return obj, ok
}

// PutObject stores the request body under its key.
func (b *Bucket) PutObject(
	_ context.Context,
	params *s3.PutObjectInput,
	_ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	var body []byte
	if params.Body != nil {
		data, err := io.ReadAll(params.Body)
		if err != nil {
			return nil, err
		}
		body = data
	}

	in := *params
	in.Body = nil

	b.mu.Lock()
	defer b.mu.Unlock()
	key := aws.ToString(params.Key)
	b.objects[key] = StoredObject{Body: body, Input: in}
	b.PutOrder = append(b.PutOrder, key)
	return &s3.PutObjectOutput{ETag: aws.String(CalculateETag(body))}, nil
}

// ListObjectsV2 returns the page after the continuation token.
func (b *Bucket) ListObjectsV2(
	_ context.Context,
	params *s3.ListObjectsV2Input,
	_ ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ListCalls++

	limit := int(aws.ToInt32(params.MaxKeys))
	if limit <= 0 || limit > s3api.MaxKeys {
		limit = s3api.MaxKeys
	}
	if b.PageSize > 0 && b.PageSize < limit {
		limit = b.PageSize
	}

	keys := b.sortedKeys()
	start := 0
	if token := aws.ToString(params.ContinuationToken); token != "" {
		start = pageIndex(token)
	}
	end := start + limit
	if end > len(keys) {
		end = len(keys)
	}

	out := &s3.ListObjectsV2Output{
		Name:        params.Bucket,
		MaxKeys:     aws.Int32(int32(limit)),
		IsTruncated: aws.Bool(end < len(keys)),
	}
	for _, k := range keys[start:end] {
		obj := b.objects[k]
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(k),
			Size: aws.Int64(int64(len(obj.Body))),
			ETag: aws.String(CalculateETag(obj.Body)),
		})
	}
	out.KeyCount = aws.Int32(int32(len(out.Contents)))
	if end < len(keys) {
		out.NextContinuationToken = aws.String(pageToken(end))
	}
	return out, nil
}

// DeleteObjects removes the requested keys. Missing keys count as deleted.
func (b *Bucket) DeleteObjects(
	_ context.Context,
	params *s3.DeleteObjectsInput,
	_ ...func(*s3.Options),
) (*s3.DeleteObjectsOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.DeleteCalls++
	b.DeleteSizes = append(b.DeleteSizes, len(params.Delete.Objects))

	out := &s3.DeleteObjectsOutput{}
	for _, obj := range params.Delete.Objects {
		delete(b.objects, aws.ToString(obj.Key))
		out.Deleted = append(out.Deleted, types.DeletedObject{Key: obj.Key})
	}
	return out, nil
}

func (b *Bucket) sortedKeys() []string {
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ s3api.S3API = (*Bucket)(nil)
