package testutil

import (
	"crypto/md5"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
)

const tokenPrefix = "page-"

func pageToken(idx int) string {
	return tokenPrefix + strconv.Itoa(idx)
}

func pageIndex(token string) int {
	idx, err := strconv.Atoi(strings.TrimPrefix(token, tokenPrefix))
	if err != nil {
		return 0
	}
	return idx
}

// CalculateETag calculates the ETag S3 reports for a single-part upload.
func CalculateETag(data []byte) string {
	h := md5.Sum(data)
	return fmt.Sprintf(`"%x"`, h)
}

// Objects builds listing entries for keys.
func Objects(keys ...string) []types.Object {
	out := make([]types.Object, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(0),
			StorageClass: types.ObjectStorageClassStandard,
		})
	}
	return out
}

// SequentialKeys returns n keys of the form <prefix>NNNNN.
func SequentialKeys(prefix string, n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s%05d", prefix, i)
	}
	return keys
}

// Identifiers builds object identifiers for keys.
func Identifiers(keys ...string) []types.ObjectIdentifier {
	out := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.ObjectIdentifier{Key: aws.String(k)})
	}
	return out
}

// IdentifierKeys returns the keys carried by ids.
func IdentifierKeys(ids []types.ObjectIdentifier) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, aws.ToString(id.Key))
	}
	return out
}

// MemFS returns an in-memory filesystem populated with files.
func MemFS(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()

	fs := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}
