package descriptor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/s3types"
)

type failingLookup struct{ err error }

func (l failingLookup) Open(string) ([]byte, bool, error) { return nil, false, l.err }

func TestSidecarPath(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{file: "index.html", want: ".index.html.s3params"},
		{file: "docs/guide.html", want: "docs/.guide.html.s3params"},
		{file: "a/b/c[1].txt", want: "a/b/.c[1].txt.s3params"},
		{file: "a/b/file(+).js", want: "a/b/.file(+).js.s3params"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, SidecarPath(tt.file, ".s3params"))
		})
	}
}

func TestIsSidecar(t *testing.T) {
	assert.True(t, IsSidecar("docs/.index.html.s3params", ".s3params"))
	assert.False(t, IsSidecar("docs/index.html", ".s3params"))
	assert.False(t, IsSidecar("docs/index.s3params", ".s3params"))
	assert.False(t, IsSidecar(".s3params", ".s3params"))
	assert.False(t, IsSidecar(".index.html.s3params", ""))
}

func TestResolver_Resolve(t *testing.T) {
	fs := testutil.MemFS(t, map[string]string{
		"site/index.html":             "<html></html>",
		"site/.index.html.s3params":   `{"ContentType":"application/custom","CacheControl":"no-cache"}`,
		"site/broken.js":              "x",
		"site/.broken.js.s3params":    `{"ContentType":`,
		"site/extra.css":              "x",
		"site/.extra.css.s3params":    `{"Bucket":"evil","Key":"other","ContentType":"text/css","Metadata":{"a":"1"}}`,
		"site/typed.txt":              "x",
		"site/.typed.txt.s3params":    `{"ContentType":42}`,
		"site/array.txt":              "x",
		"site/.array.txt.s3params":    `["ContentType"]`,
		"site/expires.txt":            "x",
		"site/.expires.txt.s3params":  `{"Expires":"2030-01-02T03:04:05Z"}`,
		"site/plain.txt":              "x",
		"site/null.txt":               "x",
		"site/.null.txt.s3params":     `null`,
		"site/lower.txt":              "x",
		"site/.lower.txt.s3params":    `{"contenttype":"text/evil"}`,
		"site/no-descriptor/file.bin": "x",
	})
	r := NewResolver(BillyLookup{FS: fs}, ".s3params")

	t.Run("overrides parsed", func(t *testing.T) {
		params, warnings := r.Resolve("site/index.html")
		assert.Empty(t, warnings)
		assert.Equal(t, "application/custom", params.ContentType)
		assert.Equal(t, "no-cache", params.CacheControl)
	})

	t.Run("missing descriptor is silent", func(t *testing.T) {
		params, warnings := r.Resolve("site/plain.txt")
		assert.Empty(t, warnings)
		assert.True(t, params.IsZero())
	})

	t.Run("malformed JSON drops overrides with warning", func(t *testing.T) {
		params, warnings := r.Resolve("site/broken.js")
		assert.True(t, params.IsZero())
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "Failed to parse descriptor 'site/.broken.js.s3params'")
	})

	t.Run("reserved and unknown fields are ignored", func(t *testing.T) {
		params, warnings := r.Resolve("site/extra.css")
		assert.Equal(t, "text/css", params.ContentType)
		assert.Equal(t, map[string]string{"a": "1"}, params.Metadata)
		assert.Equal(t, []string{
			"Ignoring unsupported field 'Bucket' in descriptor 'site/.extra.css.s3params'",
			"Ignoring unsupported field 'Key' in descriptor 'site/.extra.css.s3params'",
		}, warnings)
	})

	t.Run("wrong field type fails the descriptor", func(t *testing.T) {
		params, warnings := r.Resolve("site/typed.txt")
		assert.True(t, params.IsZero())
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "Failed to parse descriptor")
	})

	t.Run("non-object JSON fails the descriptor", func(t *testing.T) {
		for _, file := range []string{"site/array.txt", "site/null.txt"} {
			params, warnings := r.Resolve(file)
			assert.True(t, params.IsZero(), file)
			assert.Len(t, warnings, 1, file)
		}
	})

	t.Run("field names are case sensitive", func(t *testing.T) {
		params, warnings := r.Resolve("site/lower.txt")
		assert.Empty(t, params.ContentType)
		assert.Len(t, warnings, 1)
	})

	t.Run("expires is parsed as RFC 3339", func(t *testing.T) {
		params, warnings := r.Resolve("site/expires.txt")
		assert.Empty(t, warnings)
		require.NotNil(t, params.Expires)
		assert.True(t, params.Expires.Equal(time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)))
	})
}

func TestResolver_Disabled(t *testing.T) {
	fs := testutil.MemFS(t, map[string]string{
		".index.html.s3params": `{"ContentType":"x"}`,
	})

	for name, r := range map[string]*Resolver{
		"no extension": NewResolver(BillyLookup{FS: fs}, ""),
		"nil resolver": nil,
	} {
		t.Run(name, func(t *testing.T) {
			params, warnings := r.Resolve("index.html")
			assert.Equal(t, s3types.ObjectParams{}, params)
			assert.Nil(t, warnings)
		})
	}
}

func TestResolver_LookupError(t *testing.T) {
	r := NewResolver(failingLookup{err: errors.New("permission denied")}, ".s3params")

	params, warnings := r.Resolve("index.html")
	assert.True(t, params.IsZero())
	assert.Equal(t, []string{"Failed to parse descriptor '.index.html.s3params': permission denied"}, warnings)
}

func TestDecode_NotAnObject(t *testing.T) {
	params, ignored, err := Decode([]byte(`null`))
	require.ErrorIs(t, err, errNotObject)
	assert.EqualError(t, err, "descriptor is not a JSON object")
	assert.True(t, params.IsZero())
	assert.Empty(t, ignored)
}
