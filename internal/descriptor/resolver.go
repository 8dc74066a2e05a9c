// Package descriptor resolves per-file upload overrides from sidecar files.
//
// A file X with descriptor extension ".s3params" is paired with the sidecar
// ".X.s3params" in the same directory. The sidecar holds a JSON object whose
// fields override the request fields of the upload.
package descriptor

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/s3types"
)

var errNotObject = stderrors.New("descriptor is not a JSON object")

// Lookup reads an optional file.
type Lookup interface {
	// Open returns the content of name. A missing file is reported as
	// ok == false with a nil error.
	Open(name string) (data []byte, ok bool, err error)
}

// BillyLookup reads sidecars from a go-billy filesystem.
type BillyLookup struct {
	FS billy.Filesystem
}

// Open implements Lookup.
func (l BillyLookup) Open(name string) ([]byte, bool, error) {
	f, err := l.FS.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close() //nolint:errcheck

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// knownFields are the JSON names accepted in a descriptor.
var knownFields = map[string]struct{}{
	"ContentType":             {},
	"CacheControl":            {},
	"ContentDisposition":      {},
	"ContentEncoding":         {},
	"ContentLanguage":         {},
	"Expires":                 {},
	"WebsiteRedirectLocation": {},
	"StorageClass":            {},
	"ACL":                     {},
	"ServerSideEncryption":    {},
	"SSEKMSKeyId":             {},
	"Tagging":                 {},
	"Metadata":                {},
}

// Resolver pairs files with their descriptors.
type Resolver struct {
	lookup Lookup
	ext    string
}

// NewResolver returns a Resolver for descriptors with extension ext.
// An empty ext disables descriptors.
func NewResolver(lookup Lookup, ext string) *Resolver {
	return &Resolver{lookup: lookup, ext: ext}
}

// SidecarPath returns the descriptor path paired with file.
func SidecarPath(file, ext string) string {
	return path.Join(path.Dir(file), "."+path.Base(file)+ext)
}

// IsSidecar reports whether file is itself a descriptor for extension ext.
func IsSidecar(file, ext string) bool {
	if ext == "" {
		return false
	}
	base := path.Base(file)
	return len(base) > len(ext)+1 && base[0] == '.' && base[len(base)-len(ext):] == ext
}

// Resolve returns the overrides for file and any warnings produced while
// reading its descriptor. A missing descriptor yields no overrides and no
// warnings; an unreadable one yields no overrides and one warning.
func (r *Resolver) Resolve(file string) (s3types.ObjectParams, []string) {
	if r == nil || r.ext == "" || r.lookup == nil {
		return s3types.ObjectParams{}, nil
	}

	sidecar := SidecarPath(file, r.ext)
	data, ok, err := r.lookup.Open(sidecar)
	if err != nil {
		return s3types.ObjectParams{}, []string{parseWarning(sidecar, err)}
	}
	if !ok {
		return s3types.ObjectParams{}, nil
	}

	params, ignored, err := Decode(data)
	if err != nil {
		return s3types.ObjectParams{}, []string{parseWarning(sidecar, err)}
	}

	var warnings []string
	for _, name := range ignored {
		warnings = append(warnings,
			fmt.Sprintf("Ignoring unsupported field '%s' in descriptor '%s'", name, sidecar))
	}
	return params, warnings
}

// Decode parses a descriptor. It returns the recognized overrides and the
// sorted names of fields that were ignored.
func Decode(data []byte) (s3types.ObjectParams, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return s3types.ObjectParams{}, nil, err
	}
	if raw == nil {
		return s3types.ObjectParams{}, nil, errNotObject
	}

	var ignored []string
	accepted := make(map[string]json.RawMessage, len(raw))
	for name, value := range raw {
		if _, ok := knownFields[name]; !ok {
			ignored = append(ignored, name)
			continue
		}
		accepted[name] = value
	}
	sort.Strings(ignored)

	// Re-encoding the accepted subset keeps case-insensitive matching in
	// encoding/json from picking up ignored fields.
	subset, err := json.Marshal(accepted)
	if err != nil {
		return s3types.ObjectParams{}, nil, err
	}

	var params s3types.ObjectParams
	if err := json.Unmarshal(subset, &params); err != nil {
		return s3types.ObjectParams{}, nil, err
	}
	return params, ignored, nil
}

func parseWarning(sidecar string, err error) string {
	return fmt.Sprintf("Failed to parse descriptor '%s': %v", sidecar, err)
}
