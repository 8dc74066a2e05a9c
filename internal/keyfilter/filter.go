// Package keyfilter computes deletion candidates from a bucket listing.
package keyfilter

import (
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// KeySet is a set of object keys.
type KeySet map[string]struct{}

// NewKeySet returns a set holding keys.
func NewKeySet(keys ...string) KeySet {
	set := make(KeySet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether key is in the set.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Filter returns, in listing order, an identifier for every object whose key
// is present and not in keep. Objects without a key are dropped.
func Filter(keep KeySet, objects []types.Object) []types.ObjectIdentifier {
	var out []types.ObjectIdentifier
	for _, obj := range objects {
		if obj.Key == nil || *obj.Key == "" {
			continue
		}
		if keep.Has(*obj.Key) {
			continue
		}
		out = append(out, types.ObjectIdentifier{Key: obj.Key})
	}
	return out
}
