package upload

import (
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultContentType is used when neither the name nor the content identify
// the file.
const DefaultContentType = "application/octet-stream"

// DetectContentType infers the content type from the file name extension,
// falling back to sniffing the content.
func DetectContentType(name string, data []byte) string {
	if ext := strings.ToLower(path.Ext(name)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}

	if mt := mimetype.Detect(data); mt != nil {
		return mt.String()
	}
	return DefaultContentType
}
