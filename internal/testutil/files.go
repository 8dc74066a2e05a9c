package testutil

import "path"

// StaticFile is an in-memory LocalFile.
type StaticFile struct {
	FilePath string
	Data     []byte
	Err      error
}

// File returns a StaticFile holding content.
func File(filePath, content string) StaticFile {
	return StaticFile{FilePath: filePath, Data: []byte(content)}
}

func (f StaticFile) Path() string { return f.FilePath }

func (f StaticFile) Name() string { return path.Base(f.FilePath) }

func (f StaticFile) Content() ([]byte, error) { return f.Data, f.Err }
