package ingest

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Excel content types.
const (
	MIMETypeXLS         = "application/vnd.ms-excel"
	MIMETypeXLSX        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMETypeOctetStream = "application/octet-stream"
)

// Upload is one file handed to the pipeline. The pipeline calls Release
// exactly once when it is done with the file, whatever the outcome.
type Upload interface {
	Name() string
	ContentType() string
	Size() int64
	Open() (io.ReadCloser, error)
	Release() error
}

// FileUpload serves a file from the local filesystem.
type FileUpload struct {
	path        string
	size        int64
	contentType string

	mu     sync.Mutex
	opened []io.Closer
}

// NewFileUpload stats path and infers its content type from the extension.
func NewFileUpload(path string) (*FileUpload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &FileUpload{path: path, size: info.Size(), contentType: ContentTypeFor(path)}, nil
}

// ContentTypeFor maps a filename extension to a content type, falling back
// to application/octet-stream.
func ContentTypeFor(name string) string {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xls":
		return MIMETypeXLS
	case ".xlsx":
		return MIMETypeXLSX
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return MIMETypeOctetStream
	}
}

func (f *FileUpload) Name() string        { return filepath.Base(f.path) }
func (f *FileUpload) ContentType() string { return f.contentType }
func (f *FileUpload) Size() int64         { return f.size }

func (f *FileUpload) Open() (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.opened = append(f.opened, file)
	f.mu.Unlock()
	return file, nil
}

// Release closes any handle Open returned that is still open.
func (f *FileUpload) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.opened {
		_ = c.Close()
	}
	f.opened = nil
	return nil
}
