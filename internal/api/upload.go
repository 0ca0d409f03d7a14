package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"sync"

	"fjacquet/bank-movements/internal/ingest"
)

// uploadField is the form field carrying statement files.
const uploadField = "files"

// multipartUpload is one statement part spooled to its own temporary file.
// Release closes it and removes the file, so each upload is freed as soon as
// the pipeline is done with it.
type multipartUpload struct {
	name        string
	contentType string
	size        int64
	path        string

	mu     sync.Mutex
	opened []io.Closer
}

// readUploads streams the request's file parts to temporary files. At most
// limit+1 bytes of each part are kept; the rest is drained and counted so the
// pipeline rejects that file on size alone. On error every spooled file is
// released.
func readUploads(r *http.Request, limit int64) ([]ingest.Upload, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}

	var uploads []ingest.Upload
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return uploads, nil
		}
		if err != nil {
			releaseAll(uploads)
			return nil, err
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		u, err := spool(part, limit)
		_ = part.Close()
		if err != nil {
			releaseAll(uploads)
			return nil, err
		}
		uploads = append(uploads, u)
	}
}

func spool(part *multipart.Part, limit int64) (*multipartUpload, error) {
	f, err := os.CreateTemp("", "bank-movements-upload-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}
	u := &multipartUpload{
		name:        part.FileName(),
		contentType: part.Header.Get("Content-Type"),
		path:        f.Name(),
	}

	kept, err := io.Copy(f, io.LimitReader(part, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		var rest int64
		rest, err = io.Copy(io.Discard, part)
		u.size = kept + rest
	}
	if err != nil {
		_ = u.Release()
		return nil, fmt.Errorf("reading part %q: %w", u.name, err)
	}
	return u, nil
}

func releaseAll(uploads []ingest.Upload) {
	for _, u := range uploads {
		_ = u.Release()
	}
}

func (u *multipartUpload) Name() string { return u.name }

// ContentType is the type the client declared for the part, or one inferred
// from the filename when it declared none.
func (u *multipartUpload) ContentType() string {
	if u.contentType != "" {
		return u.contentType
	}
	return ingest.ContentTypeFor(u.name)
}

func (u *multipartUpload) Size() int64 { return u.size }

func (u *multipartUpload) Open() (io.ReadCloser, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.path == "" {
		return nil, fmt.Errorf("upload %q already released", u.name)
	}
	f, err := os.Open(u.path)
	if err != nil {
		return nil, err
	}
	u.opened = append(u.opened, f)
	return f, nil
}

// Release closes the handles Open returned and removes the temporary file.
func (u *multipartUpload) Release() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, c := range u.opened {
		_ = c.Close()
	}
	u.opened = nil
	if u.path == "" {
		return nil
	}
	path := u.path
	u.path = ""
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}
