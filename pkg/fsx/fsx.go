// Package fsx abstracts the object store documents are kept in.
package fsx

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/Abraxas-365/cae/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("FSX")

var (
	CodeFileNotFound = ErrRegistry.Register("FILE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "File not found")
	CodeStorage      = ErrRegistry.Register("STORAGE", errx.TypeExternal, http.StatusBadGateway, "Storage backend error")
)

func ErrFileNotFound() *errx.Error {
	return ErrRegistry.New(CodeFileNotFound)
}

func ErrStorage(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeStorage, cause)
}

// FileInfo describes a stored object
type FileInfo struct {
	Path        string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// FileReader is the read side, used by the validation workers
type FileReader interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	ReadFileStream(ctx context.Context, name string) (io.ReadCloser, error)
}

// FileWriter is the write side, used by uploads
type FileWriter interface {
	WriteFile(ctx context.Context, name string, data []byte) error
	WriteFileStream(ctx context.Context, name string, r io.Reader) error
	DeleteFile(ctx context.Context, name string) error
}

type FileSystem interface {
	FileReader
	FileWriter
	Stat(ctx context.Context, name string) (*FileInfo, error)
	Exists(ctx context.Context, name string) (bool, error)
	Join(elem ...string) string
}

// Join builds a slash separated object key, dropping empty elements
func Join(elem ...string) string {
	parts := make([]string, 0, len(elem))
	for _, e := range elem {
		if e = strings.Trim(e, "/"); e != "" {
			parts = append(parts, e)
		}
	}
	return path.Join(parts...)
}

// ContentType guesses the MIME type from the file extension
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
