// Package fsxmem is an in-process fsx.FileSystem for tests and local runs
// without object storage.
package fsxmem

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/Abraxas-365/cae/pkg/fsx"
)

type object struct {
	data    []byte
	modTime time.Time
}

type MemFileSystem struct {
	mu      sync.RWMutex
	objects map[string]object
}

var _ fsx.FileSystem = (*MemFileSystem)(nil)

func New() *MemFileSystem {
	return &MemFileSystem{objects: make(map[string]object)}
}

func (m *MemFileSystem) Join(elem ...string) string {
	return fsx.Join(elem...)
}

func (m *MemFileSystem) WriteFile(_ context.Context, name string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.objects[fsx.Join(name)] = object{data: cp, modTime: time.Now()}
	m.mu.Unlock()
	return nil
}

func (m *MemFileSystem) WriteFileStream(ctx context.Context, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fsx.ErrStorage(err).WithDetail("path", name)
	}
	return m.WriteFile(ctx, name, data)
}

func (m *MemFileSystem) ReadFile(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	obj, ok := m.objects[fsx.Join(name)]
	m.mu.RUnlock()
	if !ok {
		return nil, fsx.ErrFileNotFound().WithDetail("path", name)
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	return cp, nil
}

func (m *MemFileSystem) ReadFileStream(ctx context.Context, name string) (io.ReadCloser, error) {
	data, err := m.ReadFile(ctx, name)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemFileSystem) DeleteFile(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fsx.Join(name)
	if _, ok := m.objects[key]; !ok {
		return fsx.ErrFileNotFound().WithDetail("path", name)
	}
	delete(m.objects, key)
	return nil
}

func (m *MemFileSystem) Stat(_ context.Context, name string) (*fsx.FileInfo, error) {
	m.mu.RLock()
	obj, ok := m.objects[fsx.Join(name)]
	m.mu.RUnlock()
	if !ok {
		return nil, fsx.ErrFileNotFound().WithDetail("path", name)
	}
	return &fsx.FileInfo{
		Path:        name,
		Size:        int64(len(obj.data)),
		ContentType: fsx.ContentType(name),
		ModTime:     obj.modTime,
	}, nil
}

func (m *MemFileSystem) Exists(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	_, ok := m.objects[fsx.Join(name)]
	m.mu.RUnlock()
	return ok, nil
}

// Len reports how many objects are stored
func (m *MemFileSystem) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
