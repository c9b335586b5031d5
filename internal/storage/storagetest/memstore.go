// Package storagetest has an in-memory storage.Store for tests.
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xin-kz910/SE-project/internal/storage"
)

type MemStore struct {
	mu      sync.Mutex
	objects map[string]memObject

	// FailPut makes every Put return this error.
	FailPut error
	Now     func() time.Time
}

type memObject struct {
	data []byte
	obj  storage.Object
}

func NewMemStore() *MemStore {
	return &MemStore{objects: map[string]memObject{}, Now: time.Now}
}

func (m *MemStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.FailPut != nil {
		return m.FailPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: data, obj: storage.Object{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  contentType,
		LastModified: m.Now(),
	}}
	return nil
}

func (m *MemStore) Get(_ context.Context, key string) (io.ReadCloser, storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, storage.Object{}, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(o.data)), o.obj, nil
}

func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemStore) List(_ context.Context, prefix string) ([]storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.Object
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, o.obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Keys returns every stored key, sorted.
func (m *MemStore) Keys() []string {
	objs, _ := m.List(context.Background(), "")
	keys := make([]string, 0, len(objs))
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	return keys
}

// Touch backdates an object.
func (m *MemStore) Touch(key string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return errors.New("no such key")
	}
	o.obj.LastModified = t
	m.objects[key] = o
	return nil
}
