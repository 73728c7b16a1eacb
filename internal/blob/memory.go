package blob

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	info Info
	data []byte
}

// Memory implements Store in process memory. Intended for tests.
type Memory struct {
	mu   sync.RWMutex
	objs map[string]memoryEntry
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objs: make(map[string]memoryEntry)}
}

// Driver returns the driver identifier.
func (m *Memory) Driver() Driver { return DriverMemory }

// Put stores the object, replacing any existing content under the key.
func (m *Memory) Put(_ context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Info{}, err
	}
	info := Info{Key: key, Size: int64(len(data)), ContentType: opts.ContentType, UploadedAt: time.Now().UTC()}

	m.mu.Lock()
	m.objs[key] = memoryEntry{info: info, data: data}
	m.mu.Unlock()
	return info, nil
}

// Get returns the object's metadata and content.
func (m *Memory) Get(_ context.Context, key string) (Info, io.ReadCloser, error) {
	m.mu.RLock()
	entry, ok := m.objs[key]
	m.mu.RUnlock()
	if !ok {
		return Info{}, nil, ErrNotFound
	}
	data := make([]byte, len(entry.data))
	copy(data, entry.data)
	return entry.info, io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the object; unknown keys are a no-op.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objs, key)
	m.mu.Unlock()
	return nil
}

// List returns every stored object sorted by key.
func (m *Memory) List(_ context.Context) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]Info, 0, len(m.objs))
	for _, entry := range m.objs {
		infos = append(infos, entry.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
