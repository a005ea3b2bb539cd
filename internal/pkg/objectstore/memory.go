package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store. TemporaryURL signs nothing; it appends the
// expiry so callers can exercise the happy path.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
	now     func() time.Time
}

func NewMemory(publicBaseURL string) *Memory {
	return &Memory{
		objects: map[string][]byte{},
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		now:     time.Now,
	}
}

func (m *Memory) Exists(_ context.Context, p string) (bool, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[cleaned]
	return ok, nil
}

func (m *Memory) Get(_ context.Context, p string) ([]byte, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[cleaned]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return bytes.Clone(data), nil
}

func (m *Memory) Put(ctx context.Context, folder, name string, r io.Reader) (string, error) {
	logical, err := Join(folder, name)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(ctxReader{ctx: ctx, r: r})
	if err != nil {
		return "", fmt.Errorf("write %s: %w: %w", logical, ErrStorage, err)
	}
	m.mu.Lock()
	m.objects[logical] = data
	m.mu.Unlock()
	return logical, nil
}

func (m *Memory) Delete(_ context.Context, paths ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		cleaned, err := CleanPath(p)
		if err != nil {
			return err
		}
		delete(m.objects, cleaned)
	}
	return nil
}

func (m *Memory) URL(p string) string {
	cleaned, err := CleanPath(p)
	if err != nil {
		return ""
	}
	return m.baseURL + "/" + cleaned
}

func (m *Memory) TemporaryURL(ctx context.Context, p string, ttl time.Duration) (string, error) {
	ok, err := m.Exists(ctx, p)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return fmt.Sprintf("%s?expires=%d", m.URL(p), m.now().Add(ttl).Unix()), nil
}

func (m *Memory) Size(_ context.Context, p string) (int64, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[cleaned]
	if !ok {
		return 0, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return int64(len(data)), nil
}

func (m *Memory) Files(_ context.Context, folder string, recursive bool) ([]string, error) {
	base, err := CleanFolder(folder)
	if err != nil {
		return nil, err
	}
	prefix := prefixOf(base)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []string{}
	for key := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !recursive && strings.Contains(strings.TrimPrefix(key, prefix), "/") {
			continue
		}
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Directories(_ context.Context, folder string, recursive bool) ([]string, error) {
	base, err := CleanFolder(folder)
	if err != nil {
		return nil, err
	}
	prefix := prefixOf(base)
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]struct{}{}
	for key := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		dirs := parentDirs(base, key)
		if !recursive && len(dirs) > 1 {
			dirs = dirs[:1]
		}
		for _, d := range dirs {
			seen[d] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}
