package pack

import (
	"context"
	"fmt"
	"sync"
)

// stubSource 用 map 模拟 bundle 存储：bundles 以 bundle 路径为键，content 以文件路径为键。
type stubSource struct {
	bundles map[string][]string
	content map[string][]byte

	listErr  map[string]error
	fetchErr map[string]error

	mu      sync.Mutex
	listed  []string
	fetched []string
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) List(ctx context.Context, p string) ([]string, error) {
	s.mu.Lock()
	s.listed = append(s.listed, p)
	s.mu.Unlock()
	if err := s.listErr[p]; err != nil {
		return nil, err
	}
	files, ok := s.bundles[p]
	if !ok {
		return nil, fmt.Errorf("bundle 不存在：%s", p)
	}
	return files, nil
}

func (s *stubSource) Fetch(ctx context.Context, p string) ([]byte, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, p)
	s.mu.Unlock()
	if err := s.fetchErr[p]; err != nil {
		return nil, err
	}
	if b, ok := s.content[p]; ok {
		return b, nil
	}
	return []byte("content:" + p), nil
}

type memSelection struct {
	ids     []string
	snapErr error
	cleared int
}

func (m *memSelection) Snapshot() ([]string, error) {
	if m.snapErr != nil {
		return nil, m.snapErr
	}
	return append([]string(nil), m.ids...), nil
}

func (m *memSelection) Clear() error {
	m.ids = nil
	m.cleared++
	return nil
}

type memDeliverer struct {
	data     []byte
	filename string
	err      error
	calls    int
}

func (d *memDeliverer) Deliver(ctx context.Context, data []byte, filename string) (string, error) {
	d.calls++
	if d.err != nil {
		return "", d.err
	}
	d.data = append([]byte(nil), data...)
	d.filename = filename
	return "mem://" + filename, nil
}
