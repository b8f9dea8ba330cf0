package selection

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/John-Robertt/tweaks/internal/infra/fsx"
)

// Memory 是一次性的内存选择（例如 CLI 参数直接给出的 bundle 列表）。
type Memory struct {
	mu  sync.Mutex
	ids []string
}

func NewMemory(ids ...string) *Memory {
	m := &Memory{}
	for _, id := range ids {
		m.ids = addUnique(m.ids, id)
	}
	return m
}

func (m *Memory) Snapshot() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ids...), nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = nil
	return nil
}

// File 把选择持久化到一个 JSON 文件：{"selected":["a","b"]}。
//
// 约束：
// - 顺序即用户添加顺序（也是去重优先级）
// - 重复添加同一 id 不改变顺序
// - 文件不存在视为空选择
type File struct {
	Path string
}

type fileState struct {
	Selected []string `json:"selected"`
}

// Snapshot 读取当前选择；文件不存在视为空选择，文件损坏返回错误。
func (f File) Snapshot() ([]string, error) {
	return f.Load()
}

func (f File) Load() ([]string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var st fileState
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("选择文件 %q 无效：%w", f.Path, err)
	}
	return st.Selected, nil
}

// Add 依次追加 ids（已存在的跳过），返回更新后的选择。
func (f File) Add(ids ...string) ([]string, error) {
	cur, err := f.Load()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		id, err := CleanID(id)
		if err != nil {
			return nil, err
		}
		cur = addUnique(cur, id)
	}
	return cur, f.save(cur)
}

// Remove 删除 ids（不存在的忽略），其余保持原顺序。
func (f File) Remove(ids ...string) ([]string, error) {
	cur, err := f.Load()
	if err != nil {
		return nil, err
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[strings.TrimSpace(id)] = struct{}{}
	}
	out := make([]string, 0, len(cur))
	for _, id := range cur {
		if _, ok := drop[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out, f.save(out)
}

func (f File) Clear() error {
	return f.save(nil)
}

func (f File) save(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.MarshalIndent(fileState{Selected: ids}, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomic(filepath.Dir(f.Path), filepath.Base(f.Path), b)
}

func addUnique(ids []string, id string) []string {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}

// CleanID 校验 bundle id：非空、单段（id 会拼进存储路径）。
func CleanID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("bundle id 不能为空")
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("非法 bundle id：%q", id)
	}
	return id, nil
}
