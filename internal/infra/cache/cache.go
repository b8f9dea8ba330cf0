package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/tweaks/internal/infra/fsx"
)

// Store 提供 <root>/resources/<namespace>/ 下的资源内容缓存。
//
// 约束：
// - ReadOnly=true 时只读（--no-cache-write）
// - namespace 区分不同来源（例如不同主机），避免同名路径串内容
type Store struct {
	Root     string
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// ResourcePath 返回资源缓存文件的绝对路径。
func (s Store) ResourcePath(namespace, p string) (string, error) {
	ns, err := cleanNamespace(namespace)
	if err != nil {
		return "", err
	}
	rel, err := fsx.CleanRel(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, "resources", ns, filepath.FromSlash(rel)), nil
}

// ReadResource 读取缓存；未命中返回 ok=false 且 err=nil。
func (s Store) ReadResource(namespace, p string) ([]byte, bool, error) {
	path, err := s.ResourcePath(namespace, p)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s Store) WriteResource(namespace, p string, content []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	path, err := s.ResourcePath(namespace, p)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(filepath.Dir(path), filepath.Base(path), content)
}

var namespaceRE = regexp.MustCompile(`^[a-z0-9._-]+$`)

func cleanNamespace(ns string) (string, error) {
	ns = strings.ToLower(strings.TrimSpace(ns))
	if ns == "" {
		return "", fmt.Errorf("namespace 不能为空")
	}
	if ns == "." || ns == ".." || !namespaceRE.MatchString(ns) {
		return "", fmt.Errorf("非法 namespace：%q", ns)
	}
	return ns, nil
}
