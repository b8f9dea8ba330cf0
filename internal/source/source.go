package source

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Lister 列出某个存储路径（一个 bundle 目录）下的文件名，顺序即返回顺序。
type Lister interface {
	List(ctx context.Context, path string) ([]string, error)
}

// Fetcher 取回一个文件的完整内容。
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// Source 把“资源存放在哪里”限制在 source 包内部；流水线只依赖 List/Fetch。
//
// 约束：
// - List/Fetch 不做重试（任何失败原样返回），不做缓存（缓存由 Cached 装饰）
// - path 使用 '/' 分隔，与存储介质无关
type Source interface {
	Name() string
	Lister
	Fetcher
}

// Error 是 source 操作的可追溯错误。
type Error struct {
	Source string // "http" / "dir"
	Op     string // "list" 或 "fetch"
	Path   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("source=%s op=%s path=%s: %v", e.Source, e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Open 按 locator 选择实现：
// - http:// 或 https://：HTTP 源（c 为 nil 时使用 http.DefaultClient）
// - 其他：本地目录（相对路径以 cwd 为基准）
func Open(locator string, c *http.Client) (Source, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, fmt.Errorf("source 不能为空")
	}

	low := strings.ToLower(locator)
	if strings.HasPrefix(low, "http://") || strings.HasPrefix(low, "https://") {
		if c == nil {
			c = http.DefaultClient
		}
		return HTTP{BaseURL: locator, Client: c}, nil
	}

	abs, err := filepath.Abs(locator)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("source 目录不可用：%w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("source 不是目录：%q", abs)
	}
	return Dir{Root: abs}, nil
}
