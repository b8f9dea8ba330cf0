package source

import (
	"context"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/John-Robertt/tweaks/internal/infra/cache"
)

// Cached 给 Fetch 加一层磁盘缓存；List 不缓存（bundle 的文件集合可能变化，列表必须是最新的）。
//
// 缓存条目视为不可变：命中后不再回源校验。源上同一路径的内容变了，需要清空 cache_dir
// （或换一个 locator，namespace 随之改变）。本地目录源不应包这一层，见 Cacheable。
//
// 缓存写入失败不影响结果（下次再取即可）。
type Cached struct {
	Inner     Source
	Store     cache.Store
	Namespace string
}

func (c Cached) Name() string { return c.Inner.Name() }

func (c Cached) List(ctx context.Context, p string) ([]string, error) {
	return c.Inner.List(ctx, p)
}

func (c Cached) Fetch(ctx context.Context, p string) ([]byte, error) {
	if b, ok, err := c.Store.ReadResource(c.Namespace, p); err == nil && ok {
		return b, nil
	}
	b, err := c.Inner.Fetch(ctx, p)
	if err != nil {
		return nil, err
	}
	if !c.Store.ReadOnly {
		_ = c.Store.WriteResource(c.Namespace, p, b)
	}
	return b, nil
}

// Cacheable 报告 src 是否值得包一层 Cached。
// 本地目录本身就在磁盘上，缓存只会让修改过的文件读到旧内容。
func Cacheable(src Source) bool {
	switch src.(type) {
	case Dir, *Dir:
		return false
	default:
		return true
	}
}

// CacheNamespace 由完整 locator 推出缓存命名空间，不同源互不共享条目：
// - http(s)：<host>-<hash(scheme://host/path)>
// - 本地目录：local-<hash(绝对路径)>
func CacheNamespace(locator string) string {
	locator = strings.TrimSpace(locator)
	if u, err := url.Parse(locator); err == nil && (strings.EqualFold(u.Scheme, "http") || strings.EqualFold(u.Scheme, "https")) && u.Host != "" {
		norm := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + "/" + strings.Trim(u.EscapedPath(), "/")
		return sanitizeNamespace(strings.ToLower(u.Host)) + "-" + shortHash(norm)
	}
	abs, err := filepath.Abs(locator)
	if err != nil {
		abs = filepath.Clean(locator)
	}
	return "local-" + shortHash(abs)
}

func shortHash(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}

// sanitizeNamespace 把 [a-z0-9._-] 以外的字符（端口的 ':'、IPv6 的方括号）换成 '_'。
func sanitizeNamespace(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
