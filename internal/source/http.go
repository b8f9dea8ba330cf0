package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
)

// HTTP 从静态文件服务读取 bundle。
//
// 约定：
// - List(p)  => GET <BaseURL>/<p>/   （JSON {"files":[...]} 或 autoindex HTML，子目录递归展开）
// - Fetch(p) => GET <BaseURL>/<p>
type HTTP struct {
	BaseURL string
	Client  *http.Client
}

func (HTTP) Name() string { return "http" }

func (h HTTP) List(ctx context.Context, p string) ([]string, error) {
	files, index, err := h.list(ctx, p, 0)
	if err != nil {
		return nil, &Error{Source: h.Name(), Op: "list", Path: p, Err: err}
	}
	if index {
		// 目录页的顺序取决于服务器，统一按字典序（与 Dir 一致）。
		sort.Strings(files)
	}
	return files, nil
}

// list 列出 p 下的文件；目录页里的子目录链接递归展开，名称保留 "<sub>/" 前缀。
func (h HTTP) list(ctx context.Context, p string, depth int) ([]string, bool, error) {
	u, err := h.join(p)
	if err != nil {
		return nil, false, err
	}
	body, ctype, err := h.get(ctx, u+"/")
	if err != nil {
		return nil, false, err
	}
	l, err := parseListing(body, ctype)
	if err != nil {
		return nil, false, err
	}

	files := l.files
	for _, d := range l.dirs {
		if depth+1 > maxListDepth {
			return nil, false, fmt.Errorf("目录层级超过 %d：%q", maxListDepth, p+"/"+d)
		}
		sub, _, err := h.list(ctx, p+"/"+d, depth+1)
		if err != nil {
			return nil, false, err
		}
		for _, f := range sub {
			files = append(files, d+"/"+f)
		}
	}
	return files, l.index, nil
}

func (h HTTP) Fetch(ctx context.Context, p string) ([]byte, error) {
	u, err := h.join(p)
	if err != nil {
		return nil, &Error{Source: h.Name(), Op: "fetch", Path: p, Err: err}
	}
	body, _, err := h.get(ctx, u)
	if err != nil {
		return nil, &Error{Source: h.Name(), Op: "fetch", Path: p, Err: err}
	}
	return body, nil
}

// join 把 '/' 分隔的存储路径逐段转义后拼到 BaseURL 上。
func (h HTTP) join(p string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(h.BaseURL), "/")
	if base == "" {
		return "", errors.New("base url 不能为空")
	}
	segs := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segs {
		if s == "" || s == "." || s == ".." {
			return "", fmt.Errorf("非法路径：%q", p)
		}
		segs[i] = url.PathEscape(s)
	}
	return base + "/" + strings.Join(segs, "/"), nil
}

func (h HTTP) get(ctx context.Context, u string) ([]byte, string, error) {
	c := h.Client
	if c == nil {
		c = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 读掉少量 body，让连接可复用。
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, "", &HTTPStatusError{
			URL:        u,
			StatusCode: resp.StatusCode,
			Location:   resp.Header.Get("Location"),
		}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return b, resp.Header.Get("Content-Type"), nil
}

// maxListDepth 限制目录页递归层数（防止服务器返回自引用链接时无限展开）。
const maxListDepth = 16

type jsonListing struct {
	Files *[]string `json:"files"`
}

// listing 是一次目录请求的解析结果。
type listing struct {
	files []string
	dirs  []string
	index bool // 来自 HTML 目录页（JSON listing 没有子目录概念，名称可直接带 '/'）
}

// parseListing 解析目录列表。
//
// - JSON：{"files":["a.png", "assets/x.png", ...]}（顺序保持）
// - 其他：按 autoindex HTML 解析 a[href]，当前目录下的文件与子目录分别收集
func parseListing(body []byte, contentType string) (listing, error) {
	trimmed := bytes.TrimSpace(body)
	if strings.Contains(strings.ToLower(contentType), "json") || bytes.HasPrefix(trimmed, []byte("{")) {
		var l jsonListing
		if err := json.Unmarshal(trimmed, &l); err != nil {
			return listing{}, fmt.Errorf("listing JSON 无效：%w", err)
		}
		if l.Files == nil {
			return listing{}, errors.New("listing JSON 缺少 files 字段")
		}
		return listing{files: append([]string{}, (*l.Files)...)}, nil
	}
	return parseIndexHTML(body)
}

func parseIndexHTML(body []byte) (listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return listing{}, err
	}

	l := listing{files: make([]string, 0, 16), index: true}
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		name, dir, ok := indexEntry(href)
		if !ok {
			return
		}
		key := name
		if dir {
			key += "/"
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		if dir {
			l.dirs = append(l.dirs, name)
		} else {
			l.files = append(l.files, name)
		}
	})
	return l, nil
}

// indexEntry 从 autoindex 的 href 中取出当前目录下的条目名；dir 表示子目录链接（以 '/' 结尾）。
// 父目录、排序链接、绝对路径、外链、隐藏项一律跳过。
func indexEntry(href string) (name string, dir bool, ok bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "/") {
		return "", false, false
	}
	if rest, cut := strings.CutPrefix(href, "./"); cut {
		// http.FileServer 对含 ':' 的名字加 "./" 前缀，避免被当成 scheme。
		href = rest
	} else if strings.Contains(href, ":") {
		return "", false, false
	}
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	if strings.HasSuffix(href, "/") {
		dir = true
		href = strings.TrimSuffix(href, "/")
	}
	if href == "" || strings.Contains(href, "/") {
		return "", false, false
	}
	name, err := url.PathUnescape(href)
	if err != nil || name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") || strings.Contains(name, "/") {
		return "", false, false
	}
	return name, dir, true
}

func asHTTPStatus(err error) (*HTTPStatusError, bool) {
	var hs *HTTPStatusError
	if errors.As(err, &hs) {
		return hs, true
	}
	return nil, false
}
