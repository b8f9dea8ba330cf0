package source

import (
	"fmt"
	"strings"
)

// HTTPStatusError 表示服务端返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d location=%s", e.StatusCode, loc)
}

// IsNotFound 判断 err 链中是否有 HTTP 404（bundle 或文件不存在）。
func IsNotFound(err error) bool {
	hs, ok := asHTTPStatus(err)
	return ok && hs.StatusCode == 404
}
