package pack

import (
	"strconv"
	"unicode/utf16"
)

// HashCode 是非密码学的字符串摘要：h = 31*h + c，c 取 UTF-16 code unit，int32 溢出回绕。
// 只用于生成短文件名标签，不用于校验。
func HashCode(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(u)
	}
	return h
}

// Digest 把 HashCode 格式化为十进制（可能带负号）。
func Digest(s string) string {
	return strconv.FormatInt(int64(HashCode(s)), 10)
}

// Filename 是交付给用户的建议文件名。
func Filename(digest string) string {
	return "tweaks_h" + digest + ".zip"
}
