package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是默认配置文件名（位于 cwd）。
	FileName = "tweaks.json"

	DefaultSource        = "."
	DefaultOut           = "."
	DefaultPackFormat    = 15
	DefaultLogLevel      = "info"
	DefaultSelectionFile = ".tweaks/selection.json"
	DefaultTimeout       = 60 * time.Second
)

// CLIArgs 保留“是否显式指定”的信息，保证 CLI 能覆盖配置文件（包括覆盖成零值）。
type CLIArgs struct {
	ConfigPath string

	Source    string
	SourceSet bool

	Out    string
	OutSet bool

	PackFormat    int
	PackFormatSet bool

	CacheDir    string
	CacheDirSet bool

	LogLevel    string
	LogLevelSet bool

	SelectionFile    string
	SelectionFileSet bool
}

// FileConfig 对应 tweaks.json 的解析结构。
type FileConfig struct {
	Source         string       `json:"source"`
	Out            string       `json:"out"`
	PackFormat     int          `json:"pack_format"`
	Proxy          *ProxyConfig `json:"proxy"`
	CacheDir       string       `json:"cache_dir"`
	CacheReadOnly  bool         `json:"cache_read_only"`
	LogLevel       string       `json:"log_level"`
	SelectionFile  string       `json:"selection_file"`
	TimeoutSeconds int          `json:"timeout_seconds"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并规范化后的最终配置（路径均为绝对路径）。
type EffectiveConfig struct {
	// Source 是 http(s) URL 或本地目录的绝对路径。
	Source string
	Out    string

	PackFormat int

	ProxyURL string
	Timeout  time.Duration

	// CacheDir 为空表示不启用资源缓存。
	CacheDir      string
	CacheReadOnly bool

	LogLevel      string
	SelectionFile string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取配置文件并与 CLI 参数合并。
//
// 发现规则：
// 1) cli.ConfigPath 非空：必须存在
// 2) 否则尝试 <cwd>/tweaks.json（可选）
//
// 覆盖优先级：CLI > 配置文件 > 内置默认。相对路径一律以 cwd 为基准。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	required := false
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		required = true
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if required && !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}

	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(format string, args ...any) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, args...)}
	}

	src := pick(cli.SourceSet, cli.Source, fc.Source, DefaultSource)
	if strings.TrimSpace(src) == "" {
		return invalid("source 不能为空")
	}
	if isHTTP(src) {
		u, err := url.Parse(strings.TrimSpace(src))
		if err != nil || u.Host == "" {
			return invalid("source 不是合法的 http(s) 地址：%q", src)
		}
		src = strings.TrimSpace(src)
	} else {
		src = absCleanFrom(cwdAbs, src)
	}

	out := absCleanFrom(cwdAbs, pick(cli.OutSet, cli.Out, fc.Out, DefaultOut))
	if out == "" {
		return invalid("out 不能为空")
	}

	packFormat := DefaultPackFormat
	if cli.PackFormatSet {
		packFormat = cli.PackFormat
	} else if fc.PackFormat != 0 {
		packFormat = fc.PackFormat
	}
	if packFormat < 1 {
		return invalid("pack_format 必须 >= 1，实际是 %d", packFormat)
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("proxy.url 无效：%q", proxyURL)
		}
	}

	timeout := DefaultTimeout
	if fc.TimeoutSeconds < 0 {
		return invalid("timeout_seconds 不能为负数")
	}
	if fc.TimeoutSeconds > 0 {
		timeout = time.Duration(fc.TimeoutSeconds) * time.Second
	}

	cacheDir := pick(cli.CacheDirSet, cli.CacheDir, fc.CacheDir, "")
	if strings.TrimSpace(cacheDir) != "" {
		cacheDir = absCleanFrom(cwdAbs, cacheDir)
	} else {
		cacheDir = ""
	}

	level := strings.ToLower(strings.TrimSpace(pick(cli.LogLevelSet, cli.LogLevel, fc.LogLevel, DefaultLogLevel)))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log_level 只能是 debug|info|warn|error，实际是 %q", level)
	}

	selFile := absCleanFrom(cwdAbs, pick(cli.SelectionFileSet, cli.SelectionFile, fc.SelectionFile, DefaultSelectionFile))
	if selFile == "" {
		return invalid("selection_file 不能为空")
	}

	return EffectiveConfig{
		Source:        src,
		Out:           out,
		PackFormat:    packFormat,
		ProxyURL:      proxyURL,
		Timeout:       timeout,
		CacheDir:      cacheDir,
		CacheReadOnly: fc.CacheReadOnly,
		LogLevel:      level,
		SelectionFile: selFile,
	}, nil
}

// pick：CLI 显式指定 > 配置文件非空 > 默认值。
func pick(cliSet bool, cliVal, fileVal, def string) string {
	if cliSet {
		return cliVal
	}
	if strings.TrimSpace(fileVal) != "" {
		return fileVal
	}
	return def
}

func isHTTP(s string) bool {
	low := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(low, "http://") || strings.HasPrefix(low, "https://")
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
