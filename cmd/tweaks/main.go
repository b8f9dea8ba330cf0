package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/tweaks/internal/config"
	"github.com/John-Robertt/tweaks/internal/deliver"
	"github.com/John-Robertt/tweaks/internal/domain"
	"github.com/John-Robertt/tweaks/internal/infra/cache"
	"github.com/John-Robertt/tweaks/internal/infra/httpx"
	"github.com/John-Robertt/tweaks/internal/pack"
	"github.com/John-Robertt/tweaks/internal/progress"
	"github.com/John-Robertt/tweaks/internal/selection"
	"github.com/John-Robertt/tweaks/internal/source"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitError 携带进程退出码：2 = 用法/参数错误，1 = 运行失败。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

// execute 运行一次 CLI，返回进程退出码。
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil && ee.code != 1 {
			fmt.Fprintf(stderr, "参数错误：%v\n", ee.err)
		} else if ee.err != nil {
			fmt.Fprintf(stderr, "失败：%v\n", ee.err)
		}
		return ee.code
	}
	// cobra 自身的解析错误（未知命令/flag、参数个数不对）。
	fmt.Fprintf(stderr, "参数错误：%v\n", err)
	return 2
}

// globalFlags 是所有子命令共享的 persistent flags。
type globalFlags struct {
	configPath    string
	source        string
	cacheDir      string
	logLevel      string
	selectionFile string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "tweaks",
		Short:         "把选中的资源 bundle 合成一个 Minecraft 资源包",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "配置文件路径（默认尝试 ./"+config.FileName+"）")
	pf.StringVar(&g.source, "source", "", "资源源：http(s) 地址或本地目录")
	pf.StringVar(&g.cacheDir, "cache-dir", "", "资源缓存目录（空串表示关闭缓存）")
	pf.StringVar(&g.logLevel, "log-level", "", "日志级别：debug|info|warn|error")
	pf.StringVar(&g.selectionFile, "selection-file", "", "持久化选择文件路径")

	root.AddCommand(
		newMakeCmd(g, stdout, stderr),
		newSelectCmd(g, stdout),
		newListCmd(g, stdout, stderr),
	)
	return root
}

// cliArgs 把 flags 映射为 config.CLIArgs；只有显式给出的 flag 才覆盖配置文件。
func cliArgs(cmd *cobra.Command, g *globalFlags) config.CLIArgs {
	fs := cmd.Flags()
	a := config.CLIArgs{
		ConfigPath:       g.configPath,
		Source:           g.source,
		SourceSet:        fs.Changed("source"),
		CacheDir:         g.cacheDir,
		CacheDirSet:      fs.Changed("cache-dir"),
		LogLevel:         g.logLevel,
		LogLevelSet:      fs.Changed("log-level"),
		SelectionFile:    g.selectionFile,
		SelectionFileSet: fs.Changed("selection-file"),
	}
	if f := fs.Lookup("out"); f != nil && f.Changed {
		a.Out = f.Value.String()
		a.OutSet = true
	}
	if fs.Changed("format") {
		if n, err := fs.GetInt("format"); err == nil {
			a.PackFormat = n
			a.PackFormatSet = true
		}
	}
	return a
}

// runtimeEnv 是一次命令执行所需的全部依赖。
type runtimeEnv struct {
	cfg    config.EffectiveConfig
	logger *log.Logger
	src    source.Source
}

func loadConfig(cmd *cobra.Command, g *globalFlags) (config.EffectiveConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.EffectiveConfig{}, fmt.Errorf("读取当前目录失败：%w", err)
	}
	return config.LoadEffective(cwd, cliArgs(cmd, g))
}

func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "tweaks",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	if lv, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lv)
	}
	return logger
}

// openSource 按配置打开资源源；配置了 cache_dir 且源是远程时，给 Fetch 包一层磁盘缓存。
func openSource(cfg config.EffectiveConfig, logger *log.Logger) (source.Source, error) {
	client, err := httpx.NewClient(cfg.ProxyURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	src, err := source.Open(cfg.Source, client)
	if err != nil {
		return nil, err
	}
	if cfg.CacheDir == "" {
		return src, nil
	}
	if !source.Cacheable(src) {
		logger.Debug("本地目录源不启用资源缓存", "source", cfg.Source)
		return src, nil
	}
	ns := source.CacheNamespace(cfg.Source)
	logger.Debug("启用资源缓存", "dir", cfg.CacheDir, "namespace", ns, "read_only", cfg.CacheReadOnly)
	return source.Cached{
		Inner:     src,
		Store:     cache.New(cfg.CacheDir, cfg.CacheReadOnly),
		Namespace: ns,
	}, nil
}

func setup(cmd *cobra.Command, g *globalFlags, stderr io.Writer) (runtimeEnv, error) {
	cfg, err := loadConfig(cmd, g)
	if err != nil {
		return runtimeEnv{}, err
	}
	logger := newLogger(stderr, cfg.LogLevel)
	src, err := openSource(cfg, logger)
	if err != nil {
		return runtimeEnv{}, err
	}
	return runtimeEnv{cfg: cfg, logger: logger, src: src}, nil
}

func newMakeCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var (
		out    string
		format int
	)
	cmd := &cobra.Command{
		Use:   "make [bundle...]",
		Short: "合成资源包（未给出 bundle 时使用已保存的选择）",
		RunE: func(cmd *cobra.Command, args []string) error {
			started := time.Now().UTC()

			ids := make([]string, 0, len(args))
			for _, a := range args {
				id, err := selection.CleanID(a)
				if err != nil {
					return usageError("%v", err)
				}
				ids = append(ids, id)
			}

			env, err := setup(cmd, g, stderr)
			if err != nil {
				rr := failedReport(started, domain.ErrCodeConfigInvalid, err)
				if c := config.Code(err); c != "" {
					rr.ErrorCode = c
				}
				emitReport(stdout, stderr, rr)
				return &exitError{code: 1}
			}

			var sel pack.Selection
			if len(ids) > 0 {
				sel = selection.NewMemory(ids...)
			} else {
				fs := selection.File{Path: env.cfg.SelectionFile}
				cur, err := fs.Load()
				if err != nil {
					emitReport(stdout, stderr, failedReport(started, domain.ErrCodeSelectInvalid, err))
					return &exitError{code: 1}
				}
				if len(cur) == 0 {
					rr := failedReport(started, domain.ErrCodeEmptySelect, errors.New("没有选中任何 bundle"))
					emitReport(stdout, stderr, rr)
					return &exitError{code: 2}
				}
				sel = fs
			}

			st := progress.New()
			if w, ok := pickProgressWriter(stdout, stderr); ok {
				st.Observe(newProgressUI(w).observe)
			}

			rr, err := pack.Make(cmd.Context(), pack.Options{
				Source:     env.src,
				Selection:  sel,
				Deliverer:  deliver.Dir{Out: env.cfg.Out},
				PackFormat: env.cfg.PackFormat,
				Progress:   st,
				Logger:     env.logger,
			})
			if err != nil {
				env.logger.Error("合成失败", "err", err)
			}
			emitReport(stdout, stderr, rr)
			if err != nil {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "输出目录")
	cmd.Flags().IntVarP(&format, "format", "f", config.DefaultPackFormat, "pack.mcmeta 的 pack_format")
	return cmd
}

func newSelectCmd(g *globalFlags, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "管理持久化的 bundle 选择",
	}

	store := func(cmd *cobra.Command) (selection.File, error) {
		cfg, err := loadConfig(cmd, g)
		if err != nil {
			return selection.File{}, &exitError{code: 1, err: err}
		}
		return selection.File{Path: cfg.SelectionFile}, nil
	}

	add := &cobra.Command{
		Use:   "add <bundle>...",
		Short: "追加 bundle（顺序即优先级）",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				if _, err := selection.CleanID(a); err != nil {
					return usageError("%v", err)
				}
			}
			fs, err := store(cmd)
			if err != nil {
				return err
			}
			cur, err := fs.Add(args...)
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			printIDs(stdout, cur)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:     "remove <bundle>...",
		Aliases: []string{"rm"},
		Short:   "移除 bundle",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := store(cmd)
			if err != nil {
				return err
			}
			cur, err := fs.Remove(args...)
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			printIDs(stdout, cur)
			return nil
		},
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "显示当前选择",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := store(cmd)
			if err != nil {
				return err
			}
			cur, err := fs.Load()
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			printIDs(stdout, cur)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "清空选择",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := store(cmd)
			if err != nil {
				return err
			}
			if err := fs.Clear(); err != nil {
				return &exitError{code: 1, err: err}
			}
			return nil
		},
	}

	cmd.AddCommand(add, remove, list, clearCmd)
	return cmd
}

func newListCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <bundle>",
		Short: "列出 bundle 内的资源文件",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := selection.CleanID(args[0])
			if err != nil {
				return usageError("%v", err)
			}
			env, err := setup(cmd, g, stderr)
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			files, err := env.src.List(cmd.Context(), pack.BundlePath(id))
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			printIDs(stdout, files)
			return nil
		},
	}
}

func printIDs(w io.Writer, ids []string) {
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
}

func failedReport(started time.Time, code string, err error) domain.PackReport {
	rr := domain.PackReport{
		Status:     domain.StatusFailed,
		ErrorCode:  code,
		ErrorMsg:   err.Error(),
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	rr.Finalize()
	return rr
}

// emitReport：stdout 是终端时打印摘要；否则 stdout 只输出一个 PackReport JSON，摘要走 stderr。
func emitReport(stdout, stderr io.Writer, rr domain.PackReport) {
	if isTerminal(stdout) {
		fmt.Fprintln(stdout, summaryLine(rr))
		for _, r := range rr.Rejected {
			fmt.Fprintf(stdout, "  跳过 %s（与 %s 冲突）\n", r.Bundle, r.Conflict)
		}
		return
	}
	_ = json.NewEncoder(stdout).Encode(rr)
	fmt.Fprintln(stderr, summaryLine(rr))
}

func summaryLine(rr domain.PackReport) string {
	if rr.Status == domain.StatusFailed {
		return fmt.Sprintf("失败：%s: %s", rr.ErrorCode, rr.ErrorMsg)
	}
	return fmt.Sprintf("完成：%s（entries=%d bytes=%d accepted=%s rejected=%d）",
		rr.File, rr.Entries, rr.Bytes, strings.Join(rr.Accepted, ","), len(rr.Rejected),
	)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// pickProgressWriter：进度条只在交互终端启用，优先 stderr，不污染 stdout 的 JSON。
func pickProgressWriter(stdout, stderr io.Writer) (io.Writer, bool) {
	if isTerminal(stderr) {
		return stderr, true
	}
	if isTerminal(stdout) {
		return stdout, true
	}
	return nil, false
}
