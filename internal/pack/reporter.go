package pack

import "github.com/John-Robertt/tweaks/internal/domain"

// Reporter 是流水线写进度的出口（progress.State 满足该接口）。
// 流水线只写不读。
type Reporter interface {
	SetPercent(p int)
	SetPhase(ph domain.Phase)
}

// Logger 是流水线需要的最小日志接口（charmbracelet/log 的 *log.Logger 满足该接口）。
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
}

type nopReporter struct{}

func (nopReporter) SetPercent(int) {}
func (nopReporter) SetPhase(domain.Phase) {}

type nopLogger struct{}

func (nopLogger) Debug(any, ...any) {}
func (nopLogger) Info(any, ...any) {}
func (nopLogger) Warn(any, ...any) {}

func orNopReporter(r Reporter) Reporter {
	if r == nil {
		return nopReporter{}
	}
	return r
}

func orNopLogger(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

func percent(done, total int) int {
	return done * 100 / total
}
