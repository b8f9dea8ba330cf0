package pack

import "fmt"

const (
	StageSelect  = "select"
	StageResolve = "resolve"
	StageLoad    = "load"
	StageBuild   = "build"
	StageDeliver = "deliver"
)

// StageError 标注失败发生在流水线的哪一段；底层错误原样保留（errors.Is/As 可穿透）。
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage=%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
