package domain

// Phase 是对外展示的粗粒度阶段标签。
type Phase string

const (
	PhaseNone     Phase = "none"
	PhaseDownload Phase = "download"
	PhaseZip      Phase = "zip"
)

// PercentIdle 表示“当前阶段没有进度条”（阶段边界使用）。
const PercentIdle = -1

func (p Phase) String() string { return string(p) }
