package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/John-Robertt/tweaks/internal/domain"
	"github.com/John-Robertt/tweaks/internal/progress"
)

// progressUI 把 progress.State 的 percent/phase 渲染成终端进度条。
//
// - phase 切换：结束旧进度条，按新阶段开一条新的
// - percent=-1：当前阶段结束，进度条收起并打印一行耗时
// - 只写到交互终端（stderr 优先），不碰 stdout 的 JSON
type progressUI struct {
	w io.Writer

	mu      sync.Mutex
	phase   domain.Phase
	bar     *progressbar.ProgressBar
	started time.Time
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w, phase: domain.PhaseNone}
}

func (p *progressUI) observe(s progress.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s.Phase != p.phase {
		p.finishLocked()
		p.phase = s.Phase
	}
	if s.Percent < 0 || s.Phase == domain.PhaseNone {
		p.finishLocked()
		return
	}

	if p.bar == nil {
		p.started = time.Now()
		p.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(phaseLabel(s.Phase)),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(s.Percent)
}

func (p *progressUI) finishLocked() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
	fmt.Fprintf(p.w, "%s: 结束 (%s)\n", phaseLabel(p.phase), formatShortDuration(time.Since(p.started)))
}

func phaseLabel(ph domain.Phase) string {
	switch ph {
	case domain.PhaseDownload:
		return "下载"
	case domain.PhaseZip:
		return "打包"
	case domain.PhaseNone:
		return "空闲"
	default:
		return string(ph)
	}
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
