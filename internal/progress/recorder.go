package progress

import (
	"sync"

	"github.com/John-Robertt/tweaks/internal/domain"
)

// Event 是一次写入：Percent 或 Phase 之一有效（由 Kind 区分）。
type Event struct {
	Kind    string // "percent" / "phase"
	Percent int
	Phase   domain.Phase
}

// Recorder 按顺序记录所有写入，用于断言进度序列（测试、调试输出）。
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) SetPercent(p int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: "percent", Percent: p})
}

func (r *Recorder) SetPhase(ph domain.Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: "phase", Phase: ph})
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Percents 返回 percent 写入序列。
func (r *Recorder) Percents() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.events))
	for _, e := range r.events {
		if e.Kind == "percent" {
			out = append(out, e.Percent)
		}
	}
	return out
}

// PercentsIn 返回“phase 写入为 ph 之后、下一次 phase 写入之前”的 percent 序列。
// ph 被写入多次时，各段按顺序拼接。
func (r *Recorder) PercentsIn(ph domain.Phase) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []int{}
	in := false
	for _, e := range r.events {
		switch e.Kind {
		case "phase":
			in = e.Phase == ph
		case "percent":
			if in {
				out = append(out, e.Percent)
			}
		}
	}
	return out
}

// Phases 返回 phase 写入序列。
func (r *Recorder) Phases() []domain.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Phase, 0, len(r.events))
	for _, e := range r.events {
		if e.Kind == "phase" {
			out = append(out, e.Phase)
		}
	}
	return out
}
