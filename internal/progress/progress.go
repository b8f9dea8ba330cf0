package progress

import (
	"sync"

	"github.com/John-Robertt/tweaks/internal/domain"
)

// Snapshot 是某一时刻的进度状态。
type Snapshot struct {
	Percent int
	Phase   domain.Phase
}

// Idle 是运行结束后的状态：无进度条、无阶段。
var Idle = Snapshot{Percent: domain.PercentIdle, Phase: domain.PhaseNone}

// Observer 在每次写入后被同步调用（收到的是写入后的完整快照）。
// 实现不应阻塞太久：它运行在流水线的 goroutine 上。
type Observer func(Snapshot)

// State 是进程内共享的 percent + phase 两路信号。
//
// 约束：
// - 只有流水线写；UI 通过 Observe 订阅或 Get 轮询
// - 并发安全（UI 可能在另一个 goroutine 读取）
type State struct {
	mu        sync.Mutex
	cur       Snapshot
	observers []Observer
}

func New() *State {
	return &State{cur: Idle}
}

// Observe 注册观察者；nil 被忽略。
func (s *State) Observe(o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *State) Get() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// SetPercent 写入百分比；超出 [-1,100] 的值被截断到边界。
func (s *State) SetPercent(p int) {
	if p < domain.PercentIdle {
		p = domain.PercentIdle
	}
	if p > 100 {
		p = 100
	}
	s.update(func(c *Snapshot) { c.Percent = p })
}

func (s *State) SetPhase(ph domain.Phase) {
	s.update(func(c *Snapshot) { c.Phase = ph })
}

func (s *State) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.cur)
	snap := s.cur
	obs := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	// 回调在锁外执行：观察者内部调用 Get 不会死锁。
	for _, o := range obs {
		o(snap)
	}
}
