package pack

import (
	"context"
	"errors"
	"time"

	"github.com/John-Robertt/tweaks/internal/domain"
	"github.com/John-Robertt/tweaks/internal/source"
)

// Selection 是外部持有的 bundle 选择状态：每次运行只读一次快照、成功后清空一次。
//
// Snapshot 读不出选择（例如持久化文件损坏）时必须返回错误，而不是空选择：
// 否则会产出一个空包，随后 Clear 还会覆盖掉原文件。
type Selection interface {
	Snapshot() ([]string, error)
	Clear() error
}

// Deliverer 把成品交给用户（写文件、上传等），返回交付位置（用于报告）。
type Deliverer interface {
	Deliver(ctx context.Context, data []byte, filename string) (string, error)
}

type Options struct {
	Source    source.Source
	Selection Selection
	Deliverer Deliverer

	PackFormat int

	// Progress/Logger 可为 nil。
	Progress Reporter
	Logger   Logger
}

// Make 执行一次完整的合成：resolve → load → zip → deliver → 清空选择。
//
// 约束：
// - 选择只在开始时读取一次；manifest 与 PackReport.Selection 都来自这份快照
// - 任一阶段失败：错误包成 *StageError 原样向上返回，选择保持不变
// - 无论成功失败，返回前进度都回到 idle（percent=-1, phase=none）
//
// 同一 Reporter/Selection 上并发调用 Make 不受保护，由调用方保证同一时刻只有一个运行。
func Make(ctx context.Context, opt Options) (domain.PackReport, error) {
	rep := orNopReporter(opt.Progress)
	log := orNopLogger(opt.Logger)

	rr := domain.PackReport{
		StartedAt:  time.Now().UTC(),
		PackFormat: opt.PackFormat,
	}

	if opt.Source == nil || opt.Selection == nil || opt.Deliverer == nil {
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr, errors.New("pack: Source/Selection/Deliverer 不能为空")
	}

	snap, err := opt.Selection.Snapshot()
	if err != nil {
		rr.Status = domain.StatusFailed
		rr.ErrorCode = errorCodeFor(StageSelect)
		rr.ErrorMsg = err.Error()
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr, &StageError{Stage: StageSelect, Err: err}
	}
	selection := append([]string(nil), snap...)
	rr.Selection = selection

	finished := false
	defer func() {
		if !finished {
			rep.SetPercent(domain.PercentIdle)
			rep.SetPhase(domain.PhaseNone)
		}
	}()

	fail := func(stage string, err error) (domain.PackReport, error) {
		rr.Status = domain.StatusFailed
		rr.ErrorCode = errorCodeFor(stage)
		rr.ErrorMsg = err.Error()
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr, &StageError{Stage: stage, Err: err}
	}

	rep.SetPhase(domain.PhaseDownload)

	started := time.Now()
	res, err := Resolve(ctx, opt.Source, selection)
	if err != nil {
		return fail(StageResolve, err)
	}
	rr.Accepted = res.Accepted
	rr.Rejected = res.Rejected
	for _, r := range res.Rejected {
		log.Warn("bundle 文件名冲突，整包跳过", "bundle", r.Bundle, "conflict", r.Conflict)
	}
	log.Debug("resolve 完成", "accepted", len(res.Accepted), "rejected", len(res.Rejected), "files", res.Resources.Len(), "dur", time.Since(started))

	started = time.Now()
	items, err := Load(ctx, opt.Source, res.Resources, rep)
	if err != nil {
		return fail(StageLoad, err)
	}
	log.Debug("load 完成", "items", len(items), "dur", time.Since(started))

	rep.SetPhase(domain.PhaseZip)

	started = time.Now()
	data, digest, err := Build(items, selection, opt.PackFormat, rep)
	if err != nil {
		return fail(StageBuild, err)
	}
	rr.Entries = len(items) + 2
	rr.Digest = digest
	rr.Bytes = len(data)
	log.Debug("zip 完成", "entries", rr.Entries, "bytes", rr.Bytes, "dur", time.Since(started))

	where, err := opt.Deliverer.Deliver(ctx, data, Filename(digest))
	if err != nil {
		return fail(StageDeliver, err)
	}
	rr.File = where
	log.Info("已生成资源包", "file", where, "digest", digest)

	rep.SetPhase(domain.PhaseNone)
	finished = true

	if err := opt.Selection.Clear(); err != nil {
		// 成品已交付：清空失败只影响下次的默认选择，不算运行失败。
		log.Warn("清空选择失败", "err", err)
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr, nil
}

func errorCodeFor(stage string) string {
	switch stage {
	case StageSelect:
		return domain.ErrCodeSelectInvalid
	case StageResolve:
		return domain.ErrCodeListFailed
	case StageLoad:
		return domain.ErrCodeFetchFailed
	case StageBuild:
		return domain.ErrCodeArchiveFailed
	case StageDeliver:
		return domain.ErrCodeDeliverFailed
	default:
		return ""
	}
}
