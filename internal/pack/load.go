package pack

import (
	"context"

	"github.com/John-Robertt/tweaks/internal/domain"
	"github.com/John-Robertt/tweaks/internal/source"
)

// Load 按 resources 的插入顺序串行取回内容。
//
// 进度：开始写 0；每完成一项写 floor(done*100/total)；结束写 -1。
// total 为 0 时循环不执行，只有 0 与 -1 两次写入。
// 任一 Fetch 失败：原样返回错误、不返回部分结果，进度停在失败前的值。
func Load(ctx context.Context, f source.Fetcher, resources *domain.ResourceSet, rep Reporter) ([]domain.ContentItem, error) {
	rep = orNopReporter(rep)
	rep.SetPhase(domain.PhaseDownload)
	rep.SetPercent(0)

	entries := resources.Entries()
	total := len(entries)
	items := make([]domain.ContentItem, 0, total)

	for i, e := range entries {
		b, err := f.Fetch(ctx, e.SourcePath)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.ContentItem{Name: e.Name, Content: b})
		rep.SetPercent(percent(i+1, total))
	}

	rep.SetPercent(domain.PercentIdle)
	return items, nil
}
