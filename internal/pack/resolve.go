package pack

import (
	"context"

	"github.com/John-Robertt/tweaks/internal/domain"
	"github.com/John-Robertt/tweaks/internal/source"
)

// BundlePrefix 是 bundle 在存储中的固定命名空间。
const BundlePrefix = "resourcepacks/"

// Resolution 是 Resolve 的结果。
type Resolution struct {
	Resources *domain.ResourceSet
	Accepted  []string
	Rejected  []domain.Rejection
}

// BundlePath 返回 bundle 的存储路径。
func BundlePath(id string) string {
	return BundlePrefix + id
}

// Resolve 按选择顺序逐个列出 bundle 的文件，并按 bundle 粒度去重。
//
// 规则（先选先得）：
// - 某个 bundle 的文件名只要有一个已被更早的 bundle 占用，整个 bundle 丢弃（不冲突的文件也不要）
// - 否则该 bundle 的全部文件按 listing 顺序加入
//
// listing 失败直接原样返回，整个运行中止。
func Resolve(ctx context.Context, l source.Lister, selection []string) (Resolution, error) {
	res := Resolution{
		Resources: domain.NewResourceSet(),
		Accepted:  make([]string, 0, len(selection)),
		Rejected:  []domain.Rejection{},
	}

	for _, id := range selection {
		path := BundlePath(id)
		files, err := l.List(ctx, path)
		if err != nil {
			return Resolution{}, err
		}

		if conflict, ok := firstClaimed(res.Resources, files); ok {
			res.Rejected = append(res.Rejected, domain.Rejection{Bundle: id, Conflict: conflict})
			continue
		}

		for _, f := range files {
			res.Resources.Add(domain.ResourceEntry{
				Name:       f,
				SourcePath: path + "/" + f,
			})
		}
		res.Accepted = append(res.Accepted, id)
	}
	return res, nil
}

func firstClaimed(set *domain.ResourceSet, files []string) (string, bool) {
	for _, f := range files {
		if set.Has(f) {
			return f, true
		}
	}
	return "", false
}
