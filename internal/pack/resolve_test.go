package pack

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/John-Robertt/tweaks/internal/domain"
)

func abcSource() *stubSource {
	return &stubSource{bundles: map[string][]string{
		"resourcepacks/A": {"x", "y"},
		"resourcepacks/B": {"y", "z"},
		"resourcepacks/C": {"w"},
	}}
}

func TestResolve_WholeBundleRejection(t *testing.T) {
	res, err := Resolve(context.Background(), abcSource(), []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	want := []domain.ResourceEntry{
		{Name: "x", SourcePath: "resourcepacks/A/x"},
		{Name: "y", SourcePath: "resourcepacks/A/y"},
		{Name: "w", SourcePath: "resourcepacks/C/w"},
	}
	if got := res.Resources.Entries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("resources 不符合预期：\ngot=%v\nwant=%v", got, want)
	}
	// z 不冲突，但 B 整包被丢弃。
	if res.Resources.Has("z") {
		t.Fatalf("B 的非冲突文件 z 不应被加入")
	}
	if !reflect.DeepEqual(res.Accepted, []string{"A", "C"}) {
		t.Fatalf("accepted 不符合预期：%v", res.Accepted)
	}
	if !reflect.DeepEqual(res.Rejected, []domain.Rejection{{Bundle: "B", Conflict: "y"}}) {
		t.Fatalf("rejected 不符合预期：%v", res.Rejected)
	}
}

func TestResolve_RejectionIndependentOfLaterOrder(t *testing.T) {
	res, err := Resolve(context.Background(), abcSource(), []string{"A", "C", "B"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []domain.ResourceEntry{
		{Name: "x", SourcePath: "resourcepacks/A/x"},
		{Name: "y", SourcePath: "resourcepacks/A/y"},
		{Name: "w", SourcePath: "resourcepacks/C/w"},
	}
	if got := res.Resources.Entries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("resources 不符合预期：\ngot=%v\nwant=%v", got, want)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].Bundle != "B" {
		t.Fatalf("期望仍然只丢弃 B：%v", res.Rejected)
	}
}

func TestResolve_EarlierBundleWins(t *testing.T) {
	// B 先选：A 因 y 冲突被整包丢弃。
	res, err := Resolve(context.Background(), abcSource(), []string{"B", "A"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !reflect.DeepEqual(res.Accepted, []string{"B"}) {
		t.Fatalf("accepted 不符合预期：%v", res.Accepted)
	}
	if res.Resources.Has("x") {
		t.Fatalf("A 被丢弃后不应出现 x")
	}
}

func TestResolve_SameBundleTwiceRejectsSecond(t *testing.T) {
	res, err := Resolve(context.Background(), abcSource(), []string{"C", "C"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if res.Resources.Len() != 1 || len(res.Rejected) != 1 {
		t.Fatalf("重复选择同一 bundle：resources=%d rejected=%v", res.Resources.Len(), res.Rejected)
	}
}

func TestResolve_ListErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("boom")
	src := abcSource()
	src.listErr = map[string]error{"resourcepacks/B": boom}

	_, err := Resolve(context.Background(), src, []string{"A", "B", "C"})
	if err != boom {
		t.Fatalf("期望原样返回 listing 错误，实际：%v", err)
	}
	// B 失败后不再继续列 C。
	if !reflect.DeepEqual(src.listed, []string{"resourcepacks/A", "resourcepacks/B"}) {
		t.Fatalf("listing 调用序列不符合预期：%v", src.listed)
	}
}

func TestResolve_EmptySelection(t *testing.T) {
	res, err := Resolve(context.Background(), abcSource(), nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if res.Resources.Len() != 0 || len(res.Accepted) != 0 || len(res.Rejected) != 0 {
		t.Fatalf("空选择应得到空结果：%+v", res)
	}
}
