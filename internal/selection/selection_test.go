package selection

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestMemory_DedupAndClear(t *testing.T) {
	m := NewMemory("a", "b", "a")
	if got, _ := m.Snapshot(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("快照不符合预期：%v", got)
	}
	if err := m.Clear(); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got, _ := m.Snapshot(); len(got) != 0 {
		t.Fatalf("清空后应为空：%v", got)
	}
}

func TestFile_AddRemoveClear(t *testing.T) {
	f := File{Path: filepath.Join(t.TempDir(), ".tweaks", "selection.json")}

	if got, err := f.Snapshot(); err != nil || len(got) != 0 {
		t.Fatalf("文件不存在应视为空选择：%v err=%v", got, err)
	}

	if _, err := f.Add("packB", "packA"); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	got, err := f.Add("packB", "packC")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := []string{"packB", "packA", "packC"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("添加顺序不符合预期：got=%v want=%v", got, want)
	}
	if got, _ := f.Snapshot(); !reflect.DeepEqual(got, []string{"packB", "packA", "packC"}) {
		t.Fatalf("持久化后快照不符合预期：%v", got)
	}

	got, err = f.Remove("packA", "nope")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !reflect.DeepEqual(got, []string{"packB", "packC"}) {
		t.Fatalf("删除后不符合预期：%v", got)
	}

	if err := f.Clear(); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got, _ := f.Snapshot(); len(got) != 0 {
		t.Fatalf("清空后应为空：%v", got)
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		t.Fatalf("读取选择文件失败：%v", err)
	}
	if string(b) != "{\n  \"selected\": []\n}\n" {
		t.Fatalf("清空后文件内容不符合预期：%q", b)
	}
}

func TestFile_RejectBadID(t *testing.T) {
	f := File{Path: filepath.Join(t.TempDir(), "selection.json")}
	for _, id := range []string{"", "  ", "a/b", `a\b`, ".."} {
		if _, err := f.Add(id); err == nil {
			t.Fatalf("%q 期望被拒绝", id)
		}
	}
}

func TestFile_CorruptFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "selection.json")
	if err := os.WriteFile(p, []byte("{"), 0o644); err != nil {
		t.Fatalf("写入失败：%v", err)
	}
	f := File{Path: p}
	if _, err := f.Load(); err == nil {
		t.Fatalf("期望损坏文件报错")
	}
	if got, err := f.Snapshot(); err == nil || got != nil {
		t.Fatalf("损坏文件快照应返回错误：%v err=%v", got, err)
	}
}
