package cache

import (
	"errors"
	"os"
	"testing"
)

func TestStore_ReadWriteResource(t *testing.T) {
	root := t.TempDir()

	s := New(root, false)
	if _, ok, err := s.ReadResource("cdn.example.com", "resourcepacks/a/x.png"); err != nil || ok {
		t.Fatalf("期望未命中：ok=%v err=%v", ok, err)
	}
	if err := s.WriteResource("cdn.example.com", "resourcepacks/a/x.png", []byte("png")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, ok, err := s.ReadResource("cdn.example.com", "resourcepacks/a/x.png")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !ok {
		t.Fatalf("期望命中缓存，但 ok=false")
	}
	if string(b) != "png" {
		t.Fatalf("内容不一致：%q", string(b))
	}

	// 不同 namespace 互不可见。
	if _, ok, _ := s.ReadResource("local", "resourcepacks/a/x.png"); ok {
		t.Fatalf("不同 namespace 不应命中")
	}
}

func TestStore_ReadOnlyRejectWrite(t *testing.T) {
	root := t.TempDir()

	s := New(root, true)
	err := s.WriteResource("local", "resourcepacks/a/x.png", []byte("x"))
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("期望 ErrReadOnly，实际：%v", err)
	}

	path, err := s.ResourcePath("local", "resourcepacks/a/x.png")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("期望文件不存在，但 Stat err=%v", err)
	}
}

func TestStore_RejectTraversal(t *testing.T) {
	s := New(t.TempDir(), false)
	if _, err := s.ResourcePath("local", "../escape"); err == nil {
		t.Fatalf("期望路径穿越被拒绝")
	}
	if _, err := s.ResourcePath("..", "a"); err == nil {
		t.Fatalf("期望非法 namespace 被拒绝")
	}
	if _, err := s.ResourcePath("a/b", "a"); err == nil {
		t.Fatalf("期望非法 namespace 被拒绝")
	}
}
