package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}

func TestDir_ListRecursiveSortedSkipHidden(t *testing.T) {
	root := t.TempDir()
	pack := filepath.Join(root, "resourcepacks", "packA")
	writeFile(t, filepath.Join(pack, "b.png"), []byte("b"))
	writeFile(t, filepath.Join(pack, "assets", "minecraft", "a.png"), []byte("a"))
	writeFile(t, filepath.Join(pack, ".DS_Store"), []byte("x"))
	writeFile(t, filepath.Join(pack, ".git", "HEAD"), []byte("x"))

	got, err := Dir{Root: root}.List(context.Background(), "resourcepacks/packA")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []string{"assets/minecraft/a.png", "b.png"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("listing 不符合预期：got=%v want=%v", got, want)
	}
}

func TestDir_ListMissingBundle(t *testing.T) {
	_, err := Dir{Root: t.TempDir()}.List(context.Background(), "resourcepacks/nope")
	var se *Error
	if !errors.As(err, &se) || se.Op != "list" {
		t.Fatalf("期望 list 阶段的 *Error，实际：%v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("期望透传 ErrNotExist，实际：%v", err)
	}
}

func TestDir_FetchAndTraversal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "resourcepacks", "packA", "x.png"), []byte("xx"))

	d := Dir{Root: root}
	b, err := d.Fetch(context.Background(), "resourcepacks/packA/x.png")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if string(b) != "xx" {
		t.Fatalf("内容不一致：%q", b)
	}

	if _, err := d.Fetch(context.Background(), "../etc/passwd"); err == nil {
		t.Fatalf("期望路径穿越被拒绝")
	}
}

func TestDir_FetchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Dir{Root: t.TempDir()}.Fetch(ctx, "a")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("期望 context.Canceled，实际：%v", err)
	}
}

func TestOpen_PicksImplementation(t *testing.T) {
	s, err := Open("https://cdn.example.com/packs", nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if s.Name() != "http" {
		t.Fatalf("期望 http 源，实际 %q", s.Name())
	}

	dir := t.TempDir()
	s, err = Open(dir, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if d, ok := s.(Dir); !ok || d.Root != dir {
		t.Fatalf("期望 Dir{%q}，实际 %#v", dir, s)
	}

	if _, err := Open(filepath.Join(dir, "missing"), nil); err == nil {
		t.Fatalf("期望不存在的目录报错")
	}
	if _, err := Open("  ", nil); err == nil {
		t.Fatalf("期望空 locator 报错")
	}
}

func TestDir_ListFollowsFileSymlinks(t *testing.T) {
	root := t.TempDir()
	bundle := filepath.Join(root, "resourcepacks", "p")
	writeFile(t, filepath.Join(root, "shared", "a.png"), []byte("SHARED"))
	writeFile(t, filepath.Join(bundle, "b.png"), []byte("B"))
	if err := os.Symlink(filepath.Join(root, "shared", "a.png"), filepath.Join(bundle, "a.png")); err != nil {
		t.Skipf("当前平台无法创建符号链接：%v", err)
	}
	if err := os.Symlink(filepath.Join(root, "shared"), filepath.Join(bundle, "linkdir")); err != nil {
		t.Fatalf("创建目录链接失败：%v", err)
	}

	d := Dir{Root: root}
	got, err := d.List(context.Background(), "resourcepacks/p")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := []string{"a.png", "b.png"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("listing 不符合预期：got=%v want=%v", got, want)
	}
	b, err := d.Fetch(context.Background(), "resourcepacks/p/a.png")
	if err != nil || string(b) != "SHARED" {
		t.Fatalf("应读到链接目标内容：%q err=%v", b, err)
	}

	if err := os.Symlink(filepath.Join(root, "missing.png"), filepath.Join(bundle, "broken.png")); err != nil {
		t.Fatalf("创建断链失败：%v", err)
	}
	if _, err := d.List(context.Background(), "resourcepacks/p"); err == nil {
		t.Fatalf("断链应使 listing 失败")
	}
}
