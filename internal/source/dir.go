package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/John-Robertt/tweaks/internal/infra/fsx"
)

// Dir 从本地目录读取 bundle（<Root>/resourcepacks/<id>/...）。
//
// List 递归列出普通文件，名称为相对 bundle 目录、'/' 分隔的路径，按字典序稳定输出。
// 隐藏文件（以 '.' 开头的文件或目录）跳过。
// 符号链接：指向普通文件的照常列出（Fetch 读到目标内容）；指向目录的不展开；断链使 List 失败。
type Dir struct {
	Root string
}

func (Dir) Name() string { return "dir" }

func (d Dir) List(ctx context.Context, p string) ([]string, error) {
	base, err := d.resolve(p)
	if err != nil {
		return nil, &Error{Source: d.Name(), Op: "list", Path: p, Err: err}
	}
	fi, err := os.Stat(base)
	if err != nil {
		return nil, &Error{Source: d.Name(), Op: "list", Path: p, Err: err}
	}
	if !fi.IsDir() {
		return nil, &Error{Source: d.Name(), Op: "list", Path: p, Err: fmt.Errorf("不是目录：%q", base)}
	}

	files := make([]string, 0, 32)
	err = filepath.WalkDir(base, func(path string, de fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != base && isHidden(de.Name()) {
			if de.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if de.Type()&fs.ModeSymlink != 0 {
			// 指向普通文件的符号链接按文件列出；指向目录的不展开（避免环）；断链报错。
			fi, err := os.Stat(path)
			if err != nil {
				return err
			}
			if !fi.Mode().IsRegular() {
				return nil
			}
		} else if !de.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &Error{Source: d.Name(), Op: "list", Path: p, Err: err}
	}

	// 强制稳定输出，避免不同文件系统的遍历顺序差异影响 zip 条目顺序。
	sort.Strings(files)
	return files, nil
}

func (d Dir) Fetch(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Source: d.Name(), Op: "fetch", Path: p, Err: err}
	}
	path, err := d.resolve(p)
	if err != nil {
		return nil, &Error{Source: d.Name(), Op: "fetch", Path: p, Err: err}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Source: d.Name(), Op: "fetch", Path: p, Err: err}
	}
	return b, nil
}

func (d Dir) resolve(p string) (string, error) {
	rel, err := fsx.CleanRel(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.Root, filepath.FromSlash(rel)), nil
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
