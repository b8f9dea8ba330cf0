package deliver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/tweaks/internal/infra/fsx"
)

// Dir 把成品原子写入输出目录；同名文件（同一份选择）直接覆盖。
type Dir struct {
	Out string
}

func (d Dir) Deliver(ctx context.Context, data []byte, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := strings.TrimSpace(filename)
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("非法文件名：%q", filename)
	}
	out, err := filepath.Abs(strings.TrimSpace(d.Out))
	if err != nil {
		return "", err
	}
	if err := fsx.WriteFileAtomic(out, name, data); err != nil {
		return "", err
	}
	return filepath.Join(out, name), nil
}
