package pack

import (
	"bytes"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zip"

	"github.com/John-Robertt/tweaks/internal/domain"
)

const (
	MetaEntryName = "pack.mcmeta"
	InfoEntryName = "info.txt"

	// Description 写入 pack.mcmeta 的固定描述。
	Description = "Minecraft tweaks"
)

// 所有条目使用固定修改时间，相同输入得到相同字节。
var entryModTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

type packMeta struct {
	Pack packSection `json:"pack"`
}

// 字段顺序即输出顺序，外部消费者依赖该结构。
type packSection struct {
	PackFormat  int    `json:"pack_format"`
	Description string `json:"description"`
}

// MetaJSON 生成 pack.mcmeta 的内容（紧凑 JSON，无换行）。
func MetaJSON(packFormat int) ([]byte, error) {
	return json.Marshal(packMeta{Pack: packSection{PackFormat: packFormat, Description: Description}})
}

// ManifestText 生成 info.txt 的内容：每个 bundle 加 "rp/" 前缀，用 ';' 连接。
// 输入是运行开始时的完整选择（包括去重阶段被丢弃的 bundle）。
func ManifestText(selection []string) string {
	parts := make([]string, 0, len(selection))
	for _, id := range selection {
		parts = append(parts, "rp/"+id)
	}
	return strings.Join(parts, ";")
}

// Build 把内容写入 zip，并返回 zip 字节与 manifest 摘要。
//
// 条目顺序固定：items（按给定顺序）→ pack.mcmeta → info.txt。
// 进度：开始写 0；每写完一个条目写 floor(done*100/(len(items)+2))；最后写 -1 再关闭容器。
// info.txt 的内容与摘要输入是同一个字符串。
func Build(items []domain.ContentItem, selection []string, packFormat int, rep Reporter) ([]byte, string, error) {
	rep = orNopReporter(rep)
	rep.SetPhase(domain.PhaseZip)
	rep.SetPercent(0)

	total := len(items) + 2
	done := 0

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	add := func(name string, content []byte) error {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: entryModTime,
		})
		if err != nil {
			return err
		}
		if _, err := w.Write(content); err != nil {
			return err
		}
		done++
		rep.SetPercent(percent(done, total))
		return nil
	}

	for _, it := range items {
		if err := add(it.Name, it.Content); err != nil {
			return nil, "", err
		}
	}

	meta, err := MetaJSON(packFormat)
	if err != nil {
		return nil, "", err
	}
	if err := add(MetaEntryName, meta); err != nil {
		return nil, "", err
	}

	manifest := ManifestText(selection)
	if err := add(InfoEntryName, []byte(manifest)); err != nil {
		return nil, "", err
	}

	rep.SetPercent(domain.PercentIdle)

	if err := zw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), Digest(manifest), nil
}
