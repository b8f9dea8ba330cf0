package domain

import (
	"time"

	"github.com/goccy/go-json"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

const (
	ErrCodeListFailed    = "list_failed"
	ErrCodeFetchFailed   = "fetch_failed"
	ErrCodeArchiveFailed = "archive_failed"
	ErrCodeDeliverFailed = "deliver_failed"
	ErrCodeEmptySelect   = "empty_selection"
	ErrCodeSelectInvalid = "selection_invalid"
	ErrCodeConfigInvalid = "config_invalid"
)

// PackReport 是 `tweaks make` 对外稳定输出（stdout JSON）的结构。
type PackReport struct {
	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	PackFormat int `json:"pack_format"`

	// Selection 是本次运行开始时的选择快照（也是 info.txt 的来源）。
	Selection []string    `json:"selection"`
	Accepted  []string    `json:"accepted"`
	Rejected  []Rejection `json:"rejected"`

	Entries int    `json:"entries"`
	Digest  string `json:"digest"`
	File    string `json:"file"`
	Bytes   int    `json:"bytes"`
}

// Rejection 记录一个因文件名冲突被整体丢弃的 bundle。
type Rejection struct {
	Bundle   string `json:"bundle"`
	Conflict string `json:"conflict"` // 第一个撞名的文件
}

// Finalize 统一时间为 UTC，并把 nil slice 规范为空 slice（JSON 输出 [] 而不是 null）。
func (r *PackReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Selection == nil {
		r.Selection = []string{}
	}
	if r.Accepted == nil {
		r.Accepted = []string{}
	}
	if r.Rejected == nil {
		r.Rejected = []Rejection{}
	}
	if r.Status == "" {
		r.Status = StatusOK
	}
}

func (r PackReport) MarshalJSON() ([]byte, error) {
	type Alias PackReport
	return json.Marshal(Alias(r))
}
