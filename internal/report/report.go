// Package report 扫描结果报告的生成与保存
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	scanerr "pptKeywordDetector/internal/errors"
	"pptKeywordDetector/internal/model"
)

const (
	// TimeLayout 报告中的时间格式
	TimeLayout = "2006-01-02 15:04:05"

	separatorWidth = 80
)

// Separator 报告分隔线
var Separator = strings.Repeat("=", separatorWidth)

// Summary 批量扫描汇总
type Summary struct {
	TotalFiles       int
	FilesWithMatches int
	FailedFiles      int
	TotalMatches     int
	TotalOccurrences int
}

// Summarize 统计扫描结果
func Summarize(results []model.FileResult) Summary {
	s := Summary{TotalFiles: len(results)}
	for _, r := range results {
		if r.HasDetections() {
			s.FilesWithMatches++
		}
		if !r.Success {
			s.FailedFiles++
		}
		s.TotalMatches += r.DetectionCount()
		s.TotalOccurrences += r.TotalOccurrences()
	}
	return s
}

// Ratio 报告中的 "命中文件数/文件总数"
func (s Summary) Ratio() string {
	return fmt.Sprintf("%d/%d", s.FilesWithMatches, s.TotalFiles)
}

// Line 单个文件在报告中的行，不需要输出时返回 false
// 失败文件总是输出且检测数固定为 0
func Line(r model.FileResult, showAll bool) (string, bool) {
	if !r.Success {
		return fmt.Sprintf("%s\t0\t(error: %s)", r.Path, r.Error), true
	}
	n := r.DetectionCount()
	if n == 0 && !showAll {
		return "", false
	}
	return fmt.Sprintf("%s\t%d", r.Path, n), true
}

// Format 生成报告文本
func Format(results []model.FileResult, targetDir string, showAll bool, now time.Time) string {
	var sb strings.Builder

	for _, r := range results {
		if line, ok := Line(r, showAll); ok {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}

	summary := Summarize(results)

	sb.WriteByte('\n')
	sb.WriteString(Separator + "\n")
	fmt.Fprintf(&sb, "Target directory: %s\n", targetDir)
	fmt.Fprintf(&sb, "Files with detections: %s\n", summary.Ratio())
	fmt.Fprintf(&sb, "Scanned at: %s\n", now.Local().Format(TimeLayout))
	sb.WriteString(Separator + "\n")

	return sb.String()
}

// Details 逐条列出命中记录，只用于控制台的详细输出
func Details(results []model.FileResult) string {
	var sb strings.Builder

	for _, r := range results {
		if !r.HasDetections() && len(r.Warnings) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "%s\n", r.Path)
		for _, m := range r.Matches {
			scope := "slide"
			if m.IsMaster {
				scope = "master"
			}
			loc := m.Location
			if m.LayoutName != "" {
				loc += " (" + m.LayoutName + ")"
			}
			fmt.Fprintf(&sb, "  [%s %s] shape #%d  %s  x%d\n",
				scope, loc, m.ShapeIndex, strings.Join(m.Keywords, ", "), m.Count)
			if m.ShapeName != "" || m.Part != "" {
				fmt.Fprintf(&sb, "      %q in %s\n", m.ShapeName, m.Part)
			}
			fmt.Fprintf(&sb, "      %s\n", oneLine(m.Excerpt))
		}
		for _, w := range r.Warnings {
			fmt.Fprintf(&sb, "  warning: %s\n", w)
		}
	}

	return sb.String()
}

// oneLine 换行符替换为空格，摘要保持单行显示
func oneLine(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\v', '\t':
			return ' '
		}
		return r
	}, s)
}

// Save 保存报告，已存在的文件会被覆盖
func Save(fsys billy.Filesystem, name, content string) error {
	if dir := filepath.Dir(name); dir != "." && dir != "" {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return scanerr.Wrap(err, scanerr.ErrFileWriteFailed, "failed to create report directory").
				WithComponent("report").WithFile(name)
		}
	}

	if err := util.WriteFile(fsys, name, []byte(content), 0644); err != nil {
		return scanerr.Wrap(err, scanerr.ErrFileWriteFailed, "failed to save report").
			WithComponent("report").WithFile(name)
	}
	return nil
}
