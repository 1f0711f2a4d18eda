package scanner

import (
	"context"
	"path/filepath"

	"github.com/go-git/go-billy/v5"

	"pptKeywordDetector/internal/detector/keyword"
	"pptKeywordDetector/internal/detector/parser"
	scanerr "pptKeywordDetector/internal/errors"
	"pptKeywordDetector/internal/logger"
	"pptKeywordDetector/internal/model"
)

// Options 扫描参数，由配置和命令行合并得到
type Options struct {
	// Root 目标目录，仅用于结果中的显示路径
	Root       string
	Keywords   []string
	Extensions []string
	Recursive  bool
}

// Hooks 批量扫描的进度回调，均可为空
type Hooks struct {
	BeforeFile func(index, total int, path string)
	AfterFile  func(index, total int, result model.FileResult)
}

// Scanner 演示文稿扫描器
type Scanner struct {
	fs      billy.Filesystem
	opts    Options
	matcher *keyword.Matcher
	open    func(fsys billy.Filesystem, name string) (parser.Document, error)
}

// New 创建扫描器，fsys 以目标目录为根
func New(fsys billy.Filesystem, opts Options) *Scanner {
	return &Scanner{
		fs:      fsys,
		opts:    opts,
		matcher: keyword.NewMatcher(opts.Keywords),
		open:    openPresentation,
	}
}

func openPresentation(fsys billy.Filesystem, name string) (parser.Document, error) {
	return parser.Open(fsys, name)
}

// Files 枚举待扫描的文件
func (s *Scanner) Files() ([]string, error) {
	return Enumerate(s.fs, s.opts.Recursive, s.opts.Extensions)
}

// Keywords 实际使用的关键词
func (s *Scanner) Keywords() []string {
	return s.matcher.Keywords()
}

// DisplayPath 结果和报告中使用的路径
func (s *Scanner) DisplayPath(name string) string {
	if s.opts.Root == "" {
		return name
	}
	return filepath.Join(s.opts.Root, filepath.FromSlash(name))
}

// ScanFile 扫描单个文件
// 打开或解析失败时返回失败结果，不向上返回错误
func (s *Scanner) ScanFile(name string) model.FileResult {
	display := s.DisplayPath(name)

	doc, err := scanerr.SafeExecuteWithResult(func() (parser.Document, error) {
		return s.open(s.fs, name)
	})
	if err != nil {
		scanerr.Log("failed to open presentation", err, "file", display)
		return model.Failed(display, scanerr.Describe(err))
	}

	matches, warnings, err := s.scanDocument(doc)
	if err != nil {
		scanerr.Log("failed to scan presentation", err, "file", display)
		return model.Failed(display, scanerr.Describe(err))
	}

	logger.Debug("scanned presentation", "file", display, "matches", len(matches), "warnings", len(warnings))
	return model.Succeeded(display, matches, warnings)
}

// scanDocument 先检测幻灯片再检测母版
// 幻灯片出错即整个文件失败；母版出错只记录警告，保留已得到的结果
func (s *Scanner) scanDocument(doc parser.Document) ([]model.Match, []string, error) {
	slides, err := scanerr.SafeExecuteWithResult(doc.Slides)
	if err != nil {
		return nil, nil, err
	}
	matches := s.matcher.ScanSlides(slides)

	var warnings []string
	var masters []parser.Master
	err = scanerr.SafeExecute(func() error {
		var merr error
		masters, merr = doc.Masters()
		return merr
	})
	matches = append(matches, s.matcher.ScanMasters(masters)...)
	if err != nil {
		warn := scanerr.Wrap(err, scanerr.GetCode(err), "master/layout scan incomplete").WithLevel(scanerr.LevelWarning)
		scanerr.Log("master scan failed", warn)
		warnings = append(warnings, scanerr.Describe(warn))
	}

	return matches, warnings, nil
}

// Run 依次扫描文件列表
// ctx 取消后在下一个文件开始前停止，返回已完成的结果和 ErrCancelled
func (s *Scanner) Run(ctx context.Context, files []string, hooks Hooks) ([]model.FileResult, error) {
	results := make([]model.FileResult, 0, len(files))
	total := len(files)

	for i, name := range files {
		if err := ctx.Err(); err != nil {
			logger.Info("scan interrupted", "done", i, "total", total)
			return results, scanerr.Wrap(err, scanerr.ErrCancelled, "scan interrupted").WithComponent("scanner")
		}

		if hooks.BeforeFile != nil {
			hooks.BeforeFile(i+1, total, s.DisplayPath(name))
		}

		result := s.ScanFile(name)
		results = append(results, result)

		if hooks.AfterFile != nil {
			hooks.AfterFile(i+1, total, result)
		}
	}

	return results, nil
}

// AnyFailed 是否存在扫描失败的文件
func AnyFailed(results []model.FileResult) bool {
	for _, r := range results {
		if !r.Success {
			return true
		}
	}
	return false
}
