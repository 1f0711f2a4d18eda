// Package scanner 目录枚举与演示文稿批量扫描
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	scanerr "pptKeywordDetector/internal/errors"
	"pptKeywordDetector/internal/logger"
)

// Enumerate 在以目标目录为根的文件系统中查找演示文稿
// 返回相对于根目录的路径，按路径分段排序；任何以 "." 开头的路径段都会被排除
// 根目录不存在或不是目录时返回空列表及诊断错误
func Enumerate(fsys billy.Filesystem, recursive bool, extensions []string) ([]string, error) {
	info, err := fsys.Stat(".")
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, scanerr.FileNotFoundError(fsys.Root()).WithComponent("scanner")
		}
		return []string{}, scanerr.Wrap(err, scanerr.ErrFileReadFailed, "failed to access directory").
			WithComponent("scanner").WithFile(fsys.Root())
	}
	if !info.IsDir() {
		return []string{}, scanerr.NotDirectoryError(fsys.Root()).WithComponent("scanner")
	}

	allowed := extensionSet(extensions)

	var files []string
	if recursive {
		files, err = walkAll(fsys, allowed)
	} else {
		files, err = listChildren(fsys, allowed)
	}
	if err != nil {
		return []string{}, err
	}

	SortPaths(files)
	return files, nil
}

// walkAll 递归遍历，隐藏目录整体跳过
func walkAll(fsys billy.Filesystem, allowed map[string]struct{}) ([]string, error) {
	files := []string{}

	err := util.Walk(fsys, ".", func(path string, info os.FileInfo, err error) error {
		if path == "." {
			return err
		}
		if err != nil {
			// 子目录不可读时跳过，不影响其他文件
			logger.Warn("skip unreadable path", "path", path, "error", err)
			return nil
		}

		if isHidden(info.Name()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		if hasAllowedExt(path, allowed) {
			files = append(files, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, scanerr.Wrap(err, scanerr.ErrFileReadFailed, "failed to walk directory").
			WithComponent("scanner").WithFile(fsys.Root())
	}

	return files, nil
}

// listChildren 只检查直接子项
func listChildren(fsys billy.Filesystem, allowed map[string]struct{}) ([]string, error) {
	entries, err := fsys.ReadDir(".")
	if err != nil {
		return nil, scanerr.Wrap(err, scanerr.ErrFileReadFailed, "failed to read directory").
			WithComponent("scanner").WithFile(fsys.Root())
	}

	files := []string{}
	for _, e := range entries {
		if e.IsDir() || isHidden(e.Name()) {
			continue
		}
		if hasAllowedExt(e.Name(), allowed) {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// SortPaths 按路径分段逐段比较排序
// 分段比较保证 "a/b" 排在 "a-b" 之前，与目录树的层次一致
func SortPaths(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return lessSegments(paths[i], paths[j])
	})
}

func lessSegments(a, b string) bool {
	as := strings.Split(filepath.ToSlash(a), "/")
	bs := strings.Split(filepath.ToSlash(b), "/")
	for k := 0; k < len(as) && k < len(bs); k++ {
		if as[k] != bs[k] {
			return as[k] < bs[k]
		}
	}
	return len(as) < len(bs)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func extensionSet(extensions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = struct{}{}
		}
	}
	return set
}

func hasAllowedExt(name string, allowed map[string]struct{}) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	_, ok := allowed[ext]
	return ok
}
