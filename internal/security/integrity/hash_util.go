// Package integrity 文件内容摘要
package integrity

import (
	"encoding/hex"
	"io"

	"github.com/go-git/go-billy/v5"
	"github.com/tjfoc/gmsm/sm3"

	scanerr "pptKeywordDetector/internal/errors"
	"pptKeywordDetector/internal/logger"
)

// ComputeSM3 计算文件的 SM3 摘要，返回十六进制字符串
func ComputeSM3(fsys billy.Filesystem, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", scanerr.Wrap(err, scanerr.ErrFileReadFailed, "failed to open file").
			WithComponent("integrity").WithFile(name)
	}
	defer f.Close()

	return SumReader(f, name)
}

// SumReader 流式计算 SM3，避免大文件占用过多内存
func SumReader(r io.Reader, name string) (string, error) {
	h := sm3.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", scanerr.Wrap(err, scanerr.ErrFileReadFailed, "failed to read file").
			WithComponent("integrity").WithFile(name)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Digests 计算一组文件的摘要
// 读取失败的文件不出现在结果中，只记录日志；key 由 keyOf 决定
func Digests(fsys billy.Filesystem, names []string, keyOf func(name string) string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		sum, err := ComputeSM3(fsys, name)
		if err != nil {
			logger.Debug("skip digest", "file", name, "error", err)
			continue
		}
		key := name
		if keyOf != nil {
			key = keyOf(name)
		}
		out[key] = sum
	}
	return out
}
