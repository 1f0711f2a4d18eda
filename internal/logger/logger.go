// Package logger 全局结构化日志
// 调用方式与 slog 一致: logger.Info("msg", "key", value)
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 日志初始化选项
type Options struct {
	Level      string // debug, info, warn, error
	File       string // 为空时输出到 stderr
	MaxSize    int    // MB
	MaxBackups int
	MaxAge     int // 天数
	Compress   bool
}

var (
	mu      sync.RWMutex
	current = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	closer  io.Closer
)

// Setup 根据选项重建全局 logger，可重复调用
func Setup(opts Options) {
	var out io.Writer = os.Stderr
	var c io.Closer

	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   opts.Compress,
		}
		out = lj
		c = lj
	}

	h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
	}
	current = slog.New(h)
	closer = c
}

// SetOutput 将日志写入任意 writer，测试中使用
func SetOutput(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()
	current = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Close 关闭日志文件
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

// ParseLevel 解析日志级别，无法识别时返回 warn
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func Debug(msg string, args ...any) { get().Debug(msg, args...) }

func Info(msg string, args ...any) { get().Info(msg, args...) }

func Warn(msg string, args ...any) { get().Warn(msg, args...) }

func Error(msg string, args ...any) { get().Error(msg, args...) }
