// Package errors 扫描工具的错误体系
// 在标准 error 之上附加错误代码、级别和文件路径，便于在报告中定位问题
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"pptKeywordDetector/internal/logger"
)

// ErrorLevel 错误级别
type ErrorLevel int

const (
	LevelInfo    ErrorLevel = iota // 信息
	LevelWarning                   // 警告
	LevelError                     // 错误
	LevelFatal                     // 致命错误
)

// String 返回错误级别的字符串表示
func (l ErrorLevel) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ErrorCode 错误代码
type ErrorCode int

const (
	// 通用错误 (1000-1999)
	ErrUnknown      ErrorCode = 1000
	ErrInvalidInput ErrorCode = 1001
	ErrCancelled    ErrorCode = 1003
	ErrInternal     ErrorCode = 1005

	// 文件错误 (2000-2999)
	ErrFileNotFound    ErrorCode = 2000
	ErrNotDirectory    ErrorCode = 2001
	ErrFileReadFailed  ErrorCode = 2003
	ErrFileWriteFailed ErrorCode = 2004
	ErrFileFormat      ErrorCode = 2005

	// 解析错误 (3000-3999)
	ErrParsingFailed ErrorCode = 3004
	ErrPartMissing   ErrorCode = 3008

	// 配置错误 (4000-4999)
	ErrConfigParsing ErrorCode = 4002
	ErrConfigValue   ErrorCode = 4003

	// 存储错误 (6000-6999)
	ErrStorage        ErrorCode = 6000
	ErrRecordNotFound ErrorCode = 6001
)

var errorDescriptions = map[ErrorCode]string{
	ErrUnknown:      "unknown error",
	ErrInvalidInput: "invalid input",
	ErrCancelled:    "operation cancelled",
	ErrInternal:     "internal error",

	ErrFileNotFound:    "file not found",
	ErrNotDirectory:    "not a directory",
	ErrFileReadFailed:  "file read failed",
	ErrFileWriteFailed: "file write failed",
	ErrFileFormat:      "unsupported file format",

	ErrParsingFailed: "parsing failed",
	ErrPartMissing:   "package part missing",

	ErrConfigParsing: "config parsing failed",
	ErrConfigValue:   "invalid config value",

	ErrStorage:        "storage error",
	ErrRecordNotFound: "record not found",
}

// Description 返回错误代码的描述
func (c ErrorCode) Description() string {
	if desc, ok := errorDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

// ScanError 扫描错误
type ScanError struct {
	Code      ErrorCode  // 错误代码
	Level     ErrorLevel // 错误级别
	Message   string     // 错误消息
	Component string     // 组件名称
	FilePath  string     // 相关文件路径
	Cause     error      // 原始错误
}

// New 创建扫描错误
func New(code ErrorCode, message string) *ScanError {
	return &ScanError{
		Code:    code,
		Level:   LevelError,
		Message: message,
	}
}

// Newf 使用格式化消息创建扫描错误
func Newf(code ErrorCode, format string, args ...any) *ScanError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 包装原始错误
func Wrap(cause error, code ErrorCode, message string) *ScanError {
	return New(code, message).WithCause(cause)
}

// Error 实现 error 接口
// 输出会直接出现在报告的 "(error: ...)" 中，因此不带级别前缀
func (e *ScanError) Error() string {
	var sb strings.Builder

	if e.Component != "" {
		sb.WriteString(e.Component)
		sb.WriteString(": ")
	}

	sb.WriteString(e.Message)

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap 返回原始错误
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Is 按错误代码比较，使 errors.Is(err, New(ErrFileFormat, "")) 成立
func (e *ScanError) Is(target error) bool {
	t, ok := target.(*ScanError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithLevel 设置错误级别
func (e *ScanError) WithLevel(level ErrorLevel) *ScanError {
	e.Level = level
	return e
}

// WithComponent 设置组件名称
func (e *ScanError) WithComponent(component string) *ScanError {
	e.Component = component
	return e
}

// WithFile 设置相关文件
func (e *ScanError) WithFile(filePath string) *ScanError {
	e.FilePath = filePath
	return e
}

// WithCause 设置原始错误
func (e *ScanError) WithCause(cause error) *ScanError {
	e.Cause = cause
	return e
}

// IsWarning 是否是警告
func (e *ScanError) IsWarning() bool {
	return e.Level == LevelWarning
}

// ============================================================
// 便捷构造函数
// ============================================================

// FileNotFoundError 路径不存在
func FileNotFoundError(path string) *ScanError {
	return Newf(ErrFileNotFound, "directory does not exist: %s", path).WithFile(path)
}

// NotDirectoryError 路径不是目录
func NotDirectoryError(path string) *ScanError {
	return Newf(ErrNotDirectory, "path is not a directory: %s", path).WithFile(path)
}

// FileFormatError 文件格式不受支持
func FileFormatError(path, detail string) *ScanError {
	return New(ErrFileFormat, detail).WithFile(path)
}

// ParsingError 解析失败
func ParsingError(part string, cause error) *ScanError {
	return Newf(ErrParsingFailed, "failed to parse %s", part).WithCause(cause)
}

// PartMissingError 包内缺少必需部件
func PartMissingError(part string) *ScanError {
	return Newf(ErrPartMissing, "missing package part %s", part)
}

// ============================================================
// 判断辅助
// ============================================================

// GetCode 提取错误代码，非 ScanError 返回 ErrUnknown
func GetCode(err error) ErrorCode {
	var se *ScanError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrUnknown
}

// Log 按错误级别写日志，附带错误代码及其描述
// 非 ScanError 按 error 级别记录
func Log(msg string, err error, args ...any) {
	code := GetCode(err)
	attrs := append([]any{"error", err, "code", int(code), "kind", code.Description()}, args...)

	var se *ScanError
	if !stderrors.As(err, &se) {
		logger.Error(msg, attrs...)
		return
	}

	attrs = append(attrs, "severity", se.Level.String())
	switch {
	case se.IsWarning():
		logger.Warn(msg, attrs...)
	case se.Level == LevelInfo:
		logger.Info(msg, attrs...)
	default:
		logger.Error(msg, attrs...)
	}
}

// HasCode 判断错误链中是否包含指定代码
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if se, ok := err.(*ScanError); ok && se.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}
