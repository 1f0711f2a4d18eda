// Package cli pptkwscan 命令行
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	scanerr "pptKeywordDetector/internal/errors"
	"pptKeywordDetector/internal/logger"
)

// 进程退出码
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// ExitError 携带退出码的错误
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// 颜色输出
var (
	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorYellow = color.New(color.FgYellow)
	colorCyan   = color.New(color.FgCyan)
	colorWhite  = color.New(color.FgWhite)
)

// Execute 运行命令并返回进程退出码
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, NewRootCommand(), args, stdout, stderr)
}

func execute(ctx context.Context, root *cobra.Command, args []string, stdout, stderr io.Writer) int {
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := scanerr.SafeExecuteWithHandler(func() error {
		return root.ExecuteContext(ctx)
	}, recoverCommand)
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Message != "" {
			colorRed.Fprintln(stderr, exitErr.Message)
		}
		return exitErr.Code
	}

	colorRed.Fprintf(stderr, "Error: %v\n", err)
	return ExitFailure
}

// recoverCommand 命令中未处理的 panic 按一般失败退出
func recoverCommand(recovered any, stack []byte) error {
	logger.Error("command panicked", "panic", fmt.Sprint(recovered))
	logger.Debug("panic stack", "stack", string(stack))
	return fmt.Errorf("unexpected failure: %v", recovered)
}

// usageError 参数错误，与常见命令行工具一致返回 2
func usageError(cmd *cobra.Command, err error) error {
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf("%v\nRun '%s --help' for usage.", err, cmd.CommandPath())}
}
