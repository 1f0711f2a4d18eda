// Package main pptkwscan 入口
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pptKeywordDetector/internal/cli"
)

func main() {
	// Ctrl+C 在两个文件之间生效，已完成的文件不会丢失
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
