package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/spf13/cobra"

	"pptKeywordDetector/internal/config"
	scanerr "pptKeywordDetector/internal/errors"
	"pptKeywordDetector/internal/logger"
	"pptKeywordDetector/internal/model"
	"pptKeywordDetector/internal/report"
	"pptKeywordDetector/internal/scanner"
	"pptKeywordDetector/internal/security/integrity"
	"pptKeywordDetector/internal/storage"
)

type historyRun struct {
	startedAt   time.Time
	finishedAt  time.Time
	opts        scanner.Options
	results     []model.FileResult
	interrupted bool
}

// historyOptions 数据库路径来自 --history-db 或配置，GORM 日志级别来自配置
func historyOptions(g *globalOptions) storage.Options {
	opts := storage.DefaultOptions(g.historyDB)
	if g.historyLogLevel != "" {
		opts.LogLevel = g.historyLogLevel
	}
	return opts
}

// recordHistory 写入扫描历史，失败只打印警告，不影响退出码
func recordHistory(cmd *cobra.Command, g *globalOptions, fsys billy.Filesystem, sc *scanner.Scanner, files []string, run historyRun) {
	store, err := storage.Open(historyOptions(g))
	if err != nil {
		colorYellow.Fprintf(cmd.ErrOrStderr(), "Warning: history not recorded: %v\n", err)
		return
	}
	defer store.Close()

	host := config.HostIdentity()
	id, err := store.RecordRun(storage.Run{
		StartedAt:   run.startedAt,
		FinishedAt:  run.finishedAt,
		Host:        host.Hostname,
		Platform:    host.Platform,
		Directory:   run.opts.Root,
		Keywords:    sc.Keywords(),
		Recursive:   run.opts.Recursive,
		Interrupted: run.interrupted,
		Results:     run.results,
		Digests:     integrity.Digests(fsys, files, sc.DisplayPath),
	})
	if err != nil {
		colorYellow.Fprintf(cmd.ErrOrStderr(), "Warning: history not recorded: %v\n", err)
		return
	}
	logger.Info("History recorded", "id", id, "db", store.Path())
}

func newHistoryCommand(g *globalOptions) *cobra.Command {
	var limit int
	var runID uint

	cmd := &cobra.Command{
		Use:   "history",
		Short: "列出已记录的扫描历史",
		Long: `列出 --history-db（或配置 history.db_path）中记录的扫描任务，最新的在前。

示例:
  pptkwscan history --history-db scans.db --limit 5

  # 查看某次扫描的逐文件结果和命中详情
  pptkwscan history --history-db scans.db --run 3`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return usageError(cmd, err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("run") {
				return runHistoryDetail(cmd, g, runID)
			}
			return runHistory(cmd, g, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "最多显示的记录数，0 表示全部")
	cmd.Flags().UintVar(&runID, "run", 0, "显示指定 ID 的扫描详情")
	return cmd
}

// openHistory 供 history 子命令使用，调用方负责关闭日志和数据库
func openHistory(cmd *cobra.Command, g *globalOptions) (*storage.Store, error) {
	loadConfig(cmd, g)

	if g.historyDB == "" {
		return nil, &ExitError{Code: ExitUsage, Message: "history database not configured: use --history-db or history.db_path"}
	}
	return storage.Open(historyOptions(g))
}

func runHistory(cmd *cobra.Command, g *globalOptions, limit int) error {
	defer logger.Close()

	store, err := openHistory(cmd, g)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		colorYellow.Fprintln(out, "No scan history recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tHOST\tDIRECTORY\tDETECTIONS\tFAILED\tSTATUS")
	for _, r := range runs {
		status := "done"
		if r.Interrupted {
			status = "interrupted"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(report.TimeLayout), r.Host, r.Directory,
			r.FilesWithMatches, r.TotalFiles, r.FailedFiles, status)
	}
	return tw.Flush()
}

func runHistoryDetail(cmd *cobra.Command, g *globalOptions, id uint) error {
	defer logger.Close()

	store, err := openHistory(cmd, g)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.RunByID(id)
	if scanerr.HasCode(err, scanerr.ErrRecordNotFound) {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("scan run %d not found in %s", id, store.Path())}
	}
	if err != nil {
		return err
	}

	files, err := store.Files(id)
	if err != nil {
		return err
	}
	results := make([]model.FileResult, 0, len(files))
	for _, f := range files {
		r, err := f.Result()
		if err != nil {
			return err
		}
		results = append(results, r)
	}

	out := cmd.OutOrStdout()
	colorCyan.Fprintf(out, "Scan run #%d\n", rec.ID)
	colorCyan.Fprintf(out, "Started: %s  Finished: %s\n",
		rec.StartedAt.Local().Format(report.TimeLayout), rec.FinishedAt.Local().Format(report.TimeLayout))
	colorCyan.Fprintf(out, "Host: %s (%s)\n", rec.Host, rec.Platform)
	printBanner(out, rec.Directory, rec.KeywordList(), rec.Recursive)

	for i, r := range results {
		line, _ := report.Line(r, true)
		if files[i].SM3 != "" {
			line += "\tsm3:" + files[i].SM3
		}
		fmt.Fprintln(out, line)
	}

	summary := report.Summarize(results)
	fmt.Fprintf(out, "\nFiles with detections: %s\n", summary.Ratio())
	if rec.Interrupted {
		colorYellow.Fprintln(out, "Scan was interrupted.")
	}

	if details := report.Details(results); details != "" {
		fmt.Fprintln(out)
		colorCyan.Fprintln(out, "Details:")
		fmt.Fprint(out, details)
	}
	return nil
}
