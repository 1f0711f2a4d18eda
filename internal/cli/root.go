package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"pptKeywordDetector/internal/config"
	scanerr "pptKeywordDetector/internal/errors"
	"pptKeywordDetector/internal/logger"
	"pptKeywordDetector/internal/model"
	"pptKeywordDetector/internal/report"
	"pptKeywordDetector/internal/scanner"
)

const appName = "pptkwscan"

// globalOptions 根命令和子命令共用的参数
type globalOptions struct {
	configPath string
	logLevel   string
	logFile    string
	historyDB  string

	// 由配置文件填充
	historyLogLevel string
}

// scanOptions 扫描参数
type scanOptions struct {
	keywords    []string
	noRecursive bool
	output      string
	showAll     bool
	verbose     bool
}

// NewRootCommand 构建命令树，每次调用都使用独立的参数
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}
	s := &scanOptions{}

	root := &cobra.Command{
		Use:   appName + " [flags] <directory>",
		Short: "在演示文稿中查找关键词",
		Long: `扫描目录中的 PowerPoint 演示文稿 (.pptx)，列出幻灯片以及母版/版式中
包含指定关键词的文本形状。

示例:
  # 使用 config.json 中的关键词递归扫描
  pptkwscan ./decks

  # 指定关键词，只扫描当前层级，并保存报告
  pptkwscan ./decks -k OldCompany -k "Old Company Name" -n -o report.txt

  # 逗号分隔的多个关键词
  pptkwscan ./decks -k OldCompany,旧社名`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", config.Version, config.CommitID, config.BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return usageError(cmd, err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, g, s, args[0])
		},
	}

	root.SetFlagErrorFunc(usageError)

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "配置文件路径 (默认 ./"+config.DefaultConfigFile+")")
	pf.StringVar(&g.logLevel, "log-level", "", "日志级别: debug, info, warn, error (默认取配置，配置缺省为 warn)")
	pf.StringVar(&g.logFile, "log-file", "", "日志文件，按大小轮转")
	pf.StringVar(&g.historyDB, "history-db", "", "扫描历史 SQLite 文件")

	f := root.Flags()
	f.StringSliceVarP(&s.keywords, "keywords", "k", nil, "检测关键词，替换配置中的关键词；多个关键词用逗号分隔或重复 -k")
	f.BoolVarP(&s.noRecursive, "no-recursive", "n", false, "只检查目录的直接子文件")
	f.StringVarP(&s.output, "output", "o", "", "报告保存路径")
	f.BoolVarP(&s.showAll, "show-all", "a", false, "报告中包含没有检测结果的文件")
	f.BoolVarP(&s.verbose, "verbose", "v", false, "输出每条检测结果的详情")

	root.AddCommand(newHistoryCommand(g))

	return root
}

// loadConfig 加载配置并初始化日志
// 配置出错时打印警告并使用内置默认值
func loadConfig(cmd *cobra.Command, g *globalOptions) *config.AppConfig {
	var cfg *config.AppConfig
	var warn error

	if g.configPath != "" {
		// 显式指定的配置文件不存在也需要提示
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			cfg, warn = config.Default(), err
		}
	} else {
		cfg, warn = config.LoadOrDefault(config.DefaultConfigFile)
	}

	if warn != nil {
		colorYellow.Fprintf(cmd.ErrOrStderr(), "Warning: failed to load config (%v), using defaults\n", warn)
	}

	level := cfg.Log.Level
	if g.logLevel != "" {
		level = g.logLevel
	}
	file := cfg.Log.File
	if g.logFile != "" {
		file = g.logFile
	}
	logger.Setup(logger.Options{
		Level:      level,
		File:       file,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	if g.historyDB == "" {
		g.historyDB = cfg.History.DBPath
	}
	g.historyLogLevel = cfg.History.LogLevel

	logger.Debug("Config loaded", "config", cfg.String())
	return cfg
}

func runScan(cmd *cobra.Command, g *globalOptions, s *scanOptions, dir string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	cfg := loadConfig(cmd, g)
	defer logger.Close()

	keywords := cfg.DefaultKeywords
	if len(s.keywords) > 0 {
		keywords = s.keywords
	}

	opts := scanner.Options{
		Root:       dir,
		Keywords:   keywords,
		Extensions: cfg.AllowedExtensions,
		Recursive:  !s.noRecursive,
	}
	fsys := osfs.New(dir)
	sc := scanner.New(fsys, opts)

	printBanner(out, opts.Root, sc.Keywords(), opts.Recursive)

	files, err := sc.Files()
	if err != nil {
		colorYellow.Fprintf(errOut, "Warning: %v\n", err)
	}
	if len(files) == 0 {
		colorYellow.Fprintln(out, "No presentation files found.")
		return nil
	}
	colorCyan.Fprintf(out, "Found %d file(s)\n\n", len(files))

	startedAt := time.Now()
	results, runErr := sc.Run(ctx, files, scanner.Hooks{
		BeforeFile: func(i, total int, path string) {
			colorWhite.Fprintf(out, "[%d/%d] Checking %s ... ", i, total, filepath.Base(path))
		},
		AfterFile: func(_, _ int, r model.FileResult) {
			printProgress(out, errOut, r)
		},
	})
	finishedAt := time.Now()
	interrupted := scanerr.HasCode(runErr, scanerr.ErrCancelled)

	if g.historyDB != "" {
		recordHistory(cmd, g, fsys, sc, files[:len(results)], historyRun{
			startedAt:   startedAt,
			finishedAt:  finishedAt,
			opts:        opts,
			results:     results,
			interrupted: interrupted,
		})
	}

	if interrupted {
		return &ExitError{Code: ExitInterrupted, Message: "\nScan interrupted by user."}
	}
	if runErr != nil {
		return runErr
	}

	text := report.Format(results, dir, s.showAll, finishedAt)
	fmt.Fprintln(out)
	fmt.Fprint(out, text)

	if s.verbose {
		if details := report.Details(results); details != "" {
			fmt.Fprintln(out)
			colorCyan.Fprintln(out, "Details:")
			fmt.Fprint(out, details)
		}
	}

	if s.output != "" {
		// 保存失败只提示，退出码仍由扫描结果决定
		if err := saveReport(s.output, text); err != nil {
			colorRed.Fprintf(errOut, "Error: failed to save report: %v\n", err)
		} else {
			colorGreen.Fprintf(out, "Report saved to: %s\n", s.output)
		}
	}

	if scanner.AnyFailed(results) {
		return &ExitError{Code: ExitFailure}
	}
	return nil
}

func printBanner(w io.Writer, dir string, keywords []string, recursive bool) {
	colorCyan.Fprintf(w, "Target directory: %s\n", dir)
	colorCyan.Fprintf(w, "Keywords: %s\n", strings.Join(keywords, ", "))
	colorCyan.Fprintf(w, "Recursive: %s\n", yesNo(recursive))
	fmt.Fprintln(w, strings.Repeat("-", 80))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printProgress(out, errOut io.Writer, r model.FileResult) {
	switch {
	case !r.Success:
		colorRed.Fprintln(out, "✗ error")
		colorRed.Fprintf(errOut, "  %s: %s\n", r.Path, r.Error)
	case r.HasDetections():
		colorGreen.Fprintf(out, "✓ %d detection(s)\n", r.DetectionCount())
	default:
		fmt.Fprintln(out, "no detections")
	}
	for _, w := range r.Warnings {
		colorYellow.Fprintf(errOut, "  Warning: %s\n", w)
	}
}

// saveReport 相对路径以当前工作目录为基准
func saveReport(path, text string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return scanerr.Wrap(err, scanerr.ErrInvalidInput, "invalid output path").WithFile(path)
	}
	return report.Save(osfs.New(filepath.Dir(abs)), filepath.Base(abs), text)
}
