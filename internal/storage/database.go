// Package storage 扫描历史的 SQLite 存储
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	scanerr "pptKeywordDetector/internal/errors"
	"pptKeywordDetector/internal/logger"
)

// Options 数据库初始化选项
type Options struct {
	Path            string
	LogLevel        string        // silent, error, warn, info
	MaxOpenConns    int           // 推荐: 1
	ConnMaxLifetime time.Duration // 推荐: 1h
	JournalMode     string        // WAL
	Synchronous     string        // NORMAL
}

// DefaultOptions 单进程命令行使用的默认选项
func DefaultOptions(path string) Options {
	return Options{
		Path:            path,
		LogLevel:        "silent",
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
	}
}

// Store 扫描历史存储
type Store struct {
	db   *gorm.DB
	path string
}

// Open 打开（必要时创建）历史数据库并迁移表结构
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, scanerr.New(scanerr.ErrInvalidInput, "history database path is empty").WithComponent("storage")
	}

	// 1. 创建目录
	if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, scanerr.Wrap(err, scanerr.ErrStorage, "failed to create history directory").
				WithComponent("storage").WithFile(dir)
		}
	}

	// 2. 配置 GORM 日志
	gormConfig := &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormLogLevel(opts.LogLevel)),
		// 单连接下缓存的预编译语句会使事务无法提交
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
	}

	// 3. 打开连接
	db, err := gorm.Open(sqlite.Open(opts.Path), gormConfig)
	if err != nil {
		return nil, scanerr.Wrap(err, scanerr.ErrStorage, "failed to open history database").
			WithComponent("storage").WithFile(opts.Path)
	}

	// 4. 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, scanerr.Wrap(err, scanerr.ErrStorage, "failed to get sql.DB").WithComponent("storage")
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		sqlDB.SetMaxIdleConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	// 5. PRAGMA
	var pragmas []string
	if opts.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA journal_mode = %s;", opts.JournalMode))
	}
	if opts.Synchronous != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA synchronous = %s;", opts.Synchronous))
	}
	pragmas = append(pragmas, "PRAGMA foreign_keys = ON;")

	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			sqlDB.Close()
			return nil, scanerr.Wrap(err, scanerr.ErrStorage, "failed to exec "+p).WithComponent("storage")
		}
	}

	// 6. 表结构
	if err := db.AutoMigrate(&RunRecord{}, &FileRecord{}); err != nil {
		sqlDB.Close()
		return nil, scanerr.Wrap(err, scanerr.ErrStorage, "failed to migrate history tables").WithComponent("storage")
	}

	logger.Info("History database opened", "path", opts.Path, "journal_mode", opts.JournalMode)

	return &Store{db: db, path: opts.Path}, nil
}

// Path 数据库文件路径
func (s *Store) Path() string {
	return s.path
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "", "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
