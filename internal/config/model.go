// Package config
package config

// ==========================================
// 顶层配置结构
// ==========================================

type AppConfig struct {
	// 默认检测关键词，命令行 --keywords 会整体替换
	DefaultKeywords []string `mapstructure:"default_keywords" json:"default_keywords"`
	// 允许的扩展名，不含点号
	AllowedExtensions []string `mapstructure:"allowed_extensions" json:"allowed_extensions"`

	Log     LogConfig     `mapstructure:"log" json:"log"`
	History HistoryConfig `mapstructure:"history" json:"history"`
}

// ==========================================
// 日志配置
// ==========================================

type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `mapstructure:"level" json:"level"`
	// 日志文件路径，为空时输出到 stderr
	File string `mapstructure:"file" json:"file"`
	// 日志轮转
	MaxSize    int  `mapstructure:"max_size" json:"max_size"`       // MB
	MaxBackups int  `mapstructure:"max_backups" json:"max_backups"` // 个数
	MaxAge     int  `mapstructure:"max_age" json:"max_age"`         // 天数
	Compress   bool `mapstructure:"compress" json:"compress"`
}

// ==========================================
// 扫描历史
// ==========================================

type HistoryConfig struct {
	// SQLite 文件路径，为空表示不记录历史
	DBPath string `mapstructure:"db_path" json:"db_path"`
	// GORM 日志级别: silent, error, warn, info
	LogLevel string `mapstructure:"log_level" json:"log_level"`
}
