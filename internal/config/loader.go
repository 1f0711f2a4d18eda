package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	scanerr "pptKeywordDetector/internal/errors"
)

// DefaultConfigFile 默认配置文件，相对当前工作目录
const DefaultConfigFile = "config.json"

// 内置默认值
var (
	builtinKeywords   = []string{"OldCompany", "旧社名", "Old Company Name"}
	builtinExtensions = []string{"pptx", "ppt"}
)

// Default 返回内置默认配置
func Default() *AppConfig {
	return &AppConfig{
		DefaultKeywords:   append([]string(nil), builtinKeywords...),
		AllowedExtensions: append([]string(nil), builtinExtensions...),
		Log: LogConfig{
			Level:      "warn",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
		History: HistoryConfig{
			LogLevel: "silent",
		},
	}
}

// Load 从指定文件加载配置
// 文件不存在时返回 ErrFileNotFound，格式错误时返回 ErrConfigParsing
func Load(configPath string) (*AppConfig, error) {
	if configPath == "" {
		configPath = DefaultConfigFile
	}

	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return nil, scanerr.Newf(scanerr.ErrFileNotFound, "config file not found: %s", configPath).WithFile(configPath)
		}
		return nil, scanerr.Wrap(err, scanerr.ErrFileReadFailed, "failed to stat config file").WithFile(configPath)
	}

	v := viper.New()

	// 1. 默认值兜底
	setDefaults(v)

	// 2. 读取规则
	v.SetConfigFile(configPath)
	if filepath.Ext(configPath) == "" {
		v.SetConfigType("json")
	}

	// 3. 环境变量覆盖: PKD_LOG_LEVEL -> log.level
	v.SetEnvPrefix("PKD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, scanerr.Wrap(err, scanerr.ErrConfigParsing, "failed to read config file").WithFile(configPath)
	}

	// 5. 反序列化到结构体
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, scanerr.Wrap(err, scanerr.ErrConfigParsing, "failed to unmarshal config").WithFile(configPath)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault 加载配置，失败时返回内置默认值
// 文件不存在时静默回退；文件损坏时 warn 非 nil，由调用方输出到控制台
func LoadOrDefault(configPath string) (cfg *AppConfig, warn error) {
	cfg, err := Load(configPath)
	if err == nil {
		return cfg, nil
	}
	if scanerr.HasCode(err, scanerr.ErrFileNotFound) {
		return Default(), nil
	}
	return Default(), err
}

// setDefaults 定义配置文件的默认行为
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("default_keywords", d.DefaultKeywords)
	v.SetDefault("allowed_extensions", d.AllowedExtensions)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAge)
	v.SetDefault("log.compress", d.Log.Compress)

	v.SetDefault("history.db_path", "")
	v.SetDefault("history.log_level", d.History.LogLevel)
}

// normalize 清理空白项，空列表回退到内置默认值
func (c *AppConfig) normalize() {
	c.DefaultKeywords = compact(c.DefaultKeywords, false)
	if len(c.DefaultKeywords) == 0 {
		c.DefaultKeywords = append([]string(nil), builtinKeywords...)
	}

	exts := compact(c.AllowedExtensions, true)
	for i, e := range exts {
		exts[i] = strings.ToLower(strings.TrimPrefix(e, "."))
	}
	c.AllowedExtensions = exts
	if len(c.AllowedExtensions) == 0 {
		c.AllowedExtensions = append([]string(nil), builtinExtensions...)
	}
}

// Validate 验证配置有效性
func (c *AppConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return scanerr.Newf(scanerr.ErrConfigValue, "log.level is invalid: %q", c.Log.Level)
	}
	gormLevels := map[string]bool{"silent": true, "error": true, "warn": true, "info": true}
	if !gormLevels[strings.ToLower(c.History.LogLevel)] {
		return scanerr.Newf(scanerr.ErrConfigValue, "history.log_level is invalid: %q", c.History.LogLevel)
	}
	if c.Log.MaxSize < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAge < 0 {
		return scanerr.New(scanerr.ErrConfigValue, "log rotation values must not be negative")
	}
	return nil
}

// String 返回配置摘要
func (c *AppConfig) String() string {
	return fmt.Sprintf("keywords=%v extensions=%v log.level=%s history.db_path=%q history.log_level=%s",
		c.DefaultKeywords, c.AllowedExtensions, c.Log.Level, c.History.DBPath, c.History.LogLevel)
}

// compact 去掉空白元素；trim 为 true 时同时去掉首尾空白
func compact(in []string, trim bool) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if trim {
			s = strings.TrimSpace(s)
		}
		out = append(out, s)
	}
	return out
}
