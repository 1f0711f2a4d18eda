package storage

import "time"

// RunRecord 一次扫描任务
type RunRecord struct {
	ID               uint      `gorm:"primaryKey;autoIncrement"`
	StartedAt        time.Time `gorm:"index"`
	FinishedAt       time.Time
	Host             string
	Platform         string
	Directory        string
	Keywords         string // JSON 数组
	Recursive        bool
	Interrupted      bool
	TotalFiles       int
	FilesWithMatches int
	FailedFiles      int
	TotalMatches     int

	Files []FileRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

func (RunRecord) TableName() string { return "scan_runs" }

// FileRecord 单个文件的扫描结果
type FileRecord struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	RunID       uint   `gorm:"index"`
	Path        string `gorm:"index"`
	SM3         string `gorm:"column:sm3"` // 文件内容摘要，读取失败时为空
	Success     bool
	Error       string
	Detections  int
	Occurrences int
	Matches     []byte `gorm:"type:blob"` // JSON(model.Match 列表)
	Warnings    string
}

func (FileRecord) TableName() string { return "scan_files" }
