package storage

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"

	scanerr "pptKeywordDetector/internal/errors"
	"pptKeywordDetector/internal/logger"
	"pptKeywordDetector/internal/model"
	"pptKeywordDetector/internal/report"
)

// Run 一次扫描的完整记录，由命令行在扫描结束后组装
type Run struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	Host        string
	Platform    string
	Directory   string
	Keywords    []string
	Recursive   bool
	Interrupted bool
	Results     []model.FileResult
	// Digests 以结果中的 Path 为键的 SM3 摘要
	Digests map[string]string
}

// RecordRun 在一个事务中写入扫描任务及其全部文件结果
func (s *Store) RecordRun(run Run) (uint, error) {
	keywords, err := json.Marshal(run.Keywords)
	if err != nil {
		return 0, scanerr.Wrap(err, scanerr.ErrStorage, "json marshal keywords failed").WithComponent("storage")
	}

	summary := report.Summarize(run.Results)
	rec := RunRecord{
		StartedAt:        run.StartedAt,
		FinishedAt:       run.FinishedAt,
		Host:             run.Host,
		Platform:         run.Platform,
		Directory:        run.Directory,
		Keywords:         string(keywords),
		Recursive:        run.Recursive,
		Interrupted:      run.Interrupted,
		TotalFiles:       summary.TotalFiles,
		FilesWithMatches: summary.FilesWithMatches,
		FailedFiles:      summary.FailedFiles,
		TotalMatches:     summary.TotalMatches,
	}

	files := make([]FileRecord, 0, len(run.Results))
	for _, r := range run.Results {
		matches, err := json.Marshal(r.Matches)
		if err != nil {
			return 0, scanerr.Wrap(err, scanerr.ErrStorage, "json marshal matches failed").
				WithComponent("storage").WithFile(r.Path)
		}
		files = append(files, FileRecord{
			Path:        r.Path,
			SM3:         run.Digests[r.Path],
			Success:     r.Success,
			Error:       r.Error,
			Detections:  r.DetectionCount(),
			Occurrences: r.TotalOccurrences(),
			Matches:     matches,
			Warnings:    strings.Join(r.Warnings, "\n"),
		})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		for i := range files {
			files[i].RunID = rec.ID
		}
		if len(files) == 0 {
			return nil
		}
		return tx.CreateInBatches(files, 100).Error
	})
	if err != nil {
		return 0, scanerr.Wrap(err, scanerr.ErrStorage, "failed to record scan run").WithComponent("storage")
	}

	logger.Info("Scan run recorded", "id", rec.ID, "files", len(files), "db", s.path)
	return rec.ID, nil
}

// ListRuns 按时间倒序列出扫描任务，limit <= 0 时不限制
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	q := s.db.Order("started_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, scanerr.Wrap(err, scanerr.ErrStorage, "failed to list scan runs").WithComponent("storage")
	}
	return runs, nil
}

// RunByID 按 ID 读取扫描任务，不存在时返回 ErrRecordNotFound
func (s *Store) RunByID(id uint) (RunRecord, error) {
	var rec RunRecord
	err := s.db.Where("id = ?", id).Limit(1).Find(&rec).Error
	if err != nil {
		return rec, scanerr.Wrap(err, scanerr.ErrStorage, "failed to load scan run").WithComponent("storage")
	}
	if rec.ID == 0 {
		return rec, scanerr.Newf(scanerr.ErrRecordNotFound, "scan run %d not found", id).WithComponent("storage")
	}
	return rec, nil
}

// Files 返回某次扫描的文件结果，保持写入顺序
func (s *Store) Files(runID uint) ([]FileRecord, error) {
	var files []FileRecord
	if err := s.db.Where("run_id = ?", runID).Order("id ASC").Find(&files).Error; err != nil {
		return nil, scanerr.Wrap(err, scanerr.ErrStorage, "failed to load scan files").WithComponent("storage")
	}
	return files, nil
}

// KeywordList 解码任务中保存的关键词
func (r RunRecord) KeywordList() []string {
	var kws []string
	if err := json.Unmarshal([]byte(r.Keywords), &kws); err != nil {
		return nil
	}
	return kws
}

// MatchList 解码文件中保存的命中记录
func (f FileRecord) MatchList() ([]model.Match, error) {
	var matches []model.Match
	if len(f.Matches) == 0 {
		return matches, nil
	}
	if err := json.Unmarshal(f.Matches, &matches); err != nil {
		return nil, scanerr.Wrap(err, scanerr.ErrStorage, "json unmarshal matches failed").WithComponent("storage")
	}
	return matches, nil
}

// Result 还原为扫描结果
func (f FileRecord) Result() (model.FileResult, error) {
	if !f.Success {
		return model.Failed(f.Path, f.Error), nil
	}
	matches, err := f.MatchList()
	if err != nil {
		return model.FileResult{}, err
	}
	var warnings []string
	if f.Warnings != "" {
		warnings = strings.Split(f.Warnings, "\n")
	}
	return model.Succeeded(f.Path, matches, warnings), nil
}
