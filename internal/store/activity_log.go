package store

import (
	"fmt"
	"time"
)

// 上传状态
const (
	UploadStatusOK     = "ok"
	UploadStatusFailed = "failed"
)

// UploadLog 上传记录
type UploadLog struct {
	ID           int64     `db:"id" json:"id"`
	SessionID    string    `db:"session_id" json:"sessionId"`
	FileID       string    `db:"file_id" json:"fileId"`
	Kind         string    `db:"kind" json:"kind"`
	Filename     string    `db:"filename" json:"filename"`
	RowCount     int       `db:"row_count" json:"rowCount"`
	ColumnCount  int       `db:"column_count" json:"columnCount"`
	HasKey       bool      `db:"has_key" json:"hasKey"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage string    `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// SearchLog 查询记录
type SearchLog struct {
	ID            int64     `db:"id" json:"id"`
	SessionID     string    `db:"session_id" json:"sessionId"`
	Query         string    `db:"query" json:"query"`
	Kind          string    `db:"kind" json:"kind"`
	DesignMatches int       `db:"design_matches" json:"designMatches"`
	YarnMatches   int       `db:"yarn_matches" json:"yarnMatches"`
	CombinedRows  int       `db:"combined_rows" json:"combinedRows"`
	Suggestions   int       `db:"suggestions" json:"suggestions"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// RecordUpload 写入上传记录，返回 id
func (s *Store) RecordUpload(log UploadLog) (int64, error) {
	res, err := s.db.NamedExec(`
		INSERT INTO upload_logs (session_id, file_id, kind, filename, row_count, column_count, has_key, status, error_message)
		VALUES (:session_id, :file_id, :kind, :filename, :row_count, :column_count, :has_key, :status, :error_message)
	`, log)
	if err != nil {
		return 0, fmt.Errorf("failed to record upload: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get upload log id: %w", err)
	}
	return id, nil
}

// RecordSearch 写入查询记录，返回 id
func (s *Store) RecordSearch(log SearchLog) (int64, error) {
	res, err := s.db.NamedExec(`
		INSERT INTO search_logs (session_id, query, kind, design_matches, yarn_matches, combined_rows, suggestions)
		VALUES (:session_id, :query, :kind, :design_matches, :yarn_matches, :combined_rows, :suggestions)
	`, log)
	if err != nil {
		return 0, fmt.Errorf("failed to record search: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get search log id: %w", err)
	}
	return id, nil
}

// ListUploads 按时间倒序列出会话的上传记录
func (s *Store) ListUploads(sessionID string, limit int) ([]UploadLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []UploadLog
	err := s.db.Select(&logs, `
		SELECT id, session_id, file_id, kind, filename, row_count, column_count, has_key, status, error_message, created_at
		FROM upload_logs WHERE session_id = ? ORDER BY id DESC LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	return logs, nil
}

// ListSearches 按时间倒序列出会话的查询记录
func (s *Store) ListSearches(sessionID string, limit int) ([]SearchLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []SearchLog
	err := s.db.Select(&logs, `
		SELECT id, session_id, query, kind, design_matches, yarn_matches, combined_rows, suggestions, created_at
		FROM search_logs WHERE session_id = ? ORDER BY id DESC LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list searches: %w", err)
	}
	return logs, nil
}

// Summary 会话统计
type Summary struct {
	Uploads       int `db:"uploads" json:"uploads"`
	FailedUploads int `db:"failed_uploads" json:"failedUploads"`
	Searches      int `db:"searches" json:"searches"`
	NoMatch       int `db:"no_match" json:"noMatch"`
	CombinedRows  int `db:"combined_rows" json:"combinedRows"`
	DistinctQuery int `db:"distinct_queries" json:"distinctQueries"`
}

// Summary 汇总会话的上传与查询次数
func (s *Store) Summary(sessionID string) (Summary, error) {
	var sum Summary
	err := s.db.Get(&sum, `
		SELECT
			(SELECT COUNT(*) FROM upload_logs WHERE session_id = ?) AS uploads,
			(SELECT COUNT(*) FROM upload_logs WHERE session_id = ? AND status = 'failed') AS failed_uploads,
			(SELECT COUNT(*) FROM search_logs WHERE session_id = ?) AS searches,
			(SELECT COUNT(*) FROM search_logs WHERE session_id = ? AND kind = 'no_match') AS no_match,
			(SELECT COALESCE(SUM(combined_rows), 0) FROM search_logs WHERE session_id = ?) AS combined_rows,
			(SELECT COUNT(DISTINCT query) FROM search_logs WHERE session_id = ?) AS distinct_queries
	`, sessionID, sessionID, sessionID, sessionID, sessionID, sessionID)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize session: %w", err)
	}
	return sum, nil
}

// DeleteSession 删除会话的全部记录
func (s *Store) DeleteSession(sessionID string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM upload_logs WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete upload logs: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM search_logs WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete search logs: %w", err)
	}
	return tx.Commit()
}
