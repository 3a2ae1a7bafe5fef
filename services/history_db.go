package services

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"dramaweb/config"
	"dramaweb/models"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const historyColumns = "drama_id, title, cover, episode_index, played_at"

var errHistoryClosed = errors.New("播放记录库未打开")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.PlayRecord, error) {
	var rec models.PlayRecord
	err := row.Scan(&rec.DramaID, &rec.Title, &rec.Cover, &rec.EpisodeIndex, &rec.PlayedAt)
	return rec, err
}

// HistoryService 播放记录数据库服务
type HistoryService struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewHistoryService 创建播放记录服务实例
func NewHistoryService(dbPath string) *HistoryService {
	// 只给了目录时使用 history.db
	if !strings.HasSuffix(dbPath, ".db") {
		dbPath = filepath.Join(dbPath, "history.db")
	}
	if abs, err := filepath.Abs(dbPath); err == nil {
		dbPath = abs
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		log.Warnf("[History] 无法创建目录 %s: %v", filepath.Dir(dbPath), err)
	}
	return &HistoryService{dbPath: dbPath}
}

const historySchema = `
CREATE TABLE IF NOT EXISTS play_history (
	drama_id      TEXT PRIMARY KEY,
	title         TEXT,
	cover         TEXT,
	episode_index INTEGER NOT NULL DEFAULT 0,
	played_at     DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_played_at ON play_history(played_at);
`

const upsertHistory = `
INSERT INTO play_history (` + historyColumns + `) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(drama_id) DO UPDATE SET
	title = excluded.title,
	cover = excluded.cover,
	episode_index = excluded.episode_index,
	played_at = excluded.played_at
`

// upsertHistoryKeepMeta 占位标题只用于新记录
const upsertHistoryKeepMeta = `
INSERT INTO play_history (` + historyColumns + `) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(drama_id) DO UPDATE SET
	episode_index = excluded.episode_index,
	played_at = excluded.played_at
`

// Initialize 打开数据库并建表
func (s *HistoryService) Initialize() error {
	db, err := sql.Open("sqlite", "file:"+s.dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("打开播放记录库 %s: %w", s.dbPath, err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return fmt.Errorf("创建播放记录表: %w", err)
	}

	s.mu.Lock()
	s.db = db
	s.mu.Unlock()
	log.Infof("[History] 播放记录库就绪: %s", s.dbPath)
	return nil
}

func (s *HistoryService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		log.Warnf("[History] 关闭失败: %v", err)
	}
	s.db = nil
}

// Enabled 是否已打开，nil 接收者返回 false
func (s *HistoryService) Enabled() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil
}

// Recorder 未启用时返回nil，避免把空指针当作接口传出
func (s *HistoryService) Recorder() PlayRecorder {
	if !s.Enabled() {
		return nil
	}
	return s
}

// Record 保存播放记录，同一部剧只保留最后一次
func (s *HistoryService) Record(rec models.PlayRecord) error {
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return errHistoryClosed
	}
	query := upsertHistory
	if rec.Placeholder {
		query = upsertHistoryKeepMeta
	}
	_, err := s.db.Exec(query, rec.DramaID, rec.Title, rec.Cover, rec.EpisodeIndex, rec.PlayedAt.UTC())
	if err != nil {
		log.Warnf("[History] 写入 %s 失败: %v", rec.DramaID, err)
	}
	return err
}

// Get 按剧ID查询，不存在时返回 nil, nil
func (s *HistoryService) Get(dramaID string) (*models.PlayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errHistoryClosed
	}

	row := s.db.QueryRow("SELECT "+historyColumns+" FROM play_history WHERE drama_id = ?", dramaID)
	rec, err := scanRecord(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &rec, nil
}

// List 分页查询播放记录，最近的在前
func (s *HistoryService) List(page, pageSize int) ([]models.PlayRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, 0, errHistoryClosed
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM play_history").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.Query(
		"SELECT "+historyColumns+" FROM play_history ORDER BY played_at DESC LIMIT ? OFFSET ?",
		pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := []models.PlayRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			log.Debugf("[History] 跳过无法解析的记录: %v", err)
			continue
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// Delete 删除一部剧的记录，返回是否存在
func (s *HistoryService) Delete(dramaID string) (bool, error) {
	n, err := s.exec("DELETE FROM play_history WHERE drama_id = ?", dramaID)
	return n > 0, err
}

// Clear 清空记录，返回删除条数
func (s *HistoryService) Clear() (int, error) {
	n, err := s.exec("DELETE FROM play_history")
	return int(n), err
}

func (s *HistoryService) exec(query string, args ...any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, errHistoryClosed
	}
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var (
	historyService *HistoryService
	historyOnce    sync.Once
)

// GetHistoryService 获取全局播放记录服务；未启用时返回nil
func GetHistoryService() *HistoryService {
	historyOnce.Do(func() {
		cfg := config.Settings
		if cfg == nil || !cfg.HistoryEnabled {
			return
		}
		historyService = NewHistoryService(cfg.HistoryDBPath)
		if err := historyService.Initialize(); err != nil {
			log.Errorf("[History] 播放记录不可用: %v", err)
		}
	})
	return historyService
}
