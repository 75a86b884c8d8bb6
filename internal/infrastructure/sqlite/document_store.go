package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// DocumentStore хранит итоги предсказаний в SQLite. Подходит для локального запуска.
type DocumentStore struct {
	conn *sql.DB
	mu   sync.Mutex
}

// Open открывает базу и создаёт схему при необходимости.
func Open(dbPath string) (*DocumentStore, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &DocumentStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *DocumentStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		prediction_id TEXT NOT NULL UNIQUE,
		original_img_path TEXT NOT NULL,
		predicted_img_path TEXT NOT NULL,
		labels TEXT NOT NULL,
		time REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// InsertOne добавляет документ; метки хранятся как JSON.
func (s *DocumentStore) InsertOne(ctx context.Context, summary *entity.PredictionSummary) (string, error) {
	labels, err := json.Marshal(summary.Labels)
	if err != nil {
		return "", fmt.Errorf("failed to encode labels: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.conn.ExecContext(ctx, `
		INSERT INTO detections (prediction_id, original_img_path, predicted_img_path, labels, time)
		VALUES (?, ?, ?, ?, ?)
	`, summary.PredictionID, summary.OriginalImgPath, summary.PredictedImgPath, string(labels), summary.Time)
	if err != nil {
		return "", fmt.Errorf("failed to insert detection: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("failed to read inserted id: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// Close закрывает соединение с базой.
func (s *DocumentStore) Close() error {
	return s.conn.Close()
}

var _ port.DocumentStore = (*DocumentStore)(nil)
