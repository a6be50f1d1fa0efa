package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Sanjanaa7/face-recognition/internal/models"
)

// SQLiteStore is the embedded default Store. SQLite allows one writer at a
// time, so mutating operations are serialized with a mutex; reads go through
// without it.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS face_records (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL,
	email           TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	face_embedding  BLOB NOT NULL,
	embedding_model TEXT NOT NULL DEFAULT '',
	thumbnail       BLOB,
	image_key       TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_face_records_name ON face_records(name);

CREATE TABLE IF NOT EXISTS recognition_logs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	recognized_name  TEXT,
	confidence_score REAL,
	status           TEXT NOT NULL,
	timestamp        TIMESTAMP NOT NULL
);
`

// NewSQLiteStore opens (creating if necessary) a SQLite database at path and
// ensures the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) EnrollFace(ctx context.Context, rec *models.FaceRecord) error {
	if rec.Name == "" {
		return fmt.Errorf("%w: name must not be empty", models.ErrInvalidInput)
	}
	if len(rec.Embedding) == 0 {
		return fmt.Errorf("%w: embedding must not be empty", models.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO face_records (name, email, phone, face_embedding, embedding_model, thumbnail, image_key, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Name, rec.Email, rec.Phone, rec.Embedding, rec.EmbeddingModel, rec.Thumbnail, rec.ImageKey, now, now)
	if err != nil {
		return fmt.Errorf("enroll face: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("enroll face id: %w", err)
	}

	rec.ID = id
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) DeleteFaces(ctx context.Context, id *int64, name *string) (int64, []string, error) {
	if (id == nil) == (name == nil) {
		return 0, nil, fmt.Errorf("%w: exactly one of face_id or name must be provided", models.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	where := "id = ?"
	arg := any(nil)
	if id != nil {
		arg = *id
	} else {
		where = "name = ?"
		arg = *name
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT image_key FROM face_records WHERE `+where+` AND image_key != ''`, arg)
	if err != nil {
		return 0, nil, fmt.Errorf("collect image keys: %w", err)
	}
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return 0, nil, fmt.Errorf("scan image key: %w", err)
		}
		keys = append(keys, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("collect image keys: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM face_records WHERE `+where, arg)
	if err != nil {
		return 0, nil, fmt.Errorf("delete faces: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, nil, fmt.Errorf("delete faces count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("commit delete: %w", err)
	}
	return count, keys, nil
}

func (s *SQLiteStore) ListFaces(ctx context.Context) ([]models.FaceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, phone, face_embedding, embedding_model, thumbnail, image_key, created_at, updated_at
		 FROM face_records ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list faces: %w", err)
	}
	defer rows.Close()

	var faces []models.FaceRecord
	for rows.Next() {
		var rec models.FaceRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Phone, &rec.Embedding,
			&rec.EmbeddingModel, &rec.Thumbnail, &rec.ImageKey, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan face record: %w", err)
		}
		faces = append(faces, rec)
	}
	return faces, rows.Err()
}

func (s *SQLiteStore) LogRecognition(ctx context.Context, entry *models.RecognitionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recognition_logs (recognized_name, confidence_score, status, timestamp) VALUES (?, ?, ?, ?)`,
		entry.RecognizedName, entry.ConfidenceScore, entry.Status, now)
	if err != nil {
		return fmt.Errorf("log recognition: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("log recognition id: %w", err)
	}

	entry.ID = id
	entry.Timestamp = now
	return nil
}

func (s *SQLiteStore) ListRecognitionLogs(ctx context.Context, limit int) ([]models.RecognitionLog, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recognized_name, confidence_score, status, timestamp
		 FROM recognition_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recognition logs: %w", err)
	}
	defer rows.Close()

	var logs []models.RecognitionLog
	for rows.Next() {
		var entry models.RecognitionLog
		if err := rows.Scan(&entry.ID, &entry.RecognizedName, &entry.ConfidenceScore,
			&entry.Status, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan recognition log: %w", err)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
