package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Sanjanaa7/face-recognition/internal/config"
	"github.com/Sanjanaa7/face-recognition/internal/embedding"
	"github.com/Sanjanaa7/face-recognition/internal/models"
)

// PostgresStore is the Postgres-backed Store. Embeddings live in a pgvector
// column and are re-encoded into the codec's blob format at the interface
// boundary, so the matcher sees the same representation regardless of
// backend. Matching still happens in-process: a SQL nearest-neighbor query
// would not preserve the first-enrolled tie-break.
type PostgresStore struct {
	pool *pgxpool.Pool
	dim  int
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, dim: cfg.EmbeddingDim}
	if err := s.ensureSchema(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS face_records (
			id              BIGSERIAL PRIMARY KEY,
			name            TEXT NOT NULL,
			email           TEXT NOT NULL DEFAULT '',
			phone           TEXT NOT NULL DEFAULT '',
			embedding       vector(%d) NOT NULL,
			embedding_model TEXT NOT NULL DEFAULT '',
			thumbnail       BYTEA,
			image_key       TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.dim),
		`CREATE INDEX IF NOT EXISTS idx_face_records_name ON face_records(name)`,
		`CREATE TABLE IF NOT EXISTS recognition_logs (
			id               BIGSERIAL PRIMARY KEY,
			recognized_name  TEXT,
			confidence_score DOUBLE PRECISION,
			status           TEXT NOT NULL,
			timestamp        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) EnrollFace(ctx context.Context, rec *models.FaceRecord) error {
	if rec.Name == "" {
		return fmt.Errorf("%w: name must not be empty", models.ErrInvalidInput)
	}
	if len(rec.Embedding) == 0 {
		return fmt.Errorf("%w: embedding must not be empty", models.ErrInvalidInput)
	}

	vec, err := embedding.Decode(rec.Embedding, s.dim)
	if err != nil {
		return err
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO face_records (name, email, phone, embedding, embedding_model, thumbnail, image_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`,
		rec.Name, rec.Email, rec.Phone, pgvector.NewVector(vec), rec.EmbeddingModel, rec.Thumbnail, rec.ImageKey,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("enroll face: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteFaces(ctx context.Context, id *int64, name *string) (int64, []string, error) {
	if (id == nil) == (name == nil) {
		return 0, nil, fmt.Errorf("%w: exactly one of face_id or name must be provided", models.ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	where := "id = $1"
	var arg any = nil
	if id != nil {
		arg = *id
	} else {
		where = "name = $1"
		arg = *name
	}

	rows, err := tx.Query(ctx,
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

	tag, err := tx.Exec(ctx, `DELETE FROM face_records WHERE `+where, arg)
	if err != nil {
		return 0, nil, fmt.Errorf("delete faces: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, nil, fmt.Errorf("commit delete: %w", err)
	}
	return tag.RowsAffected(), keys, nil
}

func (s *PostgresStore) ListFaces(ctx context.Context) ([]models.FaceRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, phone, embedding, embedding_model, thumbnail, image_key, created_at, updated_at
		 FROM face_records ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list faces: %w", err)
	}
	defer rows.Close()

	var faces []models.FaceRecord
	for rows.Next() {
		var rec models.FaceRecord
		var vec pgvector.Vector
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Phone, &vec,
			&rec.EmbeddingModel, &rec.Thumbnail, &rec.ImageKey, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan face record: %w", err)
		}
		rec.Embedding = embedding.Encode(vec.Slice())
		faces = append(faces, rec)
	}
	return faces, rows.Err()
}

func (s *PostgresStore) LogRecognition(ctx context.Context, entry *models.RecognitionLog) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO recognition_logs (recognized_name, confidence_score, status)
		 VALUES ($1, $2, $3) RETURNING id, timestamp`,
		entry.RecognizedName, entry.ConfidenceScore, entry.Status,
	).Scan(&entry.ID, &entry.Timestamp)
	if err != nil {
		return fmt.Errorf("log recognition: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecognitionLogs(ctx context.Context, limit int) ([]models.RecognitionLog, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, recognized_name, confidence_score, status, timestamp
		 FROM recognition_logs ORDER BY id DESC LIMIT $1`, limit)
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
