package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/config"
	"github.com/satushop/kaspisync/pkg/errors"
)

// PostgresStore keeps every document in a single JSONB table keyed by path
type PostgresStore struct {
	db       *sql.DB
	logger   *zap.Logger
	notifier *notifier
}

// NewConnection opens the database connection pool
func NewConnection(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewPostgresStore creates a document store over the given connection
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		db:       db,
		logger:   logger,
		notifier: newNotifier(),
	}
}

// EnsureSchema creates the documents table if it does not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS documents (
			path       TEXT PRIMARY KEY,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, path string) (Document, error) {
	query := `SELECT doc FROM documents WHERE path = $1`

	var raw []byte
	err := s.db.QueryRowContext(ctx, query, path).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "document", ID: path}
	}
	if err != nil {
		s.logger.Error("Failed to get document", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", path, err)
	}
	return doc, nil
}

func (s *PostgresStore) Set(ctx context.Context, path string, doc Document) error {
	if err := s.set(ctx, s.db, path, doc); err != nil {
		return err
	}
	s.notifier.notify(s, []string{path})
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *PostgresStore) set(ctx context.Context, ex execer, path string, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", path, err)
	}

	query := `
		INSERT INTO documents (path, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (path) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`
	if _, err := ex.ExecContext(ctx, query, path, raw); err != nil {
		s.logger.Error("Failed to set document", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, path string) error {
	query := `DELETE FROM documents WHERE path = $1`
	if _, err := s.db.ExecContext(ctx, query, path); err != nil {
		s.logger.Error("Failed to delete document", zap.String("path", path), zap.Error(err))
		return err
	}
	s.notifier.notify(s, []string{path})
	return nil
}

func (s *PostgresStore) List(ctx context.Context, prefix string) ([]Keyed, error) {
	query := `SELECT path, doc FROM documents WHERE path LIKE $1 || '%' ORDER BY path`

	rows, err := s.db.QueryContext(ctx, query, prefix)
	if err != nil {
		s.logger.Error("Failed to list documents", zap.String("prefix", prefix), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := make([]Keyed, 0)
	for rows.Next() {
		var path string
		var raw []byte
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, err
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", path, err)
		}
		result = append(result, Keyed{Path: path, Doc: doc})
	}
	return result, rows.Err()
}

func (s *PostgresStore) Apply(ctx context.Context, batch Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}

	touched := make([]string, 0, len(batch))
	for _, op := range batch {
		switch op.Kind {
		case OpSet:
			err = s.set(ctx, tx, op.Path, op.Doc)
		case OpDelete:
			_, err = tx.ExecContext(ctx, `DELETE FROM documents WHERE path = $1`, op.Path)
		}
		if err != nil {
			tx.Rollback()
			return err
		}
		touched = append(touched, op.Path)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	s.notifier.notify(s, touched)
	return nil
}

func (s *PostgresStore) Watch(prefix string, fn SnapshotFunc) CancelFunc {
	return s.notifier.add(prefix, fn)
}
