package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"

	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/models"
)

// SQLiteStore keeps the model slot in a single-row table and accumulates
// labeled feedback for batch retraining.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("database path must not be empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Location identifies the model slot.
func (s *SQLiteStore) Location() string {
	return s.dbPath + "#model_artifact"
}

// Save overwrites the model slot.
func (s *SQLiteStore) Save(ctx context.Context, a *classifier.Artifact) error {
	data, err := encodeArtifact(a)
	if err != nil {
		return &ArtifactWriteError{Location: s.Location(), Err: err}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO model_artifact (id, format_version, trained_at, payload, saved_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			format_version = excluded.format_version,
			trained_at = excluded.trained_at,
			payload = excluded.payload,
			saved_at = excluded.saved_at`,
		a.FormatVersion, a.TrainedAt.UTC(), data, time.Now().UTC())
	if err != nil {
		return &ArtifactWriteError{Location: s.Location(), Err: err}
	}
	return nil
}

// Load reads the model slot. An empty slot yields ErrArtifactNotFound.
func (s *SQLiteStore) Load(ctx context.Context) (*classifier.Artifact, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM model_artifact WHERE id = 1`).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrArtifactNotFound
		}
		return nil, &CorruptArtifactError{Location: s.Location(), Err: err}
	}
	return decodeArtifact(s.Location(), payload)
}

// AddFeedback stores a labeled correction and returns its ID.
func (s *SQLiteStore) AddFeedback(ctx context.Context, lt models.LabeledTransaction) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, description, merchant_name, amount, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, lt.Description, lt.MerchantName, lt.Amount.String(), string(lt.Category), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert feedback: %w", err)
	}
	return id, nil
}

// AllFeedback returns every stored correction, oldest first.
func (s *SQLiteStore) AllFeedback(ctx context.Context) ([]models.LabeledTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT description, merchant_name, amount, category
		FROM feedback
		ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.LabeledTransaction
	for rows.Next() {
		var (
			lt       models.LabeledTransaction
			amount   string
			category string
		)
		if err := rows.Scan(&lt.Description, &lt.MerchantName, &amount, &category); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		if amount != "" {
			lt.Amount, err = decimal.NewFromString(amount)
			if err != nil {
				return nil, fmt.Errorf("invalid feedback amount %q: %w", amount, err)
			}
		}
		lt.Category = models.CoerceCategory(category)
		out = append(out, lt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feedback: %w", err)
	}
	return out, nil
}

// CountFeedback returns the number of stored corrections.
func (s *SQLiteStore) CountFeedback(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return n, nil
}
