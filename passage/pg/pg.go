// Package pg implements a passage store on PostgreSQL with the pgvector
// extension. Intended for deployments where the passage index must survive
// process restarts and be shared across replicas.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/clauselens/clauselens/document"
	cerrors "github.com/clauselens/clauselens/errors"
	"github.com/clauselens/clauselens/vector"
)

// Config holds pgvector connection configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	SSLMode   string
	Dimension int
	TableName string
}

// DefaultConfig returns defaults for local development.
func DefaultConfig() *Config {
	return &Config{
		Host:      "127.0.0.1",
		Port:      5432,
		User:      "postgres",
		Password:  "",
		DBName:    "clauselens",
		SSLMode:   "disable",
		Dimension: 1536,
		TableName: "passages",
	}
}

// Store implements passage.Store on PostgreSQL/pgvector.
type Store struct {
	db        *sql.DB
	embedder  vector.Embedder
	dimension int
	table     string
}

// New connects to PostgreSQL, ensures the schema exists, and returns the
// store.
func New(config *Config, embedder vector.Embedder) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}

	s := &Store{
		db:        db,
		embedder:  embedder,
		dimension: config.Dimension,
		table:     config.TableName,
	}
	if err := s.setup(context.Background()); err != nil {
		return nil, fmt.Errorf("setup pgvector: %w", err)
	}
	return s, nil
}

func (s *Store) setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(255) PRIMARY KEY,
		document_id VARCHAR(255) NOT NULL,
		ordinal INT NOT NULL,
		text TEXT NOT NULL,
		clause_label VARCHAR(64),
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, s.table, s.dimension)

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// Index embeds and upserts passages. Content-derived IDs make the upsert
// idempotent for the same document.
func (s *Store) Index(ctx context.Context, passages []document.Passage) error {
	if len(passages) == 0 {
		return nil
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed passages: %w", err)
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (id, document_id, ordinal, text, clause_label, embedding)
	VALUES ($1, $2, $3, $4, $5, $6::vector)
	ON CONFLICT (id) DO UPDATE SET
		text = EXCLUDED.text,
		clause_label = EXCLUDED.clause_label,
		embedding = EXCLUDED.embedding
	`, s.table)

	for i, p := range passages {
		if len(vecs[i]) != s.dimension {
			return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(vecs[i]))
		}
		if _, err := s.db.ExecContext(ctx, query,
			p.ID, p.DocumentID, p.Ordinal, p.Text, p.ClauseLabel, vectorToString(vecs[i])); err != nil {
			return fmt.Errorf("insert passage %s: %w", p.ID, err)
		}
	}
	return nil
}

// Search runs a cosine-distance nearest-neighbor query, breaking score
// ties by passage ordinal.
func (s *Store) Search(ctx context.Context, query string, k int) ([]document.Scored, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", cerrors.ErrInvalidInput)
	}

	count, err := s.Count(ctx)
	if err != nil {
		return nil, cerrors.NewRetrievalError(query, err)
	}
	if count == 0 {
		return nil, cerrors.NewRetrievalError(query, cerrors.ErrEmptyIndex)
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, cerrors.NewRetrievalError(query, err)
	}

	searchSQL := fmt.Sprintf(`
	SELECT id, document_id, ordinal, text, clause_label,
	       1 - (embedding <=> $1::vector) AS score
	FROM %s
	ORDER BY embedding <=> $1::vector ASC, ordinal ASC
	LIMIT $2
	`, s.table)

	rows, err := s.db.QueryContext(ctx, searchSQL, vectorToString(queryVec), k)
	if err != nil {
		return nil, cerrors.NewRetrievalError(query, err)
	}
	defer rows.Close()

	var results []document.Scored
	for rows.Next() {
		var p document.Passage
		var label sql.NullString
		var score float64
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Ordinal, &p.Text, &label, &score); err != nil {
			return nil, cerrors.NewRetrievalError(query, err)
		}
		p.ClauseLabel = label.String
		results = append(results, document.Scored{Passage: p, Score: float32(score)})
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.NewRetrievalError(query, err)
	}
	return results, nil
}

// Count returns the number of indexed passages.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count passages: %w", err)
	}
	return count, nil
}

// Clear removes all passages.
func (s *Store) Clear(ctx context.Context) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s", s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("clear passages: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func vectorToString(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = fmt.Sprintf("%f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
