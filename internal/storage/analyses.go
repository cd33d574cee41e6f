package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Analysis is a stored analysis record. Source holds the original text;
// it is persisted zstd-compressed and transparently decompressed on read.
type Analysis struct {
	ID            string
	CreatedAt     time.Time
	FileName      string
	SourceLines   int
	TokenCount    int
	ErrorCount    int
	Score         int
	Priority      string
	BlueprintJSON string
	Source        string
}

// AnalysisSummary is the listing view of an analysis (no source, no blueprint).
type AnalysisSummary struct {
	ID          string
	CreatedAt   time.Time
	FileName    string
	SourceLines int
	TokenCount  int
	ErrorCount  int
	Score       int
	Priority    string
}

// AnalysisStore provides CRUD operations for the analyses table
type AnalysisStore struct {
	db      *DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewAnalysisStore creates a new analysis store
func NewAnalysisStore(db *DB) (*AnalysisStore, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &AnalysisStore{
		db:      db,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Insert stores an analysis record. A missing ID is generated and a zero
// CreatedAt is set to the current time; both are written back to a.
func (s *AnalysisStore) Insert(a *Analysis) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	compressed := s.encoder.EncodeAll([]byte(a.Source), nil)

	_, err := s.db.Exec(`
		INSERT INTO analyses (
			id, created_at, file_name, source_lines, token_count,
			error_count, score, priority, blueprint_json, source_zstd
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID,
		a.CreatedAt.Format(time.RFC3339Nano),
		a.FileName,
		a.SourceLines,
		a.TokenCount,
		a.ErrorCount,
		a.Score,
		a.Priority,
		a.BlueprintJSON,
		compressed,
	)

	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	return nil
}

// Get retrieves a single analysis by ID, or nil if it doesn't exist
func (s *AnalysisStore) Get(id string) (*Analysis, error) {
	var a Analysis
	var createdAt string
	var compressed []byte

	err := s.db.QueryRow(`
		SELECT id, created_at, file_name, source_lines, token_count,
		       error_count, score, priority, blueprint_json, source_zstd
		FROM analyses
		WHERE id = ?
	`, id).Scan(
		&a.ID,
		&createdAt,
		&a.FileName,
		&a.SourceLines,
		&a.TokenCount,
		&a.ErrorCount,
		&a.Score,
		&a.Priority,
		&a.BlueprintJSON,
		&compressed,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at format: %w", err)
	}

	source, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress source: %w", err)
	}
	a.Source = string(source)

	return &a, nil
}

// List returns analysis summaries, newest first. limit <= 0 returns all.
func (s *AnalysisStore) List(limit int) ([]*AnalysisSummary, error) {
	query := `
		SELECT id, created_at, file_name, source_lines, token_count,
		       error_count, score, priority
		FROM analyses
		ORDER BY created_at DESC, id DESC
	`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var summaries []*AnalysisSummary
	for rows.Next() {
		var sum AnalysisSummary
		var createdAt string
		if err := rows.Scan(
			&sum.ID,
			&createdAt,
			&sum.FileName,
			&sum.SourceLines,
			&sum.TokenCount,
			&sum.ErrorCount,
			&sum.Score,
			&sum.Priority,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at format: %w", err)
		}
		summaries = append(summaries, &sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}

	return summaries, nil
}

// All returns every stored analysis in chronological order, sources included.
// Used by the exporter, which needs complete, stably-ordered records.
func (s *AnalysisStore) All() ([]*Analysis, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, file_name, source_lines, token_count,
		       error_count, score, priority, blueprint_json, source_zstd
		FROM analyses
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*Analysis
	for rows.Next() {
		var a Analysis
		var createdAt string
		var compressed []byte
		if err := rows.Scan(
			&a.ID,
			&createdAt,
			&a.FileName,
			&a.SourceLines,
			&a.TokenCount,
			&a.ErrorCount,
			&a.Score,
			&a.Priority,
			&a.BlueprintJSON,
			&compressed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at format: %w", err)
		}
		source, err := s.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress source: %w", err)
		}
		a.Source = string(source)
		analyses = append(analyses, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}

	return analyses, nil
}

// Count returns the number of stored analyses
func (s *AnalysisStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM analyses").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

// CountByPriority returns analysis counts grouped by priority tier
func (s *AnalysisStore) CountByPriority() (map[string]int, error) {
	rows, err := s.db.Query("SELECT priority, COUNT(*) FROM analyses GROUP BY priority")
	if err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var priority string
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[priority] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counts: %w", err)
	}

	return counts, nil
}
