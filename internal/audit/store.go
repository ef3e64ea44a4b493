package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Record is one delivered response of one invocation turn
type Record struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Invocation  string            `json:"invocation"`
	Caller      string            `json:"caller"`
	Channel     string            `json:"channel"`
	Command     string            `json:"command,omitempty"`
	Line        string            `json:"line"`
	Discipline  string            `json:"discipline,omitempty"`
	Success     bool              `json:"success"`
	Code        string            `json:"code,omitempty"`
	Message     string            `json:"message,omitempty"`
	Duration    time.Duration     `json:"duration"`
	Diagnostics []string          `json:"diagnostics,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Filter defines criteria for querying records
type Filter struct {
	Caller     string
	Command    string
	Code       string
	FailedOnly bool
	Invocation string
	StartTime  time.Time
	EndTime    time.Time
	Limit      int
	Offset     int
}

// Stats summarizes the audit trail
type Stats struct {
	Total     int64            `json:"total"`
	Failures  int64            `json:"failures"`
	ByCommand map[string]int64 `json:"by_command"`
	ByCode    map[string]int64 `json:"by_code"`
	Last      time.Time        `json:"last,omitempty"`
}

// Store defines the interface for audit persistence
type Store interface {
	Record(ctx context.Context, rec *Record) error
	RecordBatch(ctx context.Context, recs []*Record) (int, int, error)
	Query(ctx context.Context, filter Filter) ([]*Record, error)
	Stats(ctx context.Context) (*Stats, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	Close() error
}

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// SQLiteConfig holds configuration for the SQLite store
type SQLiteConfig struct {
	Path string
}

// DefaultSQLiteConfig returns default configuration
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		Path: "./data/audit.db",
	}
}

// NewSQLiteStore creates a new SQLite-based audit store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invocations (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		invocation TEXT NOT NULL,
		caller TEXT NOT NULL,
		channel TEXT NOT NULL,
		command TEXT,
		line TEXT NOT NULL,
		discipline TEXT,
		success INTEGER NOT NULL,
		code TEXT,
		message TEXT,
		duration_ns INTEGER NOT NULL DEFAULT 0,
		diagnostics TEXT,
		metadata TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_invocations_timestamp ON invocations(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_invocations_caller ON invocations(caller);
	CREATE INDEX IF NOT EXISTS idx_invocations_command ON invocations(command);
	CREATE INDEX IF NOT EXISTS idx_invocations_invocation ON invocations(invocation);
	`

	_, err := s.db.Exec(schema)
	return err
}

const insertRecord = `
	INSERT INTO invocations (id, timestamp, invocation, caller, channel, command, line,
		discipline, success, code, message, duration_ns, diagnostics, metadata)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func prepare(rec *Record) []any {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	var diagnosticsJSON, metadataJSON []byte
	if len(rec.Diagnostics) > 0 {
		diagnosticsJSON, _ = json.Marshal(rec.Diagnostics)
	}
	if rec.Metadata != nil {
		metadataJSON, _ = json.Marshal(rec.Metadata)
	}
	return []any{
		rec.ID, rec.Timestamp.UTC(), rec.Invocation, rec.Caller, rec.Channel, rec.Command, rec.Line,
		rec.Discipline, rec.Success, rec.Code, rec.Message, int64(rec.Duration), diagnosticsJSON, metadataJSON,
	}
}

// Record stores a single record
func (s *SQLiteStore) Record(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, insertRecord, prepare(rec)...); err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// RecordBatch stores multiple records in one transaction
func (s *SQLiteStore) RecordBatch(ctx context.Context, recs []*Record) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, len(recs), fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		return 0, len(recs), fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	var accepted, rejected int
	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, prepare(rec)...); err != nil {
			rejected++
		} else {
			accepted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, len(recs), fmt.Errorf("failed to commit transaction: %w", err)
	}
	return accepted, rejected, nil
}

// Query retrieves records based on filter criteria, newest first
func (s *SQLiteStore) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, timestamp, invocation, caller, channel, command, line, discipline,
		success, code, message, duration_ns, diagnostics, metadata FROM invocations WHERE 1=1`
	var args []interface{}

	if filter.Caller != "" {
		query += " AND caller = ?"
		args = append(args, filter.Caller)
	}
	if filter.Command != "" {
		query += " AND command = ?"
		args = append(args, filter.Command)
	}
	if filter.Code != "" {
		query += " AND code = ?"
		args = append(args, filter.Code)
	}
	if filter.FailedOnly {
		query += " AND success = 0"
	}
	if filter.Invocation != "" {
		query += " AND invocation = ?"
		args = append(args, filter.Invocation)
	}
	if !filter.StartTime.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.StartTime.UTC())
	}
	if !filter.EndTime.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.EndTime.UTC())
	}

	query += " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		var (
			rec                            Record
			command, discipline, code, msg sql.NullString
			diagnosticsJSON, metadataJSON  sql.NullString
			duration                       int64
		)
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Invocation, &rec.Caller, &rec.Channel,
			&command, &rec.Line, &discipline, &rec.Success, &code, &msg, &duration,
			&diagnosticsJSON, &metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.Command = command.String
		rec.Discipline = discipline.String
		rec.Code = code.String
		rec.Message = msg.String
		rec.Duration = time.Duration(duration)
		if diagnosticsJSON.Valid && diagnosticsJSON.String != "" {
			json.Unmarshal([]byte(diagnosticsJSON.String), &rec.Diagnostics)
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			json.Unmarshal([]byte(metadataJSON.String), &rec.Metadata)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// Stats returns audit statistics
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByCommand: map[string]int64{}, ByCode: map[string]int64{}}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0) FROM invocations`,
	).Scan(&stats.Total, &stats.Failures); err != nil {
		return nil, fmt.Errorf("failed to count audit records: %w", err)
	}

	if err := s.group(ctx, `SELECT COALESCE(command, ''), COUNT(*) FROM invocations GROUP BY command`, stats.ByCommand); err != nil {
		return nil, err
	}
	if err := s.group(ctx, `SELECT code, COUNT(*) FROM invocations WHERE code != '' GROUP BY code`, stats.ByCode); err != nil {
		return nil, err
	}

	var last sql.NullString
	s.db.QueryRowContext(ctx, `SELECT MAX(timestamp) FROM invocations`).Scan(&last)
	if last.Valid {
		for _, layout := range []string{"2006-01-02 15:04:05.999999999-07:00", time.RFC3339Nano} {
			if t, err := time.Parse(layout, last.String); err == nil {
				stats.Last = t
				break
			}
		}
	}
	return stats, nil
}

func (s *SQLiteStore) group(ctx context.Context, query string, into map[string]int64) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to group audit records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

// Prune removes records older than the specified duration
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan).UTC()
	result, err := s.db.ExecContext(ctx, `DELETE FROM invocations WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit records: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MemoryStore is an in-memory implementation for testing
type MemoryStore struct {
	mu   sync.RWMutex
	recs []*Record
}

// NewMemoryStore creates a new in-memory audit store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record stores a single record
func (m *MemoryStore) Record(_ context.Context, rec *Record) error {
	prepare(rec)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

// RecordBatch stores multiple records
func (m *MemoryStore) RecordBatch(ctx context.Context, recs []*Record) (int, int, error) {
	for _, rec := range recs {
		m.Record(ctx, rec)
	}
	return len(recs), 0, nil
}

// Query retrieves records based on filter criteria, newest first
func (m *MemoryStore) Query(_ context.Context, filter Filter) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Record
	for i := len(m.recs) - 1; i >= 0; i-- {
		rec := m.recs[i]
		switch {
		case filter.Caller != "" && rec.Caller != filter.Caller,
			filter.Command != "" && rec.Command != filter.Command,
			filter.Code != "" && rec.Code != filter.Code,
			filter.FailedOnly && rec.Success,
			filter.Invocation != "" && rec.Invocation != filter.Invocation,
			!filter.StartTime.IsZero() && rec.Timestamp.Before(filter.StartTime),
			!filter.EndTime.IsZero() && rec.Timestamp.After(filter.EndTime):
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Stats returns audit statistics
func (m *MemoryStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{ByCommand: map[string]int64{}, ByCode: map[string]int64{}}
	for _, rec := range m.recs {
		stats.Total++
		if !rec.Success {
			stats.Failures++
		}
		stats.ByCommand[rec.Command]++
		if rec.Code != "" {
			stats.ByCode[rec.Code]++
		}
		if rec.Timestamp.After(stats.Last) {
			stats.Last = rec.Timestamp
		}
	}
	return stats, nil
}

// Prune removes records older than the specified duration
func (m *MemoryStore) Prune(_ context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	kept := m.recs[:0]
	var removed int64
	for _, rec := range m.recs {
		if rec.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	m.recs = kept
	return removed, nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
