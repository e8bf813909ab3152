package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stratumhq/agentkit/audit"
)

//go:embed schema.sql
var schemaSQL string

const defaultLimit = 200

type ListQuery struct {
	Limit  int
	Offset int
}

// SummaryQuery narrows Summarize to one agent and/or a time window.
type SummaryQuery struct {
	AgentID string
	Since   *time.Time
}

type Summary struct {
	Executions    int64
	Succeeded     int64
	Failed        int64
	TotalCost     float64
	AvgDurationMs float64
}

// Store persists audit records in a local sqlite database. It opens a
// single connection so concurrent appends serialize in the driver rather
// than colliding on the file.
type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite audit path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable wal: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) LogExecution(ctx context.Context, rec audit.Record) error {
	if s == nil || s.db == nil {
		return nil
	}
	rec.Normalize()
	const q = `
INSERT INTO audit_executions (
  record_id, agent_id, agent_name, agent_version, session_id, user_id, environment,
  input, output, success, error, started_at, completed_at, duration_ms, cost, retries
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err := s.db.ExecContext(
		ctx,
		q,
		rec.ID,
		rec.AgentID,
		rec.AgentName,
		rec.AgentVersion,
		rec.SessionID,
		rec.UserID,
		rec.Environment,
		rec.Input,
		rec.Output,
		boolToInt(rec.Success),
		rec.Error,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.CompletedAt.UTC().Format(time.RFC3339Nano),
		rec.DurationMs,
		rec.Cost,
		rec.Retries,
	)
	if err != nil {
		return fmt.Errorf("failed to save audit record: %w", err)
	}
	return nil
}

func (s *Store) ListByAgent(ctx context.Context, agentID string, query ListQuery) ([]audit.Record, error) {
	if strings.TrimSpace(agentID) == "" {
		return nil, fmt.Errorf("agentID is required")
	}
	return s.list(ctx, "agent_id = ?", agentID, query)
}

func (s *Store) ListBySession(ctx context.Context, sessionID string, query ListQuery) ([]audit.Record, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("sessionID is required")
	}
	return s.list(ctx, "session_id = ?", sessionID, query)
}

// Recent returns the newest records first.
func (s *Store) Recent(ctx context.Context, limit int) ([]audit.Record, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	const q = `
SELECT record_id, agent_id, agent_name, agent_version, session_id, user_id, environment,
       input, output, success, error, started_at, completed_at, duration_ms, cost, retries
FROM audit_executions
ORDER BY started_at DESC
LIMIT ?;
`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows, limit)
}

func (s *Store) list(ctx context.Context, predicate string, value string, query ListQuery) ([]audit.Record, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	q := fmt.Sprintf(`
SELECT record_id, agent_id, agent_name, agent_version, session_id, user_id, environment,
       input, output, success, error, started_at, completed_at, duration_ms, cost, retries
FROM audit_executions
WHERE %s
ORDER BY started_at ASC
LIMIT ? OFFSET ?;
`, predicate)

	rows, err := s.db.QueryContext(ctx, q, value, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows, limit)
}

func collectRecords(rows *sql.Rows, capacity int) ([]audit.Record, error) {
	out := make([]audit.Record, 0, capacity)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", err)
	}
	return out, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (audit.Record, error) {
	var (
		rec          audit.Record
		success      int
		startedRaw   string
		completedRaw string
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.AgentID,
		&rec.AgentName,
		&rec.AgentVersion,
		&rec.SessionID,
		&rec.UserID,
		&rec.Environment,
		&rec.Input,
		&rec.Output,
		&success,
		&rec.Error,
		&startedRaw,
		&completedRaw,
		&rec.DurationMs,
		&rec.Cost,
		&rec.Retries,
	); err != nil {
		return audit.Record{}, fmt.Errorf("failed to scan audit record: %w", err)
	}
	rec.Success = success != 0
	if startedRaw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
			rec.StartedAt = ts
		}
	}
	if completedRaw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, completedRaw); err == nil {
			rec.CompletedAt = ts
		}
	}
	return rec, nil
}

// Summarize aggregates execution counts, spend, and latency in the store
// without loading records into memory.
func (s *Store) Summarize(ctx context.Context, query SummaryQuery) (Summary, error) {
	if s == nil || s.db == nil {
		return Summary{}, nil
	}
	where := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if query.AgentID != "" {
		where = append(where, "agent_id = ?")
		args = append(args, query.AgentID)
	}
	if query.Since != nil {
		where = append(where, "started_at >= ?")
		args = append(args, query.Since.UTC().Format(time.RFC3339Nano))
	}

	q := `
SELECT COUNT(*), COALESCE(SUM(success), 0), COALESCE(SUM(cost), 0), COALESCE(AVG(duration_ms), 0)
FROM audit_executions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	var summary Summary
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(
		&summary.Executions,
		&summary.Succeeded,
		&summary.TotalCost,
		&summary.AvgDurationMs,
	); err != nil {
		return Summary{}, fmt.Errorf("failed to summarize audit records: %w", err)
	}
	summary.Failed = summary.Executions - summary.Succeeded
	return summary, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ audit.Log = (*Store)(nil)
