package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ToolRun is one recorded tool invocation.
type ToolRun struct {
	ID        int64
	Tool      string
	Category  string
	Input     string
	Success   bool
	Display   string
	Duration  time.Duration
	CreatedAt time.Time
}

// ToolLog keeps an audit trail of tool invocations in SQLite.
type ToolLog struct {
	db *sql.DB
}

func NewToolLog(dataDir string) (*ToolLog, error) {
	return OpenToolLog(filepath.Join(dataDir, "tools.db"))
}

func OpenToolLog(dbPath string) (*ToolLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// one writer; the agent records from several goroutines
	db.SetMaxOpenConns(1)

	tl := &ToolLog{db: db}
	if err := tl.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return tl, nil
}

func (tl *ToolLog) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tool_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tool TEXT NOT NULL,
		category TEXT NOT NULL,
		input TEXT NOT NULL,
		success INTEGER NOT NULL,
		display TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tool_runs_created ON tool_runs(created_at);
	`

	_, err := tl.db.Exec(schema)
	return err
}

// Record stores run and returns its row id.
func (tl *ToolLog) Record(ctx context.Context, run ToolRun) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	query := `
	INSERT INTO tool_runs (tool, category, input, success, display, duration_ms, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := tl.db.ExecContext(ctx, query,
		run.Tool,
		run.Category,
		run.Input,
		run.Success,
		run.Display,
		run.Duration.Milliseconds(),
		run.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record tool run: %w", err)
	}

	return res.LastInsertId()
}

// Recent returns up to limit runs, newest first.
func (tl *ToolLog) Recent(ctx context.Context, limit int) ([]ToolRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, tool, category, input, success, display, duration_ms, created_at
	FROM tool_runs
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := tl.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tool runs: %w", err)
	}
	defer rows.Close()

	var runs []ToolRun
	for rows.Next() {
		var run ToolRun
		var durationMS int64
		if err := rows.Scan(
			&run.ID,
			&run.Tool,
			&run.Category,
			&run.Input,
			&run.Success,
			&run.Display,
			&durationMS,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tool run: %w", err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Prune deletes runs older than cutoff and reports how many were removed.
func (tl *ToolLog) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := tl.db.ExecContext(ctx, `DELETE FROM tool_runs WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune tool runs: %w", err)
	}
	return res.RowsAffected()
}

func (tl *ToolLog) Close() error {
	if tl.db != nil {
		return tl.db.Close()
	}
	return nil
}
