// Package storage provides the SQLite implementation of the domain Storage
// contract.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DefaultRetention is how long resolved violations and metrics are kept
// when no retention is configured
const DefaultRetention = 30 * 24 * time.Hour

// SQLiteStorage implements the domain Storage interface
type SQLiteStorage struct {
	db        *sql.DB
	retention time.Duration
}

// Open creates a SQLite storage backend at the given path. ":memory:" opens
// an ephemeral database for tests. retentionDays <= 0 uses the default.
func Open(path string, retentionDays int) (*SQLiteStorage, error) {
	dsn := "file::memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, domain.NewStorageError("failed to create storage directory", err)
			}
		}
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, domain.NewStorageError("failed to open database", err)
	}
	// A single connection keeps writes serialized and makes an in-memory
	// database behave like a file-backed one.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, domain.NewStorageError("failed to ping database", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, domain.NewStorageError("failed to initialize schema", err)
	}

	retention := DefaultRetention
	if retentionDays > 0 {
		retention = time.Duration(retentionDays) * 24 * time.Hour
	}
	return &SQLiteStorage{db: db, retention: retention}, nil
}

// StoreViolations writes one batch in a single transaction. A new identity
// hash is an insert; a known hash is an update that bumps last_seen and
// resurrects the record from resolved.
func (s *SQLiteStorage) StoreViolations(ctx context.Context, violations []domain.Violation) (*domain.StoreResult, error) {
	result := &domain.StoreResult{}
	if len(violations) == 0 {
		return result, nil
	}

	// database/sql's BeginTx opens a DEFERRED sqlite transaction; the write
	// lock for the batch is taken up front instead, on a dedicated
	// connection so BEGIN/COMMIT land on the same one.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, domain.NewStorageError("failed to acquire connection", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return nil, domain.NewStorageError("failed to begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			// Background ctx so the rollback runs even after cancellation
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	now := time.Now().UTC()
	for _, v := range violations {
		hash := domain.IdentityHash(v)

		var exists int
		err := conn.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM violations WHERE hash = ?", hash).Scan(&exists)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: %v", v.Location(), err))
			continue
		}

		if exists > 0 {
			_, err = conn.ExecContext(ctx, `
				UPDATE violations
				SET severity = ?, category = ?, code = ?, col = ?,
				    fix_suggestion = ?, status = 'active', last_seen = ?
				WHERE hash = ?`,
				string(v.Severity), string(v.Category), v.Code, v.Column,
				v.FixSuggestion, now, hash)
			if err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s: %v", v.Location(), err))
				continue
			}
			result.Updated++
			continue
		}

		_, err = conn.ExecContext(ctx, `
			INSERT INTO violations
			    (hash, file, line, col, code, category, severity, source,
			     rule, message, fix_suggestion, status, first_seen, last_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'active', ?, ?)`,
			hash, v.File, v.Line, v.Column, v.Code, string(v.Category),
			string(v.Severity), v.Source, v.Rule, v.Message, v.FixSuggestion,
			now, now)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: %v", v.Location(), err))
			continue
		}
		result.Inserted++
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return nil, domain.NewStorageError("failed to commit violation batch", err)
	}
	committed = true
	return result, nil
}

// GetViolations returns stored violations matching the filter, ordered by
// (file, line) for stable output
func (s *SQLiteStorage) GetViolations(ctx context.Context, filter domain.ViolationFilter) ([]domain.Violation, error) {
	query := `
		SELECT file, line, col, code, category, severity, source, rule, message, fix_suggestion
		FROM violations WHERE 1=1`
	var args []any

	if filter.File != "" {
		query += " AND file = ?"
		args = append(args, filter.File)
	}
	if filter.Severity != "" {
		query += " AND severity = ?"
		args = append(args, string(filter.Severity))
	}
	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, string(filter.Category))
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY file, line"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStorageError("failed to query violations", err)
	}
	defer func() { _ = rows.Close() }()

	var violations []domain.Violation
	for rows.Next() {
		var v domain.Violation
		var category, severity string
		err := rows.Scan(&v.File, &v.Line, &v.Column, &v.Code, &category,
			&severity, &v.Source, &v.Rule, &v.Message, &v.FixSuggestion)
		if err != nil {
			return nil, domain.NewStorageError("failed to scan violation row", err)
		}
		v.Category = domain.ViolationCategory(category)
		v.Severity = domain.Severity(severity)
		violations = append(violations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("failed to iterate violation rows", err)
	}
	return violations, nil
}

// UpsertRuleSchedule creates or updates a (rule, engine) schedule
func (s *SQLiteStorage) UpsertRuleSchedule(ctx context.Context, schedule domain.RuleSchedule) error {
	var nextCheck any
	if !schedule.NextCheck.IsZero() {
		nextCheck = schedule.NextCheck.UTC()
	}
	var lastChecked any
	if !schedule.LastChecked.IsZero() {
		lastChecked = schedule.LastChecked.UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rule_schedules (rule, engine, enabled, priority, check_frequency_ms, last_checked, next_check)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rule, engine) DO UPDATE SET
		    enabled = excluded.enabled,
		    priority = excluded.priority,
		    check_frequency_ms = excluded.check_frequency_ms`,
		schedule.Rule, schedule.Engine, boolToInt(schedule.Enabled),
		schedule.Priority, schedule.CheckFrequencyMs, lastChecked, nextCheck)
	if err != nil {
		return domain.NewStorageError("failed to upsert rule schedule", err)
	}
	return nil
}

// GetNextRulesToCheck returns up to limit enabled, due schedules ordered by
// priority then due time. A schedule with no next_check yet is always due.
func (s *SQLiteStorage) GetNextRulesToCheck(ctx context.Context, limit int) ([]domain.RuleSchedule, error) {
	if limit < 1 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule, engine, enabled, priority, check_frequency_ms, last_checked, next_check
		FROM rule_schedules
		WHERE enabled = 1 AND (next_check IS NULL OR next_check <= ?)
		ORDER BY priority, next_check
		LIMIT ?`, time.Now().UTC(), limit)
	if err != nil {
		return nil, domain.NewStorageError("failed to query due rules", err)
	}
	defer func() { _ = rows.Close() }()

	var schedules []domain.RuleSchedule
	for rows.Next() {
		var sched domain.RuleSchedule
		var enabled int
		var lastChecked, nextCheck sql.NullTime
		err := rows.Scan(&sched.Rule, &sched.Engine, &enabled, &sched.Priority,
			&sched.CheckFrequencyMs, &lastChecked, &nextCheck)
		if err != nil {
			return nil, domain.NewStorageError("failed to scan schedule row", err)
		}
		sched.Enabled = enabled != 0
		if lastChecked.Valid {
			sched.LastChecked = lastChecked.Time
		}
		if nextCheck.Valid {
			sched.NextCheck = nextCheck.Time
		}
		schedules = append(schedules, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("failed to iterate schedule rows", err)
	}
	return schedules, nil
}

// StartRuleCheck records the start of a check and returns its id
func (s *SQLiteStorage) StartRuleCheck(ctx context.Context, rule, engine string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO rule_checks (rule, engine, started_at, status)
		VALUES (?, ?, ?, 'running')`, rule, engine, time.Now().UTC())
	if err != nil {
		return 0, domain.NewStorageError("failed to record rule check start", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.NewStorageError("failed to read rule check id", err)
	}
	return id, nil
}

// CompleteRuleCheck records a successful check and advances the schedule's
// last-checked/next-check bookkeeping
func (s *SQLiteStorage) CompleteRuleCheck(ctx context.Context, checkID int64, violationsFound int) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE rule_checks
		SET status = 'completed', completed_at = ?, violations_found = ?
		WHERE id = ?`, now, violationsFound, checkID)
	if err != nil {
		return domain.NewStorageError("failed to record rule check completion", err)
	}

	if err := s.advanceSchedule(ctx, checkID, now); err != nil {
		return domain.NewStorageError("failed to advance rule schedule", err)
	}
	return nil
}

// FailRuleCheck records a failed check; the schedule still advances so a
// broken rule cannot monopolize the poll cycle
func (s *SQLiteStorage) FailRuleCheck(ctx context.Context, checkID int64, message string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE rule_checks
		SET status = 'failed', completed_at = ?, error = ?
		WHERE id = ?`, now, message, checkID)
	if err != nil {
		return domain.NewStorageError("failed to record rule check failure", err)
	}

	if err := s.advanceSchedule(ctx, checkID, now); err != nil {
		return domain.NewStorageError("failed to advance rule schedule", err)
	}
	return nil
}

// advanceSchedule moves the schedule behind a finished check forward by its
// own frequency. next_check is computed here and bound as a timestamp so it
// compares correctly against the timestamps GetNextRulesToCheck binds; mixing
// in SQL datetime() text would not. A check without a schedule row is ad hoc
// and leaves nothing to advance.
func (s *SQLiteStorage) advanceSchedule(ctx context.Context, checkID int64, now time.Time) error {
	var rule, engine string
	var frequencyMs int64
	err := s.db.QueryRowContext(ctx, `
		SELECT rs.rule, rs.engine, rs.check_frequency_ms
		FROM rule_schedules rs
		JOIN rule_checks rc ON rc.rule = rs.rule AND rc.engine = rs.engine
		WHERE rc.id = ?`, checkID).Scan(&rule, &engine, &frequencyMs)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	nextCheck := now.Add(time.Duration(frequencyMs) * time.Millisecond)
	_, err = s.db.ExecContext(ctx, `
		UPDATE rule_schedules
		SET last_checked = ?, next_check = ?
		WHERE rule = ? AND engine = ?`, now, nextCheck, rule, engine)
	return err
}

// RecordPerformanceMetric stores one named measurement
func (s *SQLiteStorage) RecordPerformanceMetric(ctx context.Context, name string, value float64, unit, note string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO performance_metrics (name, value, unit, note, recorded_at)
		VALUES (?, ?, ?, ?, ?)`, name, value, unit, note, time.Now().UTC())
	if err != nil {
		return domain.NewStorageError("failed to record metric", err)
	}
	return nil
}

// CleanupOldData removes resolved violations, finished rule checks and
// metrics outside the retention window. It returns the number of deleted rows.
func (s *SQLiteStorage) CleanupOldData(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.retention)
	var total int64

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM violations WHERE status = 'resolved' AND last_seen < ?", cutoff)
	if err != nil {
		return total, domain.NewStorageError("failed to delete resolved violations", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	res, err = s.db.ExecContext(ctx,
		"DELETE FROM rule_checks WHERE status != 'running' AND started_at < ?", cutoff)
	if err != nil {
		return total, domain.NewStorageError("failed to delete old rule checks", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	res, err = s.db.ExecContext(ctx,
		"DELETE FROM performance_metrics WHERE recorded_at < ?", cutoff)
	if err != nil {
		return total, domain.NewStorageError("failed to delete old metrics", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}
	return total, nil
}

// Ping verifies the store is reachable
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return domain.NewStorageError("database unreachable", err)
	}
	return nil
}

// Close releases the underlying database handle
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
