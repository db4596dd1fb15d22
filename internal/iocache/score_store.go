package iocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// scoresTable holds one row per score, keyed by score id.
const scoresTable = "osuawa_scores"

// SQLScoreStore keeps score records in a SQL table.
type SQLScoreStore struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
	locks   userLocks
	// lockBase prefixes the per-user lock files of a SQLite store; empty for
	// in-memory databases.
	lockBase string
}

var _ contract.ScoreStore = &SQLScoreStore{} // Compile-time check

// NewSQLScoreStore opens the store and creates its table if needed.
func NewSQLScoreStore(backend schema.DatabaseBackend, connStr string) (*SQLScoreStore, error) {
	switch backend {
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported SQL score store backend: %s", backend)
	}

	db, err := openSQL(backend, connStr, GetStoreDBFilePath(), "sqlite")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(getCreateScoresQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", scoresTable, err)
	}
	store := &SQLScoreStore{db: db, backend: backend, connStr: connStr}
	if backend == schema.SQLiteBackend {
		store.lockBase = sqliteLockBase(connStr)
	}
	return store, nil
}

func sqliteLockBase(connStr string) string {
	path := connStr
	if path == "" {
		path = GetStoreDBFilePath()
	}
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return ""
	}
	return path
}

// advisoryLockNamespace keys PostgreSQL advisory locks together with the user id.
const advisoryLockNamespace int32 = 0x6f737561

// getCreateScoresQuery returns the CREATE TABLE query for the score table.
// It matches migration 1 so a store created here can be migrated later.
func getCreateScoresQuery(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return `
			CREATE TABLE IF NOT EXISTS osuawa_scores (
				score_id VARCHAR(32) PRIMARY KEY,
				user_id BIGINT NOT NULL,
				beatmap_id BIGINT NOT NULL,
				kind VARCHAR(16) NOT NULL,
				ended_at BIGINT NOT NULL,
				data LONGTEXT NOT NULL,
				updated_at BIGINT NOT NULL
			);`
	case schema.PostgreSQLBackend:
		return `
			CREATE TABLE IF NOT EXISTS osuawa_scores (
				score_id TEXT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				beatmap_id BIGINT NOT NULL,
				kind TEXT NOT NULL,
				ended_at BIGINT NOT NULL,
				data TEXT NOT NULL,
				updated_at BIGINT NOT NULL
			);`
	default: // SQLite
		return `
			CREATE TABLE IF NOT EXISTS osuawa_scores (
				score_id TEXT PRIMARY KEY,
				user_id INTEGER NOT NULL,
				beatmap_id INTEGER NOT NULL,
				kind TEXT NOT NULL,
				ended_at INTEGER NOT NULL,
				data TEXT NOT NULL,
				updated_at INTEGER NOT NULL
			);`
	}
}

// scoreRow is the column form of one record.
type scoreRow struct {
	scoreID   string
	userID    int
	beatmapID int
	kind      schema.RecordKind
	endedAt   int64
	data      string
}

func toScoreRow(record schema.ScoreRecord) (scoreRow, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return scoreRow{}, fmt.Errorf("encode score %s: %w", record.ID(), err)
	}
	s := record.Simple()
	if s.ScoreID == "" {
		return scoreRow{}, fmt.Errorf("score record without id")
	}
	return scoreRow{
		scoreID:   s.ScoreID,
		userID:    s.UserID,
		beatmapID: s.BeatmapID,
		kind:      record.Kind,
		endedAt:   s.EndedAt.Unix(),
		data:      string(b),
	}, nil
}

func (r scoreRow) args(updated int64) []any {
	return []any{r.scoreID, r.userID, r.beatmapID, string(r.kind), r.endedAt, r.data, updated}
}

// decodeRecords turns (score_id, data) pairs into the keyed record map.
func decodeRecords(rows map[string]string) (map[string]schema.ScoreRecord, error) {
	out := make(map[string]schema.ScoreRecord, len(rows))
	for id, data := range rows {
		var rec schema.ScoreRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode score %s: %w", id, err)
		}
		out[id] = rec
	}
	return out, nil
}

// Lock implements contract.ScoreStore. Besides the in-process lock it takes
// a lock every other process sees: a flock next to the SQLite file,
// GET_LOCK on MySQL and an advisory lock on PostgreSQL.
func (s *SQLScoreStore) Lock(ctx context.Context, userID int) (func(), error) {
	release, err := s.locks.lock(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlock := func() {}
	switch s.backend {
	case schema.SQLiteBackend:
		if s.lockBase != "" {
			unlock, err = lockFile(ctx, fmt.Sprintf("%s.user-%d.lock", s.lockBase, userID))
		}
	case schema.MySQLBackend:
		name := fmt.Sprintf("%s:%d", scoresTable, userID)
		unlock, err = connLock(ctx, s.db, `SELECT GET_LOCK(?, 0)`, `SELECT RELEASE_LOCK(?)`, name)
	case schema.PostgreSQLBackend:
		unlock, err = connLock(ctx, s.db, `SELECT pg_try_advisory_lock($1, $2)`, `SELECT pg_advisory_unlock($1, $2)`,
			advisoryLockNamespace, int32(userID))
	}
	if err != nil {
		release()
		return nil, fmt.Errorf("lock scores of %d: %w", userID, err)
	}
	return func() {
		unlock()
		release()
	}, nil
}

// Load implements contract.ScoreStore.
func (s *SQLScoreStore) Load(ctx context.Context, userID int) (map[string]schema.ScoreRecord, error) {
	query := rebind(`SELECT score_id, data FROM osuawa_scores WHERE user_id = ?`, s.backend)
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("load scores of %d: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	raw := make(map[string]string)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		raw[id] = data
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score rows: %w", err)
	}
	return decodeRecords(raw)
}

// Replace implements contract.ScoreStore in a single transaction.
func (s *SQLScoreStore) Replace(ctx context.Context, userID int, records map[string]schema.ScoreRecord) error {
	encoded := make([]scoreRow, 0, len(records))
	for id, rec := range records {
		row, err := toScoreRow(rec)
		if err != nil {
			return err
		}
		if row.scoreID != id || row.userID != userID {
			return fmt.Errorf("record %s does not belong under key %s of user %d", row.scoreID, id, userID)
		}
		encoded = append(encoded, row)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, rebind(`DELETE FROM osuawa_scores WHERE user_id = ?`, s.backend), userID); err != nil {
		return fmt.Errorf("delete scores of %d: %w", userID, err)
	}
	insert := rebind(`INSERT INTO osuawa_scores (score_id, user_id, beatmap_id, kind, ended_at, data, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`, s.backend)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().Unix()
	for _, row := range encoded {
		if _, err := stmt.ExecContext(ctx, row.args(now)...); err != nil {
			return fmt.Errorf("insert score %s: %w", row.scoreID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// Upsert implements contract.ScoreStore. The conflict clause only overwrites
// a row when the incoming record is completed or the stored one is raw.
func (s *SQLScoreStore) Upsert(ctx context.Context, record schema.ScoreRecord) error {
	row, err := toScoreRow(record)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, getUpsertScoreQuery(s.backend), row.args(time.Now().Unix())...); err != nil {
		return fmt.Errorf("upsert score %s: %w", row.scoreID, err)
	}
	return nil
}

// getUpsertScoreQuery returns the guarded UPSERT for the backend.
func getUpsertScoreQuery(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		// Assignments run left to right, so kind is updated last.
		const keep = `new.kind = 'completed' OR osuawa_scores.kind = 'raw'`
		return `INSERT INTO osuawa_scores (score_id, user_id, beatmap_id, kind, ended_at, data, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE
				user_id = IF(` + keep + `, new.user_id, osuawa_scores.user_id),
				beatmap_id = IF(` + keep + `, new.beatmap_id, osuawa_scores.beatmap_id),
				ended_at = IF(` + keep + `, new.ended_at, osuawa_scores.ended_at),
				data = IF(` + keep + `, new.data, osuawa_scores.data),
				updated_at = IF(` + keep + `, new.updated_at, osuawa_scores.updated_at),
				kind = IF(` + keep + `, new.kind, osuawa_scores.kind)`
	default: // SQLite and PostgreSQL
		return rebind(`INSERT INTO osuawa_scores (score_id, user_id, beatmap_id, kind, ended_at, data, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (score_id) DO UPDATE SET
				user_id = excluded.user_id,
				beatmap_id = excluded.beatmap_id,
				kind = excluded.kind,
				ended_at = excluded.ended_at,
				data = excluded.data,
				updated_at = excluded.updated_at
			WHERE excluded.kind = 'completed' OR osuawa_scores.kind = 'raw'`, backend)
	}
}

// Users implements contract.ScoreStore.
func (s *SQLScoreStore) Users(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM osuawa_scores ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

// GetStatus implements contract.ScoreStore.
func (s *SQLScoreStore) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(s.backend),
		Connected: s.db != nil,
	}
	if s.backend == schema.SQLiteBackend {
		status.Location = s.connStr
		if status.Location == "" {
			status.Location = GetStoreDBFilePath()
		}
	}

	row := s.db.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT user_id) FROM osuawa_scores`)
	if err := row.Scan(&status.TotalScores, &status.Users); err != nil {
		return status, fmt.Errorf("failed to count scores: %w", err)
	}
	if status.TotalScores == 0 {
		return status, nil
	}

	row = s.db.QueryRow(`SELECT COUNT(*) FROM osuawa_scores WHERE kind = 'completed'`)
	if err := row.Scan(&status.CompletedScores); err != nil {
		return status, fmt.Errorf("failed to count completed scores: %w", err)
	}
	var last int64
	if err := s.db.QueryRow(`SELECT MAX(updated_at) FROM osuawa_scores`).Scan(&last); err != nil {
		return status, fmt.Errorf("failed to get last update time: %w", err)
	}
	status.LastUpdateTime = time.Unix(last, 0)
	status.SizeBytes = tableSize(s.db, s.backend, s.connStr, scoresTable, status.TotalScores)
	return status, nil
}

// Close implements contract.ScoreStore.
func (s *SQLScoreStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
