package iocache

import (
	"context"
	"fmt"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
	"github.com/rqlite/gorqlite"
)

// RqliteScoreStore keeps score records in an rqlite cluster.
// Writes of one call run as a single rqlite transaction.
type RqliteScoreStore struct {
	conn  *gorqlite.Connection
	addr  string
	locks userLocks
}

var _ contract.ScoreStore = &RqliteScoreStore{} // Compile-time check

// NewRqliteScoreStore connects to addr (http://host:port) and creates the table.
func NewRqliteScoreStore(addr string) (*RqliteScoreStore, error) {
	conn, err := gorqlite.Open(addr)
	if err != nil {
		return nil, fmt.Errorf("open rqlite connection: %w", err)
	}
	if err := conn.SetExecutionWithTransaction(true); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set execution with transaction: %w", err)
	}

	s := &RqliteScoreStore{conn: conn, addr: addr}
	if err := s.write(context.Background(), []gorqlite.ParameterizedStatement{
		{Query: getCreateScoresQuery(schema.SQLiteBackend)},
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", scoresTable, err)
	}
	return s, nil
}

func (s *RqliteScoreStore) write(ctx context.Context, stmts []gorqlite.ParameterizedStatement) error {
	results, err := s.conn.WriteParameterizedContext(ctx, stmts)
	if err != nil {
		return fmt.Errorf("do write: %w", err)
	}
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("result error: %w", r.Err)
		}
	}
	return nil
}

// Lock implements contract.ScoreStore. The lock is held in process only.
func (s *RqliteScoreStore) Lock(ctx context.Context, userID int) (func(), error) {
	return s.locks.lock(ctx, userID)
}

// Load implements contract.ScoreStore.
func (s *RqliteScoreStore) Load(ctx context.Context, userID int) (map[string]schema.ScoreRecord, error) {
	results, err := s.conn.QueryOneParameterizedContext(ctx, gorqlite.ParameterizedStatement{
		Query:     `SELECT score_id, data FROM osuawa_scores WHERE user_id = ?`,
		Arguments: []any{userID},
	})
	if err != nil {
		return nil, fmt.Errorf("load scores of %d: %w", userID, err)
	}

	raw := make(map[string]string, results.NumRows())
	for results.Next() {
		var id, data string
		if err := results.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan results: %w", err)
		}
		raw[id] = data
	}
	return decodeRecords(raw)
}

// Replace implements contract.ScoreStore.
func (s *RqliteScoreStore) Replace(ctx context.Context, userID int, records map[string]schema.ScoreRecord) error {
	now := time.Now().Unix()
	stmts := make([]gorqlite.ParameterizedStatement, 0, len(records)+1)
	stmts = append(stmts, gorqlite.ParameterizedStatement{
		Query:     `DELETE FROM osuawa_scores WHERE user_id = ?`,
		Arguments: []any{userID},
	})
	for id, rec := range records {
		row, err := toScoreRow(rec)
		if err != nil {
			return err
		}
		if row.scoreID != id || row.userID != userID {
			return fmt.Errorf("record %s does not belong under key %s of user %d", row.scoreID, id, userID)
		}
		stmts = append(stmts, gorqlite.ParameterizedStatement{
			Query:     `INSERT INTO osuawa_scores (score_id, user_id, beatmap_id, kind, ended_at, data, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			Arguments: row.args(now),
		})
	}
	if err := s.write(ctx, stmts); err != nil {
		return fmt.Errorf("replace scores of %d: %w", userID, err)
	}
	return nil
}

// Upsert implements contract.ScoreStore.
func (s *RqliteScoreStore) Upsert(ctx context.Context, record schema.ScoreRecord) error {
	row, err := toScoreRow(record)
	if err != nil {
		return err
	}
	stmt := gorqlite.ParameterizedStatement{
		Query:     getUpsertScoreQuery(schema.SQLiteBackend),
		Arguments: row.args(time.Now().Unix()),
	}
	if err := s.write(ctx, []gorqlite.ParameterizedStatement{stmt}); err != nil {
		return fmt.Errorf("upsert score %s: %w", row.scoreID, err)
	}
	return nil
}

// Users implements contract.ScoreStore.
func (s *RqliteScoreStore) Users(ctx context.Context) ([]int, error) {
	results, err := s.conn.QueryOneParameterizedContext(ctx, gorqlite.ParameterizedStatement{
		Query: `SELECT DISTINCT user_id FROM osuawa_scores ORDER BY user_id`,
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]int, 0, results.NumRows())
	for results.Next() {
		var id int64
		if err := results.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan results: %w", err)
		}
		users = append(users, int(id))
	}
	return users, nil
}

// GetStatus implements contract.ScoreStore.
func (s *RqliteScoreStore) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(schema.RqliteBackend),
		Connected: s.conn != nil,
		Location:  s.addr,
	}
	results, err := s.conn.QueryOneParameterizedContext(context.Background(), gorqlite.ParameterizedStatement{
		Query: `SELECT COUNT(*), COUNT(DISTINCT user_id), COALESCE(SUM(CASE WHEN kind = 'completed' THEN 1 ELSE 0 END), 0), COALESCE(MAX(updated_at), 0) FROM osuawa_scores`,
	})
	if err != nil {
		return status, fmt.Errorf("failed to get status: %w", err)
	}
	for results.Next() {
		var total, users, completed, last int64
		if err := results.Scan(&total, &users, &completed, &last); err != nil {
			return status, fmt.Errorf("scan results: %w", err)
		}
		status.TotalScores = int(total)
		status.Users = int(users)
		status.CompletedScores = int(completed)
		if last > 0 {
			status.LastUpdateTime = time.Unix(last, 0)
		}
	}
	status.SizeBytes = int64(status.TotalScores) * 1000 // Rough estimate
	return status, nil
}

// Close implements contract.ScoreStore.
func (s *RqliteScoreStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}

// clear deletes every row. rqlite has no file to remove.
func (s *RqliteScoreStore) clear() error {
	return s.write(context.Background(), []gorqlite.ParameterizedStatement{
		{Query: `DELETE FROM osuawa_scores`},
	})
}
