package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/trendlens/trendlens/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS users (
	email          TEXT PRIMARY KEY,
	password_hash  TEXT NOT NULL,
	plan           TEXT NOT NULL,
	usage_summary  INTEGER NOT NULL DEFAULT 0,
	usage_analysis INTEGER NOT NULL DEFAULT 0,
	usage_question INTEGER NOT NULL DEFAULT 0,
	limit_summary  INTEGER NOT NULL,
	limit_analysis INTEGER NOT NULL,
	limit_question INTEGER NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sessions (
	token      TEXT PRIMARY KEY,
	email      TEXT NOT NULL REFERENCES users(email),
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL REFERENCES users(email),
	kind       TEXT NOT NULL,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_email ON sessions(email);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
CREATE INDEX IF NOT EXISTS idx_analyses_email ON analyses(email);
CREATE INDEX IF NOT EXISTS idx_analyses_kind ON analyses(kind);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user model.User) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, user.Email,
	).Scan(&exists)
	if err != nil {
		return eris.Wrap(err, "sqlite: check user")
	}
	if exists > 0 {
		return ErrDuplicateEmail
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users
		 (email, password_hash, plan, usage_summary, usage_analysis, usage_question,
		  limit_summary, limit_analysis, limit_question, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.Plan,
		user.Usage.Summary, user.Usage.Analysis, user.Usage.Question,
		user.Limits.Summary, user.Limits.Analysis, user.Limits.Question,
		user.CreatedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: insert user")
}

func (s *SQLiteStore) GetUser(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT email, password_hash, plan, usage_summary, usage_analysis, usage_question,
		        limit_summary, limit_analysis, limit_question, created_at
		 FROM users WHERE email = ?`,
		email,
	)

	var u model.User
	err := row.Scan(&u.Email, &u.PasswordHash, &u.Plan,
		&u.Usage.Summary, &u.Usage.Analysis, &u.Usage.Question,
		&u.Limits.Summary, &u.Limits.Analysis, &u.Limits.Question,
		&u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get user")
	}
	return &u, nil
}

func (s *SQLiteStore) CheckQuota(ctx context.Context, email, kind string) error {
	u, err := s.GetUser(ctx, email)
	if err != nil {
		return err
	}
	if u.Remaining(kind) <= 0 {
		return ErrQuotaExceeded
	}
	return nil
}

func (s *SQLiteStore) IncrementUsage(ctx context.Context, email, kind string) error {
	col, err := usageColumn(kind)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET `+col+` = `+col+` + 1 WHERE email = ?`,
		email,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: increment %s", kind)
	}
	return checkRowsAffected(res, "user", email)
}

func (s *SQLiteStore) CreateSession(ctx context.Context, email string, ttl time.Duration) (*model.Session, error) {
	now := time.Now().UTC()
	sess := &model.Session{
		Token:     uuid.New().String(),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, email, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		sess.Token, sess.Email, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert session")
	}
	return sess, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, token string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT token, email, created_at, expires_at FROM sessions
		 WHERE token = ? AND expires_at > ?`,
		token, time.Now().UTC(),
	)

	var sess model.Session
	err := row.Scan(&sess.Token, &sess.Email, &sess.CreatedAt, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get session")
	}
	return &sess, nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return eris.Wrap(err, "sqlite: delete session")
	}
	return checkRowsAffected(res, "session", token)
}

func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired sessions")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, email, kind string, result model.AnalysisResult) (*model.SavedAnalysis, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}

	saved := &model.SavedAnalysis{
		ID:        uuid.New().String(),
		Email:     email,
		Kind:      kind,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, email, kind, result, created_at) VALUES (?, ?, ?, ?, ?)`,
		saved.ID, email, kind, string(resultJSON), saved.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert analysis")
	}
	return saved, nil
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.SavedAnalysis, error) {
	query := `SELECT id, email, kind, result, created_at FROM analyses WHERE 1=1`
	var args []any

	if filter.Email != "" {
		query += ` AND email = ?`
		args = append(args, filter.Email)
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, filter.Kind)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var out []model.SavedAnalysis
	for rows.Next() {
		var a model.SavedAnalysis
		var resultJSON string
		if err := rows.Scan(&a.ID, &a.Email, &a.Kind, &resultJSON, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis")
		}
		if err := json.Unmarshal([]byte(resultJSON), &a.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list analyses iterate")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
