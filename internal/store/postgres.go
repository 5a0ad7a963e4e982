package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/trendlens/trendlens/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the store. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
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
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sessions (
	token      TEXT PRIMARY KEY,
	email      TEXT NOT NULL REFERENCES users(email),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	email      TEXT NOT NULL REFERENCES users(email),
	kind       TEXT NOT NULL,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sessions_email ON sessions(email);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
CREATE INDEX IF NOT EXISTS idx_analyses_email ON analyses(email);
CREATE INDEX IF NOT EXISTS idx_analyses_kind ON analyses(kind);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users
		 (email, password_hash, plan, usage_summary, usage_analysis, usage_question,
		  limit_summary, limit_analysis, limit_question, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.Email, user.PasswordHash, user.Plan,
		user.Usage.Summary, user.Usage.Analysis, user.Usage.Question,
		user.Limits.Summary, user.Limits.Analysis, user.Limits.Question,
		user.CreatedAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return eris.Wrap(err, "postgres: insert user")
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT email, password_hash, plan, usage_summary, usage_analysis, usage_question,
		        limit_summary, limit_analysis, limit_question, created_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&u.Email, &u.PasswordHash, &u.Plan,
		&u.Usage.Summary, &u.Usage.Analysis, &u.Usage.Question,
		&u.Limits.Summary, &u.Limits.Analysis, &u.Limits.Question,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get user")
	}
	return &u, nil
}

func (s *PostgresStore) CheckQuota(ctx context.Context, email, kind string) error {
	u, err := s.GetUser(ctx, email)
	if err != nil {
		return err
	}
	if u.Remaining(kind) <= 0 {
		return ErrQuotaExceeded
	}
	return nil
}

func (s *PostgresStore) IncrementUsage(ctx context.Context, email, kind string) error {
	col, err := usageColumn(kind)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET `+col+` = `+col+` + 1 WHERE email = $1`,
		email,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: increment %s", kind)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("user not found: %s", email)
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, email string, ttl time.Duration) (*model.Session, error) {
	now := time.Now().UTC()
	sess := &model.Session{
		Token:     uuid.New().String(),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (token, email, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		sess.Token, sess.Email, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert session")
	}
	return sess, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, token string) (*model.Session, error) {
	var sess model.Session
	err := s.pool.QueryRow(ctx,
		`SELECT token, email, created_at, expires_at FROM sessions
		 WHERE token = $1 AND expires_at > now()`,
		token,
	).Scan(&sess.Token, &sess.Email, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get session")
	}
	return &sess, nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, token string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return eris.Wrap(err, "postgres: delete session")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", token)
	}
	return nil
}

func (s *PostgresStore) DeleteExpiredSessions(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired sessions")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, email, kind string, result model.AnalysisResult) (*model.SavedAnalysis, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal result")
	}

	saved := &model.SavedAnalysis{
		ID:        uuid.New().String(),
		Email:     email,
		Kind:      kind,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analyses (id, email, kind, result, created_at) VALUES ($1, $2, $3, $4, $5)`,
		saved.ID, email, kind, resultJSON, saved.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert analysis")
	}
	return saved, nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.SavedAnalysis, error) {
	query := `SELECT id, email, kind, result, created_at FROM analyses WHERE 1=1`
	var args []any

	if filter.Email != "" {
		args = append(args, filter.Email)
		query += ` AND email = $1`
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		query += ` AND kind = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	var out []model.SavedAnalysis
	for rows.Next() {
		var a model.SavedAnalysis
		var resultJSON []byte
		if err := rows.Scan(&a.ID, &a.Email, &a.Kind, &resultJSON, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		if err := json.Unmarshal(resultJSON, &a.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list analyses iterate")
}

