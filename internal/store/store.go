// Package store persists user accounts, sessions and analysis history. Two
// backends implement the same interface: SQLite for single-node deployments
// and Postgres for shared ones.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/trendlens/trendlens/internal/model"
)

// ErrNotFound is returned for lookups that match nothing.
var ErrNotFound = eris.New("store: not found")

// ErrQuotaExceeded is returned by CheckQuota when a usage bucket is spent.
var ErrQuotaExceeded = eris.New("store: quota exceeded")

// ErrDuplicateEmail is returned by CreateUser for an already-registered email.
var ErrDuplicateEmail = eris.New("store: email already registered")

// AnalysisFilter specifies criteria for listing saved analyses.
type AnalysisFilter struct {
	Email string `json:"email,omitempty"`
	Kind  string `json:"kind,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for accounts and analysis history.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, email string) (*model.User, error)
	CheckQuota(ctx context.Context, email, kind string) error
	IncrementUsage(ctx context.Context, email, kind string) error

	// Sessions
	CreateSession(ctx context.Context, email string, ttl time.Duration) (*model.Session, error)
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Analysis history
	SaveAnalysis(ctx context.Context, email, kind string, result model.AnalysisResult) (*model.SavedAnalysis, error)
	ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.SavedAnalysis, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// usageColumn maps a usage kind to its counter column. Both backends share
// the naming.
func usageColumn(kind string) (string, error) {
	switch kind {
	case model.UsageSummary:
		return "usage_summary", nil
	case model.UsageAnalysis:
		return "usage_analysis", nil
	case model.UsageQuestion:
		return "usage_question", nil
	default:
		return "", eris.Errorf("store: unknown usage kind %q", kind)
	}
}
