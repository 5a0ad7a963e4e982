package model

import "time"

// Plan names. Limits for each plan are fixed at signup and stored per user so
// a plan change only affects new accounts.
const (
	PlanFree  = "Free Plan"
	PlanPro   = "Pro Plan"
	PlanAdmin = "Admin Plan"
)

// adminLimit is effectively unlimited quota for admin accounts.
const adminLimit = 1_000_000

// Usage operation kinds, matching the quota buckets tracked per user.
const (
	UsageSummary  = "summary"
	UsageAnalysis = "analysis"
	UsageQuestion = "question"
)

// UsageCounts tracks per-operation consumption against UsageLimits.
type UsageCounts struct {
	Summary  int `json:"summary"`
	Analysis int `json:"analysis"`
	Question int `json:"question"`
}

// UsageLimits is the per-operation quota attached to a user.
type UsageLimits struct {
	Summary  int `json:"summary"`
	Analysis int `json:"analysis"`
	Question int `json:"question"`
}

// DefaultLimits returns the quota assigned to new accounts on the given plan.
func DefaultLimits(plan string) UsageLimits {
	switch plan {
	case PlanPro:
		return UsageLimits{Summary: 100, Analysis: 50, Question: 200}
	case PlanAdmin:
		return UsageLimits{Summary: adminLimit, Analysis: adminLimit, Question: adminLimit}
	default:
		return UsageLimits{Summary: 10, Analysis: 5, Question: 20}
	}
}

// User is an account record with its subscription plan and usage metering.
// PasswordHash is a bcrypt hash and never leaves the store layer.
type User struct {
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Plan         string      `json:"subscription_type"`
	Usage        UsageCounts `json:"usage"`
	Limits       UsageLimits `json:"limits"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Remaining returns how many calls of the given kind the user has left.
func (u User) Remaining(kind string) int {
	switch kind {
	case UsageSummary:
		return u.Limits.Summary - u.Usage.Summary
	case UsageAnalysis:
		return u.Limits.Analysis - u.Usage.Analysis
	case UsageQuestion:
		return u.Limits.Question - u.Usage.Question
	default:
		return 0
	}
}

// Session is a login session keyed by an opaque token.
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// SavedAnalysis is a persisted analysis result for history and export.
type SavedAnalysis struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Kind      string         `json:"kind"` // question, text, url, file, comprehensive
	Result    AnalysisResult `json:"result"`
	CreatedAt time.Time      `json:"created_at"`
}
