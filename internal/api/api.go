// Package api exposes the analysis pipeline over HTTP. All analysis routes
// require a session and are metered against the account's plan quota before
// the model is invoked.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/trendlens/trendlens/internal/auth"
	"github.com/trendlens/trendlens/internal/model"
	"github.com/trendlens/trendlens/internal/store"
)

// maxUploadBytes caps multipart uploads on the file route.
const maxUploadBytes = 16 << 20

// Analyzer is the analysis pipeline surface the API depends on.
type Analyzer interface {
	AnalyzeQuestion(ctx context.Context, question, keywordHint string) model.AnalysisResult
	AnalyzeText(ctx context.Context, text, question, keywordHint string) model.AnalysisResult
	AnalyzeFile(ctx context.Context, filename string, data []byte) model.AnalysisResult
	AnalyzeURL(ctx context.Context, url, question, keywordHint string) model.AnalysisResult
}

// ReplyCache is the gateway cache surface exposed on the admin route.
type ReplyCache interface {
	ClearCache()
	CacheSize() int
}

// Server wires the HTTP routes to the pipeline and its stores.
type Server struct {
	analyzer  Analyzer
	auth      *auth.Service
	store     store.Store
	cache     ReplyCache
	watchlist []string
}

// NewServer creates an API server. The watchlist feeds brand-mention
// detection on the comprehensive route.
func NewServer(analyzer Analyzer, authSvc *auth.Service, st store.Store, cache ReplyCache, watchlist []string) *Server {
	return &Server{analyzer: analyzer, auth: authSvc, store: st, cache: cache, watchlist: watchlist}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Session-Token"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignup)
			r.Post("/login", s.handleLogin)
			r.Get("/validate", s.handleValidate)
			r.Post("/logout", s.handleLogout)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)

			r.Route("/analyze", func(r chi.Router) {
				r.Post("/question", s.handleAnalyzeQuestion)
				r.Post("/text", s.handleAnalyzeText)
				r.Post("/url", s.handleAnalyzeURL)
				r.Post("/file", s.handleAnalyzeFile)
				r.Post("/comprehensive", s.handleAnalyzeComprehensive)
			})

			r.Get("/user/info", s.handleUserInfo)
			r.Get("/user/history", s.handleUserHistory)
			r.Post("/cache/clear", s.handleCacheClear)
		})
	})

	return r
}

type ctxKey int

const userKey ctxKey = 0

// sessionMiddleware resolves the session token into a user and rejects the
// request when the token is missing, unknown or expired.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "session token required")
			return
		}

		user, err := s.auth.Validate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionToken reads the token from the Authorization bearer header or the
// X-Session-Token header.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.Header.Get("X-Session-Token")
}

func requestUser(r *http.Request) *model.User {
	u, _ := r.Context().Value(userKey).(*model.User)
	return u
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
