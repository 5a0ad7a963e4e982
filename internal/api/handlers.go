package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/trendlens/trendlens/internal/auth"
	"github.com/trendlens/trendlens/internal/insight"
	"github.com/trendlens/trendlens/internal/keywords"
	"github.com/trendlens/trendlens/internal/model"
	"github.com/trendlens/trendlens/internal/sentiment"
	"github.com/trendlens/trendlens/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- auth ---

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Plan     string `json:"plan,omitempty"`
}

type sessionResponse struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expires_at"`
}

func toSessionResponse(sess *model.Session) sessionResponse {
	return sessionResponse{
		Token:     sess.Token,
		Email:     sess.Email,
		ExpiresAt: sess.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.auth.Signup(r.Context(), req.Email, req.Password, req.Plan)
	if eris.Is(err, store.ErrDuplicateEmail) {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if eris.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		zap.L().Error("api: login", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "email": user.Email})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	_ = s.auth.Logout(r.Context(), sessionToken(r))
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// --- analysis ---

type analyzeRequest struct {
	Question string `json:"question,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
	Text     string `json:"text,omitempty"`
	URL      string `json:"url,omitempty"`
}

// analysisResponse is an AnalysisResult with the derived quality score.
type analysisResponse struct {
	model.AnalysisResult
	QualityScore float64 `json:"quality_score"`
}

// meter checks the user's quota bucket before work and returns a commit
// function to call once the analysis succeeded.
func (s *Server) meter(w http.ResponseWriter, r *http.Request, kind string) (commit func(), ok bool) {
	user := requestUser(r)

	err := s.store.CheckQuota(r.Context(), user.Email, kind)
	if eris.Is(err, store.ErrQuotaExceeded) {
		writeError(w, http.StatusPaymentRequired, "quota exceeded for your plan")
		return nil, false
	}
	if err != nil {
		zap.L().Error("api: quota check", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "quota check failed")
		return nil, false
	}

	return func() {
		if err := s.store.IncrementUsage(r.Context(), user.Email, kind); err != nil {
			zap.L().Error("api: increment usage", zap.String("email", user.Email), zap.Error(err))
		}
	}, true
}

// finish scores, persists and writes an analysis result.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, saveKind string, result model.AnalysisResult, commit func()) {
	if !result.Failed() {
		commit()
	}

	user := requestUser(r)
	if _, err := s.store.SaveAnalysis(r.Context(), user.Email, saveKind, result); err != nil {
		zap.L().Error("api: save analysis", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, analysisResponse{
		AnalysisResult: result,
		QualityScore:   insight.Score(result.Insights),
	})
}

func (s *Server) handleAnalyzeQuestion(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	commit, ok := s.meter(w, r, model.UsageQuestion)
	if !ok {
		return
	}

	result := s.analyzer.AnalyzeQuestion(r.Context(), req.Question, req.Keyword)
	s.finish(w, r, "question", result, commit)
}

func (s *Server) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	commit, ok := s.meter(w, r, model.UsageAnalysis)
	if !ok {
		return
	}

	result := s.analyzer.AnalyzeText(r.Context(), req.Text, req.Question, req.Keyword)
	s.finish(w, r, "text", result, commit)
}

func (s *Server) handleAnalyzeURL(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	commit, ok := s.meter(w, r, model.UsageAnalysis)
	if !ok {
		return
	}

	result := s.analyzer.AnalyzeURL(r.Context(), req.URL, req.Question, req.Keyword)
	s.finish(w, r, "url", result, commit)
}

func (s *Server) handleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	commit, ok := s.meter(w, r, model.UsageAnalysis)
	if !ok {
		return
	}

	result := s.analyzer.AnalyzeFile(r.Context(), header.Filename, data)
	s.finish(w, r, "file", result, commit)
}

// comprehensiveResponse combines the model analysis with the local sentiment
// and keyword passes.
type comprehensiveResponse struct {
	analysisResponse
	Sentiment sentiment.Result    `json:"sentiment"`
	Local     keywords.Extraction `json:"local_keywords"`
}

func (s *Server) handleAnalyzeComprehensive(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	commit, ok := s.meter(w, r, model.UsageSummary)
	if !ok {
		return
	}

	result := s.analyzer.AnalyzeText(r.Context(), req.Text, req.Question, req.Keyword)
	if !result.Failed() {
		commit()
	}

	user := requestUser(r)
	if _, err := s.store.SaveAnalysis(r.Context(), user.Email, "comprehensive", result); err != nil {
		zap.L().Error("api: save analysis", zap.Error(err))
	}

	local, err := keywords.Extract(req.Text, s.watchlist)
	if err != nil {
		zap.L().Warn("api: local keyword pass failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, comprehensiveResponse{
		analysisResponse: analysisResponse{
			AnalysisResult: result,
			QualityScore:   insight.Score(result.Insights),
		},
		Sentiment: sentiment.Analyze(req.Text),
		Local:     local,
	})
}

// --- user ---

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"email":  user.Email,
		"plan":   user.Plan,
		"usage":  user.Usage,
		"limits": user.Limits,
		"remaining": map[string]int{
			model.UsageSummary:  user.Remaining(model.UsageSummary),
			model.UsageAnalysis: user.Remaining(model.UsageAnalysis),
			model.UsageQuestion: user.Remaining(model.UsageQuestion),
		},
	})
}

func (s *Server) handleUserHistory(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := s.store.ListAnalyses(r.Context(), store.AnalysisFilter{
		Email: user.Email,
		Kind:  r.URL.Query().Get("kind"),
		Limit: limit,
	})
	if err != nil {
		zap.L().Error("api: list analyses", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load history")
		return
	}
	if items == nil {
		items = []model.SavedAnalysis{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"analyses": items})
}

// --- admin ---

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	if user.Plan != model.PlanAdmin {
		writeError(w, http.StatusForbidden, "admin plan required")
		return
	}

	size := s.cache.CacheSize()
	s.cache.ClearCache()

	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared", "entries": size})
}
