package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendlens/trendlens/internal/auth"
	"github.com/trendlens/trendlens/internal/model"
	"github.com/trendlens/trendlens/internal/store"
)

// fakeAnalyzer returns canned results and records calls.
type fakeAnalyzer struct {
	result model.AnalysisResult
	calls  int
}

func okResult() model.AnalysisResult {
	return model.AnalysisResult{
		Keywords: []string{"Market Analysis"},
		Insights: map[string]model.KeywordInsights{
			"Market Analysis": {Titles: []string{"t"}, Actions: []string{"do the thing"}},
		},
		FullResponse: "raw",
		AnalysisID:   "cafe0123",
	}
}

func (f *fakeAnalyzer) AnalyzeQuestion(_ context.Context, _, _ string) model.AnalysisResult {
	f.calls++
	return f.result
}

func (f *fakeAnalyzer) AnalyzeText(_ context.Context, _, _, _ string) model.AnalysisResult {
	f.calls++
	return f.result
}

func (f *fakeAnalyzer) AnalyzeFile(_ context.Context, filename string, _ []byte) model.AnalysisResult {
	f.calls++
	r := f.result
	r.Filename = filename
	return r
}

func (f *fakeAnalyzer) AnalyzeURL(_ context.Context, url, _, _ string) model.AnalysisResult {
	f.calls++
	r := f.result
	r.URL = url
	return r
}

type fakeCache struct{ cleared bool }

func (f *fakeCache) ClearCache()    { f.cleared = true }
func (f *fakeCache) CacheSize() int { return 3 }

type testEnv struct {
	srv      *httptest.Server
	analyzer *fakeAnalyzer
	cache    *fakeCache
	store    store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	analyzer := &fakeAnalyzer{result: okResult()}
	cache := &fakeCache{}
	server := NewServer(analyzer, auth.New(st, time.Hour), st, cache, []string{"Apple", "Tesla"})

	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, analyzer: analyzer, cache: cache, store: st}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck

	var decoded map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (e *testEnv) signup(t *testing.T, email, plan string) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": email, "password": "longenough", "plan": plan,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var token string
	require.NoError(t, json.Unmarshal(body["token"], &token))
	return token
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `"ok"`, string(body["status"]))
}

func TestSignupLoginValidateLogout(t *testing.T) {
	e := newTestEnv(t)

	token := e.signup(t, "flow@example.com", "")

	resp, _ := e.do(t, http.MethodGet, "/api/auth/validate", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "flow@example.com", "password": "longenough",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = e.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/auth/validate", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignup_Duplicate(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "dup@example.com", "")

	resp, _ := e.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "dup@example.com", "password": "longenough",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogin_BadCredentials(t *testing.T) {
	e := newTestEnv(t)
	e.signup(t, "b@example.com", "")

	resp, _ := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "b@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAnalyzeRequiresSession(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/api/analyze/question", "", map[string]string{"question": "q"})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, e.analyzer.calls)
}

func TestAnalyzeQuestion(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "q@example.com", "")

	resp, body := e.do(t, http.MethodPost, "/api/analyze/question", token, map[string]string{
		"question": "How do we grow?",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, e.analyzer.calls)

	var kws []string
	require.NoError(t, json.Unmarshal(body["keywords"], &kws))
	assert.Equal(t, []string{"Market Analysis"}, kws)
	assert.NotEmpty(t, body["quality_score"])
}

func TestAnalyzeQuestion_QuotaExhausted(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "quota@example.com", "")

	// Free plan allows 20 question calls.
	for i := 0; i < 20; i++ {
		resp, _ := e.do(t, http.MethodPost, "/api/analyze/question", token, map[string]string{"question": "q"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, _ := e.do(t, http.MethodPost, "/api/analyze/question", token, map[string]string{"question": "q"})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, 20, e.analyzer.calls, "metered-out call must not reach the pipeline")
}

func TestAnalyze_FailedResultNotMetered(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "fail@example.com", "")
	e.analyzer.result = model.ErrorResult("Error: Empty response from Claude", "")

	for i := 0; i < 25; i++ {
		resp, _ := e.do(t, http.MethodPost, "/api/analyze/question", token, map[string]string{"question": "q"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	u, err := e.store.GetUser(context.Background(), "fail@example.com")
	require.NoError(t, err)
	assert.Zero(t, u.Usage.Question, "failed analyses do not consume quota")
}

func TestAnalyzeURL(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "u@example.com", "")

	resp, body := e.do(t, http.MethodPost, "/api/analyze/url", token, map[string]string{
		"url": "https://example.com/page",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `"https://example.com/page"`, string(body["url"]))

	resp, _ = e.do(t, http.MethodPost, "/api/analyze/url", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeFile(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "f@example.com", "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("quarterly revenue notes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/api/analyze/file", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, `"notes.txt"`, string(body["filename"]))
}

func TestAnalyzeComprehensive(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "c@example.com", "")

	resp, body := e.do(t, http.MethodPost, "/api/analyze/comprehensive", token, map[string]string{
		"text": "Apple reported excellent growth in subscription revenue this quarter.",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["sentiment"])
	assert.NotEmpty(t, body["local_keywords"])
	assert.NotEmpty(t, body["keywords"])
}

func TestUserInfoAndHistory(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "info@example.com", "")

	resp, _ := e.do(t, http.MethodPost, "/api/analyze/question", token, map[string]string{"question": "q"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := e.do(t, http.MethodGet, "/api/user/info", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `"Free Plan"`, string(body["plan"]))

	var usage model.UsageCounts
	require.NoError(t, json.Unmarshal(body["usage"], &usage))
	assert.Equal(t, 1, usage.Question)

	resp, body = e.do(t, http.MethodGet, "/api/user/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []model.SavedAnalysis
	require.NoError(t, json.Unmarshal(body["analyses"], &items))
	require.Len(t, items, 1)
	assert.Equal(t, "question", items[0].Kind)
}

func TestCacheClear_AdminOnly(t *testing.T) {
	e := newTestEnv(t)

	userToken := e.signup(t, "user@example.com", "")
	resp, _ := e.do(t, http.MethodPost, "/api/cache/clear", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, e.cache.cleared)

	adminToken := e.signup(t, "admin@example.com", model.PlanAdmin)
	resp, body := e.do(t, http.MethodPost, "/api/cache/clear", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, e.cache.cleared)
	assert.Equal(t, "3", strings.TrimSpace(string(body["entries"])))
}
