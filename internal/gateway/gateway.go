// Package gateway sends analysis prompts to the Anthropic messages API and
// memoizes replies by prompt hash. Failures never propagate as Go errors:
// every outcome is a text reply, with failures normalized to strings starting
// with "Error:". Callers branch on that prefix.
package gateway

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/trendlens/trendlens/internal/config"
	"github.com/trendlens/trendlens/pkg/anthropic"
)

// ErrEmptyPrompt is the reply for a blank prompt. No network call is made.
const ErrEmptyPrompt = "Error: Empty prompt provided"

// Gateway wraps an Anthropic client with a process-wide reply cache. The
// cache holds successes and failures alike, so a failing prompt keeps
// returning the same cached failure until ClearCache.
type Gateway struct {
	client anthropic.Client
	cfg    config.AnthropicConfig

	mu    sync.Mutex
	cache map[string]string
}

// New creates a Gateway with an empty cache.
func New(client anthropic.Client, cfg config.AnthropicConfig) *Gateway {
	return &Gateway{
		client: client,
		cfg:    cfg,
		cache:  make(map[string]string),
	}
}

// IsErrorReply reports whether a gateway reply carries a failure.
func IsErrorReply(reply string) bool {
	return strings.HasPrefix(reply, "Error")
}

// Invoke sends the prompt and returns the model's text reply. A second call
// with an identical prompt is served from cache without a network round trip.
func (g *Gateway) Invoke(ctx context.Context, prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}

	key := promptHash(prompt)

	g.mu.Lock()
	if cached, ok := g.cache[key]; ok {
		g.mu.Unlock()
		zap.L().Debug("gateway: cache hit", zap.String("prompt_hash", key))
		return cached
	}
	g.mu.Unlock()

	reply := g.call(ctx, prompt)

	g.mu.Lock()
	// Another request may have populated the key while we were on the wire;
	// keep the first reply so repeated invokes stay consistent.
	if racing, ok := g.cache[key]; ok {
		reply = racing
	} else {
		g.cache[key] = reply
	}
	g.mu.Unlock()

	return reply
}

// call performs the upstream request and normalizes every failure mode into
// an error-tagged string.
func (g *Gateway) call(ctx context.Context, prompt string) string {
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: &g.cfg.Temperature,
		TopK:        &g.cfg.TopK,
		TopP:        &g.cfg.TopP,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		zap.L().Error("gateway: model call failed", zap.Error(err))
		return "Error calling Claude: " + err.Error()
	}
	if resp == nil || len(resp.Content) == 0 {
		return "Error: Empty response from Claude"
	}

	text := resp.FirstText()
	if strings.TrimSpace(text) == "" {
		return "Error: Empty response from Claude"
	}

	resp.Usage.LogCost(g.cfg.Model, "analysis")
	return text
}

// ClearCache empties the reply cache.
func (g *Gateway) ClearCache() {
	g.mu.Lock()
	g.cache = make(map[string]string)
	g.mu.Unlock()
	zap.L().Info("gateway: cache cleared")
}

// CacheSize returns the number of cached replies.
func (g *Gateway) CacheSize() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cache)
}

func promptHash(prompt string) string {
	sum := md5.Sum([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
