package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"questlog/internal/config"
	"questlog/internal/database"
	"questlog/internal/models"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// LLMService is the single choke point for all model calls. It resolves a
// provider from the database roster (falling back to the providers file,
// then to env config), paces outbound requests, and supports a test mode
// with canned responses keyed by substring-matching the outgoing prompt.
type LLMService struct {
	db      *database.DB
	cfg     *config.Config
	metrics *Metrics
	limiter *rate.Limiter
	client  *http.Client

	testMode bool

	mu            sync.RWMutex
	canned        []cannedResponse
	fileProviders []models.Provider
}

type cannedResponse struct {
	Match    string
	Response string
}

// NewLLMService creates a new LLM gateway
func NewLLMService(db *database.DB, cfg *config.Config, metrics *Metrics) *LLMService {
	return &LLMService{
		db:       db,
		cfg:      cfg,
		metrics:  metrics,
		limiter:  rate.NewLimiter(rate.Limit(cfg.LLMRateLimit), 1),
		client:   &http.Client{Timeout: cfg.LLMCallTimeout},
		testMode: cfg.LLMTestMode,
	}
}

// RegisterCannedResponse registers a test-mode response returned whenever the
// outgoing prompt contains match. Responses are checked in registration order.
func (s *LLMService) RegisterCannedResponse(match, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canned = append(s.canned, cannedResponse{Match: match, Response: response})
}

// Call sends a message list to the model provider and returns its reply.
// If opts.JSONSchema is set the provider is asked for strict structured
// output; the caller is still expected to run ParseJSONResponse on the
// content since not every provider honors response_format.
func (s *LLMService) Call(ctx context.Context, messages []models.LLMMessage, opts models.LLMCallOptions) (*models.LLMResult, error) {
	purpose := opts.SchemaName
	if purpose == "" {
		purpose = "chat"
	}

	if s.testMode {
		return s.cannedCall(messages, purpose)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &UpstreamCallError{Err: err}
	}

	provider, model := s.resolveProvider()
	if opts.Model != "" {
		model = opts.Model
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = s.cfg.LLMMaxTokens
	}

	requestBody := map[string]interface{}{
		"model":      model,
		"messages":   messages,
		"stream":     false,
		"max_tokens": maxTokens,
	}
	if opts.Temperature != nil {
		requestBody["temperature"] = *opts.Temperature
	}
	if opts.JSONSchema != nil {
		requestBody["response_format"] = map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   opts.SchemaName,
				"strict": true,
				"schema": opts.JSONSchema,
			},
		}
	}

	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", provider.BaseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+provider.APIKey)

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	if s.metrics != nil {
		s.metrics.LLMCalls.WithLabelValues(purpose).Inc()
		s.metrics.LLMCallLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.LLMErrors.WithLabelValues("call").Inc()
		}
		return nil, &UpstreamCallError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamCallError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️ [LLM] API error: %s", string(body))
		if s.metrics != nil {
			s.metrics.LLMErrors.WithLabelValues("status").Inc()
		}
		return nil, &UpstreamCallError{Err: fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))}
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, &UpstreamCallError{Err: fmt.Errorf("failed to parse API response: %w", err)}
	}

	if len(apiResponse.Choices) == 0 {
		return nil, &UpstreamCallError{Err: fmt.Errorf("no response from model %s", model)}
	}

	return &models.LLMResult{
		Content:    apiResponse.Choices[0].Message.Content,
		TokensUsed: apiResponse.Usage.TotalTokens,
	}, nil
}

// ParseJSONResponse decodes structured model output into out, stripping
// markdown code fences first. A failure here is an UpstreamParseError and
// aborts the caller's operation; no fallback content is substituted.
func (s *LLMService) ParseJSONResponse(content string, out interface{}) error {
	extracted := extractJSONFromLLM(content)
	if extracted == "" {
		if s.metrics != nil {
			s.metrics.LLMErrors.WithLabelValues("parse").Inc()
		}
		return &UpstreamParseError{Err: fmt.Errorf("no JSON object in response (length %d)", len(content))}
	}
	if err := json.Unmarshal([]byte(extracted), out); err != nil {
		if s.metrics != nil {
			s.metrics.LLMErrors.WithLabelValues("parse").Inc()
		}
		log.Printf("⚠️ [LLM] Failed to parse structured output: %v (response length: %d bytes)", err, len(content))
		return &UpstreamParseError{Err: err}
	}
	return nil
}

// cannedCall serves test mode: the outgoing prompt (all message contents
// concatenated) is substring-matched against registered responses.
func (s *LLMService) cannedCall(messages []models.LLMMessage, purpose string) (*models.LLMResult, error) {
	var prompt strings.Builder
	for _, m := range messages {
		prompt.WriteString(m.Content)
		prompt.WriteString("\n")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.canned {
		if strings.Contains(prompt.String(), c.Match) {
			return &models.LLMResult{Content: c.Response}, nil
		}
	}

	return nil, &UpstreamCallError{Err: fmt.Errorf("no canned response for %s prompt", purpose)}
}

// resolveProvider picks the provider for the next call: database roster
// first, then the hot-reloaded providers file, then env config.
func (s *LLMService) resolveProvider() (models.Provider, string) {
	if s.db != nil {
		var p models.Provider
		err := s.db.QueryRow(`
			SELECT id, name, base_url, api_key, default_model
			FROM llm_providers
			WHERE enabled = 1
			ORDER BY name
			LIMIT 1
		`).Scan(&p.ID, &p.Name, &p.BaseURL, &p.APIKey, &p.DefaultModel)
		if err == nil {
			model := p.DefaultModel
			if model == "" {
				model = s.cfg.LLMModel
			}
			return p, model
		}
		if err != sql.ErrNoRows {
			log.Printf("⚠️ [LLM] Provider query failed: %v", err)
		}
	}

	s.mu.RLock()
	fileProviders := s.fileProviders
	s.mu.RUnlock()

	for _, p := range fileProviders {
		if p.Enabled {
			model := p.DefaultModel
			if model == "" {
				model = s.cfg.LLMModel
			}
			return p, model
		}
	}

	return models.Provider{
		Name:    "default",
		BaseURL: s.cfg.LLMBaseURL,
		APIKey:  s.cfg.LLMAPIKey,
	}, s.cfg.LLMModel
}

// LoadProvidersFile loads the providers JSON file into the fallback roster
func (s *LLMService) LoadProvidersFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read providers file: %w", err)
	}

	var cfg models.ProvidersConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse providers JSON: %w", err)
	}

	s.mu.Lock()
	s.fileProviders = cfg.Providers
	s.mu.Unlock()

	log.Printf("✅ [LLM] Loaded %d providers from %s", len(cfg.Providers), path)
	return nil
}

// WatchProvidersFile hot-reloads the providers file on change. Returns the
// watcher so the caller can Close it on shutdown.
func (s *LLMService) WatchProvidersFile(path string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
					log.Printf("🔄 [LLM] Providers file changed, reloading...")
					if err := s.LoadProvidersFile(path); err != nil {
						log.Printf("⚠️ [LLM] Reload failed: %v", err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️ [LLM] Watcher error: %v", err)
			}
		}
	}()

	log.Printf("👀 [LLM] Watching providers file: %s", path)
	return watcher, nil
}

// extractJSONFromLLM extracts a JSON object from a string that may contain
// markdown code blocks
func extractJSONFromLLM(s string) string {
	if idx := strings.Index(s, "```json"); idx >= 0 {
		start := idx + 7
		end := strings.Index(s[start:], "```")
		if end >= 0 {
			return strings.TrimSpace(s[start : start+end])
		}
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		start := idx + 3
		if nlIdx := strings.Index(s[start:], "\n"); nlIdx >= 0 {
			start += nlIdx + 1
		}
		end := strings.Index(s[start:], "```")
		if end >= 0 {
			candidate := strings.TrimSpace(s[start : start+end])
			if strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	if idx := strings.Index(s, "{"); idx >= 0 {
		depth := 0
		for i := idx; i < len(s); i++ {
			switch s[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[idx : i+1]
				}
			}
		}
	}

	return ""
}
