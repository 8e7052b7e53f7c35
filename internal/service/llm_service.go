package service

import (
	"bytes"
	"campuswell_backend/internal/config"
	"campuswell_backend/internal/model"
	"campuswell_backend/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SignalExtractor turns raw message text into structured clinical
// signals. Implementations must not retain the message text.
type SignalExtractor interface {
	ExtractSignals(ctx context.Context, message string) (*model.MessageSignals, error)
}

// NarrativeGenerator produces the free-text portion of a crisis report.
type NarrativeGenerator interface {
	GenerateNarrative(ctx context.Context, systemMessage, prompt string, maxTokens int) (string, error)
}

type LLMService struct {
	config config.LLMConfig
	client *http.Client
}

func NewLLMService(cfg config.LLMConfig) *LLMService {
	return &LLMService{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type llmChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmChatRequest struct {
	Model       string           `json:"model"`
	Messages    []llmChatMessage `json:"messages"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature float64          `json:"temperature"`
}

type llmChatResponse struct {
	Choices []struct {
		Message llmChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const signalExtractionSystem = `You are a clinical language analysis engine for a university counseling service. ` +
	`Given a student message, respond with ONLY a JSON object with these keys: ` +
	`sentiment (float, -1 to 1), hopelessness_score (float, 0 to 1), isolation_score (float, 0 to 1), ` +
	`sleep_disruption (float, 0 to 1), academic_stress (float, 0 to 1), ` +
	`concern_indicators (array of short strings naming clinical concerns you observed, empty if none), ` +
	`safety_flags (array of short strings, ONLY for explicit self-harm or suicide risk, empty if none), ` +
	`emoji_count (int), emoji_sentiment (float, -1 to 1, 0 if no emoji). No prose, no markdown.`

func (s *LLMService) ExtractSignals(ctx context.Context, message string) (*model.MessageSignals, error) {
	content, err := s.complete(ctx, signalExtractionSystem, message, 0)
	if err != nil {
		return nil, err
	}

	content = stripCodeFence(content)

	var signals model.MessageSignals
	if err := json.Unmarshal([]byte(content), &signals); err != nil {
		return nil, fmt.Errorf("failed to parse signal extraction response: %w", err)
	}

	signals.Sentiment = clamp(signals.Sentiment, -1, 1)
	signals.HopelessnessScore = clamp(signals.HopelessnessScore, 0, 1)
	signals.IsolationScore = clamp(signals.IsolationScore, 0, 1)
	signals.SleepDisruption = clamp(signals.SleepDisruption, 0, 1)
	signals.AcademicStress = clamp(signals.AcademicStress, 0, 1)
	signals.EmojiSentiment = clamp(signals.EmojiSentiment, -1, 1)
	if signals.EmojiCount < 0 {
		signals.EmojiCount = 0
	}

	return &signals, nil
}

func (s *LLMService) GenerateNarrative(ctx context.Context, systemMessage, prompt string, maxTokens int) (string, error) {
	return s.complete(ctx, systemMessage, prompt, maxTokens)
}

func (s *LLMService) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	reqBody := llmChatRequest{
		Model: s.config.Model,
		Messages: []llmChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.1,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(s.config.BaseURL, "/")+"/chat/completions",
		bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		logger.Log.Warn("LLM returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return "", fmt.Errorf("llm returned status %d", resp.StatusCode)
	}

	var parsed llmChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode llm response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
