package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"deskmates.dev/internal/config"
)

var (
	// ErrEmptyMessage is returned for blank chat input
	ErrEmptyMessage = errors.New("message is required")
	// ErrMalformedResponse is returned when the upstream reply has no message
	ErrMalformedResponse = errors.New("invalid response format from AI")
)

// UpstreamError is returned when the chat provider answers with a non-2xx status
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("chat provider returned status %d", e.Status)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatService relays single-turn messages to a chat-completion API
type ChatService struct {
	cfg    config.ChatConfig
	client *http.Client
	log    logrus.FieldLogger
}

// NewChatService creates a new ChatService. A nil client gets one with the
// configured timeout.
func NewChatService(cfg config.ChatConfig, client *http.Client, log logrus.FieldLogger) *ChatService {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &ChatService{
		cfg:    cfg,
		client: client,
		log:    log.WithField("component", "chat"),
	}
}

// Send forwards message and returns the assistant's reply
func (s *ChatService) Send(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	body, err := json.Marshal(completionRequest{
		Model:       s.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: message}},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling chat provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		s.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(detail),
		}).Warn("chat provider error")
		return "", &UpstreamError{Status: resp.StatusCode}
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message == nil || out.Choices[0].Message.Content == nil {
		return "", ErrMalformedResponse
	}
	return *out.Choices[0].Message.Content, nil
}
