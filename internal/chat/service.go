package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBaseURL = "https://api.perplexity.ai"
	modelName      = "sonar"
	maxTokens      = 2048
)

// ErrNotConfigured is returned before any upstream call when the API key is
// missing.
var ErrNotConfigured = errors.New("chat api key not configured")

// citationMarker matches inline reference markers like [1] that the
// completion model sprinkles through its answers.
var citationMarker = regexp.MustCompile(`\[\d+\]`)

// markdownLink pulls URLs out of markdown links when the upstream returns no
// structured citations.
var markdownLink = regexp.MustCompile(`\[[^\[\]]+\]\((https?://[^\s()]+)\)`)

// Config points the assistant at the completion API.
type Config struct {
	BaseURL string
	APIKey  string
}

type Service struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewService(cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Service{
		cfg:    cfg,
		client: http.DefaultClient,
		logger: logger.With("component", "chat"),
		now:    time.Now,
	}
}

type completionMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model                 string              `json:"model"`
	Messages              []completionMessage `json:"messages"`
	MaxTokens             int                 `json:"max_tokens"`
	SearchAfterDateFilter string              `json:"search_after_date_filter"`
	ReturnCitations       bool                `json:"return_citations"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations     []string `json:"citations"`
	SearchResults []struct {
		URL string `json:"url"`
	} `json:"search_results"`
}

// Reply runs one assistant turn: the system prompt, the prior conversation,
// and the new message go upstream; the answer comes back with citation
// markers stripped and source URLs collected.
func (s *Service) Reply(ctx context.Context, message string, conversation []Message) (*Message, error) {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}

	today := s.now()
	messages := make([]completionMessage, 0, len(conversation)+2)
	messages = append(messages, completionMessage{
		Role: "system",
		Content: fmt.Sprintf(
			"You are a helpful news search assistant. Today is %s. You specialize in finding and summarizing current news, events, and information from reliable sources. Always provide accurate, up-to-date information.",
			today.Format("Monday, January 2, 2006"),
		),
	})
	for _, msg := range conversation {
		role := RoleAssistant
		if msg.Role == RoleUser {
			role = RoleUser
		}
		messages = append(messages, completionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, completionMessage{Role: RoleUser, Content: message})

	payload, err := json.Marshal(completionRequest{
		Model:     modelName,
		Messages:  messages,
		MaxTokens: maxTokens,
		// Month/day/year without zero padding, the format the search
		// filter expects.
		SearchAfterDateFilter: fmt.Sprintf("%d/%d/%d", today.Month(), today.Day(), today.Year()),
		ReturnCitations:       true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion api responded with %d", resp.StatusCode)
	}

	var body completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	if len(body.Choices) == 0 || strings.TrimSpace(body.Choices[0].Message.Content) == "" {
		return nil, errors.New("empty completion")
	}

	content := strings.TrimSpace(citationMarker.ReplaceAllString(body.Choices[0].Message.Content, ""))

	return &Message{
		ID:        uuid.NewString(),
		Content:   content,
		Role:      RoleAssistant,
		Timestamp: s.now(),
		Sources:   collectSources(body, content),
	}, nil
}

// collectSources prefers the structured citations, falls back to search
// result URLs, then to markdown links embedded in the answer itself.
// Duplicates and blanks are dropped, first occurrence wins.
func collectSources(body completionResponse, content string) []string {
	var sources []string
	sources = append(sources, body.Citations...)
	for _, r := range body.SearchResults {
		sources = append(sources, r.URL)
	}

	if len(sources) == 0 {
		for _, match := range markdownLink.FindAllStringSubmatch(content, -1) {
			sources = append(sources, match[1])
		}
	}

	seen := make(map[string]bool, len(sources))
	out := make([]string, 0, len(sources))
	for _, url := range sources {
		url = strings.TrimSpace(url)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		out = append(out, url)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
