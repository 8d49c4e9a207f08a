package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/eleven-am/newsdesk/internal/story"
)

const historyLimit = 10

// Config points the web search path at the external search API.
type Config struct {
	Endpoint string
	APIKey   string
}

// StoryFinder hydrates history search hits back into full stories.
type StoryFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]story.Story, error)
}

// HistoryIndex is the vector store behind history search.
type HistoryIndex interface {
	Search(ctx context.Context, embedding []float32, limit int) ([]string, error)
	UpsertStory(ctx context.Context, storyID string, embedding []float32) error
	DeleteStory(ctx context.Context, storyID string) error
}

type Service struct {
	cfg      Config
	client   *http.Client
	index    HistoryIndex
	stories  StoryFinder
	embedder Embedder
	logger   *slog.Logger
}

func NewService(cfg Config, index HistoryIndex, stories StoryFinder, embedder Embedder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		client:   http.DefaultClient,
		index:    index,
		stories:  stories,
		embedder: embedder,
		logger:   logger.With("component", "search"),
	}
}

// IndexStory embeds a story's text and stores it for history search.
func (s *Service) IndexStory(ctx context.Context, st story.Story) error {
	embedding, err := s.embedder.Embed(ctx, st.Title+"\n"+st.Summary)
	if err != nil {
		return fmt.Errorf("embed story: %w", err)
	}
	return s.index.UpsertStory(ctx, st.ID, embedding)
}

func (s *Service) RemoveStory(ctx context.Context, id string) error {
	return s.index.DeleteStory(ctx, id)
}

func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	switch req.SearchType {
	case TypeHistory:
		return s.searchHistory(ctx, req.Query)
	default:
		return s.searchWeb(ctx, req.Query)
	}
}

type webSearchRequest struct {
	Query string `json:"query"`
}

type webSearchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

func (s *Service) searchWeb(ctx context.Context, query string) (*Response, error) {
	payload, err := json.Marshal(webSearchRequest{Query: query})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
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
		return nil, fmt.Errorf("search api responded with %d", resp.StatusCode)
	}

	var body webSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	out := &Response{Answer: body.Answer, Results: make([]Result, 0, len(body.Results))}
	for _, r := range body.Results {
		out.Results = append(out.Results, Result{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return out, nil
}

func (s *Service) searchHistory(ctx context.Context, query string) (*Response, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ids, err := s.index.Search(ctx, embedding, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}

	stories, err := s.stories.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate stories: %w", err)
	}

	out := &Response{Results: make([]Result, 0, len(stories))}
	for _, st := range stories {
		out.Results = append(out.Results, Result{
			Title:   st.Title,
			Snippet: st.Summary,
			StoryID: st.ID,
		})
	}
	return out, nil
}
