package search

import "context"

// Type selects which corpus a query runs against.
type Type string

const (
	// TypeWeb queries the external web search API.
	TypeWeb Type = "web"
	// TypeHistory queries the vector index of past stories.
	TypeHistory Type = "history"
)

type Request struct {
	Query      string `json:"query"`
	SearchType Type   `json:"search_type"`
}

type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	StoryID string `json:"story_id,omitempty"`
}

type Response struct {
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

// Embedder turns a query or story text into the vector used for history
// search. The production embedder lives behind the LLM service; a noop
// implementation keeps the backend functional without it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
