package story

import (
	"context"
	"errors"

	"github.com/eleven-am/newsdesk/internal/shared"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Page is one cursor window of the feed, newest first. NextCursor is the ID
// of the last story in the window and feeds the next request's `before`.
type Page struct {
	Stories    []Story `json:"stories"`
	NextCursor string  `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Story{})
}

func (s *Store) Create(ctx context.Context, st *Story) error {
	if st.ID == "" {
		st.ID = shared.NewID("story_")
	}
	return s.db.WithContext(ctx).Create(st).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*Story, error) {
	var st Story
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &st, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Story{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByIDs returns the stories for the given IDs preserving input order;
// unknown IDs are skipped.
func (s *Store) FindByIDs(ctx context.Context, ids []string) ([]Story, error) {
	if len(ids) == 0 {
		return []Story{}, nil
	}

	var rows []Story
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]Story, len(rows))
	for _, st := range rows {
		byID[st.ID] = st
	}

	ordered := make([]Story, 0, len(rows))
	for _, id := range ids {
		if st, ok := byID[id]; ok {
			ordered = append(ordered, st)
		}
	}
	return ordered, nil
}

// List pages through stories newest first. The cursor is a story ID; rows
// strictly older than the cursor row are returned. A blank cursor starts at
// the top. Limits outside 1..50 are clamped.
func (s *Store) List(ctx context.Context, before string, limit int) (*Page, error) {
	limit = clampLimit(limit)

	q := s.db.WithContext(ctx).Model(&Story{}).
		Order("created_at DESC").Order("id DESC")

	if before != "" {
		pivot, err := s.GetByID(ctx, before)
		if err != nil {
			return nil, err
		}
		q = q.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			pivot.CreatedAt, pivot.CreatedAt, pivot.ID,
		)
	}

	// Fetch one extra row to learn whether another page exists.
	var rows []Story
	if err := q.Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	page := &Page{HasMore: len(rows) > limit}
	if page.HasMore {
		rows = rows[:limit]
	}
	page.Stories = rows
	if page.HasMore && len(rows) > 0 {
		page.NextCursor = rows[len(rows)-1].ID
	}
	return page, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
