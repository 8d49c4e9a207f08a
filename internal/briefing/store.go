package briefing

import (
	"context"
	"errors"

	"github.com/eleven-am/newsdesk/internal/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Briefing{})
}

func (s *Store) Create(ctx context.Context, b *Briefing) error {
	if b.ID == "" {
		b.ID = shared.NewID("brief_")
	}
	if b.AudioFilename == "" {
		b.AudioFilename = uuid.NewString() + ".wav"
	}
	return s.db.WithContext(ctx).Create(b).Error
}

func (s *Store) Latest(ctx context.Context) (*Briefing, error) {
	var b Briefing
	err := s.db.WithContext(ctx).Order("published_at DESC").First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &b, err
}
