package story

import (
	"time"

	"github.com/eleven-am/newsdesk/internal/shared"
)

// Story is one curated news event on the feed.
type Story struct {
	ID        string             `gorm:"primaryKey" json:"_id"`
	Title     string             `json:"title"`
	Summary   string             `json:"summary"`
	Date      time.Time          `json:"date"`
	Sources   shared.StringSlice `gorm:"type:text" json:"sources,omitempty"`
	Research  string             `json:"research,omitempty"`
	CreatedAt time.Time          `gorm:"index" json:"-"`
}
