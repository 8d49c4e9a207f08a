package briefing

import "time"

// Briefing is one produced audio news briefing. AudioFilename points at the
// rendered file on the audio CDN and is what the audio proxy route serves.
type Briefing struct {
	ID            string    `gorm:"primaryKey" json:"_id"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary,omitempty"`
	AudioFilename string    `json:"audio_filename"`
	DurationSec   int       `json:"duration_sec,omitempty"`
	PublishedAt   time.Time `gorm:"index" json:"published_at"`
	CreatedAt     time.Time `json:"-"`
}
