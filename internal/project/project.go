package project

import (
	"strconv"
	"time"
)

// Generation is one produced image+description pair.
type Generation struct {
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
}

// SavedProject groups the generations of one working session. The preview
// image mirrors the first generation's image as of the last save.
type SavedProject struct {
	ID           string       `json:"id"`
	Generations  []Generation `json:"generations"`
	Timestamp    string       `json:"timestamp"`
	PreviewImage string       `json:"previewImage"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// NewID returns a fresh project identifier: the current unix-milli timestamp
// as a decimal string.
func NewID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// New builds a project around its first generations. The display timestamp
// and preview are derived here; Save refreshes the preview on every write.
func New(id string, generations []Generation) SavedProject {
	now := time.Now()

	p := SavedProject{
		ID:          id,
		Generations: generations,
		Timestamp:   now.Format("2006-01-02 15:04"),
		CreatedAt:   now,
	}
	if len(generations) > 0 {
		p.PreviewImage = generations[0].ImageURL
	}
	return p
}
