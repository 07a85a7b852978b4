// Package metadata writes a JSON sidecar next to every downloaded file
// describing the post and media it came from.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"threadsdl/pkg/models"
)

// Ext is appended to a media path to name its sidecar
const Ext = ".json"

// MediaMetadata describes one downloaded media file
type MediaMetadata struct {
	URL       string           `json:"url"`
	Type      models.MediaType `json:"type"`
	Index     int              `json:"index"`
	Thumbnail string           `json:"thumbnail,omitempty"`
	Filename  string           `json:"filename"`
	FileSize  int64            `json:"file_size,omitempty"`

	Post *models.PostInfo `json:"post,omitempty"`
	Page string           `json:"page,omitempty"`

	DownloadedAt time.Time `json:"downloaded_at"`
}

// FromItem describes item of post as saved under filename. post may be nil
// when the page did not reveal it.
func FromItem(item *models.MediaItem, post *models.PostInfo, filename, page string, at time.Time) *MediaMetadata {
	meta := &MediaMetadata{
		URL:          item.URL,
		Type:         item.Type,
		Index:        item.Index,
		Thumbnail:    item.Thumbnail,
		Filename:     filename,
		Page:         page,
		DownloadedAt: at,
	}
	if post.Complete() {
		p := *post
		meta.Post = &p
	}
	return meta
}

// Save writes the sidecar of mediaPath, filling in the file size
func (m *MediaMetadata) Save(mediaPath string) error {
	if info, err := os.Stat(mediaPath); err == nil {
		m.FileSize = info.Size()
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(mediaPath+Ext, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

// Load reads the sidecar of mediaPath
func Load(mediaPath string) (*MediaMetadata, error) {
	data, err := os.ReadFile(mediaPath + Ext)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta MediaMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &meta, nil
}
