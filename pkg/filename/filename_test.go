package filename

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"threadsdl/pkg/models"
)

func TestGenerate(t *testing.T) {
	john := &models.PostInfo{Username: "john", PostID: "ABC123"}
	at := time.UnixMilli(1700000000123)

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "post identity",
			opts: Options{Type: models.MediaTypeVideo, Index: 3, Post: john, AddPrefix: true},
			want: "threads_john-ABC123-3.mp4",
		},
		{
			name: "post identity without prefix",
			opts: Options{Type: models.MediaTypeImage, Index: 1, Post: john},
			want: "john-ABC123-1.jpg",
		},
		{
			name: "identity beats timestamp",
			opts: Options{Type: models.MediaTypeImage, Index: 2, Post: john, UseTimestamp: true, Timestamp: at, AddPrefix: true},
			want: "threads_john-ABC123-2.jpg",
		},
		{
			name: "timestamp",
			opts: Options{Type: models.MediaTypeVideo, Index: 1, UseTimestamp: true, Timestamp: at, AddPrefix: true},
			want: "threads_video_1700000000123-1.mp4",
		},
		{
			name: "partial identity",
			opts: Options{Type: models.MediaTypeImage, Index: 4, Post: &models.PostInfo{Username: "john"}, AddPrefix: true},
			want: "threads_image_4.jpg",
		},
		{
			name: "bare",
			opts: Options{Type: models.MediaTypeVideo, Index: 3},
			want: "video_3.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.opts))
		})
	}
}

func TestGenerateIsPure(t *testing.T) {
	opts := Options{Type: models.MediaTypeVideo, Index: 1, UseTimestamp: true, Timestamp: time.UnixMilli(42)}
	assert.Equal(t, Generate(opts), Generate(opts))
}

func TestGenerateZip(t *testing.T) {
	john := &models.PostInfo{Username: "john", PostID: "ABC123"}

	assert.Equal(t, "threads_john-ABC123-video.zip", GenerateZip(john, true, models.ScopeVideo))
	assert.Equal(t, "threads_john-ABC123-all.zip", GenerateZip(john, true, models.ScopeAll))
	assert.Equal(t, "john-ABC123-image.zip", GenerateZip(john, false, models.ScopeImage))
	assert.Equal(t, "threads_all.zip", GenerateZip(nil, true, models.ScopeAll))
	assert.Equal(t, "image.zip", GenerateZip(nil, false, models.ScopeImage))
}
