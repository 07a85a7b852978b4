// Package filename names downloaded media and archives.
//
// Names are derived on demand and never cached. The functions here never
// read a clock; a caller that wants timestamped names passes the time in.
package filename

import (
	"fmt"
	"time"

	"threadsdl/pkg/models"
)

// Prefix marks files produced by this tool
const Prefix = "threads_"

// Options describe one media file to name
type Options struct {
	Type  models.MediaType
	Index int
	Post  *models.PostInfo

	// UseTimestamp selects the timestamped form when the post identity is
	// unknown. Timestamp must be set when it is true.
	UseTimestamp bool
	Timestamp    time.Time

	AddPrefix bool
}

func prefix(add bool) string {
	if add {
		return Prefix
	}
	return ""
}

// Generate returns the filename for one media item. Post identity wins,
// then the timestamped form, then the bare type and index.
func Generate(opts Options) string {
	p := prefix(opts.AddPrefix)
	ext := opts.Type.Extension()

	if opts.Post.Complete() {
		return fmt.Sprintf("%s%s-%s-%d%s", p, opts.Post.Username, opts.Post.PostID, opts.Index, ext)
	}
	if opts.UseTimestamp {
		return fmt.Sprintf("%s%s_%d-%d%s", p, opts.Type, opts.Timestamp.UnixMilli(), opts.Index, ext)
	}
	return fmt.Sprintf("%s%s_%d%s", p, opts.Type, opts.Index, ext)
}

// GenerateZip returns the archive name for the media of post selected by
// scope
func GenerateZip(post *models.PostInfo, addPrefix bool, scope models.Scope) string {
	p := prefix(addPrefix)
	if post.Complete() {
		return fmt.Sprintf("%s%s-%s-%s.zip", p, post.Username, post.PostID, scope)
	}
	return fmt.Sprintf("%s%s.zip", p, scope)
}
