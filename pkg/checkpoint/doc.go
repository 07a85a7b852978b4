// Package checkpoint remembers which media a download folder already holds.
//
// Repeated runs over the same feed see the same posts again. The checkpoint
// records every media URL that was saved, together with the filename it was
// saved under, so a later run can skip it:
//   - one checkpoint file per download folder
//   - keyed by media URL, since filenames may carry a timestamp
//   - written atomically after every recorded download
//
// A missing or unreadable file only means nothing is skipped.
package checkpoint
