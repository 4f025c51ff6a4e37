// Package record defines the canonical conversation record produced by
// every extractor and persisted in the year stores.
//
// A record is a (timestamp, sender, text, source) tuple. The timestamp is
// always in the canonical layout, which is zero-padded and field-ordered so
// that lexicographic string order equals chronological order. The source is
// an opaque descriptor combining the originating file and, for archives, an
// inner path or derived conversation label; it is how the assembler later
// recovers "which platform" and "who was this chat with".
package record

import (
	"strconv"
	"strings"
)

// TimestampLayout is the canonical timestamp format for persisted records.
const TimestampLayout = "2006-01-02 15:04:05"

// Sentinel sender names emitted by extractors for non-conversation records.
const (
	SenderSystem  = "System"
	SenderUnknown = "Unknown"
)

// Record is the normalized unit of conversation.
type Record struct {
	Timestamp string `json:"timestamp"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Source    string `json:"source"`
}

// Year returns the calendar year encoded in the first four characters of
// the timestamp. ok is false when they do not parse to a positive year.
func (r Record) Year() (int, bool) {
	if len(r.Timestamp) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(r.Timestamp[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// Equal reports field-wise equality across all four attributes. Used by the
// partitioner's adjacent deduplication.
func (r Record) Equal(other Record) bool {
	return r.Timestamp == other.Timestamp &&
		r.Sender == other.Sender &&
		r.Text == other.Text &&
		r.Source == other.Source
}

// Platform is the classification of a record's source descriptor.
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformDiscord   Platform = "discord"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformOther     Platform = "other"
)

// ClassifySource maps a source descriptor to a platform by substring match.
// Anything that names no known platform is PlatformOther.
func ClassifySource(source string) Platform {
	s := strings.ToLower(source)
	switch {
	case strings.Contains(s, "whatsapp"):
		return PlatformWhatsApp
	case strings.Contains(s, "discord"):
		return PlatformDiscord
	case strings.Contains(s, "instagram"):
		return PlatformInstagram
	case strings.Contains(s, "facebook"):
		return PlatformFacebook
	default:
		return PlatformOther
	}
}
