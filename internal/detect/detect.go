// Package detect classifies input files into source kinds.
//
// Classification is read-only: plain files are classified by extension and
// filename, archives by listing their inner entries without extracting.
// Detection never returns an error; archives that cannot be inspected
// degrade to KindBadZip or KindUnknownZip.
package detect

import (
	"archive/zip"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind identifies the source platform and container of an input file.
type Kind string

const (
	KindWhatsAppTxt  Kind = "whatsapp_txt"
	KindWhatsAppZip  Kind = "whatsapp_zip"
	KindDiscordZip   Kind = "discord_zip"
	KindInstagramZip Kind = "instagram_zip"
	KindFacebookZip  Kind = "facebook_zip"
	KindRedditZip    Kind = "reddit_zip"
	KindGenericZip   Kind = "generic_zip"
	KindBadZip       Kind = "bad_zip"
	KindUnknownZip   Kind = "unknown_zip"
	KindTxt          Kind = "txt"
	KindHTML         Kind = "html"
	KindImage        Kind = "image"
	KindUnknown      Kind = "unknown"
)

// IsZip reports whether the kind describes a zip container, including the
// degenerate bad/unknown ones.
func (k Kind) IsZip() bool {
	return strings.HasSuffix(string(k), "_zip")
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

var (
	fbMessageJSONRE   = regexp.MustCompile(`^messages/inbox/.*/message_\d+\.json`)
	discordChannelRE  = regexp.MustCompile(`^messages/c\d+/channel\.json`)
	discordMessagesRE = regexp.MustCompile(`^messages/c\d+/messages\.json`)
)

// Source classifies a single input file.
func Source(path string) Kind {
	filename := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(filename)

	switch {
	case ext == ".zip":
		return classifyZip(path, filename)
	case ext == ".txt":
		if strings.Contains(filename, "whatsapp chat with") {
			return KindWhatsAppTxt
		}
		return KindTxt
	case imageExts[ext]:
		return KindImage
	case ext == ".html" || ext == ".htm":
		return KindHTML
	default:
		return KindUnknown
	}
}

// classifyZip lists the archive entries and matches structural signatures
// in a fixed precedence order: WhatsApp, Facebook, Instagram, Reddit,
// Discord, then generic.
func classifyZip(path, filename string) Kind {
	z, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return KindBadZip
		}
		return KindUnknownZip
	}
	defer z.Close()

	names := make([]string, 0, len(z.File))
	for _, f := range z.File {
		names = append(names, strings.ToLower(f.Name))
	}

	if anyContains(names, "_chat.txt") || anyContains(names, "whatsapp") ||
		strings.Contains(filename, "whatsapp chat with") {
		return KindWhatsAppZip
	}

	hasFBInbox := false
	hasFBMessageJSON := false
	for _, n := range names {
		if strings.HasPrefix(n, "messages/inbox/") && n != "messages/inbox/" {
			hasFBInbox = true
		}
		if fbMessageJSONRE.MatchString(n) {
			hasFBMessageJSON = true
		}
	}
	if hasFBInbox && hasFBMessageJSON {
		return KindFacebookZip
	}
	if anyContains(names, "facebook") || anyEquals(names, "your_posts_1.json") {
		return KindFacebookZip
	}

	for _, n := range names {
		if strings.HasPrefix(n, "your_instagram_activity/messages/inbox/") {
			return KindInstagramZip
		}
	}
	if anyContains(names, "instagram") || anyEquals(names, "messages.json") {
		return KindInstagramZip
	}

	if anyContains(names, "reddit") {
		return KindRedditZip
	}

	hasMessagesDir := false
	hasChannelJSON := false
	hasMessagesJSON := false
	for _, n := range names {
		if strings.HasPrefix(n, "messages/") && n != "messages/" {
			hasMessagesDir = true
		}
		if discordChannelRE.MatchString(n) {
			hasChannelJSON = true
		}
		if discordMessagesRE.MatchString(n) {
			hasMessagesJSON = true
		}
	}
	if hasMessagesDir && hasChannelJSON && hasMessagesJSON {
		return KindDiscordZip
	}

	return KindGenericZip
}

func anyContains(names []string, substr string) bool {
	for _, n := range names {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

func anyEquals(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
