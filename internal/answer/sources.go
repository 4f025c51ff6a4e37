package answer

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/ghosttxt/ghosttext/internal/record"
)

var (
	igChatRE = regexp.MustCompile(`(?i)Instagram Chat \((.*?)\)`)
	fbConvRE = regexp.MustCompile(`(?i)Facebook Conversation \((.*?)\)`)
)

// SourceDisplayNames reduces raw source descriptors to human-readable
// conversation names, grouped by platform and deduplicated. Raw
// descriptors embed file paths and archive entries; the display names keep
// only the recognizable conversation label.
func SourceDisplayNames(records []record.Record) map[record.Platform][]string {
	sets := map[record.Platform]map[string]struct{}{}
	for _, rec := range records {
		platform := record.ClassifySource(rec.Source)
		if sets[platform] == nil {
			sets[platform] = map[string]struct{}{}
		}
		sets[platform][displayName(platform, rec.Source)] = struct{}{}
	}

	out := make(map[record.Platform][]string, len(sets))
	for platform, set := range sets {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		out[platform] = names
	}
	return out
}

func displayName(platform record.Platform, source string) string {
	switch platform {
	case record.PlatformWhatsApp:
		if m := waPartnerRE.FindStringSubmatch(source); m != nil {
			return fmt.Sprintf("WhatsApp Chat with %s", strings.TrimSpace(m[1]))
		}
		return "WhatsApp Chat (Unknown)"
	case record.PlatformDiscord:
		if m := discordDMRE.FindStringSubmatch(source); m != nil {
			return fmt.Sprintf("Discord DM (%s)", strings.TrimSpace(m[1]))
		}
		return "Discord Data (Unknown)"
	case record.PlatformInstagram:
		if m := igChatRE.FindStringSubmatch(source); m != nil {
			return fmt.Sprintf("Instagram Chat (%s)", strings.TrimSpace(m[1]))
		}
		// HTML exports carry no chat title; fall back to the inbox
		// directory name from the descriptor's path.
		parts := strings.Split(source, string(os.PathSeparator))
		for i, part := range parts {
			if part == "inbox" {
				if i+1 < len(parts) {
					return fmt.Sprintf("Instagram Chat (%s)", parts[i+1])
				}
				return "Instagram Data (Unknown Chat)"
			}
		}
		return "Instagram Data (Unknown)"
	case record.PlatformFacebook:
		if m := fbConvRE.FindStringSubmatch(source); m != nil {
			return fmt.Sprintf("Facebook Conversation (%s)", strings.TrimSpace(m[1]))
		}
		return "Facebook Data (Unknown)"
	default:
		return source
	}
}
