package answer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ghosttxt/ghosttext/internal/record"
)

var (
	waPartnerRE = regexp.MustCompile(`(?i)WhatsApp Chat with (.*?)(?:\.zip|\.txt)`)
	discordDMRE = regexp.MustCompile(`(?i)Discord DM \((.*?)\)`)
)

// ParticipantsFromSource recovers the conversation participants encoded in
// a source descriptor. A WhatsApp descriptor names the partner only, a
// Discord descriptor names both sides of the DM. Descriptors of any other
// shape yield a single unknown-partner placeholder; when the descriptor
// carries no path, its text is included in the placeholder as a hint.
func ParticipantsFromSource(source string) []string {
	if m := waPartnerRE.FindStringSubmatch(source); m != nil {
		return []string{strings.TrimSpace(m[1])}
	}
	if m := discordDMRE.FindStringSubmatch(source); m != nil {
		names := strings.Split(m[1], " & ")
		out := make([]string, 0, len(names))
		for _, name := range names {
			out = append(out, strings.TrimSpace(name))
		}
		return out
	}
	if base := filepath.Base(source); base == source {
		return []string{fmt.Sprintf("Unknown Partner (%s)", base)}
	}
	return []string{"Unknown Partner"}
}

// ParticipantCensus counts distinct senders per platform across a year's
// records, excluding the System and Unknown sentinels. Names are ordered
// by message count descending, ties broken alphabetically, so the heaviest
// sender per platform comes first.
func ParticipantCensus(records []record.Record) map[record.Platform][]string {
	counts := map[record.Platform]map[string]int{}
	for _, rec := range records {
		if rec.Sender == "" || rec.Sender == record.SenderSystem || rec.Sender == record.SenderUnknown {
			continue
		}
		platform := record.ClassifySource(rec.Source)
		if counts[platform] == nil {
			counts[platform] = map[string]int{}
		}
		counts[platform][rec.Sender]++
	}

	census := make(map[record.Platform][]string, len(counts))
	for platform, senders := range counts {
		names := make([]string, 0, len(senders))
		for name := range senders {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if senders[names[i]] != senders[names[j]] {
				return senders[names[i]] > senders[names[j]]
			}
			return names[i] < names[j]
		})
		census[platform] = names
	}
	return census
}
