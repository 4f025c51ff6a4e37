package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ghosttxt/ghosttext/internal/record"
)

// placeholderIdentity stands in for the exporting user when
// account/user.json is missing or unreadable. Partner-name resolution
// degrades but extraction continues.
const placeholderIdentity = "YourDiscordUsername#0000"

// unknownParticipant is Discord's sentinel for DM partners whose account no
// longer resolves; such channels are skipped.
const unknownParticipant = "Unknown Participant"

var discordDMDescriptionRE = regexp.MustCompile(`^Direct Message with (.*)`)

type discordAccount struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
}

type discordMessage struct {
	ID        any    `json:"ID"`
	Timestamp string `json:"Timestamp"`
	Contents  string `json:"Contents"`
	Author    string `json:"Author"`
}

// discordZip extracts direct-message history from a Discord data package.
// Only channels indexed as "Direct Message with <name>" are in scope;
// group and guild channels are intentionally excluded.
func (e *Engine) discordZip(path string) []record.Record {
	scratch, err := extractArchive(path, "ghosttext-discord")
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("extracting archive")
		return nil
	}
	defer scratch.Remove()

	own := e.discordOwnIdentity(scratch, path)

	indexPath := scratch.Path("messages", "index.json")
	indexData, err := os.ReadFile(indexPath)
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("messages/index.json not found, cannot process DMs")
		return nil
	}
	var channelIndex map[string]string
	if err := decodeJSON(indexData, &channelIndex); err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("could not parse messages/index.json")
		return nil
	}

	channelIDs := make([]string, 0, len(channelIndex))
	for id := range channelIndex {
		channelIDs = append(channelIDs, id)
	}
	sort.Strings(channelIDs)

	var entries []record.Record
	for _, id := range channelIDs {
		m := discordDMDescriptionRE.FindStringSubmatch(channelIndex[id])
		if m == nil {
			continue
		}
		partner := strings.TrimSpace(m[1])
		if partner == unknownParticipant {
			continue
		}
		entries = append(entries, e.discordChannel(scratch, path, id, own, partner)...)
	}

	e.log.Info().Str("file", path).Int("records", len(entries)).Msg("finished Discord archive")
	return entries
}

// discordOwnIdentity reads the exporting user's identity from
// account/user.json, falling back to a placeholder.
func (e *Engine) discordOwnIdentity(scratch *scratchDir, path string) string {
	data, err := os.ReadFile(scratch.Path("account", "user.json"))
	if err != nil {
		e.log.Warn().Str("file", path).Msg("account/user.json not found, using placeholder identity")
		return placeholderIdentity
	}
	var acct discordAccount
	if err := decodeJSON(data, &acct); err != nil || acct.ID == "" {
		e.log.Warn().Str("file", path).Msg("could not parse account/user.json, using placeholder identity")
		return placeholderIdentity
	}
	username := acct.Username
	if username == "" {
		username = "User_" + acct.ID
	}
	discriminator := acct.Discriminator
	if discriminator == "" {
		discriminator = "0000"
	}
	return username + "#" + discriminator
}

// discordChannel parses one DM channel's messages.json. The channel
// directory name is c<id> by construction of the export.
func (e *Engine) discordChannel(scratch *scratchDir, path, id, own, partner string) []record.Record {
	channelDir := scratch.Path("messages", "c"+id)
	if info, err := os.Stat(channelDir); err != nil || !info.IsDir() {
		e.log.Warn().Str("file", path).Str("channel", id).Msg("channel directory not found, skipping DM")
		return nil
	}
	messagesPath := filepath.Join(channelDir, "messages.json")
	data, err := os.ReadFile(messagesPath)
	if err != nil {
		e.log.Warn().Str("file", path).Str("channel", id).Msg("messages.json not found, skipping DM")
		return nil
	}

	var messages []discordMessage
	if err := decodeJSON(data, &messages); err != nil {
		e.log.Warn().Str("file", path).Str("channel", id).Err(err).Msg("could not parse messages.json, skipping DM")
		return nil
	}

	pair := []string{own, partner}
	sort.Strings(pair)
	source := fmt.Sprintf("%s -> Discord DM (%s)", filepath.Base(path), strings.Join(pair, " & "))

	var entries []record.Record
	for _, msg := range messages {
		if msg.Timestamp == "" || msg.Contents == "" {
			continue
		}
		ts, ok := parseDiscordTimestamp(msg.Timestamp)
		if !ok {
			continue
		}
		sender := msg.Author
		if sender == "" {
			sender = record.SenderUnknown
		}
		entries = append(entries, record.Record{
			Timestamp: ts,
			Sender:    sender,
			Text:      strings.TrimSpace(msg.Contents),
			Source:    source,
		})
	}
	return entries
}

// parseDiscordTimestamp normalizes the export's ISO-like timestamps. A
// timezone suffix is stripped, not converted; both fractional-second and
// whole-second forms are accepted.
func parseDiscordTimestamp(raw string) (string, bool) {
	clean := raw
	if idx := strings.Index(clean, "+"); idx >= 0 {
		clean = clean[:idx]
	}
	clean = strings.Replace(clean, "T", " ", 1)
	// time.Parse accepts fractional seconds even when the layout omits them.
	t, err := time.Parse(record.TimestampLayout, clean)
	if err != nil {
		return "", false
	}
	return t.Format(record.TimestampLayout), true
}
