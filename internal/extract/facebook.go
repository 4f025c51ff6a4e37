package extract

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ghosttxt/ghosttext/internal/record"
)

type fbMessage struct {
	SenderName  string  `json:"sender_name"`
	TimestampMS *int64  `json:"timestamp_ms"`
	Content     *string `json:"content"`
}

type fbConversation struct {
	Messages []fbMessage `json:"messages"`
}

// facebookZip extracts conversations from a Facebook data package. The
// whole tree is walked for message_1.json conversation roots; HTML files
// are captured as stripped plain text.
func (e *Engine) facebookZip(path string) []record.Record {
	scratch, err := extractArchive(path, "ghosttext-facebook")
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("extracting archive")
		return nil
	}
	defer scratch.Remove()

	base := filepath.Base(path)
	inboxRoot := scratch.Path("messages", "inbox")

	var entries []record.Record
	walkErr := filepath.WalkDir(scratch.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		switch {
		case name == "message_1.json":
			conv := conversationName(inboxRoot, filepath.Dir(p))
			entries = append(entries, e.facebookConversation(p, base, conv)...)
		case strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".htm"):
			entries = append(entries, e.facebookHTML(p, base)...)
		}
		return nil
	})
	if walkErr != nil {
		e.log.Warn().Str("file", path).Err(walkErr).Msg("walking archive tree")
	}

	e.log.Info().Str("file", path).Int("records", len(entries)).Msg("finished Facebook archive")
	return entries
}

// conversationName derives a conversation label from the directory holding
// message_1.json: the directory name relative to messages/inbox, "Inbox"
// when the file sits directly there, "Unknown Conversation" when the file
// is outside the expected root.
func conversationName(inboxRoot, dir string) string {
	rel, err := filepath.Rel(inboxRoot, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "Unknown Conversation"
	}
	if rel == "." {
		return "Inbox"
	}
	return filepath.Base(rel)
}

// facebookConversation parses one message_1.json conversation root.
// Messages missing a timestamp or content are skipped individually; a
// missing sender name degrades to a generic placeholder.
func (e *Engine) facebookConversation(path, archiveBase, conv string) []record.Record {
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("reading conversation file")
		return nil
	}
	var parsed fbConversation
	if err := decodeJSON(data, &parsed); err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("could not decode conversation file")
		return nil
	}
	if parsed.Messages == nil {
		e.log.Warn().Str("file", path).Msg("no messages array in conversation file, skipping")
		return nil
	}

	source := fmt.Sprintf("%s -> Facebook Conversation (%s)", archiveBase, conv)
	var entries []record.Record
	for _, msg := range parsed.Messages {
		if msg.TimestampMS == nil || msg.Content == nil {
			continue
		}
		sender := strings.TrimSpace(msg.SenderName)
		if sender == "" {
			sender = "Participant"
		}
		entries = append(entries, record.Record{
			Timestamp: time.UnixMilli(*msg.TimestampMS).Format(record.TimestampLayout),
			Sender:    sender,
			Text:      strings.TrimSpace(*msg.Content),
			Source:    source,
		})
	}
	return entries
}

// facebookHTML captures an HTML file inside the archive as stripped text.
func (e *Engine) facebookHTML(path, archiveBase string) []record.Record {
	entries := e.htmlFile(path)
	source := fmt.Sprintf("%s -> Facebook HTML (%s)", archiveBase, filepath.Base(path))
	for i := range entries {
		entries[i].Source = source
	}
	return entries
}
