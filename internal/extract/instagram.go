package extract

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ghosttxt/ghosttext/internal/record"
)

// Fixed class names of the Instagram HTML export's message blocks.
const (
	igBlockClass     = "pam _3-95 _2ph- _a6-g uiBoxWhite noborder"
	igSenderClass    = "_3-95 _2pim _a6-h _a6-i"
	igContentClass   = "_3-95 _a6-p"
	igTimestampClass = "_3-94 _a6-o"
)

// igTimestampLayout is the human-readable template used by the HTML export.
const igTimestampLayout = "Jan 2, 2006 3:04 PM"

type igURI struct {
	URI string `json:"uri"`
}

type igParticipant struct {
	Name string `json:"name"`
}

type igReaction struct {
	Reaction string `json:"reaction"`
	Actor    string `json:"actor"`
}

type igMessage struct {
	SenderName  string       `json:"sender_name"`
	TimestampMS *int64       `json:"timestamp_ms"`
	Content     string       `json:"content"`
	URI         string       `json:"uri"`
	MediaShare  *igURI       `json:"media_share"`
	Sticker     *igURI       `json:"sticker"`
	Photos      []igURI      `json:"photos"`
	Videos      []igURI      `json:"videos"`
	AudioFiles  []igURI      `json:"audio_files"`
	GIFs        []igURI      `json:"gifs"`
	Reactions   []igReaction `json:"reactions"`
}

type igConversation struct {
	Participants []igParticipant `json:"participants"`
	Messages     []igMessage     `json:"messages"`
	Title        string          `json:"title"`
}

// instagramZip extracts messages from an Instagram data package, walking
// every HTML and JSON file under the activity inbox.
func (e *Engine) instagramZip(path string) []record.Record {
	scratch, err := extractArchive(path, "ghosttext-instagram")
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("extracting archive")
		return nil
	}
	defer scratch.Remove()

	inbox := scratch.Path("your_instagram_activity", "messages", "inbox")
	if info, err := os.Stat(inbox); err != nil || !info.IsDir() {
		e.log.Warn().Str("file", path).Msg("messages inbox directory not found, skipping message extraction")
		return nil
	}

	base := filepath.Base(path)
	var entries []record.Record
	walkErr := filepath.WalkDir(inbox, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		label := fmt.Sprintf("%s -> %s", base, scratch.Rel(p))
		switch strings.ToLower(filepath.Ext(p)) {
		case ".html":
			entries = append(entries, e.instagramHTML(p, label)...)
		case ".json":
			entries = append(entries, e.instagramJSON(p, label)...)
		}
		return nil
	})
	if walkErr != nil {
		e.log.Warn().Str("file", path).Err(walkErr).Msg("walking inbox")
	}

	e.log.Info().Str("file", path).Int("records", len(entries)).Msg("finished Instagram archive")
	return entries
}

// instagramHTML parses message blocks from an HTML export file. Blocks
// missing a sender, body, or parsable timestamp are skipped.
func (e *Engine) instagramHTML(path, label string) []record.Record {
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("reading HTML message file")
		return nil
	}
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("parsing HTML message file")
		return nil
	}

	var entries []record.Record
	for _, block := range findDivsByClass(doc, igBlockClass) {
		sender := ""
		if tag := firstDivByClass(block, igSenderClass); tag != nil {
			sender = nodeText(tag)
		}
		body := ""
		if tag := firstDivByClass(block, igContentClass); tag != nil {
			body = igContentText(tag)
		}
		tsRaw := ""
		if tag := firstDivByClass(block, igTimestampClass); tag != nil {
			tsRaw = nodeText(tag)
		}
		if sender == "" || body == "" || tsRaw == "" {
			continue
		}

		t, err := time.Parse(igTimestampLayout, tsRaw)
		if err != nil {
			e.log.Warn().Str("file", path).Str("timestamp", tsRaw).Msg("could not parse timestamp, skipping entry")
			continue
		}
		entries = append(entries, record.Record{
			Timestamp: t.Format(record.TimestampLayout),
			Sender:    sender,
			Text:      body,
			Source:    label,
		})
	}
	return entries
}

// igContentText renders a message-content element: text nodes and nested
// divs become lines, linked images become bracketed placeholders, and list
// contents are flattened.
func igContentText(content *html.Node) string {
	var b strings.Builder
	for c := content.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			if text := strings.TrimSpace(c.Data); text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		case c.Type == html.ElementNode && c.Data == "div":
			if text := nodeText(c); text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		case c.Type == html.ElementNode && c.Data == "a" && containsElement(c, "img"):
			href := nodeAttr(c, "href")
			if href == "" {
				href = "N/A"
			}
			b.WriteString(fmt.Sprintf("[Image: %s]\n", href))
		case c.Type == html.ElementNode && c.Data == "ul":
			b.WriteString(nodeText(c))
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

// instagramJSON parses one conversation object from a JSON export file.
func (e *Engine) instagramJSON(path, label string) []record.Record {
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("reading JSON message file")
		return nil
	}
	var conv igConversation
	if err := decodeJSON(data, &conv); err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("could not decode conversation JSON")
		return nil
	}

	title := conv.Title
	if title == "" {
		title = "Unknown Chat"
	}
	names := make([]string, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		name := p.Name
		if name == "" {
			name = record.SenderUnknown
		}
		names = append(names, name)
	}
	detail := fmt.Sprintf("Instagram Chat (%s with %s)", title, strings.Join(names, ", "))

	var entries []record.Record
	for _, msg := range conv.Messages {
		if msg.SenderName == "" || msg.TimestampMS == nil {
			continue
		}
		text := igMessageText(msg)
		entries = append(entries, record.Record{
			Timestamp: time.UnixMilli(*msg.TimestampMS).Format(record.TimestampLayout),
			Sender:    strings.TrimSpace(msg.SenderName),
			Text:      strings.TrimSpace(text),
			Source:    fmt.Sprintf("%s -> %s", label, detail),
		})
	}
	return entries
}

// igMessageText renders the message body plus bracketed placeholders for
// any attached media and a trailing parenthetical for reactions.
func igMessageText(msg igMessage) string {
	var b strings.Builder
	b.WriteString(msg.Content)

	if msg.URI != "" {
		fmt.Fprintf(&b, "[Media: %s]", msg.URI)
	}
	if msg.MediaShare != nil {
		fmt.Fprintf(&b, "[Media Share: %s]", uriOrNA(msg.MediaShare.URI))
	}
	if msg.Sticker != nil {
		fmt.Fprintf(&b, "[Sticker: %s]", uriOrNA(msg.Sticker.URI))
	}
	if len(msg.Photos) > 0 {
		fmt.Fprintf(&b, "[Photos: %s]", joinURIs(msg.Photos))
	}
	if len(msg.Videos) > 0 {
		fmt.Fprintf(&b, "[Videos: %s]", joinURIs(msg.Videos))
	}
	if len(msg.AudioFiles) > 0 {
		fmt.Fprintf(&b, "[Audio Files: %s]", joinURIs(msg.AudioFiles))
	}
	if len(msg.GIFs) > 0 {
		fmt.Fprintf(&b, "[GIFs: %s]", joinURIs(msg.GIFs))
	}
	if len(msg.Reactions) > 0 {
		details := make([]string, 0, len(msg.Reactions))
		for _, r := range msg.Reactions {
			details = append(details, fmt.Sprintf("%s reacted with %s", r.Actor, r.Reaction))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(details, "; "))
	}
	return b.String()
}

func uriOrNA(uri string) string {
	if uri == "" {
		return "N/A"
	}
	return uri
}

func joinURIs(uris []igURI) string {
	parts := make([]string, 0, len(uris))
	for _, u := range uris {
		parts = append(parts, uriOrNA(u.URI))
	}
	return strings.Join(parts, ", ")
}
