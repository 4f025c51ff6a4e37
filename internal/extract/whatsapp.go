package extract

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ghosttxt/ghosttext/internal/record"
)

// Two exported line shapes are supported:
//
//	12/5/23, 9:04 PM - Alice: hello
//	[12/5/23, 21:04:12] Alice: hello
//
// The date may use /, - or . separators, 2- or 4-digit years and a
// year-first order; U+202F (narrow no-break space) may precede AM/PM.
var (
	waLineRE = regexp.MustCompile(`(?i)^(?:` +
		`(\d{1,4}[/.-]\d{1,2}[/.-]\d{2,4}), (\d{1,2}:\d{2}(?:\s|\x{202f})(?:AM|PM))\s*-\s*(.*?):\s*([\s\S]*)` +
		`|` +
		`\[(\d{1,4}[/.-]\d{1,2}[/.-]\d{2,4}), (\d{1,2}:\d{2}:\d{2})\]\s*(.*?):\s*([\s\S]*)` +
		`)`)

	// waPrefixRE recognizes a line that merely starts like a timestamped
	// message. Continuation handling closes the open record on such lines
	// instead of mis-attributing them.
	waPrefixRE = regexp.MustCompile(`(?i)^(?:` +
		`\d{1,4}[/.-]\d{1,2}[/.-]\d{2,4}, \d{1,2}:\d{2}(?:\s|\x{202f})(?:AM|PM)` +
		`|` +
		`\[\d{1,4}[/.-]\d{1,2}[/.-]\d{2,4}, \d{1,2}:\d{2}:\d{2}\]` +
		`)`)
)

// Date layout ladders, covering day/month-first ambiguity, 2- and 4-digit
// years, and year-first orders, per separator. Earlier entries win, so
// day-first is preferred for ambiguous dates.
var (
	waClockLayouts   = buildWhatsAppLayouts("3:04 PM")
	waBracketLayouts = buildWhatsAppLayouts("15:04:05")
)

func buildWhatsAppLayouts(timeLayout string) []string {
	orders := []string{"2?1?2006", "2?1?06", "1?2?2006", "1?2?06", "2006?1?2", "2006?2?1"}
	var out []string
	for _, sep := range []string{"/", "-", "."} {
		for _, order := range orders {
			out = append(out, strings.ReplaceAll(order, "?", sep)+" "+timeLayout)
		}
	}
	return out
}

// parseWhatsAppTimestamp tries each layout in the ladder until one parses.
func parseWhatsAppTimestamp(dateStr, timeStr string, layouts []string) (time.Time, bool) {
	combined := dateStr + " " + timeStr
	combined = strings.ReplaceAll(combined, " ", " ")
	combined = strings.ToUpper(combined) // time.Parse wants AM/PM uppercase
	for _, layout := range layouts {
		if t, err := time.Parse(layout, combined); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseWhatsApp parses WhatsApp chat-log content into records. Lines that
// do not open a new message are appended to the open record as
// continuations, unless they independently look like a timestamp-prefixed
// line, in which case the open record is closed and the line dropped.
func parseWhatsApp(content, sourceLabel string, log zerolog.Logger) []record.Record {
	var entries []record.Record
	openIdx := -1

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		m := waLineRE.FindStringSubmatch(line)
		if m == nil {
			if openIdx >= 0 {
				if !waPrefixRE.MatchString(line) {
					entries[openIdx].Text += "\n" + line
				} else {
					openIdx = -1
				}
			} else {
				log.Debug().Str("source", sourceLabel).Str("line", truncateLine(line)).Msg("skipping line with no open message")
			}
			continue
		}

		var dateStr, timeStr, sender, body string
		var layouts []string
		if m[1] != "" {
			dateStr, timeStr, sender, body = m[1], m[2], m[3], m[4]
			layouts = waClockLayouts
		} else {
			dateStr, timeStr, sender, body = m[5], m[6], m[7], m[8]
			layouts = waBracketLayouts
		}

		ts, ok := parseWhatsAppTimestamp(dateStr, timeStr, layouts)
		if !ok {
			log.Warn().Str("source", sourceLabel).Str("datetime", dateStr+" "+timeStr).Str("line", truncateLine(line)).Msg("could not parse date/time")
			if openIdx >= 0 {
				// The full pattern matched, so the line necessarily looks
				// timestamp-prefixed: close the open record rather than
				// attaching an ambiguous line to it.
				openIdx = -1
			}
			continue
		}

		entries = append(entries, record.Record{
			Timestamp: ts.Format(record.TimestampLayout),
			Sender:    strings.TrimSpace(sender),
			Text:      strings.TrimSpace(body),
			Source:    sourceLabel,
		})
		openIdx = len(entries) - 1
	}

	if err := scanner.Err(); err != nil {
		log.Warn().Str("source", sourceLabel).Err(err).Msg("stopped scanning chat content")
	}
	return entries
}

func truncateLine(line string) string {
	if len(line) > 100 {
		return line[:100] + "..."
	}
	return line
}

// whatsappTxt extracts a standalone WhatsApp chat-log file.
func (e *Engine) whatsappTxt(path string) []record.Record {
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("reading chat file")
		return nil
	}
	content, enc, err := decodeText(data)
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("could not decode chat file with any attempted encoding")
		return nil
	}
	e.log.Debug().Str("file", path).Str("encoding", enc).Msg("decoded chat file")
	return parseWhatsApp(content, path, e.log)
}

// whatsappZip extracts the first .txt chat log inside a WhatsApp archive.
// A chat log that decodes but yields no messages produces a placeholder
// record so the archive still counts as processed.
func (e *Engine) whatsappZip(path string) []record.Record {
	z, err := zip.OpenReader(path)
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("opening archive")
		return nil
	}
	defer z.Close()

	var chatFile *zip.File
	for _, f := range z.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".txt") {
			chatFile = f
			break
		}
	}
	if chatFile == nil {
		e.log.Warn().Str("file", path).Msg("no .txt chat file found in archive")
		return nil
	}

	rc, err := chatFile.Open()
	if err != nil {
		e.log.Warn().Str("file", path).Str("entry", chatFile.Name).Err(err).Msg("opening chat entry")
		return nil
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		e.log.Warn().Str("file", path).Str("entry", chatFile.Name).Err(err).Msg("reading chat entry")
		return nil
	}

	content, enc, err := decodeText(data)
	if err != nil {
		e.log.Warn().Str("file", path).Str("entry", chatFile.Name).Err(err).Msg("could not decode chat entry with any attempted encoding")
		return nil
	}
	e.log.Debug().Str("file", path).Str("entry", chatFile.Name).Str("encoding", enc).Msg("decoded chat entry")

	label := fmt.Sprintf("%s -> %s", path, chatFile.Name)
	entries := parseWhatsApp(content, label, e.log)
	if len(entries) == 0 {
		e.log.Warn().Str("file", path).Str("entry", chatFile.Name).Msg("no messages parsed, emitting placeholder")
		return []record.Record{{
			Timestamp: mtimeTimestamp(path),
			Sender:    record.SenderSystem,
			Text:      fmt.Sprintf("Placeholder (parsing failed) for %s", chatFile.Name),
			Source:    path,
		}}
	}
	return entries
}
