// Package extract converts raw export files into canonical records.
//
// Each source kind has its own extractor. Extractors are best-effort: any
// internal failure is logged and reduces to an empty or partial result for
// that file, never an error past the engine boundary. The caller treats an
// empty result as "file unprocessed", not as a reason to abort the batch.
package extract

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/ghosttxt/ghosttext/internal/detect"
	"github.com/ghosttxt/ghosttext/internal/record"
)

// zeroTimestamp is the placeholder timestamp used when a file's
// modification time cannot be determined. Its year is invalid on purpose so
// the partitioner applies its own fallback.
const zeroTimestamp = "0000-00-00 00:00:00"

// Engine dispatches files to the extractor for their detected kind.
type Engine struct {
	log zerolog.Logger
}

// NewEngine returns an extraction engine logging through log.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// File extracts canonical records from the file at path, classified as
// kind. It returns nil when nothing could be extracted.
func (e *Engine) File(path string, kind detect.Kind) []record.Record {
	switch kind {
	case detect.KindWhatsAppTxt:
		return e.whatsappTxt(path)
	case detect.KindWhatsAppZip:
		return e.whatsappZip(path)
	case detect.KindDiscordZip:
		return e.discordZip(path)
	case detect.KindInstagramZip:
		return e.instagramZip(path)
	case detect.KindFacebookZip:
		return e.facebookZip(path)
	case detect.KindRedditZip, detect.KindGenericZip:
		// Real parsing for these kinds is unimplemented; a placeholder
		// keeps the file visible in the processed accounting.
		return []record.Record{e.zipPlaceholder(path, kind)}
	case detect.KindTxt:
		return e.plainText(path)
	case detect.KindHTML:
		return e.htmlFile(path)
	case detect.KindImage:
		return e.imagePlaceholder(path)
	case detect.KindBadZip, detect.KindUnknownZip:
		e.log.Warn().Str("file", path).Str("kind", string(kind)).Msg("archive could not be inspected, skipping")
		return nil
	default:
		e.log.Warn().Str("file", path).Str("kind", string(kind)).Msg("unsupported file type, skipping")
		return nil
	}
}

// mtimeTimestamp returns the file's modification time in the canonical
// layout, or the zero placeholder when the file cannot be stat'ed.
func mtimeTimestamp(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return zeroTimestamp
	}
	return info.ModTime().Format(record.TimestampLayout)
}
