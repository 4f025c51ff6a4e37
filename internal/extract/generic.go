package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ghosttxt/ghosttext/internal/detect"
	"github.com/ghosttxt/ghosttext/internal/record"
)

// plainText turns an unstructured text file into a single record covering
// the whole body, timestamped by file modification time.
func (e *Engine) plainText(path string) []record.Record {
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("reading text file")
		return nil
	}
	content, enc, err := decodeText(data)
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("could not decode text file with any attempted encoding")
		return nil
	}
	e.log.Debug().Str("file", path).Str("encoding", enc).Msg("decoded text file")

	return []record.Record{{
		Timestamp: mtimeTimestamp(path),
		Sender:    record.SenderUnknown,
		Text:      content,
		Source:    "txt",
	}}
}

// htmlFile strips a markup file down to text and emits a single record.
func (e *Engine) htmlFile(path string) []record.Record {
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("reading HTML file")
		return nil
	}
	content, _, err := decodeText(data)
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("could not decode HTML file with any attempted encoding")
		return nil
	}
	text, err := htmlToText(content)
	if err != nil {
		e.log.Warn().Str("file", path).Err(err).Msg("could not parse HTML file")
		return nil
	}

	return []record.Record{{
		Timestamp: mtimeTimestamp(path),
		Sender:    record.SenderSystem,
		Text:      text,
		Source:    "html:" + filepath.Base(path),
	}}
}

// imagePlaceholder marks an image file as processed without content
// extraction.
func (e *Engine) imagePlaceholder(path string) []record.Record {
	return []record.Record{{
		Timestamp: mtimeTimestamp(path),
		Sender:    record.SenderSystem,
		Text:      fmt.Sprintf("[Image File: %s]", filepath.Base(path)),
		Source:    "image",
	}}
}

// zipPlaceholder keeps an archive of an unimplemented sub-kind visible in
// the processed accounting instead of silently dropping it.
func (e *Engine) zipPlaceholder(path string, kind detect.Kind) record.Record {
	e.log.Info().Str("file", path).Str("kind", string(kind)).Msg("extraction not implemented, emitting placeholder")
	return record.Record{
		Timestamp: mtimeTimestamp(path),
		Sender:    record.SenderSystem,
		Text:      fmt.Sprintf("Placeholder for %s data from %s", kind, filepath.Base(path)),
		Source:    string(kind),
	}
}
