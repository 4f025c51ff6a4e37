package answer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ghosttxt/ghosttext/internal/record"
)

// ErrNoContext is returned when assembly produced no usable context: the
// identity map was empty, or not a single record block fit the budget.
// Callers distinguish this from a year with no stored data.
var ErrNoContext = errors.New("no context could be assembled")

// IdentityMap names the user on each platform, so the assembler can tell
// the user's side of a conversation from the partner's.
type IdentityMap map[record.Platform]string

// Assembler builds the persona context block for one year.
type Assembler struct {
	log zerolog.Logger
}

// NewAssembler returns an assembler logging through log.
func NewAssembler(log zerolog.Logger) *Assembler {
	return &Assembler{log: log}
}

// Assemble renders a year's records into the bounded context block.
//
// Records are considered newest-first and prepended on acceptance, so the
// output reads oldest-to-newest but always retains the most recent
// conversations when the budget truncates. Assembly stops at the first
// block that would push either the character or the entry budget past its
// limit; the header counts against the character budget.
func (a *Assembler) Assemble(year int, records []record.Record, identities IdentityMap, budget Budget) (string, error) {
	if len(identities) == 0 {
		a.log.Warn().Int("year", year).Msg("no platform identities provided, cannot build context")
		return "", ErrNoContext
	}

	sorted := make([]record.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp > sorted[j].Timestamp
	})

	header := fmt.Sprintf("Context: Records of conversations during %d (potentially truncated for context limits). Pay attention to the 'Sender' and 'ChatPartner' fields:\n\n", year)
	chars := utf8.RuneCountInString(header)

	var accepted []string
	for _, rec := range sorted {
		partner := a.chatPartner(rec, identities)
		block := fmt.Sprintf("Timestamp: %s\nChatPartner: %s\nSender: %s\nMessage: %s\n---\n",
			rec.Timestamp, partner, rec.Sender, rec.Text)

		blockChars := utf8.RuneCountInString(block)
		if chars+blockChars > budget.MaxContextChars || len(accepted) >= budget.MaxContextEntries {
			a.log.Debug().Int("year", year).Int("chars", chars).Int("entries", len(accepted)).Msg("context budget reached")
			break
		}
		accepted = append([]string{block}, accepted...)
		chars += blockChars
	}

	if len(accepted) == 0 {
		a.log.Warn().Int("year", year).Msg("no records fit the context budget")
		return "", ErrNoContext
	}

	a.log.Info().Int("year", year).Int("chars", chars).Int("entries", len(accepted)).Msg("assembled context")
	return header + strings.Join(accepted, ""), nil
}

// chatPartner resolves the ChatPartner field for one record: every
// participant named by the source except the user's own identity on that
// platform. The fallbacks keep the field informative when the source names
// nobody else.
func (a *Assembler) chatPartner(rec record.Record, identities IdentityMap) string {
	platform := record.ClassifySource(rec.Source)
	self := identities[platform]

	participants := ParticipantsFromSource(rec.Source)
	var partners []string
	for _, p := range participants {
		if p != self {
			partners = append(partners, p)
		}
	}

	switch {
	case len(partners) == 1:
		return partners[0]
	case len(partners) > 1:
		sort.Strings(partners)
		return strings.Join(partners, " & ")
	}

	// Everyone the source names is the user.
	switch {
	case len(participants) > 0 && strings.Contains(participants[0], "Unknown Partner"):
		return participants[0]
	case len(participants) == 1 && participants[0] == self:
		a.log.Warn().Str("source", rec.Source).Str("user", self).Msg("only participant found was the user")
		return "Unknown Partner (Self?)"
	case len(participants) > 0:
		a.log.Warn().Str("source", rec.Source).Str("user", self).Msg("could not single out a partner, listing all participants")
		all := append([]string(nil), participants...)
		sort.Strings(all)
		return strings.Join(all, " & ")
	default:
		return "Unknown Partner"
	}
}
