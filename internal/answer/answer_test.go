package answer

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ghosttxt/ghosttext/internal/record"
)

func TestDeriveBudget_Endpoints(t *testing.T) {
	low := DeriveBudget(0.1)
	if low.APITemperature != 0.4 || low.MaxContextChars != 1_600_000 || low.MaxContextEntries != 20_000 {
		t.Errorf("low = %+v", low)
	}

	high := DeriveBudget(1.0)
	if high.APITemperature != 1.0 || high.MaxContextChars != 10_000 || high.MaxContextEntries != 150 {
		t.Errorf("high = %+v", high)
	}

	mid := DeriveBudget(0.55)
	if mid.APITemperature != 0.7 {
		t.Errorf("mid temperature = %v, want 0.7", mid.APITemperature)
	}
}

func TestDeriveBudget_ClampsAndMonotonic(t *testing.T) {
	if got := DeriveBudget(-3); got != DeriveBudget(0.1) {
		t.Errorf("below-range setting not clamped: %+v", got)
	}
	if got := DeriveBudget(42); got != DeriveBudget(1.0) {
		t.Errorf("above-range setting not clamped: %+v", got)
	}

	prev := DeriveBudget(0.1)
	for setting := 0.2; setting <= 1.0; setting += 0.1 {
		cur := DeriveBudget(setting)
		if cur.APITemperature < prev.APITemperature {
			t.Errorf("temperature not monotonic at %v", setting)
		}
		if cur.MaxContextChars > prev.MaxContextChars || cur.MaxContextEntries > prev.MaxContextEntries {
			t.Errorf("budgets not shrinking at %v", setting)
		}
		prev = cur
	}
}

func TestParticipantsFromSource(t *testing.T) {
	cases := []struct {
		source string
		want   []string
	}{
		{"/data/WhatsApp Chat with Alice.zip -> _chat.txt", []string{"Alice"}},
		{"/data/whatsapp chat with Bob.txt", []string{"Bob"}},
		{"package.zip -> Discord DM (Bob & me#1234)", []string{"Bob", "me#1234"}},
		{"notes.txt", []string{"Unknown Partner (notes.txt)"}},
		{"/some/path/notes.txt", []string{"Unknown Partner"}},
	}
	for _, tc := range cases {
		got := ParticipantsFromSource(tc.source)
		if len(got) != len(tc.want) {
			t.Errorf("%q: got %v, want %v", tc.source, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%q: got %v, want %v", tc.source, got, tc.want)
				break
			}
		}
	}
}

func TestParticipantCensus(t *testing.T) {
	records := []record.Record{
		{Sender: "Alice", Source: "WhatsApp Chat with Alice.txt"},
		{Sender: "Alice", Source: "WhatsApp Chat with Alice.txt"},
		{Sender: "Me", Source: "WhatsApp Chat with Alice.txt"},
		{Sender: "Zed", Source: "WhatsApp Chat with Zed.txt"},
		{Sender: "Bob", Source: "x.zip -> Discord DM (Bob & me#1234)"},
		{Sender: record.SenderSystem, Source: "WhatsApp Chat with Alice.txt"},
		{Sender: record.SenderUnknown, Source: "x.zip -> Discord DM (Bob & me#1234)"},
	}

	census := ParticipantCensus(records)
	wa := census[record.PlatformWhatsApp]
	// Alice has the most messages; Me and Zed tie and sort by name.
	if len(wa) != 3 || wa[0] != "Alice" || wa[1] != "Me" || wa[2] != "Zed" {
		t.Errorf("whatsapp census = %v", wa)
	}
	if dc := census[record.PlatformDiscord]; len(dc) != 1 || dc[0] != "Bob" {
		t.Errorf("discord census = %v", dc)
	}
}

func TestSourceDisplayNames(t *testing.T) {
	records := []record.Record{
		{Source: "/data/WhatsApp Chat with Alice.zip -> _chat.txt"},
		{Source: "/data/WhatsApp Chat with Alice.zip -> _chat.txt"},
		{Source: "pkg.zip -> Discord DM (Bob & me#1234)"},
		{Source: "ig.zip -> your_instagram_activity/messages/inbox/carol_9/message_1.json -> Instagram Chat (Carol with Carol, Me)"},
		{Source: "ig.zip -> your_instagram_activity/messages/inbox/dave_7/message_1.html"},
		{Source: "fb.zip -> Facebook Conversation (bobsmith_abc)"},
		{Source: "notes.txt"},
	}

	names := SourceDisplayNames(records)
	if wa := names[record.PlatformWhatsApp]; len(wa) != 1 || wa[0] != "WhatsApp Chat with Alice" {
		t.Errorf("whatsapp = %v", wa)
	}
	if dc := names[record.PlatformDiscord]; len(dc) != 1 || dc[0] != "Discord DM (Bob & me#1234)" {
		t.Errorf("discord = %v", dc)
	}
	ig := names[record.PlatformInstagram]
	if len(ig) != 2 || ig[0] != "Instagram Chat (Carol with Carol, Me)" || ig[1] != "Instagram Chat (dave_7)" {
		t.Errorf("instagram = %v", ig)
	}
	if fb := names[record.PlatformFacebook]; len(fb) != 1 || fb[0] != "Facebook Conversation (bobsmith_abc)" {
		t.Errorf("facebook = %v", fb)
	}
	if other := names[record.PlatformOther]; len(other) != 1 || other[0] != "notes.txt" {
		t.Errorf("other = %v", other)
	}
}

func testRecords() []record.Record {
	return []record.Record{
		{Timestamp: "2023-01-01 08:00:00", Sender: "Me", Text: "oldest", Source: "WhatsApp Chat with Alice.txt"},
		{Timestamp: "2023-06-15 12:00:00", Sender: "Alice", Text: "middle", Source: "WhatsApp Chat with Alice.txt"},
		{Timestamp: "2023-12-31 23:00:00", Sender: "Me", Text: "newest", Source: "WhatsApp Chat with Alice.txt"},
	}
}

func TestAssemble(t *testing.T) {
	a := NewAssembler(zerolog.Nop())
	identities := IdentityMap{record.PlatformWhatsApp: "Me"}

	got, err := a.Assemble(2023, testRecords(), identities, DeriveBudget(0.5))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	wantHeader := "Context: Records of conversations during 2023 (potentially truncated for context limits). Pay attention to the 'Sender' and 'ChatPartner' fields:\n\n"
	if !strings.HasPrefix(got, wantHeader) {
		t.Errorf("missing header, got %q", got[:80])
	}

	// All three fit; body reads oldest-to-newest.
	iOld := strings.Index(got, "Message: oldest")
	iMid := strings.Index(got, "Message: middle")
	iNew := strings.Index(got, "Message: newest")
	if iOld < 0 || iMid < 0 || iNew < 0 || !(iOld < iMid && iMid < iNew) {
		t.Errorf("blocks out of order: %d %d %d\n%s", iOld, iMid, iNew, got)
	}

	if !strings.Contains(got, "ChatPartner: Alice\nSender: Me\nMessage: oldest\n---\n") {
		t.Errorf("block shape wrong:\n%s", got)
	}
}

func TestAssemble_EntryBudgetKeepsNewest(t *testing.T) {
	a := NewAssembler(zerolog.Nop())
	identities := IdentityMap{record.PlatformWhatsApp: "Me"}
	budget := DeriveBudget(0.1)
	budget.MaxContextEntries = 2

	got, err := a.Assemble(2023, testRecords(), identities, budget)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if strings.Contains(got, "Message: oldest") {
		t.Errorf("oldest record should have been truncated:\n%s", got)
	}
	if !strings.Contains(got, "Message: middle") || !strings.Contains(got, "Message: newest") {
		t.Errorf("newest records missing:\n%s", got)
	}
}

func TestAssemble_CharBudgetNeverExceeded(t *testing.T) {
	a := NewAssembler(zerolog.Nop())
	identities := IdentityMap{record.PlatformWhatsApp: "Me"}

	for _, maxChars := range []int{200, 300, 500, 1000} {
		budget := DeriveBudget(0.1)
		budget.MaxContextChars = maxChars

		got, err := a.Assemble(2023, testRecords(), identities, budget)
		if errors.Is(err, ErrNoContext) {
			continue
		}
		if err != nil {
			t.Fatalf("Assemble(maxChars=%d): %v", maxChars, err)
		}
		if n := utf8.RuneCountInString(got); n > maxChars {
			t.Errorf("maxChars=%d: context is %d chars", maxChars, n)
		}
	}
}

func TestAssemble_NoContext(t *testing.T) {
	a := NewAssembler(zerolog.Nop())

	if _, err := a.Assemble(2023, testRecords(), nil, DeriveBudget(0.5)); !errors.Is(err, ErrNoContext) {
		t.Errorf("nil identity map: err = %v, want ErrNoContext", err)
	}

	identities := IdentityMap{record.PlatformWhatsApp: "Me"}
	if _, err := a.Assemble(2023, nil, identities, DeriveBudget(0.5)); !errors.Is(err, ErrNoContext) {
		t.Errorf("no records: err = %v, want ErrNoContext", err)
	}

	tiny := DeriveBudget(0.5)
	tiny.MaxContextChars = 10 // not even the header fits
	if _, err := a.Assemble(2023, testRecords(), identities, tiny); !errors.Is(err, ErrNoContext) {
		t.Errorf("tiny budget: err = %v, want ErrNoContext", err)
	}
}

func TestChatPartner_Fallbacks(t *testing.T) {
	a := NewAssembler(zerolog.Nop())

	cases := []struct {
		name       string
		rec        record.Record
		identities IdentityMap
		want       string
	}{
		{
			name:       "self only",
			rec:        record.Record{Source: "WhatsApp Chat with Me.txt"},
			identities: IdentityMap{record.PlatformWhatsApp: "Me"},
			want:       "Unknown Partner (Self?)",
		},
		{
			name:       "discord pair excludes self",
			rec:        record.Record{Source: "pkg.zip -> Discord DM (Bob & me#1234)"},
			identities: IdentityMap{record.PlatformDiscord: "me#1234"},
			want:       "Bob",
		},
		{
			name:       "no identity lists both",
			rec:        record.Record{Source: "pkg.zip -> Discord DM (Zed & Ann)"},
			identities: IdentityMap{record.PlatformWhatsApp: "Me"},
			want:       "Ann & Zed",
		},
		{
			name:       "placeholder passthrough",
			rec:        record.Record{Source: "notes.txt"},
			identities: IdentityMap{record.PlatformWhatsApp: "Me"},
			want:       "Unknown Partner (notes.txt)",
		},
	}
	for _, tc := range cases {
		if got := a.chatPartner(tc.rec, tc.identities); got != tc.want {
			t.Errorf("%s: chatPartner = %q, want %q", tc.name, got, tc.want)
		}
	}
}
