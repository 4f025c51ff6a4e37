// Package answer turns a year's stored records into the persona context
// block handed to a language model, and derives the size and sampling
// budgets that shape it.
package answer

import "math"

// Bounds of the single user-facing dial. One setting drives sampling
// temperature together with the two context budgets: a low setting means
// conservative sampling over a large context, a high setting the reverse.
const (
	UserSettingMin = 0.1
	UserSettingMax = 1.0
)

const (
	apiTempMin = 0.4
	apiTempMax = 1.0

	contextCharsMin = 10_000
	contextCharsMax = 1_600_000

	contextEntriesMin = 150
	contextEntriesMax = 20_000
)

// Budget holds the derived limits for one assembly run.
type Budget struct {
	// APITemperature is the model sampling temperature, in [0.4, 1.0],
	// rounded to two decimals.
	APITemperature float64
	// MaxContextChars caps the assembled context length, header included.
	MaxContextChars int
	// MaxContextEntries caps the number of record blocks.
	MaxContextEntries int
}

// DeriveBudget maps a user setting onto the derived limits. Settings
// outside [UserSettingMin, UserSettingMax] are clamped, never rejected.
// Temperature scales up with the setting; both context budgets scale down.
func DeriveBudget(userSetting float64) Budget {
	clamped := math.Max(UserSettingMin, math.Min(UserSettingMax, userSetting))
	pos := (clamped - UserSettingMin) / (UserSettingMax - UserSettingMin)

	temp := apiTempMin + pos*(apiTempMax-apiTempMin)
	return Budget{
		APITemperature:    math.Round(temp*100) / 100,
		MaxContextChars:   int(contextCharsMax - pos*(contextCharsMax-contextCharsMin)),
		MaxContextEntries: int(contextEntriesMax - pos*(contextEntriesMax-contextEntriesMin)),
	}
}
