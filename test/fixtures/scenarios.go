package fixtures

// UtteranceScenario is one recognized utterance with its expected outcome.
type UtteranceScenario struct {
	Name       string
	Text       string
	Confidence float64
	Locale     string

	// Expected outcome string: "success", "rejected", or "failure".
	Outcome string
}

// StandardScenarios returns the baseline flows every wired engine should
// satisfy against the seeded store.
func StandardScenarios() []UtteranceScenario {
	return []UtteranceScenario{
		{
			Name:       "exact english command",
			Text:       "go back",
			Confidence: 0.9,
			Locale:     "en-US",
			Outcome:    "success",
		},
		{
			Name:       "synonym command",
			Text:       "navigate back",
			Confidence: 0.8,
			Locale:     "en-US",
			Outcome:    "success",
		},
		{
			Name:       "noisy casing and spacing",
			Text:       "  Open   SETTINGS  ",
			Confidence: 0.7,
			Locale:     "en-US",
			Outcome:    "success",
		},
		{
			Name:       "german locale",
			Text:       "geh zurück",
			Confidence: 0.9,
			Locale:     "de-DE",
			Outcome:    "success",
		},
		{
			Name:       "german falls back to english",
			Text:       "volume up",
			Confidence: 0.9,
			Locale:     "de-DE",
			Outcome:    "success",
		},
		{
			Name:       "low confidence rejected",
			Text:       "go back",
			Confidence: 0.2,
			Locale:     "en-US",
			Outcome:    "rejected",
		},
		{
			Name:       "exactly at threshold passes",
			Text:       "go back",
			Confidence: 0.5,
			Locale:     "en-US",
			Outcome:    "success",
		},
	}
}
