package generator

import "strings"

// Theme groups the questions asked about one area of life in 2050.
type Theme struct {
	Key         string   `json:"key"`
	Description string   `json:"description"`
	Questions   []string `json:"questions"`
}

var themes = []Theme{
	{Key: "politics", Description: "Democracy, power, participation", Questions: []string{
		"What values should guide political leadership in 2050?",
		"What should participation look like in a future democracy?",
		"What power should citizens hold?",
	}},
	{Key: "economy", Description: "Work, wealth, inequality", Questions: []string{
		"What does a fair economy look like in 2050?",
		"How is wealth distributed?",
		"What role does work play in society?",
	}},
	{Key: "society", Description: "Communities, justice, inclusion", Questions: []string{
		"How do communities support each other in 2050?",
		"What inequalities have been solved?",
		"What does social justice look like?",
	}},
	{Key: "technology", Description: "AI, digital life, governance", Questions: []string{
		"What technologies are essential in 2050?",
		"How is technology governed?",
		"What is the relationship between AI and society?",
	}},
	{Key: "law", Description: "Rights, rules, future protections", Questions: []string{
		"What rights are most important in 2050?",
		"How is justice maintained?",
		"What laws protect future generations?",
	}},
	{Key: "environment", Description: "Sustainability, climate, nature", Questions: []string{
		"What does sustainability mean in 2050?",
		"How are natural resources managed?",
		"What environmental challenges have we overcome?",
	}},
}

// Themes returns the catalog in display order.
func Themes() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// LookupTheme finds a theme by key, case-insensitively.
func LookupTheme(key string) (Theme, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, t := range themes {
		if t.Key == key {
			return t, true
		}
	}
	return Theme{}, false
}

// QuestionsFor flattens the questions of the selected themes, in selection
// order. Unknown keys are ignored.
func QuestionsFor(keys []string) []string {
	var qs []string
	for _, k := range keys {
		if t, ok := LookupTheme(k); ok {
			qs = append(qs, t.Questions...)
		}
	}
	return qs
}

func themeLabels(keys []string) []string {
	labels := make([]string, 0, len(keys))
	for _, k := range keys {
		if t, ok := LookupTheme(k); ok {
			labels = append(labels, t.Key+" ("+strings.ToLower(t.Description)+")")
			continue
		}
		if k = strings.TrimSpace(k); k != "" {
			labels = append(labels, k)
		}
	}
	return labels
}
