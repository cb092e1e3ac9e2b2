package generator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic_horizon/domain"
)

func TestParseVision_JSON(t *testing.T) {
	v, err := ParseVision(`{"title":"Green Isles","summary":"Clean and fair.","vision":"## Energy\nSolar everywhere."}`)
	require.NoError(t, err)
	assert.Equal(t, "Green Isles", v.Title)
	assert.Equal(t, "Clean and fair.", v.Summary)
	assert.Equal(t, "## Energy\nSolar everywhere.", v.Markdown)
}

func TestParseVision_FencedJSONWithBracesInStrings(t *testing.T) {
	raw := "Here you go:\n```json\n{\"title\":\"a}b\",\"summary\":\"s\",\"vision\":\"## H\\nbody {x}\"}\n```"
	v, err := ParseVision(raw)
	require.NoError(t, err)
	assert.Equal(t, "a}b", v.Title)
	assert.Equal(t, "## H\nbody {x}", v.Markdown)
}

func TestParseVision_ManifestoKeyFillsMissingFields(t *testing.T) {
	v, err := ParseVision(`{"manifesto":"## Heading\nThe body line."}`)
	require.NoError(t, err)
	assert.Equal(t, "", v.Title)
	assert.Equal(t, "The body line.", v.Summary)
	assert.Equal(t, "## Heading\nThe body line.", v.Markdown)
}

func TestParseVision_MarkdownFallback(t *testing.T) {
	v, err := ParseVision("# My Title\n\nFirst para.\n\n## Section\nBody")
	require.NoError(t, err)
	assert.Equal(t, "My Title", v.Title)
	assert.Equal(t, "First para.", v.Summary)
	assert.Equal(t, "First para.\n\n## Section\nBody", v.Markdown)
}

func TestParseVision_EmptyIsParseError(t *testing.T) {
	_, err := ParseVision("  \n ")
	require.Error(t, err)
	assert.Equal(t, domain.KindParse, domain.KindOf(err))
	assert.True(t, errors.Is(err, ErrEmptyOutput))
}

func TestParseQuestions(t *testing.T) {
	raw := "Sure:\n1. What would change first in your town?\n2) Who decides?\n3 - How will you measure success in 2050?\n\nThanks!"
	assert.Equal(t, []string{
		"What would change first in your town?",
		"Who decides?",
		"How will you measure success in 2050?",
	}, ParseQuestions(raw))
	assert.Empty(t, ParseQuestions("ok\n1.\n"))
}

func TestParseSummary(t *testing.T) {
	s, err := ParseSummary("Title: Green Isles\nSummary: A country that kept its promises.\nIt also planted trees.")
	require.NoError(t, err)
	assert.Equal(t, "Green Isles", s.Title)
	assert.Equal(t, "A country that kept its promises.\nIt also planted trees.", s.Summary)

	s, err = ParseSummary("  Just a summary.  ")
	require.NoError(t, err)
	assert.Equal(t, Summary{Summary: "Just a summary."}, s)

	_, err = ParseSummary("")
	assert.Equal(t, domain.KindParse, domain.KindOf(err))
}

func TestFindFirstJSON(t *testing.T) {
	assert.Equal(t, `{"a":{"b":1}}`, findFirstJSON(`noise {"a":{"b":1}} {"c":2}`))
	assert.Equal(t, "", findFirstJSON("no object {"))
	assert.Equal(t, `{"q":"\"}"}`, findFirstJSON(`x {"q":"\"}"} y`))
}
