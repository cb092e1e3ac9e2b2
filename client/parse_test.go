package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"civic_horizon/domain"
)

func TestParseVisionWithHeadings(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []domain.Section
	}{
		{
			name: "two headings",
			in:   "## Heading1\nText1\n## Heading2\nText2",
			want: []domain.Section{{Heading: "Heading1", Body: "Text1"}, {Heading: "Heading2", Body: "Text2"}},
		},
		{
			name: "no markers",
			in:   "Just one paragraph\nacross two lines.",
			want: []domain.Section{{Heading: "", Body: "Just one paragraph across two lines."}},
		},
		{
			name: "preamble before first heading",
			in:   "Intro text.\n\n# Title Block\nBody here\n\n  more body  ",
			want: []domain.Section{{Body: "Intro text."}, {Heading: "Title Block", Body: "Body here more body"}},
		},
		{
			name: "hashtag is not a marker",
			in:   "#nomarker stays text\n### Deep\nx",
			want: []domain.Section{{Body: "#nomarker stays text"}, {Heading: "Deep", Body: "x"}},
		},
		{
			name: "heading without body",
			in:   "## Alone",
			want: []domain.Section{{Heading: "Alone"}},
		},
		{
			name: "crlf",
			in:   "## A\r\nB\r\n",
			want: []domain.Section{{Heading: "A", Body: "B"}},
		},
		{name: "empty", in: "", want: nil},
		{name: "blank", in: " \n\n \t", want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseVisionWithHeadings(tc.in))
		})
	}
}

func TestParseVisionWithHeadings_Restartable(t *testing.T) {
	in := "## A\nx\n## B\ny"
	assert.Equal(t, ParseVisionWithHeadings(in), ParseVisionWithHeadings(in))
}

func TestDocumentFromVision(t *testing.T) {
	doc := DocumentFromVision(VisionResponse{Title: " T ", Summary: "S", Vision: "## H\nB"})
	assert.Equal(t, "T", doc.Title)
	assert.Equal(t, []domain.Section{{Heading: "H", Body: "B"}}, doc.Sections)
}
