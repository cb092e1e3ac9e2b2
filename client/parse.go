package client

import (
	"regexp"
	"strings"

	"civic_horizon/domain"
)

var headingMarkerRe = regexp.MustCompile(`^#+(\s|$)`)

// ParseVisionWithHeadings splits heading-embedded vision text into sections.
// A block starts at every line that begins with one or more '#' followed by
// whitespace. Marked blocks take the text after the '#'s as heading; text
// before the first marker becomes a section with an empty heading. Body lines
// are trimmed and joined with single spaces. Blank blocks are dropped.
func ParseVisionWithHeadings(text string) []domain.Section {
	var (
		sections []domain.Section
		cur      *domain.Section
		body     []string
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Body = strings.Join(body, " ")
		if cur.Heading != "" || cur.Body != "" {
			sections = append(sections, *cur)
		}
		cur, body = nil, nil
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if headingMarkerRe.MatchString(line) {
			flush()
			cur = &domain.Section{Heading: strings.TrimSpace(strings.TrimLeft(trimmed, "#"))}
			continue
		}
		if cur == nil {
			cur = &domain.Section{}
		}
		if trimmed != "" {
			body = append(body, trimmed)
		}
	}
	flush()
	return sections
}

// DocumentFromVision builds the exportable document from an endpoint reply.
func DocumentFromVision(v VisionResponse) domain.VisionDocument {
	return domain.VisionDocument{
		Title:    strings.TrimSpace(v.Title),
		Summary:  strings.TrimSpace(v.Summary),
		Sections: ParseVisionWithHeadings(v.Vision),
	}
}
