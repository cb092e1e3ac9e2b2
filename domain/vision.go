package domain

import "strings"

// DefaultTitle is used whenever a vision arrives without a title.
const DefaultTitle = "Vision for 2050"

// Section is one heading/body pair of a vision. Heading may be empty.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// VisionDocument is the generated title/summary/sections artifact.
type VisionDocument struct {
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	Sections []Section `json:"sections"`
}

// DisplayTitle returns the title or DefaultTitle when it is blank.
func (d VisionDocument) DisplayTitle() string {
	if t := strings.TrimSpace(d.Title); t != "" {
		return t
	}
	return DefaultTitle
}

// Headings returns the section headings in order.
func (d VisionDocument) Headings() []string {
	out := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		out[i] = s.Heading
	}
	return out
}

// Paragraphs returns the section bodies in order.
func (d VisionDocument) Paragraphs() []string {
	out := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		out[i] = s.Body
	}
	return out
}

// Markdown renders the sections back into the heading-embedded text the
// vision endpoint returns. Sections without a heading become plain blocks.
func (d VisionDocument) Markdown() string {
	var sb strings.Builder
	for i, s := range d.Sections {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if s.Heading != "" {
			sb.WriteString("## ")
			sb.WriteString(s.Heading)
			sb.WriteString("\n")
		}
		sb.WriteString(s.Body)
	}
	return sb.String()
}

// Clone returns a deep copy so callers can edit sections without aliasing.
func (d VisionDocument) Clone() VisionDocument {
	out := d
	if d.Sections != nil {
		out.Sections = append([]Section(nil), d.Sections...)
	}
	return out
}

// RasterImage is an embeddable pixel buffer produced for a single export.
type RasterImage struct {
	Data   []byte
	Format string // always "JPEG"
	Width  int
	Height int
}

// Empty reports whether there is nothing to embed.
func (r *RasterImage) Empty() bool {
	return r == nil || len(r.Data) == 0
}
