package generator

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"civic_horizon/domain"
)

var (
	ErrEmptyOutput = errors.New("model returned empty output")
	ErrMissingURL  = errors.New("image response has no url")
)

var (
	titleRe        = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	listNumberRe   = regexp.MustCompile(`^(\d+[\).\s-]*)`)
	summaryTitleRe = regexp.MustCompile(`(?i)^Title\s*:\s*(.+)`)
	summaryBodyRe  = regexp.MustCompile(`(?is)Summary\s*:\s*(.+)`)
)

const (
	digestLimit       = 120
	minQuestionLength = 10
)

// ParseVision reads the model's vision reply. The JSON contract is preferred;
// a plain Markdown reply is accepted and its title and summary derived from
// the text. Only an empty reply is an error.
func ParseVision(raw string) (Vision, error) {
	md := strings.TrimSpace(raw)
	if md == "" {
		return Vision{}, domain.ParseError("vision output is empty", ErrEmptyOutput)
	}

	if v, ok := parseVisionJSON(md); ok {
		return v, nil
	}

	title := extractTitle(md)
	body := md
	if title != "" {
		body = strings.TrimSpace(titleRe.ReplaceAllStringFunc(md, firstOnly()))
	}
	digest := extractDigest(body)
	if digest == "" {
		digest = defaultDigest(body, digestLimit)
	}
	return Vision{Title: title, Summary: digest, Markdown: body}, nil
}

type visionPayload struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Vision    string `json:"vision"`
	Manifesto string `json:"manifesto"`
}

func parseVisionJSON(s string) (Vision, bool) {
	js := findFirstJSON(stripCodeFences(s))
	if js == "" {
		return Vision{}, false
	}
	var p visionPayload
	if err := json.Unmarshal([]byte(js), &p); err != nil {
		return Vision{}, false
	}
	body := strings.TrimSpace(p.Vision)
	if body == "" {
		body = strings.TrimSpace(p.Manifesto)
	}
	if body == "" {
		return Vision{}, false
	}
	v := Vision{
		Title:    strings.TrimSpace(p.Title),
		Summary:  strings.TrimSpace(p.Summary),
		Markdown: body,
	}
	if v.Title == "" {
		v.Title = extractTitle(body)
	}
	if v.Summary == "" {
		v.Summary = defaultDigest(extractDigest(body), digestLimit)
	}
	return v, true
}

// ParseQuestions extracts follow-up questions from a numbered list. Numbering
// is stripped and fragments of ten characters or fewer are dropped.
func ParseQuestions(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(listNumberRe.ReplaceAllString(line, ""))
		if len([]rune(line)) > minQuestionLength {
			out = append(out, line)
		}
	}
	return out
}

// ParseSummary reads a "Title: ... Summary: ..." reply. Anything else becomes
// the summary with an empty title.
func ParseSummary(raw string) (Summary, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Summary{}, domain.ParseError("summary output is empty", ErrEmptyOutput)
	}
	tm := summaryTitleRe.FindStringSubmatch(text)
	sm := summaryBodyRe.FindStringSubmatch(text)
	if tm != nil && sm != nil {
		return Summary{
			Title:   strings.TrimSpace(tm[1]),
			Summary: strings.TrimSpace(sm[1]),
		}, nil
	}
	return Summary{Summary: text}, nil
}

func extractTitle(md string) string {
	m := titleRe.FindStringSubmatch(md)
	if len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// firstOnly drops the first match and keeps the rest.
func firstOnly() func(string) string {
	done := false
	return func(m string) string {
		if done {
			return m
		}
		done = true
		return ""
	}
}

// extractDigest takes the first paragraph line, skipping headings.
func extractDigest(md string) string {
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line
	}
	return ""
}

func defaultDigest(md string, limit int) string {
	joined := strings.Join(strings.Fields(md), " ")
	return truncateRunes(joined, limit)
}

// stripCodeFences removes a surrounding ```json or ``` fence.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

// findFirstJSON returns the first balanced {...} object, ignoring braces
// inside string literals.
func findFirstJSON(s string) string {
	start, depth := -1, 0
	inString, escaped := false, false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if start != -1 {
				inString = true
			}
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
