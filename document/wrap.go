package document

import (
	"strings"
	"unicode/utf8"
)

// measurer is the slice of *fpdf.Fpdf the planner needs. Width is reported
// for the font most recently selected with SetFont.
type measurer interface {
	SetFont(family, style string, size float64)
	GetStringWidth(s string) float64
}

// wrapText greedily fills lines up to width. Hard newlines start a new
// paragraph; blank paragraphs are kept as empty lines. Only a word that is
// wider than width on its own is broken, at rune boundaries.
func wrapText(m measurer, text string, width float64) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := ""
		for _, word := range words {
			if cur != "" {
				candidate := cur + " " + word
				if m.GetStringWidth(candidate) <= width {
					cur = candidate
					continue
				}
				lines = append(lines, cur)
				cur = ""
			}
			if m.GetStringWidth(word) <= width {
				cur = word
				continue
			}
			pieces := splitWord(m, word, width)
			lines = append(lines, pieces[:len(pieces)-1]...)
			cur = pieces[len(pieces)-1]
		}
		lines = append(lines, cur)
	}
	return lines
}

// splitWord cuts an over-long word into pieces no wider than width. Every
// piece holds at least one rune.
func splitWord(m measurer, word string, width float64) []string {
	var pieces []string
	start := 0
	for i := 0; i < len(word); {
		// cp1252 bytes decode as one-byte RuneError, so size stays correct.
		_, size := utf8.DecodeRuneInString(word[i:])
		if i > start && m.GetStringWidth(word[start:i+size]) > width {
			pieces = append(pieces, word[start:i])
			start = i
		}
		i += size
	}
	return append(pieces, word[start:])
}
