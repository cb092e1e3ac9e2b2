// Package mailer renders a vision as HTML email and hands it to a delivery
// provider.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"

	"civic_horizon/domain"
)

// DefaultFrom is the sender used when none is configured.
const DefaultFrom = "CivicHorizon <onboarding@resend.dev>"

// Recipients accepts either a single address or a list in JSON.
type Recipients []string

func (r *Recipients) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*r = nil
		} else {
			*r = Recipients{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("to must be an address or a list of addresses")
	}
	*r = many
	return nil
}

// Message is a vision addressed to one or more recipients.
type Message struct {
	To          Recipients `json:"to"`
	Subject     string     `json:"subject"`
	VisionTitle string     `json:"visionTitle"`
	Summary     string     `json:"summary"`
	Headings    []string   `json:"headings"`
	Paragraphs  []string   `json:"paragraphs"`
	ImageURL    string     `json:"imageUrl"`
}

// Validate checks the fields every email needs. Headings and paragraphs are
// paired by index, so their lengths must match.
func (m Message) Validate() error {
	if len(m.To) == 0 || strings.TrimSpace(m.Subject) == "" || m.Headings == nil || m.Paragraphs == nil {
		return domain.ValidationError("missing required fields")
	}
	for _, to := range m.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return domain.ValidationError(fmt.Sprintf("invalid recipient %q", to))
		}
	}
	if len(m.Headings) != len(m.Paragraphs) {
		return domain.ValidationError(fmt.Sprintf("headings (%d) and paragraphs (%d) differ in length", len(m.Headings), len(m.Paragraphs)))
	}
	return nil
}

// Email is what a Sender delivers.
type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Sender delivers a rendered email and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, e Email) (string, error)
}

// Mailer turns messages into email. One attempt per message.
type Mailer struct {
	sender Sender
	from   string
	log    zerolog.Logger
}

func New(sender Sender, from string, log zerolog.Logger) (*Mailer, error) {
	if sender == nil {
		return nil, errors.New("email sender is required")
	}
	if from == "" {
		from = DefaultFrom
	}
	return &Mailer{sender: sender, from: from, log: log}, nil
}

// Send validates, renders and delivers msg.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	html, err := RenderHTML(msg)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	m.log.Debug().Int("bytes", len(html)).Int("sections", len(msg.Headings)).Msg("rendered email")

	id, err := m.sender.Send(ctx, Email{From: m.from, To: msg.To, Subject: msg.Subject, HTML: html})
	if err != nil {
		return domain.CollaboratorError("failed to send email", err.Error(), err)
	}
	m.log.Info().Str("email_id", id).Int("recipients", len(msg.To)).Msg("email sent")
	return nil
}

// BuildMarkdown lays the message out as Markdown: title, bold summary,
// heading/paragraph pairs and the image last.
func BuildMarkdown(msg Message) string {
	var sb strings.Builder
	title := strings.TrimSpace(msg.VisionTitle)
	if title == "" {
		title = domain.DefaultTitle
	}
	sb.WriteString("# " + escapeMarkdown(title) + "\n\n")
	if s := strings.TrimSpace(msg.Summary); s != "" {
		sb.WriteString("**Summary:** " + escapeMarkdown(s) + "\n\n")
	}
	for i, h := range msg.Headings {
		if h = strings.TrimSpace(h); h != "" {
			sb.WriteString("### " + escapeMarkdown(h) + "\n\n")
		}
		if i < len(msg.Paragraphs) {
			if p := strings.TrimSpace(msg.Paragraphs[i]); p != "" {
				sb.WriteString(escapeMarkdown(p) + "\n\n")
			}
		}
	}
	if u := strings.TrimSpace(msg.ImageURL); u != "" {
		sb.WriteString("![Vision Image](<" + u + ">)\n")
	}
	return sb.String()
}

// markdownPunct is every character that can start or close markdown syntax.
const markdownPunct = "\\`*_{}[]()<>#+-.!|~&"

// escapeMarkdown backslash-escapes markdown punctuation so user text renders
// as written.
func escapeMarkdown(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune(markdownPunct, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// RenderHTML converts the message to email-safe HTML. Raw HTML in user text
// is not passed through.
func RenderHTML(msg Message) (string, error) {
	html, err := mdToHTML(BuildMarkdown(msg))
	if err != nil {
		return "", err
	}
	return normalizeForEmail(html), nil
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	headingRe = regexp.MustCompile(`(?s)<h([1-6])[^>]*>(.*?)</h[1-6]>`)
	imgRe     = regexp.MustCompile(`<img ([^>]*?)\s*/?>`)
)

// Many mail clients drop <style> blocks, so headings and images get inline
// styles.
func convertHeadingsForEmail(html string) string {
	sizes := map[string]string{
		"1": "24px",
		"2": "22px",
		"3": "18px",
		"4": "16px",
		"5": "15px",
		"6": "14px",
	}
	return headingRe.ReplaceAllStringFunc(html, func(block string) string {
		parts := headingRe.FindStringSubmatch(block)
		if len(parts) != 3 {
			return block
		}
		size := sizes[parts[1]]
		text := strings.TrimSpace(parts[2])
		return fmt.Sprintf(`<h%s style="font-size:%s;font-weight:700;margin:1em 0 0.6em;">%s</h%s>`, parts[1], size, text, parts[1])
	})
}

func styleImagesForEmail(html string) string {
	return imgRe.ReplaceAllString(html, `<img $1 style="max-width:100%;margin-top:20px;">`)
}

func normalizeForEmail(html string) string {
	html = convertHeadingsForEmail(html)
	html = styleImagesForEmail(html)
	return html
}
