package client

import (
	"fmt"
	"strings"

	"civic_horizon/domain"
)

// ErrorTitle marks a document produced by a failed generation.
const ErrorTitle = "Error generating vision."

// Phase is where the vision part of a session stands.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseGenerating
	PhaseReady
	PhaseRefining
)

func (p Phase) String() string {
	switch p {
	case PhaseGenerating:
		return "generating"
	case PhaseReady:
		return "ready"
	case PhaseRefining:
		return "refining"
	default:
		return "idle"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "generating":
		*p = PhaseGenerating
	case "ready":
		*p = PhaseReady
	case "refining":
		*p = PhaseRefining
	case "idle", "":
		*p = PhaseIdle
	default:
		return fmt.Errorf("unknown phase %q", b)
	}
	return nil
}

// FollowUpAction is what happens once follow-up questions are answered.
type FollowUpAction string

const (
	ActionRefine FollowUpAction = "refine"
	ActionImage  FollowUpAction = "image"
)

// FollowUpSession holds one round of clarifying questions.
type FollowUpSession struct {
	OriginalAnswers map[string]string `json:"originalAnswers"`
	Questions       []string          `json:"questions"`
	Answers         map[string]string `json:"answers"`
	Action          FollowUpAction    `json:"action"`
}

// ExtraInfo joins the answers in question order.
func (f *FollowUpSession) ExtraInfo() string {
	if f == nil {
		return ""
	}
	parts := make([]string, 0, len(f.Answers))
	for _, q := range f.Questions {
		if a := strings.TrimSpace(f.Answers[q]); a != "" {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, " ")
}

// State is one immutable snapshot of a session. Only Reduce produces new
// states.
type State struct {
	SessionID    string                `json:"sessionId"`
	Phase        Phase                 `json:"phase"`
	Answers      map[string]string     `json:"answers,omitempty"`
	Themes       []string              `json:"themes,omitempty"`
	Document     domain.VisionDocument `json:"document"`
	VisionText   string                `json:"vision"`
	ImageURL     string                `json:"imageUrl"`
	ImageCaption string                `json:"imageCaption,omitempty"`
	ImagePending bool                  `json:"imagePending"`
	FollowUp     *FollowUpSession      `json:"followUp,omitempty"`
	LastError    string                `json:"lastError,omitempty"`

	// Generation tags of the latest started requests; replies carrying an
	// older tag are stale.
	VisionGen uint64 `json:"-"`
	ImageGen  uint64 `json:"-"`
}

// VisionPending reports whether a vision request is in flight.
func (s State) VisionPending() bool {
	return s.Phase == PhaseGenerating || s.Phase == PhaseRefining
}

// HasVision reports whether there is a real document to refine or export.
func (s State) HasVision() bool {
	return s.Document.Title != ErrorTitle && (len(s.Document.Sections) > 0 || s.VisionText != "")
}

// Event moves a State forward.
type Event interface {
	isEvent()
}

type (
	VisionStarted struct {
		Gen     uint64
		Refine  bool
		Answers map[string]string
		Themes  []string
	}
	VisionSucceeded struct {
		Gen      uint64
		Document domain.VisionDocument
		Text     string
	}
	VisionFailed struct {
		Gen uint64
		Err error
	}
	ImageStarted struct {
		Gen uint64
	}
	ImageSucceeded struct {
		Gen     uint64
		URL     string
		Caption string
	}
	ImageFailed struct {
		Gen uint64
		Err error
	}
	FollowUpStarted struct {
		Action    FollowUpAction
		Questions []string
	}
	FollowUpAnswered struct {
		Question string
		Answer   string
	}
	FollowUpCleared struct{}
	SectionEdited   struct {
		Index   int
		Heading string
		Body    string
	}
	DocumentLoaded struct {
		Document domain.VisionDocument
		Text     string
		ImageURL string
	}
	SessionResumed struct {
		State State
	}
)

func (VisionStarted) isEvent()    {}
func (VisionSucceeded) isEvent()  {}
func (VisionFailed) isEvent()     {}
func (ImageStarted) isEvent()     {}
func (ImageSucceeded) isEvent()   {}
func (ImageFailed) isEvent()      {}
func (FollowUpStarted) isEvent()  {}
func (FollowUpAnswered) isEvent() {}
func (FollowUpCleared) isEvent()  {}
func (SectionEdited) isEvent()    {}
func (DocumentLoaded) isEvent()   {}
func (SessionResumed) isEvent()   {}

// ErrorDocument is what a failed first generation leaves behind.
func ErrorDocument() domain.VisionDocument {
	return domain.VisionDocument{Title: ErrorTitle}
}

// Reduce returns the state that follows s after e. s is never modified.
func Reduce(s State, e Event) State {
	switch e := e.(type) {
	case VisionStarted:
		s.VisionGen = e.Gen
		s.LastError = ""
		if e.Refine {
			s.Phase = PhaseRefining
			return s
		}
		s.Phase = PhaseGenerating
		s.Answers = copyMap(e.Answers)
		s.Themes = append([]string(nil), e.Themes...)
		s.Document = domain.VisionDocument{}
		s.VisionText = ""
		s.ImageURL, s.ImageCaption = "", ""
		s.FollowUp = nil

	case VisionSucceeded:
		if e.Gen != s.VisionGen || !s.VisionPending() {
			return s
		}
		if s.Phase == PhaseRefining && s.FollowUp != nil && s.FollowUp.Action == ActionRefine {
			s.FollowUp = nil
		}
		s.Phase = PhaseReady
		s.Document = e.Document.Clone()
		s.VisionText = e.Text

	case VisionFailed:
		if e.Gen != s.VisionGen || !s.VisionPending() {
			return s
		}
		s.LastError = errText(e.Err)
		if s.Phase == PhaseRefining {
			s.Phase = PhaseReady
			if s.FollowUp != nil && s.FollowUp.Action == ActionRefine {
				s.FollowUp = nil
			}
			return s
		}
		s.Phase = PhaseIdle
		s.Document = ErrorDocument()
		s.VisionText = ""

	case ImageStarted:
		s.ImageGen = e.Gen
		s.ImagePending = true

	case ImageSucceeded:
		if e.Gen != s.ImageGen || !s.ImagePending {
			return s
		}
		s.ImagePending = false
		s.ImageURL, s.ImageCaption = e.URL, e.Caption
		if s.FollowUp != nil && s.FollowUp.Action == ActionImage {
			s.FollowUp = nil
		}

	case ImageFailed:
		if e.Gen != s.ImageGen || !s.ImagePending {
			return s
		}
		s.ImagePending = false
		s.LastError = errText(e.Err)
		if s.FollowUp != nil && s.FollowUp.Action == ActionImage {
			s.FollowUp = nil
		}

	case FollowUpStarted:
		s.FollowUp = &FollowUpSession{
			OriginalAnswers: copyMap(s.Answers),
			Questions:       append([]string(nil), e.Questions...),
			Answers:         map[string]string{},
			Action:          e.Action,
		}

	case FollowUpAnswered:
		if s.FollowUp == nil {
			return s
		}
		fu := *s.FollowUp
		fu.Answers = copyMap(fu.Answers)
		if fu.Answers == nil {
			fu.Answers = map[string]string{}
		}
		fu.Answers[e.Question] = e.Answer
		s.FollowUp = &fu

	case FollowUpCleared:
		s.FollowUp = nil

	case SectionEdited:
		if e.Index < 0 || e.Index >= len(s.Document.Sections) {
			return s
		}
		doc := s.Document.Clone()
		doc.Sections[e.Index] = domain.Section{Heading: e.Heading, Body: e.Body}
		s.Document = doc
		s.VisionText = doc.Markdown()

	case DocumentLoaded:
		s.Phase = PhaseReady
		s.Document = e.Document.Clone()
		s.VisionText = e.Text
		if s.VisionText == "" {
			s.VisionText = e.Document.Markdown()
		}
		s.ImageURL = e.ImageURL
		s.ImagePending = false
		s.FollowUp = nil

	case SessionResumed:
		// Requests of the saved session are gone; only its results carry over.
		r := e.State
		r.Answers = copyMap(r.Answers)
		r.Themes = append([]string(nil), r.Themes...)
		r.Document = r.Document.Clone()
		r.VisionGen, r.ImageGen = s.VisionGen, s.ImageGen
		r.ImagePending = false
		r.FollowUp = nil
		if r.SessionID == "" {
			r.SessionID = s.SessionID
		}
		r.Phase = PhaseIdle
		if r.HasVision() {
			r.Phase = PhaseReady
		}
		if r.VisionText == "" {
			r.VisionText = r.Document.Markdown()
		}
		return r
	}
	return s
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
