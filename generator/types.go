package generator

// Answers maps a question to the user's answer.
type Answers map[string]string

// VisionRequest describes what the user asked for before generation or
// refinement.
type VisionRequest struct {
	Answers Answers
	Themes  []string
	// ExtraInfo carries follow-up answers when refining.
	ExtraInfo string
	// Mode is "refine" when ExtraInfo should reshape an existing vision.
	Mode string
	// PreviousVision is the vision being refined, if the caller has one.
	PreviousVision string
}

// Refining reports whether the request asks for a refinement.
func (r VisionRequest) Refining() bool {
	return r.Mode == ModeRefine
}

const ModeRefine = "refine"

// Vision is the model output in its canonical shape: Markdown carries the
// section headings as "#" lines.
type Vision struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Markdown string `json:"vision"`
}

// Summary is the title/summary pair extracted from a finished vision.
type Summary struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// ImageRequest carries either a ready prompt or the vision text to derive
// one from.
type ImageRequest struct {
	Prompt     string
	VisionText string
}

// Image is a generated illustration. URL may be an https URL or a data URL.
type Image struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}
