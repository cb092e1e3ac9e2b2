package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"civic_horizon/document"
	"civic_horizon/domain"
	"civic_horizon/mailer"
)

var (
	// ErrNoAnswers is a user-facing warning: follow-ups need the original
	// answers.
	ErrNoAnswers  = errors.New("no original answers found; answer at least one question before refining")
	ErrBusy       = errors.New("a request for this part of the vision is already running")
	ErrNoVision   = errors.New("no vision has been generated yet")
	ErrNoFollowUp = errors.New("no follow-up questions are open")
)

const keyParagraphMinRunes = 100

// Backend is the server side as seen by the orchestrator.
type Backend interface {
	Vision(ctx context.Context, req VisionRequest) (VisionResponse, error)
	Image(ctx context.Context, req ImageRequest) (ImageResponse, error)
	FollowUpQuestions(ctx context.Context, answers map[string]string) ([]string, error)
	SendEmail(ctx context.Context, msg mailer.Message) error
}

// Rasterizer loads the image for export.
type Rasterizer interface {
	Rasterize(ctx context.Context, src string) (*domain.RasterImage, error)
}

// Options configures an Orchestrator.
type Options struct {
	// ImageWait bounds image loading during export. Zero means no bound.
	ImageWait time.Duration
	Log       zerolog.Logger
}

// Orchestrator runs a single user session: generation, follow-ups, edits,
// export and email. Its state only changes through Reduce.
type Orchestrator struct {
	api    Backend
	raster Rasterizer
	engine *document.Engine
	opts   Options

	mu    sync.Mutex
	state State
	gen   uint64
}

func New(api Backend, raster Rasterizer, engine *document.Engine, opts Options) *Orchestrator {
	if engine == nil {
		engine = document.New(document.DefaultOptions())
	}
	return &Orchestrator{
		api:    api,
		raster: raster,
		engine: engine,
		opts:   opts,
		state:  State{SessionID: uuid.NewString()},
	}
}

// State returns the current snapshot.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) dispatch(e Event) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = Reduce(o.state, e)
	return o.state
}

func (o *Orchestrator) nextGen() uint64 {
	o.gen++
	return o.gen
}

// GenerateVision makes one vision call and never fails: any error becomes a
// document titled ErrorTitle with no summary or sections.
func (o *Orchestrator) GenerateVision(ctx context.Context, answers map[string]string, themes []string) domain.VisionDocument {
	resp, err := o.api.Vision(ctx, VisionRequest{Answers: answers, Themes: themes})
	if err != nil {
		o.opts.Log.Warn().Err(err).Msg("vision generation failed")
		return ErrorDocument()
	}
	return DocumentFromVision(resp)
}

// GenerateImage returns the image URL for a prompt or vision text, or "" on
// failure.
func (o *Orchestrator) GenerateImage(ctx context.Context, promptOrVisionText string) string {
	resp, err := o.api.Image(ctx, ImageRequest{VisionText: promptOrVisionText})
	if err != nil {
		o.opts.Log.Warn().Err(err).Msg("image generation failed")
		return ""
	}
	return resp.URL
}

// Generate runs a full first pass: the vision, then an image from its text.
// Provider failures are recorded in the state, not returned.
func (o *Orchestrator) Generate(ctx context.Context, answers map[string]string, themes []string) (State, error) {
	o.mu.Lock()
	if o.state.VisionPending() || o.state.ImagePending {
		o.mu.Unlock()
		return o.State(), ErrBusy
	}
	gen := o.nextGen()
	o.state = Reduce(o.state, VisionStarted{Gen: gen, Answers: answers, Themes: themes})
	o.mu.Unlock()

	resp, err := o.api.Vision(ctx, VisionRequest{Answers: answers, Themes: themes})
	if err != nil {
		o.opts.Log.Warn().Err(err).Msg("vision generation failed")
		return o.dispatch(VisionFailed{Gen: gen, Err: err}), nil
	}
	st := o.dispatch(VisionSucceeded{Gen: gen, Document: DocumentFromVision(resp), Text: resp.Vision})
	if st.VisionGen != gen {
		return st, nil
	}

	st, err = o.regenerateImage(ctx, resp.Vision)
	if errors.Is(err, ErrBusy) {
		return st, err
	}
	return st, nil
}

func (o *Orchestrator) regenerateImage(ctx context.Context, visionText string) (State, error) {
	o.mu.Lock()
	if o.state.ImagePending {
		o.mu.Unlock()
		return o.State(), ErrBusy
	}
	gen := o.nextGen()
	o.state = Reduce(o.state, ImageStarted{Gen: gen})
	o.mu.Unlock()

	resp, err := o.api.Image(ctx, ImageRequest{VisionText: visionText})
	if err != nil {
		o.opts.Log.Warn().Err(err).Msg("image generation failed")
		return o.dispatch(ImageFailed{Gen: gen, Err: err}), err
	}
	return o.dispatch(ImageSucceeded{Gen: gen, URL: resp.URL, Caption: resp.Caption}), nil
}

// StartFollowUp fetches clarifying questions for the next action. Without
// original answers it returns ErrNoAnswers and makes no call.
func (o *Orchestrator) StartFollowUp(ctx context.Context, action FollowUpAction) ([]string, error) {
	if action != ActionRefine && action != ActionImage {
		return nil, fmt.Errorf("unknown follow-up action %q", action)
	}
	st := o.State()
	if len(st.Answers) == 0 {
		return nil, ErrNoAnswers
	}
	if st.VisionPending() || (action == ActionImage && st.ImagePending) {
		return nil, ErrBusy
	}

	qs, err := o.api.FollowUpQuestions(ctx, st.Answers)
	if err != nil {
		return nil, fmt.Errorf("could not load follow-up questions: %w", err)
	}
	o.dispatch(FollowUpStarted{Action: action, Questions: qs})
	return qs, nil
}

// AnswerFollowUp records the answer to one open question.
func (o *Orchestrator) AnswerFollowUp(question, answer string) error {
	if o.State().FollowUp == nil {
		return ErrNoFollowUp
	}
	o.dispatch(FollowUpAnswered{Question: question, Answer: answer})
	return nil
}

// ProceedFollowUp carries out the action the follow-up round was opened for.
// The round is closed whether the action succeeds or fails.
func (o *Orchestrator) ProceedFollowUp(ctx context.Context) (State, error) {
	st := o.State()
	if st.FollowUp == nil {
		return st, ErrNoFollowUp
	}
	var err error
	switch st.FollowUp.Action {
	case ActionRefine:
		st, err = o.Refine(ctx, st.FollowUp.ExtraInfo())
	default:
		text := KeyParagraph(st.Document, st.VisionText)
		if text == "" {
			o.dispatch(FollowUpCleared{})
			return o.State(), ErrNoVision
		}
		st, err = o.regenerateImage(ctx, text)
	}
	if errors.Is(err, ErrBusy) {
		st = o.dispatch(FollowUpCleared{})
	}
	return st, err
}

// Refine reshapes the current vision with extra information and replaces
// the document wholesale. On failure the previous document stays.
func (o *Orchestrator) Refine(ctx context.Context, extraInfo string) (State, error) {
	o.mu.Lock()
	if o.state.VisionPending() {
		o.mu.Unlock()
		return o.State(), ErrBusy
	}
	if !o.state.HasVision() {
		o.state = Reduce(o.state, FollowUpCleared{})
		o.mu.Unlock()
		return o.State(), ErrNoVision
	}
	answers := o.state.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	req := VisionRequest{
		Answers:        answers,
		Themes:         o.state.Themes,
		ExtraInfo:      extraInfo,
		Mode:           string(ActionRefine),
		PreviousVision: o.state.VisionText,
	}
	gen := o.nextGen()
	o.state = Reduce(o.state, VisionStarted{Gen: gen, Refine: true})
	o.mu.Unlock()

	resp, err := o.api.Vision(ctx, req)
	if err != nil {
		o.opts.Log.Warn().Err(err).Msg("vision refinement failed")
		return o.dispatch(VisionFailed{Gen: gen, Err: err}), err
	}
	return o.dispatch(VisionSucceeded{Gen: gen, Document: DocumentFromVision(resp), Text: resp.Vision}), nil
}

// EditSection replaces one section in place.
func (o *Orchestrator) EditSection(i int, heading, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if i < 0 || i >= len(o.state.Document.Sections) {
		return fmt.Errorf("section %d out of range (have %d)", i, len(o.state.Document.Sections))
	}
	o.state = Reduce(o.state, SectionEdited{Index: i, Heading: heading, Body: body})
	return nil
}

// Load replaces the session's document, e.g. with one saved by an earlier
// run.
func (o *Orchestrator) Load(doc domain.VisionDocument, visionText, imageURL string) State {
	return o.dispatch(DocumentLoaded{Document: doc, Text: visionText, ImageURL: imageURL})
}

// Resume continues a session saved by an earlier run. Its answers and themes
// are kept so follow-ups work; nothing it had in flight is.
func (o *Orchestrator) Resume(saved State) State {
	return o.dispatch(SessionResumed{State: saved})
}

// KeyParagraph picks the text an image is regenerated from: the first body
// longer than 100 characters that does not talk about "heading", else the
// first body, else the raw vision text.
func KeyParagraph(doc domain.VisionDocument, visionText string) string {
	for _, s := range doc.Sections {
		if len([]rune(s.Body)) > keyParagraphMinRunes && !strings.Contains(strings.ToLower(s.Body), "heading") {
			return s.Body
		}
	}
	if len(doc.Sections) > 0 && doc.Sections[0].Body != "" {
		return doc.Sections[0].Body
	}
	return strings.TrimSpace(visionText)
}

// Export renders the current document as PDF into w. The image is loaded
// within ImageWait; if it cannot be loaded the document is exported without
// it. Nothing is written unless rendering succeeds.
func (o *Orchestrator) Export(ctx context.Context, author string, w io.Writer) (document.Result, error) {
	res, err := o.render(ctx, author)
	if err != nil {
		return document.Result{}, err
	}
	if _, err := res.WriteTo(w); err != nil {
		return res, fmt.Errorf("write pdf: %w", err)
	}
	return res, nil
}

// ExportFile writes the PDF to path (document.FileName when empty) through
// a temporary file, so a failed export leaves no partial file behind.
func (o *Orchestrator) ExportFile(ctx context.Context, author, path string) (document.Result, error) {
	if path == "" {
		path = document.FileName
	}
	res, err := o.render(ctx, author)
	if err != nil {
		return document.Result{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".vision-*.pdf")
	if err != nil {
		return res, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(res.PDF)); err != nil {
		tmp.Close()
		return res, fmt.Errorf("write pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return res, fmt.Errorf("close pdf: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return res, fmt.Errorf("save pdf: %w", err)
	}
	return res, nil
}

func (o *Orchestrator) render(ctx context.Context, author string) (document.Result, error) {
	st := o.State()
	img := o.loadImage(ctx, st.ImageURL)
	res, err := o.engine.Render(st.Document, img, strings.TrimSpace(author))
	if err != nil {
		return document.Result{}, fmt.Errorf("render pdf: %w", err)
	}
	if res.ImageSkipped {
		o.opts.Log.Warn().Msg("image is not a usable JPEG; exported without it")
	}
	return res, nil
}

func (o *Orchestrator) loadImage(ctx context.Context, src string) *domain.RasterImage {
	if o.raster == nil || strings.TrimSpace(src) == "" {
		return nil
	}
	if o.opts.ImageWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.ImageWait)
		defer cancel()
	}
	img, err := o.raster.Rasterize(ctx, src)
	if err != nil {
		o.opts.Log.Warn().Err(err).Msg("image unavailable; exporting without it")
		return nil
	}
	return img
}

// SendEmail mails the current document. One attempt; a failure is returned
// to the caller.
func (o *Orchestrator) SendEmail(ctx context.Context, to []string, subject string) error {
	st := o.State()
	if !st.HasVision() {
		return ErrNoVision
	}
	doc := st.Document
	msg := mailer.Message{
		To:          to,
		Subject:     subject,
		VisionTitle: doc.DisplayTitle(),
		Summary:     doc.Summary,
		Headings:    doc.Headings(),
		Paragraphs:  doc.Paragraphs(),
		ImageURL:    st.ImageURL,
	}
	if err := o.api.SendEmail(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
