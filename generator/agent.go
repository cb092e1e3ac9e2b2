package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"civic_horizon/domain"
)

// Agent turns user input into model calls and parses what comes back.
type Agent struct {
	llm    LLMClient
	images ImageClient
	log    zerolog.Logger
}

func NewAgent(llm LLMClient, images ImageClient) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Agent{llm: llm, images: images, log: zerolog.Nop()}, nil
}

// WithLogger sets the logger used for provider diagnostics.
func (a *Agent) WithLogger(l zerolog.Logger) *Agent {
	a.log = l
	return a
}

// GenerateVision writes a first vision or, in refine mode, reshapes the
// previous one with the follow-up answers.
func (a *Agent) GenerateVision(ctx context.Context, req VisionRequest) (Vision, error) {
	if len(req.Answers) == 0 && strings.TrimSpace(req.ExtraInfo) == "" {
		return Vision{}, domain.ValidationError("answers are required")
	}

	var prompt Prompt
	if req.Refining() {
		prompt = BuildRefinePrompt(req)
	} else {
		prompt = BuildVisionPrompt(req)
	}

	raw, err := a.complete(ctx, "vision", prompt)
	if err != nil {
		return Vision{}, err
	}
	return ParseVision(raw)
}

// FollowUpQuestions asks for clarifying questions about the answers.
func (a *Agent) FollowUpQuestions(ctx context.Context, answers Answers) ([]string, error) {
	if len(answers) == 0 {
		return nil, domain.ValidationError("missing or invalid answers")
	}
	raw, err := a.complete(ctx, "follow-up", BuildFollowUpPrompt(answers))
	if err != nil {
		return nil, err
	}
	qs := ParseQuestions(raw)
	if qs == nil {
		qs = []string{}
	}
	return qs, nil
}

// Summarize derives a short title and summary from finished vision text.
func (a *Agent) Summarize(ctx context.Context, vision string) (Summary, error) {
	if strings.TrimSpace(vision) == "" {
		return Summary{}, domain.ValidationError("missing vision text")
	}
	raw, err := a.complete(ctx, "summary", BuildSummaryPrompt(vision))
	if err != nil {
		return Summary{}, err
	}
	return ParseSummary(raw)
}

// GenerateImage illustrates a vision. A ready prompt wins over vision text.
func (a *Agent) GenerateImage(ctx context.Context, req ImageRequest) (Image, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		if strings.TrimSpace(req.VisionText) == "" {
			return Image{}, domain.ValidationError("missing prompt or visionText")
		}
		prompt = BuildImagePrompt(req.VisionText)
	}
	if a.images == nil {
		return Image{}, domain.CollaboratorError("image generation is not configured", nil, nil)
	}

	start := time.Now()
	img, err := a.images.Generate(ctx, prompt)
	if err != nil {
		a.log.Debug().Err(err).Dur("took", time.Since(start)).Msg("image generation failed")
		return Image{}, collaborator("image generation failed", err)
	}
	if strings.TrimSpace(img.URL) == "" {
		return Image{}, domain.CollaboratorError("image generation failed", nil, ErrMissingURL)
	}
	a.log.Debug().Dur("took", time.Since(start)).Msg("image generated")
	return img, nil
}

func (a *Agent) complete(ctx context.Context, what string, prompt Prompt) (string, error) {
	start := time.Now()
	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		a.log.Debug().Err(err).Str("call", what).Dur("took", time.Since(start)).Msg("llm call failed")
		return "", collaborator(what+" generation failed", err)
	}
	a.log.Debug().Str("call", what).Int("chars", len(raw)).Dur("took", time.Since(start)).Msg("llm call done")
	return raw, nil
}

// collaborator keeps typed errors from the clients and wraps anything else.
func collaborator(msg string, err error) error {
	if domain.KindOf(err) != "" {
		return err
	}
	return domain.CollaboratorError(msg, err.Error(), err)
}
