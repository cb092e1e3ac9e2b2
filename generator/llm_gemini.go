package generator

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	genai "google.golang.org/genai"

	"civic_horizon/domain"
)

const (
	defaultGeminiModel      = "gemini-2.5-flash"
	defaultGeminiImageModel = "gemini-2.5-flash-image"
)

// GeminiLLM implements LLMClient on the Gemini API.
type GeminiLLM struct {
	client      *genai.Client
	model       string
	temperature float64
}

func NewGeminiLLM(ctx context.Context, cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	c, err := newGeminiClient(ctx, cfg.APIKey)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiLLM{client: c, model: model, temperature: cfg.Temperature}, nil
}

func newGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key missing; set GEMINI_API_KEY")
	}
	return genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
}

func (g *GeminiLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	contents := make([]*genai.Content, 0, len(prompt.History)+1)
	for _, h := range prompt.History {
		role := genai.RoleUser
		if h.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(h.Content, genai.Role(role)))
	}
	contents = append(contents, genai.NewContentFromText(prompt.User, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{}
	if prompt.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}
	if t := temperature(prompt, g.temperature); t > 0 {
		cfg.Temperature = genai.Ptr(float32(t))
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", domain.CollaboratorError("gemini: generate content failed", err.Error(), err)
	}
	return res.Text(), nil
}

// GeminiImages implements ImageClient with a Gemini image model. The image
// comes back inline, so the URL is a data URL.
type GeminiImages struct {
	client *genai.Client
	model  string
}

func NewGeminiImages(ctx context.Context, cfg *ImageSettings) (*GeminiImages, error) {
	if cfg == nil {
		return nil, errors.New("image config is nil")
	}
	c, err := newGeminiClient(ctx, cfg.APIKey)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiImageModel
	}
	return &GeminiImages{client: c, model: model}, nil
}

func (g *GeminiImages) Generate(ctx context.Context, prompt string) (Image, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, nil)
	if err != nil {
		return Image{}, domain.CollaboratorError("gemini: image generation failed", err.Error(), err)
	}
	return imageFromResponse(res)
}

// imageFromResponse takes the first inline image of the first candidate;
// any text parts become the caption.
func imageFromResponse(res *genai.GenerateContentResponse) (Image, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return Image{}, domain.CollaboratorError("gemini: empty response", nil, ErrMissingURL)
	}
	var (
		img     Image
		caption []string
	)
	for _, part := range res.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 && img.URL == "" {
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			img.URL = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data)
			continue
		}
		if t := strings.TrimSpace(part.Text); t != "" {
			caption = append(caption, t)
		}
	}
	if img.URL == "" {
		return Image{}, domain.CollaboratorError("gemini: no image data", strings.Join(caption, " "), ErrMissingURL)
	}
	img.Caption = strings.Join(caption, " ")
	return img, nil
}
