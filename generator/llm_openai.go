package generator

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"civic_horizon/domain"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
// DeepSeek and other OpenAI-compatible endpoints work through BaseURL.
type OpenAILLM struct {
	Model       string
	Temperature float64
	Opts        []option.RequestOption
}

func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	opts, err := openAIOptions(cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	return &OpenAILLM{Model: cfg.Model, Temperature: cfg.Temperature, Opts: opts}, nil
}

func openAIOptions(apiKey, baseURL string) ([]option.RequestOption, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key missing; set OPENAI_API_KEY or llm.api_key")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return opts, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	client := openai.NewClient(o.Opts...)

	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt.System),
	}
	for _, h := range prompt.History {
		switch h.Role {
		case "assistant":
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(h.Content))
		default:
			msgs = append(msgs, openai.UserMessage(h.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: msgs,
	}
	if t := temperature(prompt, o.Temperature); t > 0 {
		params.Temperature = openai.Float(t)
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", openAIError("chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.CollaboratorError("openai: empty choices", nil, ErrEmptyOutput)
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAIImages implements ImageClient with the images API (DALL·E).
type OpenAIImages struct {
	Model string
	Size  string
	Opts  []option.RequestOption
}

func NewOpenAIImagesFromConfig(cfg *ImageSettings) (*OpenAIImages, error) {
	if cfg == nil {
		return nil, errors.New("image config is nil")
	}
	opts, err := openAIOptions(cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.ImageModelDallE3)
	}
	size := cfg.Size
	if size == "" {
		size = "1024x1024"
	}
	return &OpenAIImages{Model: model, Size: size, Opts: opts}, nil
}

func (o *OpenAIImages) Generate(ctx context.Context, prompt string) (Image, error) {
	client := openai.NewClient(o.Opts...)

	resp, err := client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(o.Model),
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize(o.Size),
	})
	if err != nil {
		return Image{}, openAIError("image generation failed", err)
	}
	if len(resp.Data) == 0 {
		return Image{}, domain.CollaboratorError("openai: no image returned", nil, ErrMissingURL)
	}
	img := resp.Data[0]
	url := img.URL
	if url == "" && img.B64JSON != "" {
		url = "data:image/png;base64," + img.B64JSON
	}
	if url == "" {
		return Image{}, domain.CollaboratorError("openai: image without url", nil, ErrMissingURL)
	}
	return Image{URL: url, Caption: img.RevisedPrompt}, nil
}

// openAIError keeps the provider's status and message for diagnosis.
func openAIError(msg string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return domain.CollaboratorError(msg, map[string]any{
			"status":  apiErr.StatusCode,
			"type":    apiErr.Type,
			"code":    apiErr.Code,
			"message": apiErr.Message,
		}, err)
	}
	return domain.CollaboratorError(msg, err.Error(), err)
}
