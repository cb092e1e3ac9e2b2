package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"civic_horizon/config"
	"civic_horizon/generator"
	"civic_horizon/mailer"
)

const (
	defaultOpenAIModel   = "gpt-4o"
	defaultDeepSeekURL   = "https://api.deepseek.com"
	defaultDeepSeekModel = "deepseek-chat"
)

func buildLLM(ctx context.Context, cfg config.LLMConfig) (generator.LLMClient, error) {
	settings := &generator.LLMSettings{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
	}
	switch cfg.Provider {
	case "openai":
		if settings.Model == "" {
			settings.Model = defaultOpenAIModel
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek speaks the OpenAI chat protocol.
		if settings.BaseURL == "" {
			settings.BaseURL = defaultDeepSeekURL
		}
		if settings.Model == "" {
			settings.Model = defaultDeepSeekModel
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "gemini":
		return generator.NewGeminiLLM(ctx, settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

func buildImages(ctx context.Context, cfg config.ImageConfig) (generator.ImageClient, error) {
	settings := &generator.ImageSettings{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Size:     cfg.Size,
	}
	switch cfg.Provider {
	case "openai":
		return generator.NewOpenAIImagesFromConfig(settings)
	case "gemini":
		return generator.NewGeminiImages(ctx, settings)
	case "mock":
		return generator.MockImages{}, nil
	default:
		return nil, fmt.Errorf("image provider %s not supported", cfg.Provider)
	}
}

func buildMailer(cfg config.EmailConfig, log zerolog.Logger) (*mailer.Mailer, error) {
	var sender mailer.Sender
	switch cfg.Provider {
	case "resend":
		s, err := mailer.NewResendSender(cfg.APIKey, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		sender = s
	case "log":
		sender = mailer.LogSender{Log: log}
	default:
		return nil, fmt.Errorf("email provider %s not supported", cfg.Provider)
	}
	return mailer.New(sender, cfg.From, log)
}
