package vision

import (
	"context"
	"errors"

	"github.com/wochenmarkt/ingestor/src/utils/config"

	"github.com/cloudwego/eino-ext/components/model/ark"
)

var ErrNotConfigured = errors.New("structuring model not configured")

// Vision-language chat model behind the Ark OpenAI-like api
func NewChatModel(ctx context.Context, cfg *config.Model) (out *ark.ChatModel, err error) {
	if cfg.ApiKey == "" || cfg.Name == "" {
		err = ErrNotConfigured
		return
	}

	timeout := cfg.RequestTimeout
	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     cfg.BaseUrl,
		APIKey:      cfg.ApiKey,
		Model:       cfg.Name,
		Timeout:     &timeout,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
}
