// Package ai содержит клиентов генеративных моделей и промпты для подсказок в редакторе портфолио.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured возвращается, когда провайдер AI не настроен.
	ErrNotConfigured = errors.New("ai: провайдер не настроен")
	// ErrEmptyResponse возвращается, когда модель ответила пустым текстом.
	ErrEmptyResponse = errors.New("ai: пустой ответ")
)

// Generator выполняет одно текстовое завершение по готовому промпту.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Провайдеры.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Options: настройки выбора провайдера.
type Options struct {
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	BaseURL      string
	Model        string
	APIKey       string
}

// NewGenerator выбирает провайдера по настройкам. Возвращает ErrNotConfigured,
// если для выбранного провайдера нет ключа или адреса.
func NewGenerator(ctx context.Context, opts Options) (Generator, error) {
	switch opts.Provider {
	case ProviderOpenAI:
		if opts.BaseURL == "" {
			return nil, ErrNotConfigured
		}
		return NewClient(opts.BaseURL, opts.Model, opts.APIKey), nil
	default:
		g, err := NewGeminiClient(ctx, opts.GeminiAPIKey, opts.GeminiModel)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
}
