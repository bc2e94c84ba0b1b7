package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/workfolio-backend/internal/ai"
	"github.com/ignatzorin/workfolio-backend/internal/logger"
	"github.com/ignatzorin/workfolio-backend/internal/pkg/apperror"
)

// Действия помощника.
const (
	ActionRewriteBio         = "rewrite-bio"
	ActionEnhanceProject     = "enhance-project"
	ActionOrganizeExperience = "organize-experience"
	ActionSummarizePortfolio = "summarize-portfolio"
	ActionGenerateSummary    = "generate-summary"
)

const bioPreviewRunes = 50

// AssistService проксирует текст редактора в генеративную модель.
// Текстовые действия не возвращают ошибок: при сбое отдаётся помеченная заглушка.
type AssistService struct {
	gen ai.Generator
}

// NewAssistService создаёт сервис. gen может быть nil, если провайдер не настроен.
func NewAssistService(gen ai.Generator) *AssistService {
	return &AssistService{gen: gen}
}

// Run выполняет действие по имени. В data лежат поля, которые ожидает действие.
func (s *AssistService) Run(ctx context.Context, action string, data map[string]json.RawMessage) (interface{}, error) {
	var result interface{}

	switch action {
	case ActionRewriteBio:
		result = s.RewriteBio(ctx, textField(data, "bio"))
	case ActionEnhanceProject:
		result = s.EnhanceProject(ctx, textField(data, "notes"))
	case ActionOrganizeExperience:
		grouping := s.OrganizeExperience(ctx, textField(data, "experiences"))
		if grouping == nil {
			return nil, apperror.New(apperror.ErrCodeUpstream, "AI Generation Failed")
		}
		result = grouping
	case ActionSummarizePortfolio:
		result = s.SummarizePortfolio(ctx, textField(data, "portfolio"))
	case ActionGenerateSummary:
		result = s.ProfessionalSummary(ctx, textField(data, "existing"))
	default:
		return nil, apperror.New(apperror.ErrCodeBadRequest, "Invalid action")
	}

	return result, nil
}

// RewriteBio переписывает био. При сбое возвращает начало исходного текста с пометкой.
func (s *AssistService) RewriteBio(ctx context.Context, bio string) string {
	if s.gen == nil {
		return fmt.Sprintf("[MOCK BIO] %s... (AI Unavailable)", truncateRunes(bio, bioPreviewRunes))
	}
	text, err := s.generate(ctx, ActionRewriteBio, ai.BioPrompt(bio))
	if err != nil {
		return fmt.Sprintf("[MOCK BIO] %s... (AI Error)", truncateRunes(bio, bioPreviewRunes))
	}
	return text
}

// EnhanceProject превращает заметки в описание проекта.
func (s *AssistService) EnhanceProject(ctx context.Context, notes string) string {
	if s.gen == nil {
		return "Enhanced description unavailable (AI Config Missing)"
	}
	text, err := s.generate(ctx, ActionEnhanceProject, ai.ProjectPrompt(notes))
	if err != nil {
		return "Enhanced description unavailable (AI Error)"
	}
	return text
}

// OrganizeExperience предлагает группировку опыта по секциям. nil при любом сбое.
func (s *AssistService) OrganizeExperience(ctx context.Context, experiences string) *ai.Grouping {
	if s.gen == nil {
		return nil
	}
	text, err := s.generate(ctx, ActionOrganizeExperience, ai.OrganizeExperiencePrompt(experiences))
	if err != nil {
		return nil
	}
	grouping, err := ai.ParseGrouping(text)
	if err != nil {
		logAssistFailure(ActionOrganizeExperience, err)
		return nil
	}
	return grouping
}

// SummarizePortfolio составляет краткое резюме по данным портфолио.
func (s *AssistService) SummarizePortfolio(ctx context.Context, portfolio string) string {
	if s.gen == nil {
		return "Summary unavailable"
	}
	text, err := s.generate(ctx, ActionSummarizePortfolio, ai.SummarizePortfolioPrompt(portfolio))
	if err != nil {
		return "Summary unavailable (AI Error)"
	}
	return text
}

// ProfessionalSummary пишет 2-3 предложения для шапки.
func (s *AssistService) ProfessionalSummary(ctx context.Context, existing string) string {
	if s.gen == nil {
		return "Summary unavailable"
	}
	text, err := s.generate(ctx, ActionGenerateSummary, ai.ProfessionalSummaryPrompt(existing))
	if err != nil {
		return "Professional summary unavailable (AI Error)"
	}
	return text
}

func (s *AssistService) generate(ctx context.Context, action, prompt string) (string, error) {
	text, err := s.gen.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ai.ErrEmptyResponse
	}
	if err != nil {
		logAssistFailure(action, err)
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func logAssistFailure(action string, err error) {
	logger.L().WithFields(logrus.Fields{
		"action": action,
		"error":  err.Error(),
	}).Error("assist service: ошибка генерации")
}

// textField достаёт поле как строку; нестроковые JSON значения передаются модели как есть.
func textField(data map[string]json.RawMessage, key string) string {
	raw, ok := data[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
