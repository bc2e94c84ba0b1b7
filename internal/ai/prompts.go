package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BioPrompt: переписать био кратко и с упором на результаты.
func BioPrompt(bio string) string {
	return fmt.Sprintf(`ROLE: You are a professional technical recruiter and career coach.
TASK: Rewrite the following developer bio to be concise (max 120 words), confident, and impact-focused.
INPUT BIO: %q`, bio)
}

// ProjectPrompt: превратить заметки в описание проекта.
func ProjectPrompt(notes string) string {
	return fmt.Sprintf(`ROLE: Senior software engineer.
TASK: Turn these notes into a polished portfolio project description. Mention problem, solution, tech stack, and impact.
NOTES: %q`, notes)
}

// OrganizeExperiencePrompt: сгруппировать опыт по секциям, ответ строго JSON.
func OrganizeExperiencePrompt(experiences string) string {
	return `ROLE: Career organizer.
TASK: Group these experiences into logical sections (e.g. Engineering, Design).
FORMAT: Return ONLY valid JSON. No markdown. Structure: { "sections": [{ "name": "...", "intro": "...", "experienceIds": ["..."] }] }
EXPERIENCES: ` + experiences
}

// SummarizePortfolioPrompt: краткое резюме по данным портфолио.
func SummarizePortfolioPrompt(portfolio string) string {
	return `ROLE: Recruiter.
TASK: Create a short professional summary based on this portfolio data. Highlight strengths.
DATA: ` + portfolio
}

// ProfessionalSummaryPrompt: 2-3 предложения для шапки портфолио.
func ProfessionalSummaryPrompt(existing string) string {
	return fmt.Sprintf(`ROLE: Career Consultant.
TASK: Write a compelling 2-3 sentence professional summary for a developer portfolio hero section. Focus on tech stack and level.
CONTEXT: %q`, existing)
}

// Grouping: ответ модели на запрос группировки опыта.
type Grouping struct {
	Sections []GroupingSection `json:"sections"`
}

// GroupingSection: одна предложенная секция.
type GroupingSection struct {
	Name          string   `json:"name"`
	Intro         string   `json:"intro"`
	ExperienceIDs []string `json:"experienceIds"`
}

// StripCodeFences убирает markdown-ограждения ``` и ```json вокруг ответа модели.
func StripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ParseGrouping разбирает JSON группировки из ответа модели.
func ParseGrouping(text string) (*Grouping, error) {
	var g Grouping
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &g); err != nil {
		return nil, fmt.Errorf("ai: ответ не является JSON группировки: %w", err)
	}
	if g.Sections == nil {
		g.Sections = []GroupingSection{}
	}
	return &g, nil
}
