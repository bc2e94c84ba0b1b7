package content

// Default возвращает стартовый документ, который редактор показывает до первого сохранения.
// Каждый вызов отдаёт новую копию.
func Default() *Document {
	return &Document{
		Meta: Meta{
			Name:     "Your Name",
			Title:    "Full Stack Developer",
			Email:    "hello@example.com",
			Twitter:  Ptr("https://twitter.com/"),
			Location: Ptr("San Francisco, CA"),
		},
		About: About{
			Paragraph: "I am a passionate developer with experience in building web applications.",
			Hobbies:   []string{"Coding", "Reading", "Hiking"},
		},
		ExperienceSections: []ExperienceSection{},
		Experiences: []Experience{
			{
				ID:      "exp-1",
				Role:    "Senior Developer",
				Org:     "Tech Corp",
				Period:  "2020 - Present",
				Bullets: []string{"Led team of 5 developers", "Improved performance by 50%"},
				Order:   1,
			},
		},
		Projects: []Project{
			{
				ID:          "proj-1",
				Title:       "Portfolio Site",
				Description: Ptr("A personal portfolio website built with Next.js"),
				Link:        Ptr("https://github.com/"),
				Tags:        []string{"Next.js", "TypeScript", "Tailwind"},
				Order:       1,
			},
		},
		Skills: []Skill{
			{ID: "skill-1", Name: "React", Category: Ptr("Frontend"), Level: Ptr(5), Order: 1},
		},
		Contact: &Contact{Note: Ptr("I am available for freelance work.")},
	}
}

// LegacyExperience: строка старой таблицы опыта.
type LegacyExperience struct {
	ID           string
	Role         string
	Organization string
	Period       string
	Bullets      []string
	OrderIndex   int
}

// LegacyProject: строка старой таблицы проектов.
type LegacyProject struct {
	ID          string
	Title       string
	Description *string
	Link        *string
	Tags        []string
	OrderIndex  int
}

// LegacySkill: строка старой таблицы навыков.
type LegacySkill struct {
	ID         string
	Name       string
	Category   *string
	Level      *int
	OrderIndex int
}

// Legacy: данные портфолио, сохранённые до появления единого документа.
type Legacy struct {
	Title       string
	Description *string
	Experiences []LegacyExperience
	Projects    []LegacyProject
	Skills      []LegacySkill
}

const (
	legacyEmail       = "contact@example.com"
	legacyContactNote = "Let's connect and discuss opportunities!"
)

// FromLegacy собирает документ из строк старых таблиц. Строки ожидаются уже отсортированными по order_index.
func FromLegacy(l Legacy) *Document {
	description := ""
	if l.Description != nil {
		description = *l.Description
	}

	doc := &Document{
		Meta: Meta{
			Name:  l.Title,
			Title: description,
			Email: legacyEmail,
		},
		About: About{
			Paragraph: description,
			Hobbies:   []string{},
		},
		ExperienceSections: []ExperienceSection{},
		Experiences:        make([]Experience, 0, len(l.Experiences)),
		Projects:           make([]Project, 0, len(l.Projects)),
		Skills:             make([]Skill, 0, len(l.Skills)),
		Contact:            &Contact{Note: Ptr(legacyContactNote)},
	}

	for _, e := range l.Experiences {
		bullets := e.Bullets
		if bullets == nil {
			bullets = []string{}
		}
		doc.Experiences = append(doc.Experiences, Experience{
			ID:      e.ID,
			Role:    e.Role,
			Org:     e.Organization,
			Period:  e.Period,
			Bullets: bullets,
			Order:   e.OrderIndex,
		})
	}

	for _, p := range l.Projects {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		doc.Projects = append(doc.Projects, Project{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Link:        p.Link,
			Tags:        tags,
			Order:       p.OrderIndex,
		})
	}

	for _, s := range l.Skills {
		doc.Skills = append(doc.Skills, Skill{
			ID:       s.ID,
			Name:     s.Name,
			Category: s.Category,
			Level:    s.Level,
			Order:    s.OrderIndex,
		})
	}

	return doc
}
