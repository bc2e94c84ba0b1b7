// Package content описывает документ портфолио: структуру, валидацию и операции над упорядоченными списками.
package content

// Meta — шапка портфолио.
type Meta struct {
	Name      string  `json:"name"`
	Title     string  `json:"title"`
	Email     string  `json:"email"`
	Twitter   *string `json:"twitter,omitempty"`
	Location  *string `json:"location,omitempty"`
	HeroImage *string `json:"heroImage,omitempty"`
	Summary   *string `json:"summary,omitempty"`
}

// About — блок «обо мне».
type About struct {
	Paragraph string   `json:"paragraph"`
	Hobbies   []string `json:"hobbies"`
	Image     *string  `json:"image,omitempty"`
}

// ExperienceSection группирует записи опыта.
type ExperienceSection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

// Experience — одна запись опыта работы.
type Experience struct {
	ID        string   `json:"id"`
	Role      string   `json:"role"`
	Org       string   `json:"org"`
	Period    string   `json:"period"`
	Bullets   []string `json:"bullets"`
	Order     int      `json:"order"`
	SectionID *string  `json:"sectionId,omitempty"`
}

// Project — карточка проекта.
type Project struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Link        *string  `json:"link,omitempty"`
	Tags        []string `json:"tags"`
	Order       int      `json:"order"`
	Image       *string  `json:"image,omitempty"`
}

// Skill — навык с необязательной категорией и уровнем от 1 до 5.
type Skill struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category *string `json:"category,omitempty"`
	Level    *int    `json:"level,omitempty"`
	Order    int     `json:"order"`
}

// Contact — блок контактов.
type Contact struct {
	Note *string `json:"note,omitempty"`
}

// Document — полный документ портфолио владельца.
type Document struct {
	Meta               Meta                `json:"meta"`
	About              About               `json:"about"`
	ExperienceSections []ExperienceSection `json:"experienceSections"`
	Experiences        []Experience        `json:"experiences"`
	Projects           []Project           `json:"projects"`
	Skills             []Skill             `json:"skills"`
	Contact            *Contact            `json:"contact,omitempty"`
}

// FieldError — одно нарушение схемы: путь до поля и причина.
type FieldError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Clone возвращает глубокую копию документа.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}

	out := *d
	out.Meta.Twitter = clonePtr(d.Meta.Twitter)
	out.Meta.Location = clonePtr(d.Meta.Location)
	out.Meta.HeroImage = clonePtr(d.Meta.HeroImage)
	out.Meta.Summary = clonePtr(d.Meta.Summary)
	out.About.Hobbies = append([]string{}, d.About.Hobbies...)
	out.About.Image = clonePtr(d.About.Image)

	out.ExperienceSections = append([]ExperienceSection{}, d.ExperienceSections...)

	out.Experiences = make([]Experience, len(d.Experiences))
	for i, e := range d.Experiences {
		e.Bullets = append([]string{}, e.Bullets...)
		e.SectionID = clonePtr(e.SectionID)
		out.Experiences[i] = e
	}

	out.Projects = make([]Project, len(d.Projects))
	for i, p := range d.Projects {
		p.Tags = append([]string{}, p.Tags...)
		p.Description = clonePtr(p.Description)
		p.Link = clonePtr(p.Link)
		p.Image = clonePtr(p.Image)
		out.Projects[i] = p
	}

	out.Skills = make([]Skill, len(d.Skills))
	for i, s := range d.Skills {
		s.Category = clonePtr(s.Category)
		s.Level = clonePtr(s.Level)
		out.Skills[i] = s
	}

	if d.Contact != nil {
		out.Contact = &Contact{Note: clonePtr(d.Contact.Note)}
	}

	return &out
}

// canonicalize приводит необязательные списки к пустым значениям вместо nil.
func (d *Document) canonicalize() {
	if d.About.Hobbies == nil {
		d.About.Hobbies = []string{}
	}
	if d.ExperienceSections == nil {
		d.ExperienceSections = []ExperienceSection{}
	}
	if d.Experiences == nil {
		d.Experiences = []Experience{}
	}
	if d.Projects == nil {
		d.Projects = []Project{}
	}
	if d.Skills == nil {
		d.Skills = []Skill{}
	}
	for i := range d.Experiences {
		if d.Experiences[i].Bullets == nil {
			d.Experiences[i].Bullets = []string{}
		}
	}
	for i := range d.Projects {
		if d.Projects[i].Tags == nil {
			d.Projects[i].Tags = []string{}
		}
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr возвращает указатель на значение; удобно при сборке документов.
func Ptr[T any](v T) *T {
	return &v
}
