package content

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ListName: имя упорядоченного списка документа.
type ListName string

const (
	ListExperienceSections ListName = "experienceSections"
	ListExperiences        ListName = "experiences"
	ListProjects           ListName = "projects"
	ListSkills             ListName = "skills"
)

var (
	ErrUnknownList    = errors.New("неизвестный список")
	ErrItemNotFound   = errors.New("элемент не найден")
	ErrNotPermutation = errors.New("новый порядок должен содержать каждый идентификатор списка ровно один раз")
	ErrInvalidItem    = errors.New("некорректный элемент списка")
)

// ParseListName проверяет имя списка из URL.
func ParseListName(s string) (ListName, error) {
	switch ListName(s) {
	case ListExperienceSections, ListExperiences, ListProjects, ListSkills:
		return ListName(s), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownList, s)
}

type item[T any] interface {
	*T
	itemID() string
	setID(string)
	itemOrder() int
	setOrder(int)
}

func (s *ExperienceSection) itemID() string  { return s.ID }
func (s *ExperienceSection) setID(id string) { s.ID = id }
func (s *ExperienceSection) itemOrder() int  { return s.Order }
func (s *ExperienceSection) setOrder(o int)  { s.Order = o }

func (e *Experience) itemID() string  { return e.ID }
func (e *Experience) setID(id string) { e.ID = id }
func (e *Experience) itemOrder() int  { return e.Order }
func (e *Experience) setOrder(o int)  { e.Order = o }

func (p *Project) itemID() string  { return p.ID }
func (p *Project) setID(id string) { p.ID = id }
func (p *Project) itemOrder() int  { return p.Order }
func (p *Project) setOrder(o int)  { p.Order = o }

func (s *Skill) itemID() string  { return s.ID }
func (s *Skill) setID(id string) { s.ID = id }
func (s *Skill) itemOrder() int  { return s.Order }
func (s *Skill) setOrder(o int)  { s.Order = o }

func idsOf[T any, P item[T]](items []T) []string {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = P(&items[i]).itemID()
	}
	return ids
}

func ordersOf[T any, P item[T]](items []T) []int {
	orders := make([]int, len(items))
	for i := range items {
		orders[i] = P(&items[i]).itemOrder()
	}
	return orders
}

// renumber выставляет плотный порядок 0..n-1 по позиции в срезе.
func renumber[T any, P item[T]](items []T) {
	for i := range items {
		P(&items[i]).setOrder(i)
	}
}

func appendItem[T any, P item[T]](items []T, it T) []T {
	out := append(items, it)
	renumber[T, P](out)
	return out
}

func removeItem[T any, P item[T]](items []T, id string) ([]T, bool) {
	for i := range items {
		if P(&items[i]).itemID() != id {
			continue
		}
		out := append(items[:i:i], items[i+1:]...)
		renumber[T, P](out)
		return out, true
	}
	return items, false
}

// reorderItems переставляет элементы по списку идентификаторов; он обязан быть перестановкой текущих id.
func reorderItems[T any, P item[T]](items []T, ids []string) ([]T, error) {
	if len(ids) != len(items) {
		return nil, ErrNotPermutation
	}

	index := make(map[string]int, len(items))
	for i := range items {
		index[P(&items[i]).itemID()] = i
	}

	out := make([]T, 0, len(items))
	for _, id := range ids {
		i, ok := index[id]
		if !ok {
			return nil, ErrNotPermutation
		}
		delete(index, id)
		out = append(out, items[i])
	}
	renumber[T, P](out)
	return out, nil
}

// moveItem переносит элемент с позиции from на позицию to и перенумеровывает список.
func moveItem[T any, P item[T]](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, fmt.Errorf("%w: позиция вне диапазона", ErrNotPermutation)
	}
	out := append([]T{}, items...)
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{moved}, out[to:]...)...)
	renumber[T, P](out)
	return out, nil
}

func decodeItem[T any, P item[T]](raw []byte, newID func() string) (T, error) {
	var it T
	if err := json.Unmarshal(raw, &it); err != nil {
		return it, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	if P(&it).itemID() == "" && newID != nil {
		P(&it).setID(newID())
	}
	return it, nil
}

// Count возвращает число элементов в списке.
func (d *Document) Count(list ListName) (int, error) {
	switch list {
	case ListExperienceSections:
		return len(d.ExperienceSections), nil
	case ListExperiences:
		return len(d.Experiences), nil
	case ListProjects:
		return len(d.Projects), nil
	case ListSkills:
		return len(d.Skills), nil
	}
	return 0, ErrUnknownList
}

// AddItem добавляет элемент в конец списка. Пустой id заменяется значением newID.
// Возвращает идентификатор добавленного элемента.
func (d *Document) AddItem(list ListName, raw []byte, newID func() string) (string, error) {
	switch list {
	case ListExperienceSections:
		it, err := decodeItem[ExperienceSection](raw, newID)
		if err != nil {
			return "", err
		}
		d.ExperienceSections = appendItem(d.ExperienceSections, it)
		return it.ID, nil
	case ListExperiences:
		it, err := decodeItem[Experience](raw, newID)
		if err != nil {
			return "", err
		}
		d.Experiences = appendItem(d.Experiences, it)
		return it.ID, nil
	case ListProjects:
		it, err := decodeItem[Project](raw, newID)
		if err != nil {
			return "", err
		}
		d.Projects = appendItem(d.Projects, it)
		return it.ID, nil
	case ListSkills:
		it, err := decodeItem[Skill](raw, newID)
		if err != nil {
			return "", err
		}
		d.Skills = appendItem(d.Skills, it)
		return it.ID, nil
	}
	return "", ErrUnknownList
}

// RemoveItem удаляет элемент по id. Записи опыта, ссылавшиеся на удалённую секцию, теряют sectionId.
func (d *Document) RemoveItem(list ListName, id string) error {
	var ok bool
	switch list {
	case ListExperienceSections:
		d.ExperienceSections, ok = removeItem(d.ExperienceSections, id)
		if ok {
			for i := range d.Experiences {
				if sid := d.Experiences[i].SectionID; sid != nil && *sid == id {
					d.Experiences[i].SectionID = nil
				}
			}
		}
	case ListExperiences:
		d.Experiences, ok = removeItem(d.Experiences, id)
	case ListProjects:
		d.Projects, ok = removeItem(d.Projects, id)
	case ListSkills:
		d.Skills, ok = removeItem(d.Skills, id)
	default:
		return ErrUnknownList
	}
	if !ok {
		return ErrItemNotFound
	}
	return nil
}

// ReorderItems применяет новый порядок id к списку.
func (d *Document) ReorderItems(list ListName, ids []string) error {
	var err error
	switch list {
	case ListExperienceSections:
		var out []ExperienceSection
		if out, err = reorderItems(d.ExperienceSections, ids); err == nil {
			d.ExperienceSections = out
		}
	case ListExperiences:
		var out []Experience
		if out, err = reorderItems(d.Experiences, ids); err == nil {
			d.Experiences = out
		}
	case ListProjects:
		var out []Project
		if out, err = reorderItems(d.Projects, ids); err == nil {
			d.Projects = out
		}
	case ListSkills:
		var out []Skill
		if out, err = reorderItems(d.Skills, ids); err == nil {
			d.Skills = out
		}
	default:
		return ErrUnknownList
	}
	return err
}

// MoveItem переносит элемент внутри списка по индексам, как при перетаскивании в редакторе.
func (d *Document) MoveItem(list ListName, from, to int) error {
	var err error
	switch list {
	case ListExperienceSections:
		var out []ExperienceSection
		if out, err = moveItem(d.ExperienceSections, from, to); err == nil {
			d.ExperienceSections = out
		}
	case ListExperiences:
		var out []Experience
		if out, err = moveItem(d.Experiences, from, to); err == nil {
			d.Experiences = out
		}
	case ListProjects:
		var out []Project
		if out, err = moveItem(d.Projects, from, to); err == nil {
			d.Projects = out
		}
	case ListSkills:
		var out []Skill
		if out, err = moveItem(d.Skills, from, to); err == nil {
			d.Skills = out
		}
	default:
		return ErrUnknownList
	}
	return err
}
