package content

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Validate проверяет сырой JSON документа. При успехе возвращает канонический документ:
// неизвестные поля отброшены, необязательные списки заполнены пустыми значениями.
// Ошибка возвращается только при неисправной схеме; нарушения ввода идут в []FieldError.
func Validate(raw []byte) (*Document, []FieldError, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, nil, fmt.Errorf("content: схема документа не компилируется: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, []FieldError{{Path: rootPath, Reason: "тело не является корректным JSON"}}, nil
	}

	res, err := s.Validate(gojsonschema.NewBytesLoader(trimmed))
	if err != nil {
		return nil, []FieldError{{Path: rootPath, Reason: err.Error()}}, nil
	}
	if !res.Valid() {
		return nil, fieldErrors(res.Errors()), nil
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, []FieldError{{Path: rootPath, Reason: err.Error()}}, nil
	}
	doc.canonicalize()

	if errs := checkUniqueIDs(&doc); len(errs) > 0 {
		return nil, errs, nil
	}

	return &doc, nil, nil
}

// ValidateValue проверяет произвольное значение, предварительно сериализовав его в JSON.
func ValidateValue(v any) (*Document, []FieldError, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, []FieldError{{Path: rootPath, Reason: "значение не сериализуется в JSON"}}, nil
	}
	return Validate(raw)
}

// Check повторно проверяет уже собранный документ перед сохранением.
func Check(doc *Document) ([]FieldError, error) {
	if doc == nil {
		return []FieldError{{Path: rootPath, Reason: "документ отсутствует"}}, nil
	}
	_, errs, err := ValidateValue(doc)
	return errs, err
}

const rootPath = "(root)"

func fieldErrors(list []gojsonschema.ResultError) []FieldError {
	out := make([]FieldError, 0, len(list))
	for _, e := range list {
		path := strings.TrimPrefix(strings.TrimPrefix(e.Context().String(), rootPath), ".")
		// Для required контекст указывает на родителя; добавляем имя отсутствующего свойства.
		if e.Type() == "required" {
			if prop, ok := e.Details()["property"].(string); ok {
				path = joinPath(path, prop)
			}
		}
		if path == "" {
			path = rootPath
		}
		out = append(out, FieldError{Path: path, Reason: e.Description()})
	}
	return out
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func checkUniqueIDs(doc *Document) []FieldError {
	var errs []FieldError
	check := func(list string, ids []string) {
		seen := make(map[string]struct{}, len(ids))
		for i, id := range ids {
			if _, dup := seen[id]; dup {
				errs = append(errs, FieldError{
					Path:   fmt.Sprintf("%s.%d.id", list, i),
					Reason: fmt.Sprintf("идентификатор %q уже используется в списке", id),
				})
				continue
			}
			seen[id] = struct{}{}
		}
	}

	check(string(ListExperienceSections), idsOf(doc.ExperienceSections))
	check(string(ListExperiences), idsOf(doc.Experiences))
	check(string(ListProjects), idsOf(doc.Projects))
	check(string(ListSkills), idsOf(doc.Skills))

	// Порядок внутри списка плотный, совпадающие значения его ломают.
	checkOrder := func(list string, orders []int) {
		seen := make(map[int]struct{}, len(orders))
		for i, o := range orders {
			if _, dup := seen[o]; dup {
				errs = append(errs, FieldError{
					Path:   fmt.Sprintf("%s.%d.order", list, i),
					Reason: fmt.Sprintf("порядок %d уже занят в списке", o),
				})
				continue
			}
			seen[o] = struct{}{}
		}
	}
	checkOrder(string(ListExperienceSections), ordersOf(doc.ExperienceSections))
	checkOrder(string(ListExperiences), ordersOf(doc.Experiences))
	checkOrder(string(ListProjects), ordersOf(doc.Projects))
	checkOrder(string(ListSkills), ordersOf(doc.Skills))
	return errs
}
