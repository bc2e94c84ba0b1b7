package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/workfolio-backend/internal/content"
	"github.com/ignatzorin/workfolio-backend/internal/logger"
	"github.com/ignatzorin/workfolio-backend/internal/models"
	"github.com/ignatzorin/workfolio-backend/internal/pkg/apperror"
	"github.com/ignatzorin/workfolio-backend/internal/repository"
)

// PortfolioRepository описывает взаимодействие сервиса с хранилищем портфолио.
type PortfolioRepository interface {
	FindLatestByOwner(ctx context.Context, authorID uuid.UUID) (*models.Portfolio, error)
	Create(ctx context.Context, p *models.Portfolio) error
	UpdateContent(ctx context.Context, p *models.Portfolio) error
	SetPublished(ctx context.Context, authorID uuid.UUID, published bool) (*models.Portfolio, error)
	LoadLegacy(ctx context.Context, p *models.Portfolio) (content.Legacy, error)
}

// ChangeNotifier получает уведомление после каждого успешного сохранения.
// Доставка подписчикам не гарантируется.
type ChangeNotifier interface {
	ContentUpdated(ownerID uuid.UUID, version int, section string)
}

// Разделы документа для уведомлений и правки целиком.
const (
	SectionAll     = "all"
	SectionMeta    = "meta"
	SectionAbout   = "about"
	SectionContact = "contact"
)

const defaultPortfolioName = "My Workfolio"

// PortfolioState: сохранённый документ вместе с версией и флагом публикации.
type PortfolioState struct {
	ID          uuid.UUID         `json:"id"`
	Content     *content.Document `json:"content"`
	Version     int               `json:"version"`
	IsPublished bool              `json:"is_published"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// PortfolioService содержит политику сохранения документа портфолио.
type PortfolioService struct {
	repo              PortfolioRepository
	notifier          ChangeNotifier
	enforcePlanLimits bool
	newID             func() string
}

// NewPortfolioService создаёт сервис портфолио. notifier может быть nil.
func NewPortfolioService(repo PortfolioRepository, notifier ChangeNotifier, enforcePlanLimits bool) *PortfolioService {
	return &PortfolioService{
		repo:              repo,
		notifier:          notifier,
		enforcePlanLimits: enforcePlanLimits,
		newID:             uuid.NewString,
	}
}

// Save проверяет документ целиком и сохраняет его: первый документ владельца получает версию 1,
// последующие заменяют содержимое полностью и увеличивают версию. Блокировок нет.
func (s *PortfolioService) Save(ctx context.Context, owner models.CurrentUser, raw []byte) (*PortfolioState, error) {
	doc, err := validateDocument(raw)
	if err != nil {
		return nil, err
	}

	if s.enforcePlanLimits && !owner.IsPro() {
		if len(doc.Experiences) > models.FreeItemLimit || len(doc.Projects) > models.FreeItemLimit {
			return nil, apperror.ErrUpgradeRequired
		}
	}

	return s.commit(ctx, owner.ID, doc, SectionAll)
}

// ResolvePublicContent возвращает документ владельца для публичного показа или nil, если документа нет.
// Записи без единого документа собираются из старых таблиц.
func (s *PortfolioService) ResolvePublicContent(ctx context.Context, ownerID uuid.UUID) (*content.Document, error) {
	p, err := s.repo.FindLatestByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return nil, nil
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось загрузить портфолио")
	}

	return s.documentOf(ctx, p)
}

// EditorState возвращает состояние для редактора или nil, если владелец ещё ничего не сохранял.
func (s *PortfolioService) EditorState(ctx context.Context, ownerID uuid.UUID) (*PortfolioState, error) {
	p, err := s.repo.FindLatestByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return nil, nil
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось загрузить портфолио")
	}

	doc, err := s.documentOf(ctx, p)
	if err != nil {
		return nil, err
	}
	return stateOf(p, doc), nil
}

// SetPublished переключает публикацию. Версия не меняется.
func (s *PortfolioService) SetPublished(ctx context.Context, ownerID uuid.UUID, published bool) (*PortfolioState, error) {
	p, err := s.repo.SetPublished(ctx, ownerID, published)
	if err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return nil, apperror.ErrPortfolioNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось изменить публикацию")
	}

	doc, err := s.documentOf(ctx, p)
	if err != nil {
		return nil, err
	}
	return stateOf(p, doc), nil
}

// AddItem добавляет элемент в список. Для опыта и проектов действует лимит бесплатного тарифа.
func (s *PortfolioService) AddItem(ctx context.Context, owner models.CurrentUser, list content.ListName, raw []byte) (*PortfolioState, string, error) {
	doc, err := s.workingCopy(ctx, owner.ID)
	if err != nil {
		return nil, "", err
	}

	if list == content.ListExperiences || list == content.ListProjects {
		count, _ := doc.Count(list)
		if !models.CanAddItem(count, owner.IsPro()) {
			return nil, "", apperror.ErrUpgradeRequired
		}
	}

	id, err := doc.AddItem(list, raw, s.newID)
	if err != nil {
		return nil, "", itemError(err)
	}

	state, err := s.checkAndCommit(ctx, owner.ID, doc, string(list))
	if err != nil {
		return nil, "", err
	}
	return state, id, nil
}

// RemoveItem удаляет элемент списка и перенумеровывает оставшиеся.
func (s *PortfolioService) RemoveItem(ctx context.Context, owner models.CurrentUser, list content.ListName, itemID string) (*PortfolioState, error) {
	doc, err := s.workingCopy(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	if err := doc.RemoveItem(list, itemID); err != nil {
		return nil, itemError(err)
	}

	return s.checkAndCommit(ctx, owner.ID, doc, string(list))
}

// ReorderItems задаёт новый порядок списка; ids должен быть перестановкой текущих идентификаторов.
func (s *PortfolioService) ReorderItems(ctx context.Context, owner models.CurrentUser, list content.ListName, ids []string) (*PortfolioState, error) {
	doc, err := s.workingCopy(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	if err := doc.ReorderItems(list, ids); err != nil {
		return nil, itemError(err)
	}

	return s.checkAndCommit(ctx, owner.ID, doc, string(list))
}

// MoveItem переносит элемент с позиции from на позицию to.
func (s *PortfolioService) MoveItem(ctx context.Context, owner models.CurrentUser, list content.ListName, from, to int) (*PortfolioState, error) {
	doc, err := s.workingCopy(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	if err := doc.MoveItem(list, from, to); err != nil {
		return nil, itemError(err)
	}

	return s.checkAndCommit(ctx, owner.ID, doc, string(list))
}

// UpdateSection заменяет одиночный раздел (meta, about или contact) и проверяет документ целиком.
func (s *PortfolioService) UpdateSection(ctx context.Context, owner models.CurrentUser, section string, raw []byte) (*PortfolioState, error) {
	switch section {
	case SectionMeta, SectionAbout, SectionContact:
	default:
		return nil, apperror.New(apperror.ErrCodeBadRequest, "неизвестный раздел: "+section)
	}

	doc, err := s.workingCopy(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	current, err := json.Marshal(doc)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать документ")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(current, &fields); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать документ")
	}
	fields[section] = json.RawMessage(raw)

	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, "раздел не является корректным JSON")
	}

	next, err := validateDocument(merged)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, owner.ID, next, section)
}

// workingCopy возвращает текущий документ владельца или стартовый, если сохранений ещё не было.
func (s *PortfolioService) workingCopy(ctx context.Context, ownerID uuid.UUID) (*content.Document, error) {
	p, err := s.repo.FindLatestByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return content.Default(), nil
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось загрузить портфолио")
	}
	return s.documentOf(ctx, p)
}

func (s *PortfolioService) documentOf(ctx context.Context, p *models.Portfolio) (*content.Document, error) {
	if p.HasContent() {
		var doc content.Document
		if err := json.Unmarshal(p.Content, &doc); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "сохранённый документ повреждён")
		}
		return &doc, nil
	}

	legacy, err := s.repo.LoadLegacy(ctx, p)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось загрузить портфолио")
	}
	return content.FromLegacy(legacy), nil
}

func (s *PortfolioService) checkAndCommit(ctx context.Context, ownerID uuid.UUID, doc *content.Document, section string) (*PortfolioState, error) {
	fields, err := content.Check(doc)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "валидатор документа неисправен")
	}
	if len(fields) > 0 {
		return nil, validationError(fields)
	}
	return s.commit(ctx, ownerID, doc, section)
}

func (s *PortfolioService) commit(ctx context.Context, ownerID uuid.UUID, doc *content.Document, section string) (*PortfolioState, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать документ")
	}

	description := doc.Meta.Title
	p := &models.Portfolio{
		AuthorID:    ownerID,
		Title:       portfolioTitle(doc),
		Description: &description,
		Content:     raw,
	}

	existing, err := s.repo.FindLatestByOwner(ctx, ownerID)
	switch {
	case errors.Is(err, repository.ErrPortfolioNotFound):
		err = s.repo.Create(ctx, p)
	case err == nil:
		p.ID = existing.ID
		err = s.repo.UpdateContent(ctx, p)
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить портфолио")
	}

	logger.L().WithFields(logrus.Fields{
		"user_id": ownerID,
		"version": p.Version,
		"section": section,
	}).Info("portfolio service: документ сохранён")

	if s.notifier != nil {
		s.notifier.ContentUpdated(ownerID, p.Version, section)
	}

	return stateOf(p, doc), nil
}

func portfolioTitle(doc *content.Document) string {
	name := strings.TrimSpace(doc.Meta.Name)
	if name == "" {
		name = defaultPortfolioName
	}
	return name + " Portfolio"
}

func stateOf(p *models.Portfolio, doc *content.Document) *PortfolioState {
	return &PortfolioState{
		ID:          p.ID,
		Content:     doc,
		Version:     p.Version,
		IsPublished: p.IsPublished,
		UpdatedAt:   p.UpdatedAt,
	}
}

func validateDocument(raw []byte) (*content.Document, error) {
	doc, fields, err := content.Validate(raw)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "валидатор документа неисправен")
	}
	if len(fields) > 0 {
		return nil, validationError(fields)
	}
	return doc, nil
}

func validationError(fields []content.FieldError) *apperror.AppError {
	return apperror.New(apperror.ErrCodeValidation, "документ не прошёл проверку").WithDetail("fields", fields)
}

func itemError(err error) error {
	switch {
	case errors.Is(err, content.ErrItemNotFound):
		return apperror.Wrap(err, apperror.ErrCodeNotFound, "элемент не найден")
	case errors.Is(err, content.ErrUnknownList):
		return apperror.Wrap(err, apperror.ErrCodeBadRequest, "неизвестный список")
	case errors.Is(err, content.ErrNotPermutation):
		return apperror.Wrap(err, apperror.ErrCodeBadRequest, err.Error())
	case errors.Is(err, content.ErrInvalidItem):
		return apperror.Wrap(err, apperror.ErrCodeValidation, "некорректный элемент списка")
	default:
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось изменить список")
	}
}
