package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/workfolio-backend/internal/content"
	"github.com/ignatzorin/workfolio-backend/internal/models"
	"github.com/ignatzorin/workfolio-backend/internal/pkg/apperror"
	"github.com/ignatzorin/workfolio-backend/internal/repository"
)

// memoryPortfolioRepo хранит записи в памяти и повторяет семантику SQL: версия растёт атомарно, без блокировок записи.
type memoryPortfolioRepo struct {
	mu      sync.Mutex
	byOwner map[uuid.UUID]*models.Portfolio
	legacy  map[uuid.UUID]content.Legacy
	failGet error
}

func newMemoryPortfolioRepo() *memoryPortfolioRepo {
	return &memoryPortfolioRepo{
		byOwner: make(map[uuid.UUID]*models.Portfolio),
		legacy:  make(map[uuid.UUID]content.Legacy),
	}
}

func (m *memoryPortfolioRepo) FindLatestByOwner(ctx context.Context, authorID uuid.UUID) (*models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	p, ok := m.byOwner[authorID]
	if !ok {
		return nil, repository.ErrPortfolioNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryPortfolioRepo) Create(ctx context.Context, p *models.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byOwner[p.AuthorID]; ok {
		existing.Content, existing.Title, existing.Description = p.Content, p.Title, p.Description
		existing.Version++
		*p = *existing
		return nil
	}
	now := time.Now()
	p.ID = uuid.New()
	p.Version = 1
	p.IsPublished = true
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	m.byOwner[p.AuthorID] = &cp
	return nil
}

func (m *memoryPortfolioRepo) UpdateContent(ctx context.Context, p *models.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byOwner {
		if existing.ID != p.ID {
			continue
		}
		existing.Content, existing.Title, existing.Description = p.Content, p.Title, p.Description
		existing.Version++
		existing.UpdatedAt = time.Now()
		*p = *existing
		return nil
	}
	return repository.ErrPortfolioNotFound
}

func (m *memoryPortfolioRepo) SetPublished(ctx context.Context, authorID uuid.UUID, published bool) (*models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byOwner[authorID]
	if !ok {
		return nil, repository.ErrPortfolioNotFound
	}
	p.IsPublished = published
	cp := *p
	return &cp, nil
}

func (m *memoryPortfolioRepo) LoadLegacy(ctx context.Context, p *models.Portfolio) (content.Legacy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.legacy[p.ID]
	l.Title, l.Description = p.Title, p.Description
	return l, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) ContentUpdated(ownerID uuid.UUID, version int, section string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, section)
}

func freeUser() models.CurrentUser {
	return models.CurrentUser{ID: uuid.New(), Email: "free@example.com", PlanTier: models.PlanFree, Role: models.RoleUser}
}

func proUser() models.CurrentUser {
	return models.CurrentUser{ID: uuid.New(), Email: "pro@example.com", PlanTier: models.PlanPro, Role: models.RoleUser}
}

func docJSON(t *testing.T, doc *content.Document) []byte {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return raw
}

func appCode(t *testing.T, err error) apperror.ErrorCode {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "ожидалась AppError, получено %v", err)
	return appErr.Code
}

func TestPortfolioService_FirstSaveCreatesVersionOne(t *testing.T) {
	repo := newMemoryPortfolioRepo()
	notifier := &recordingNotifier{}
	svc := NewPortfolioService(repo, notifier, false)
	owner := freeUser()

	before, err := svc.ResolvePublicContent(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Nil(t, before)

	doc := content.Default()
	doc.Meta.Name = "Ada"
	state, err := svc.Save(context.Background(), owner, docJSON(t, doc))
	require.NoError(t, err)
	assert.Equal(t, 1, state.Version)
	assert.True(t, state.IsPublished)

	stored := repo.byOwner[owner.ID]
	assert.Equal(t, "Ada Portfolio", stored.Title)
	assert.Equal(t, "Full Stack Developer", *stored.Description)

	resolved, err := svc.ResolvePublicContent(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, resolved)
	assert.Equal(t, []string{SectionAll}, notifier.events)
}

func TestPortfolioService_SaveTwiceBumpsVersionTwice(t *testing.T) {
	svc := NewPortfolioService(newMemoryPortfolioRepo(), nil, false)
	owner := freeUser()
	raw := docJSON(t, content.Default())

	first, err := svc.Save(context.Background(), owner, raw)
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), owner, raw)
	require.NoError(t, err)
	third, err := svc.Save(context.Background(), owner, raw)
	require.NoError(t, err)

	assert.Equal(t, first.Version+2, third.Version)
}

func TestPortfolioService_LastWriterWins(t *testing.T) {
	repo := newMemoryPortfolioRepo()
	svc := NewPortfolioService(repo, nil, false)
	owner := freeUser()

	initial, err := svc.Save(context.Background(), owner, docJSON(t, content.Default()))
	require.NoError(t, err)

	docA := content.Default()
	docA.Meta.Name = "A"
	docB := content.Default()
	docB.Meta.Name = "B"

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Save(context.Background(), owner, docJSON(t, docA))
		assert.NoError(t, err)
	}()
	wg.Wait()
	_, err = svc.Save(context.Background(), owner, docJSON(t, docB))
	require.NoError(t, err)

	got, err := svc.EditorState(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Content.Meta.Name)
	assert.Equal(t, initial.Version+2, got.Version)
}

func TestPortfolioService_SaveRejectsInvalidDocument(t *testing.T) {
	repo := newMemoryPortfolioRepo()
	svc := NewPortfolioService(repo, nil, false)
	owner := freeUser()

	_, err := svc.Save(context.Background(), owner, []byte(`{"meta":{"name":"x"}}`))
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, appCode(t, err))

	appErr, _ := apperror.As(err)
	assert.NotEmpty(t, appErr.Details["fields"])
	assert.Empty(t, repo.byOwner)
}

func TestPortfolioService_SavePermissiveByDefault(t *testing.T) {
	svc := NewPortfolioService(newMemoryPortfolioRepo(), nil, false)
	doc := content.Default()
	for i := 0; i < 5; i++ {
		doc.Projects = append(doc.Projects, content.Project{ID: uuid.NewString(), Title: "P", Tags: []string{}, Order: i + 2})
	}

	_, err := svc.Save(context.Background(), freeUser(), docJSON(t, doc))
	assert.NoError(t, err)
}

func TestPortfolioService_SaveEnforcedLimits(t *testing.T) {
	svc := NewPortfolioService(newMemoryPortfolioRepo(), nil, true)
	doc := content.Default()
	for i := 0; i < 3; i++ {
		doc.Projects = append(doc.Projects, content.Project{ID: uuid.NewString(), Title: "P", Tags: []string{}, Order: i + 2})
	}

	_, err := svc.Save(context.Background(), freeUser(), docJSON(t, doc))
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeForbidden, appCode(t, err))

	_, err = svc.Save(context.Background(), proUser(), docJSON(t, doc))
	assert.NoError(t, err)
}

func TestPortfolioService_AddItemPlanGate(t *testing.T) {
	repo := newMemoryPortfolioRepo()
	svc := NewPortfolioService(repo, nil, false)
	owner := freeUser()
	ctx := context.Background()

	// В стартовом документе один проект; два добавления доводят до лимита.
	for i := 0; i < 2; i++ {
		_, _, err := svc.AddItem(ctx, owner, content.ListProjects, []byte(`{"title":"New","tags":[]}`))
		require.NoError(t, err)
	}

	before, err := svc.EditorState(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, before.Content.Projects, 3)

	_, _, err = svc.AddItem(ctx, owner, content.ListProjects, []byte(`{"title":"Fourth","tags":[]}`))
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))

	after, err := svc.EditorState(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Len(t, after.Content.Projects, 3)

	// Навыки тарифом не ограничены.
	for i := 0; i < 4; i++ {
		_, _, err := svc.AddItem(ctx, owner, content.ListSkills, []byte(`{"name":"Go"}`))
		require.NoError(t, err)
	}
}

func TestPortfolioService_AddItemProUnlimited(t *testing.T) {
	svc := NewPortfolioService(newMemoryPortfolioRepo(), nil, false)
	owner := proUser()
	for i := 0; i < 5; i++ {
		_, _, err := svc.AddItem(context.Background(), owner, content.ListExperiences,
			[]byte(`{"role":"Dev","org":"Acme","period":"2024","bullets":[]}`))
		require.NoError(t, err)
	}
	state, err := svc.EditorState(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Len(t, state.Content.Experiences, 6)
	for i, e := range state.Content.Experiences {
		assert.Equal(t, i, e.Order)
	}
}

func TestPortfolioService_AddItemValidatesWholeDocument(t *testing.T) {
	repo := newMemoryPortfolioRepo()
	svc := NewPortfolioService(repo, nil, false)

	_, _, err := svc.AddItem(context.Background(), proUser(), content.ListSkills, []byte(`{"name":"Go","level":7}`))
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, appCode(t, err))
	assert.Empty(t, repo.byOwner)
}

func TestPortfolioService_RemoveAndReorder(t *testing.T) {
	svc := NewPortfolioService(newMemoryPortfolioRepo(), nil, false)
	owner := proUser()
	ctx := context.Background()

	_, idB, err := svc.AddItem(ctx, owner, content.ListSkills, []byte(`{"id":"b","name":"B"}`))
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, owner, content.ListSkills, []byte(`{"id":"c","name":"C"}`))
	require.NoError(t, err)
	assert.Equal(t, "b", idB)

	state, err := svc.ReorderItems(ctx, owner, content.ListSkills, []string{"c", "skill-1", "b"})
	require.NoError(t, err)
	assert.Equal(t, "c", state.Content.Skills[0].ID)

	_, err = svc.ReorderItems(ctx, owner, content.ListSkills, []string{"c", "b"})
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeBadRequest, appCode(t, err))

	state, err = svc.RemoveItem(ctx, owner, content.ListSkills, "skill-1")
	require.NoError(t, err)
	require.Len(t, state.Content.Skills, 2)
	assert.Equal(t, 0, state.Content.Skills[0].Order)
	assert.Equal(t, 1, state.Content.Skills[1].Order)

	_, err = svc.RemoveItem(ctx, owner, content.ListSkills, "missing")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	state, err = svc.MoveItem(ctx, owner, content.ListSkills, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "b", state.Content.Skills[0].ID)
}

func TestPortfolioService_UpdateSection(t *testing.T) {
	svc := NewPortfolioService(newMemoryPortfolioRepo(), nil, false)
	owner := freeUser()
	ctx := context.Background()

	state, err := svc.UpdateSection(ctx, owner, SectionMeta, []byte(`{"name":"Grace","title":"Admiral","email":"grace@navy.mil"}`))
	require.NoError(t, err)
	assert.Equal(t, "Grace", state.Content.Meta.Name)
	assert.Equal(t, "I am available for freelance work.", *state.Content.Contact.Note)

	_, err = svc.UpdateSection(ctx, owner, SectionMeta, []byte(`{"name":"Grace","title":"Admiral","email":"nope"}`))
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, appCode(t, err))

	_, err = svc.UpdateSection(ctx, owner, "skills", []byte(`[]`))
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeBadRequest, appCode(t, err))
}

func TestPortfolioService_PublishKeepsVersion(t *testing.T) {
	svc := NewPortfolioService(newMemoryPortfolioRepo(), nil, false)
	owner := freeUser()
	ctx := context.Background()

	_, err := svc.SetPublished(ctx, owner.ID, false)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	saved, err := svc.Save(ctx, owner, docJSON(t, content.Default()))
	require.NoError(t, err)

	state, err := svc.SetPublished(ctx, owner.ID, false)
	require.NoError(t, err)
	assert.False(t, state.IsPublished)
	assert.Equal(t, saved.Version, state.Version)
}

func TestPortfolioService_LegacyFallback(t *testing.T) {
	repo := newMemoryPortfolioRepo()
	owner := freeUser()
	desc := "Backend engineer"
	p := &models.Portfolio{ID: uuid.New(), AuthorID: owner.ID, Title: "Linus", Description: &desc, Version: 3}
	repo.byOwner[owner.ID] = p
	repo.legacy[p.ID] = content.Legacy{
		Projects: []content.LegacyProject{{ID: "p1", Title: "Kernel", Tags: []string{"c"}, OrderIndex: 0}},
	}
	svc := NewPortfolioService(repo, nil, false)

	doc, err := svc.ResolvePublicContent(context.Background(), owner.ID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Linus", doc.Meta.Name)
	assert.Equal(t, "Backend engineer", doc.About.Paragraph)
	assert.Equal(t, "Kernel", doc.Projects[0].Title)
}

func TestPortfolioService_RepositoryFailure(t *testing.T) {
	repo := newMemoryPortfolioRepo()
	repo.failGet = errors.New("connection refused")
	svc := NewPortfolioService(repo, nil, false)

	_, err := svc.ResolvePublicContent(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeDatabaseError, appCode(t, err))
}
