package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/workfolio-backend/internal/content"
	"github.com/ignatzorin/workfolio-backend/internal/http/middleware"
	"github.com/ignatzorin/workfolio-backend/internal/models"
	"github.com/ignatzorin/workfolio-backend/internal/repository"
)

func newTestRouter(user *models.CurrentUser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if user != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextCurrentUserKey, *user)
			c.Next()
		})
	}
	r.Use(middleware.ErrorHandler())
	return r
}

func freeOwner() *models.CurrentUser {
	return &models.CurrentUser{ID: uuid.New(), Email: "ada@example.com", PlanTier: models.PlanFree, Role: models.RoleUser}
}

func perform(r *gin.Engine, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func performJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	return perform(r, method, path, bytes.NewBufferString(body), map[string]string{"Content-Type": "application/json"})
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// portfolioStore: минимальное хранилище портфолио в памяти.
type portfolioStore struct {
	mu      sync.Mutex
	byOwner map[uuid.UUID]*models.Portfolio
	// findErr, если задан, возвращается из FindLatestByOwner.
	findErr error
}

func newPortfolioStore() *portfolioStore {
	return &portfolioStore{byOwner: make(map[uuid.UUID]*models.Portfolio)}
}

func (s *portfolioStore) FindLatestByOwner(ctx context.Context, authorID uuid.UUID) (*models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	p, ok := s.byOwner[authorID]
	if !ok {
		return nil, repository.ErrPortfolioNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *portfolioStore) Create(ctx context.Context, p *models.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.New()
	p.Version = 1
	p.IsPublished = true
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	cp := *p
	s.byOwner[p.AuthorID] = &cp
	return nil
}

func (s *portfolioStore) UpdateContent(ctx context.Context, p *models.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byOwner[p.AuthorID]
	if !ok {
		return repository.ErrPortfolioNotFound
	}
	existing.Content, existing.Title, existing.Description = p.Content, p.Title, p.Description
	existing.Version++
	existing.UpdatedAt = time.Now()
	*p = *existing
	return nil
}

func (s *portfolioStore) SetPublished(ctx context.Context, authorID uuid.UUID, published bool) (*models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byOwner[authorID]
	if !ok {
		return nil, repository.ErrPortfolioNotFound
	}
	p.IsPublished = published
	cp := *p
	return &cp, nil
}

func (s *portfolioStore) LoadLegacy(ctx context.Context, p *models.Portfolio) (content.Legacy, error) {
	return content.Legacy{Title: p.Title, Description: p.Description}, nil
}
