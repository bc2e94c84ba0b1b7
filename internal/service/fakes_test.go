package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/workfolio-backend/internal/models"
	"github.com/ignatzorin/workfolio-backend/internal/repository"
)

// memoryUserStore реализует AuthRepository и AccountRepository для тестов.
type memoryUserStore struct {
	mu           sync.Mutex
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
	sessions     map[string]*models.Session
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
		sessions:     make(map[string]*models.Session),
	}
}

func (m *memoryUserStore) put(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
}

func (m *memoryUserStore) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.usersByEmail[user.Email]; ok {
		return repository.ErrEmailTaken
	}
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *memoryUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *memoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *memoryUserStore) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.usersByID {
		out = append(out, *u)
	}
	if offset >= len(out) {
		return []models.User{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryUserStore) update(id uuid.UUID, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	fn(user)
	user.UpdatedAt = time.Now()
	return nil
}

func (m *memoryUserStore) UpdateProfile(ctx context.Context, id uuid.UUID, name string, bio, avatarURL *string) error {
	return m.update(id, func(u *models.User) {
		u.DisplayName = name
		if bio != nil {
			u.Bio = *bio
		}
		if avatarURL != nil {
			u.AvatarURL = *avatarURL
		}
	})
}

func (m *memoryUserStore) UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error {
	return m.update(id, func(u *models.User) { u.Plan = plan })
}

func (m *memoryUserStore) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	return m.update(id, func(u *models.User) { u.Role = role })
}

func (m *memoryUserStore) UpgradeToPro(ctx context.Context, id uuid.UUID) error {
	return m.UpdatePlan(ctx, id, models.PlanPro)
}

func (m *memoryUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	delete(m.usersByID, id)
	delete(m.usersByEmail, user.Email)
	for token, s := range m.sessions {
		if s.UserID == id {
			delete(m.sessions, token)
		}
	}
	return nil
}

func (m *memoryUserStore) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	return m.update(userID, func(u *models.User) {
		now := time.Now()
		u.LastLoginAt = &now
	})
}

func (m *memoryUserStore) CreateSession(ctx context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	m.sessions[session.RefreshToken] = session
	return nil
}

func (m *memoryUserStore) RotateSession(ctx context.Context, oldRefreshToken string, next *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[oldRefreshToken]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(m.sessions, oldRefreshToken)
	next.ID = uuid.New()
	next.CreatedAt = time.Now()
	m.sessions[next.RefreshToken] = next
	return nil
}

func (m *memoryUserStore) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sessions := []models.Session{}
	for _, s := range m.sessions {
		if s.UserID == userID {
			sessions = append(sessions, *s)
		}
	}
	return sessions, nil
}

func (m *memoryUserStore) DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, s := range m.sessions {
		if s.ID == sessionID && s.UserID == userID {
			delete(m.sessions, token)
			return nil
		}
	}
	return repository.ErrSessionNotFound
}
