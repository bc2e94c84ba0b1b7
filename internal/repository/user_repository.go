package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/workfolio-backend/internal/models"
	"github.com/ignatzorin/workfolio-backend/internal/repository/common"
)

var (
	// ErrUserNotFound возвращается, когда запись пользователя не найдена.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken возвращается при нарушении уникальности email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrSessionNotFound возвращается, когда сессия не найдена.
	ErrSessionNotFound = errors.New("session not found")
)

const userColumns = `id, email, display_name, bio, avatar_url, password_hash, role, plan, last_login_at, created_at, updated_at`

// UserRepository отвечает за работу с таблицами users и user_sessions.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, display_name, password_hash, role, plan)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.Email, user.DisplayName, user.PasswordHash, user.Role, user.Plan,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}

	return &user, nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := common.GetByID[models.User](ctx, r.db, "users", id, ErrUserNotFound)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("user repository: %w", err)
	}
	return user, err
}

// List возвращает пользователей от новых к старым.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query, limit, offset); err != nil {
		return nil, fmt.Errorf("user repository: list %w", err)
	}

	return users, nil
}

// UpdateProfile меняет имя и, если они переданы, описание и аватар.
// nil оставляет прежнее значение поля.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name string, bio, avatarURL *string) error {
	query := `
		UPDATE users
		SET display_name = $2,
		    bio = COALESCE($3, bio),
		    avatar_url = COALESCE($4, avatar_url),
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, name, bio, avatarURL)
	if err != nil {
		return fmt.Errorf("user repository: update profile %w", err)
	}
	return common.CheckAffected(result, ErrUserNotFound)
}

// UpdatePlan меняет тариф пользователя.
func (r *UserRepository) UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET plan = $2, updated_at = NOW() WHERE id = $1`, id, plan)
	if err != nil {
		return fmt.Errorf("user repository: update plan %w", err)
	}
	return common.CheckAffected(result, ErrUserNotFound)
}

// UpdateRole меняет роль пользователя.
func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("user repository: update role %w", err)
	}
	return common.CheckAffected(result, ErrUserNotFound)
}

// UpgradeToPro переводит пользователя на тариф pro. Повторный вызов ничего не меняет.
func (r *UserRepository) UpgradeToPro(ctx context.Context, id uuid.UUID) error {
	return r.UpdatePlan(ctx, id, models.PlanPro)
}

// Delete удаляет пользователя вместе с сессиями, портфолио и медиа.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("user repository: delete %w", err)
	}
	return common.CheckAffected(result, ErrUserNotFound)
}

// UpdateLastLoginAt обновляет время последнего входа пользователя.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("user repository: update last login at %w", err)
	}

	return nil
}

// CreateSession сохраняет новую сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		session.UserID,
		session.RefreshToken,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}

	return nil
}

// RotateSession атомарно заменяет сессию со старым refresh токеном на новую.
// Если старой сессии уже нет, возвращает ErrSessionNotFound.
func (r *UserRepository) RotateSession(ctx context.Context, oldRefreshToken string, next *models.Session) error {
	return common.WithTransaction(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM user_sessions WHERE refresh_token = $1`, oldRefreshToken)
		if err != nil {
			return fmt.Errorf("user repository: rotate session %w", err)
		}
		if err := common.CheckAffected(result, ErrSessionNotFound); err != nil {
			return err
		}

		return tx.QueryRowxContext(ctx, `
			INSERT INTO user_sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, next.UserID, next.RefreshToken, next.UserAgent, next.IPAddress, next.ExpiresAt).Scan(&next.ID, &next.CreatedAt)
	})
}

// ListSessions возвращает список всех активных сессий пользователя.
func (r *UserRepository) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	query := `
		SELECT id, user_id, refresh_token, user_agent, ip_address, expires_at, created_at
		FROM user_sessions
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY created_at DESC
	`

	sessions := []models.Session{}
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("user repository: list sessions %w", err)
	}

	return sessions, nil
}

// DeleteSessionByID удаляет сессию по идентификатору.
func (r *UserRepository) DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("user repository: delete session by id %w", err)
	}

	return common.CheckAffected(result, ErrSessionNotFound)
}
