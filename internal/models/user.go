package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает владельца портфолио.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	DisplayName  string     `db:"display_name" json:"display_name"`
	Bio          string     `db:"bio" json:"bio"`
	AvatarURL    string     `db:"avatar_url" json:"avatar_url"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	Plan         string     `db:"plan" json:"plan"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// CurrentUser: типизированный пользователь запроса, определяется один раз в middleware.
type CurrentUser struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	PlanTier string    `json:"plan"`
	Role     string    `json:"role"`
}

// IsPro сообщает, оплачен ли тариф pro.
func (u CurrentUser) IsPro() bool {
	return u.PlanTier == PlanPro
}

// IsAdmin сообщает, есть ли у пользователя права администратора.
func (u CurrentUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Current сворачивает запись пользователя до CurrentUser.
func (u *User) Current() CurrentUser {
	return CurrentUser{ID: u.ID, Email: u.Email, PlanTier: u.Plan, Role: u.Role}
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
