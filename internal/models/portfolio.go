package models

import (
	"time"

	"github.com/google/uuid"
)

// Portfolio: запись документа портфолио. Content хранит JSONB документа и пуст у старых записей.
type Portfolio struct {
	ID          uuid.UUID `db:"id" json:"id"`
	AuthorID    uuid.UUID `db:"author_id" json:"author_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	Content     []byte    `db:"content" json:"-"`
	Version     int       `db:"version" json:"version"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// HasContent сообщает, хранится ли в записи единый документ.
func (p *Portfolio) HasContent() bool {
	return len(p.Content) > 0 && string(p.Content) != "null"
}
