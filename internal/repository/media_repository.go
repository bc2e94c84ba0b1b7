package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/workfolio-backend/internal/models"
	"github.com/ignatzorin/workfolio-backend/internal/repository/common"
)

// ErrMediaNotFound возвращается, когда медиафайл не найден.
var ErrMediaNotFound = errors.New("media not found")

// MediaRepository управляет записями о загруженных файлах.
type MediaRepository struct {
	db *sqlx.DB
}

// NewMediaRepository создаёт репозиторий медиа.
func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Create сохраняет запись о файле.
func (r *MediaRepository) Create(ctx context.Context, media *models.MediaFile) error {
	query := `
		INSERT INTO media_files (user_id, file_path, original_name, file_type, file_size)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(ctx, query,
		media.UserID, media.FilePath, media.OriginalName, media.FileType, media.FileSize,
	).Scan(&media.ID, &media.CreatedAt); err != nil {
		return fmt.Errorf("media repository: create %w", err)
	}

	return nil
}

// GetByID возвращает запись о файле.
func (r *MediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaFile, error) {
	media, err := common.GetByID[models.MediaFile](ctx, r.db, "media_files", id, ErrMediaNotFound)
	if err != nil && !errors.Is(err, ErrMediaNotFound) {
		return nil, fmt.Errorf("media repository: %w", err)
	}
	return media, err
}

// Delete удаляет запись о файле.
func (r *MediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM media_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("media repository: delete %w", err)
	}
	return common.CheckAffected(result, ErrMediaNotFound)
}
