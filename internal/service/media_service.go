package service

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/workfolio-backend/internal/logger"
	"github.com/ignatzorin/workfolio-backend/internal/models"
	"github.com/ignatzorin/workfolio-backend/internal/pkg/apperror"
	"github.com/ignatzorin/workfolio-backend/internal/repository"
	"github.com/ignatzorin/workfolio-backend/internal/storage"
)

// MediaRepository хранит записи о загрузках.
type MediaRepository interface {
	Create(ctx context.Context, media *models.MediaFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MediaFile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FileStore: файловое хранилище изображений.
type FileStore interface {
	Save(ctx context.Context, ownerID uuid.UUID, r io.Reader) (*storage.StoredFile, error)
	Delete(ctx context.Context, relativePath string) error
	PublicURL(relativePath string) string
}

// UploadResult: ответ на загрузку изображения.
type UploadResult struct {
	ID           uuid.UUID `json:"id"`
	URL          string    `json:"url"`
	FileName     string    `json:"file_name"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"`
}

// MediaService загружает и удаляет изображения владельца.
type MediaService struct {
	repo  MediaRepository
	files FileStore
}

// NewMediaService создаёт сервис загрузок.
func NewMediaService(repo MediaRepository, files FileStore) *MediaService {
	return &MediaService{repo: repo, files: files}
}

// Upload сохраняет изображение в каталог владельца и возвращает публичный адрес.
func (s *MediaService) Upload(ctx context.Context, owner models.CurrentUser, originalName string, r io.Reader) (*UploadResult, error) {
	stored, err := s.files.Save(ctx, owner.ID, r)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrEmpty), errors.Is(err, storage.ErrTooLarge):
			return nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, err.Error())
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeUpstream, "не удалось сохранить файл")
		}
	}

	media := &models.MediaFile{
		UserID:       owner.ID,
		FilePath:     stored.Path,
		OriginalName: originalName,
		FileType:     stored.MIME,
		FileSize:     stored.Size,
	}
	if err := s.repo.Create(ctx, media); err != nil {
		if delErr := s.files.Delete(ctx, stored.Path); delErr != nil {
			logger.L().WithFields(logrus.Fields{
				"user_id": owner.ID,
				"path":    stored.Path,
				"error":   delErr.Error(),
			}).Warn("media service: файл не удалён после ошибки записи")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить запись о файле")
	}

	return &UploadResult{
		ID:           media.ID,
		URL:          stored.URL,
		FileName:     stored.Path,
		OriginalName: originalName,
		Size:         stored.Size,
		Type:         stored.MIME,
	}, nil
}

// Delete удаляет загрузку. Чужие файлы удалять нельзя.
func (s *MediaService) Delete(ctx context.Context, owner models.CurrentUser, mediaID uuid.UUID) error {
	media, err := s.repo.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, repository.ErrMediaNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "файл не найден")
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить файл")
	}

	if media.UserID != owner.ID {
		return apperror.New(apperror.ErrCodeForbidden, "у вас нет прав на удаление этого файла")
	}

	if err := s.repo.Delete(ctx, mediaID); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось удалить файл")
	}

	if err := s.files.Delete(ctx, media.FilePath); err != nil {
		logger.L().WithFields(logrus.Fields{
			"media_id": mediaID,
			"error":    err.Error(),
		}).Warn("media service: файл не удалён с диска")
	}
	return nil
}
