package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/workfolio-backend/internal/logger"
	"github.com/ignatzorin/workfolio-backend/internal/models"
	"github.com/ignatzorin/workfolio-backend/internal/pkg/apperror"
	"github.com/ignatzorin/workfolio-backend/internal/repository"
	"github.com/ignatzorin/workfolio-backend/internal/validation"
)

// AccountRepository описывает операции над учётными записями.
type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name string, bio, avatarURL *string) error
	UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// OwnerFiles удаляет загруженные файлы владельца.
type OwnerFiles interface {
	RemoveOwner(ctx context.Context, ownerID uuid.UUID) error
}

// ProfileUpdate: изменения профиля владельца. nil в Bio или AvatarURL оставляет поле прежним.
type ProfileUpdate struct {
	DisplayName string
	Bio         *string
	AvatarURL   *string
}

// AdminUserUpdate: изменения, которые администратор вносит в чужую учётную запись.
type AdminUserUpdate struct {
	Role *string `json:"role"`
	Plan *string `json:"plan"`
}

const maxUsersPage = 100

// AccountService управляет профилем владельца и административными операциями над пользователями.
type AccountService struct {
	repo  AccountRepository
	files OwnerFiles
}

// NewAccountService создаёт сервис учётных записей. files может быть nil.
func NewAccountService(repo AccountRepository, files OwnerFiles) *AccountService {
	return &AccountService{repo: repo, files: files}
}

// Get возвращает учётную запись по идентификатору.
func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, userError(err, "не удалось получить пользователя")
	}
	return user, nil
}

// UpdateProfile меняет имя, описание и аватар владельца.
func (s *AccountService) UpdateProfile(ctx context.Context, owner models.CurrentUser, in ProfileUpdate) (*models.User, error) {
	displayName := strings.TrimSpace(in.DisplayName)
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	bio := trimmed(in.Bio)
	if bio != nil {
		if err := validation.ValidateBio(*bio); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	avatarURL := trimmed(in.AvatarURL)
	if avatarURL != nil {
		if err := validation.ValidateAvatarURL(*avatarURL); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	if err := s.repo.UpdateProfile(ctx, owner.ID, displayName, bio, avatarURL); err != nil {
		return nil, userError(err, "не удалось обновить профиль")
	}
	return s.Get(ctx, owner.ID)
}

// DeleteAccount удаляет учётную запись владельца. Доступно только на тарифе pro.
func (s *AccountService) DeleteAccount(ctx context.Context, owner models.CurrentUser) error {
	if !owner.IsPro() {
		return apperror.ErrProRequired
	}
	return s.remove(ctx, owner.ID)
}

// ListUsers возвращает страницу пользователей для администратора.
func (s *AccountService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > maxUsersPage {
		limit = maxUsersPage
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить пользователей")
	}
	return users, nil
}

// AdminUpdate меняет роль и/или тариф пользователя.
func (s *AccountService) AdminUpdate(ctx context.Context, id uuid.UUID, in AdminUserUpdate) (*models.User, error) {
	if in.Role == nil && in.Plan == nil {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "нужно указать role или plan")
	}
	if in.Role != nil {
		if _, ok := models.ValidRoles[*in.Role]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "недопустимая роль: "+*in.Role)
		}
	}
	if in.Plan != nil {
		if _, ok := models.ValidPlans[*in.Plan]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "недопустимый тариф: "+*in.Plan)
		}
	}

	if in.Role != nil {
		if err := s.repo.UpdateRole(ctx, id, *in.Role); err != nil {
			return nil, userError(err, "не удалось изменить роль")
		}
	}
	if in.Plan != nil {
		if err := s.repo.UpdatePlan(ctx, id, *in.Plan); err != nil {
			return nil, userError(err, "не удалось изменить тариф")
		}
	}

	return s.Get(ctx, id)
}

// AdminDelete удаляет любую учётную запись.
func (s *AccountService) AdminDelete(ctx context.Context, id uuid.UUID) error {
	return s.remove(ctx, id)
}

func (s *AccountService) remove(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return userError(err, "не удалось удалить пользователя")
	}

	if s.files != nil {
		if err := s.files.RemoveOwner(ctx, id); err != nil {
			logger.L().WithFields(logrus.Fields{
				"user_id": id,
				"error":   err.Error(),
			}).Warn("account service: файлы пользователя не удалены")
		}
	}
	return nil
}

func userError(err error, message string) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperror.ErrUserNotFound
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
