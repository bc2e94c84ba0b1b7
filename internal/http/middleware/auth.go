package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/workfolio-backend/internal/models"
	"github.com/ignatzorin/workfolio-backend/internal/pkg/apperror"
	"github.com/ignatzorin/workfolio-backend/internal/repository"
)

// ContextCurrentUserKey: ключ gin.Context, под которым лежит models.CurrentUser.
const ContextCurrentUserKey = "currentUser"

// AccessTokenParser проверяет access токен.
type AccessTokenParser interface {
	ParseAccess(token string) (uuid.UUID, error)
}

// UserLookup загружает пользователя по идентификатору из токена.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthMiddleware проверяет Bearer токен и один раз на запрос загружает текущего пользователя.
// Тариф и роль берутся из хранилища, а не из токена.
func AuthMiddleware(tokens AccessTokenParser, users UserLookup) gin.HandlerFunc {
	return authenticate(tokens, users, bearerToken)
}

// QueryTokenAuth делает то же для вебсокетов, где браузер не передаёт заголовок, и берёт токен из ?token=.
func QueryTokenAuth(tokens AccessTokenParser, users UserLookup) gin.HandlerFunc {
	return authenticate(tokens, users, func(c *gin.Context) string {
		return c.Query("token")
	})
}

func authenticate(tokens AccessTokenParser, users UserLookup, extract func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extract(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		userID, err := tokens.ParseAccess(raw)
		if err != nil || userID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "токен невалиден"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if errors.Is(err, repository.ErrUserNotFound) || (err == nil && user == nil) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "пользователь не найден"})
			return
		}
		if err != nil {
			// Ответ и запись в лог формирует ErrorHandler.
			_ = c.Error(apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось загрузить пользователя"))
			c.Abort()
			return
		}

		c.Set(ContextCurrentUserKey, user.Current())
		c.Next()
	}
}

// RequireAdmin пропускает только администраторов. Ставится после AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "недостаточно прав"})
			return
		}
		c.Next()
	}
}

// CurrentUser возвращает пользователя, определённого AuthMiddleware.
func CurrentUser(c *gin.Context) (models.CurrentUser, bool) {
	raw, exists := c.Get(ContextCurrentUserKey)
	if !exists {
		return models.CurrentUser{}, false
	}
	user, ok := raw.(models.CurrentUser)
	return user, ok
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}
