// Package common содержит общие помощники HTTP обработчиков.
package common

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/workfolio-backend/internal/http/middleware"
	"github.com/ignatzorin/workfolio-backend/internal/models"
)

// ErrorResponse: тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CurrentUser возвращает пользователя запроса или отвечает 401.
func CurrentUser(c *gin.Context) (models.CurrentUser, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "требуется авторизация")
		return models.CurrentUser{}, false
	}
	return user, true
}

// ParseUUIDParam разбирает UUID из параметра пути.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		return uuid.Nil, fmt.Errorf("параметр %s должен быть валидным UUID", paramName)
	}
	return parsed, nil
}

// BindJSON разбирает тело запроса; при ошибке отвечает 400 и возвращает false.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		RespondError(c, http.StatusBadRequest, "ошибка валидации запроса: "+err.Error())
		return false
	}
	return true
}

// RespondError отправляет ответ с ошибкой.
func RespondError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{Error: message})
}

// RespondAppError передаёт ошибку сервиса в ErrorHandler, который выбирает статус и пишет 5xx в лог.
func RespondAppError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery читает целый query параметр с запасным значением.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPagination извлекает limit и offset с значениями по умолчанию.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
