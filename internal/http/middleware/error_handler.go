package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/workfolio-backend/internal/logger"
	"github.com/ignatzorin/workfolio-backend/internal/pkg/apperror"
)

// ErrorHandler превращает ошибку, добавленную обработчиком через c.Error, в JSON ответ.
// AppError отдаёт свой статус и детали; прочие ошибки становятся 500,
// а внутренние сообщения маскируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, body := ErrorBody(err)

		fields := logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}
		if user, ok := CurrentUser(c); ok {
			fields["user_id"] = user.ID
		}
		if status >= http.StatusInternalServerError {
			logger.L().WithFields(fields).Error("request error")
		} else {
			logger.L().WithFields(fields).Debug("request error")
		}

		c.JSON(status, body)
	}
}

// ErrorBody строит статус и тело ответа для ошибки.
func ErrorBody(err error) (int, gin.H) {
	appErr, ok := apperror.As(err)
	if !ok {
		return http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервера"}
	}

	message := appErr.Message
	if appErr.HTTPStatus >= http.StatusInternalServerError && containsInternalKeywords(message) {
		message = "внутренняя ошибка сервера"
	}

	body := gin.H{"error": message}
	for k, v := range appErr.Details {
		body[k] = v
	}
	return appErr.HTTPStatus, body
}

// containsInternalKeywords проверяет, похоже ли сообщение на текст внутренней ошибки.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"database",
		"connection",
		"timeout",
		"panic",
		"runtime",
	}

	lower := strings.ToLower(s)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
