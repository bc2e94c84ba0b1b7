package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/workfolio-backend/internal/logger"
)

// Recovery перехватывает panic в обработчиках, пишет стек в лог и отвечает 500 без подробностей.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.L().WithFields(logrus.Fields{
					"panic":  r,
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
					"stack":  string(debug.Stack()),
				}).Error("panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервера"})
			}
		}()
		c.Next()
	}
}

// RequestLogger пишет одну строку лога на запрос.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		entry := logger.L().WithFields(logrus.Fields{
			"status": c.Writer.Status(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"ip":     c.ClientIP(),
		})
		if user, ok := CurrentUser(c); ok {
			entry = entry.WithField("user_id", user.ID)
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Warn("request")
		default:
			entry.Debug("request")
		}
	}
}
