package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/workfolio-backend/internal/http/handlers/common"
	"github.com/ignatzorin/workfolio-backend/internal/service"
)

// MediaHandler управляет загрузкой и удалением изображений.
type MediaHandler struct {
	media *service.MediaService
}

// NewMediaHandler создаёт хэндлер.
func NewMediaHandler(media *service.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// Upload обрабатывает POST /api/upload (multipart, поле file).
// Тип определяется по содержимому; всё, кроме изображений, отклоняется с 400.
func (h *MediaHandler) Upload(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	if file.Size == 0 {
		common.RespondError(c, http.StatusBadRequest, "файл не может быть пустым")
		return
	}

	src, err := file.Open()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "не удалось прочитать файл")
		return
	}
	defer src.Close()

	result, err := h.media.Upload(c.Request.Context(), user, file.Filename, src)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Delete обрабатывает DELETE /api/media/:id.
func (h *MediaHandler) Delete(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	mediaID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.media.Delete(c.Request.Context(), user, mediaID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
