package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/workfolio-backend/internal/http/handlers/common"
	"github.com/ignatzorin/workfolio-backend/internal/service"
)

// AIHandler обслуживает подсказки генеративной модели в редакторе.
type AIHandler struct {
	assist *service.AssistService
}

// NewAIHandler создаёт хэндлер.
func NewAIHandler(assist *service.AssistService) *AIHandler {
	return &AIHandler{assist: assist}
}

// Generate обрабатывает POST /api/ai/generate {action, data}.
func (h *AIHandler) Generate(c *gin.Context) {
	if _, ok := common.CurrentUser(c); !ok {
		return
	}

	var req struct {
		Action string                     `json:"action" binding:"required"`
		Data   map[string]json.RawMessage `json:"data"`
	}
	if !common.BindJSON(c, &req) {
		return
	}

	result, err := h.assist.Run(c.Request.Context(), req.Action, req.Data)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
