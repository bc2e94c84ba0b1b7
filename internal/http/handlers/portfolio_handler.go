package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/workfolio-backend/internal/content"
	"github.com/ignatzorin/workfolio-backend/internal/http/handlers/common"
	"github.com/ignatzorin/workfolio-backend/internal/service"
)

const maxDocumentBytes = 1 << 20

// PortfolioHandler обслуживает чтение и редактирование документа портфолио.
type PortfolioHandler struct {
	portfolios *service.PortfolioService
}

// NewPortfolioHandler создаёт хэндлер.
func NewPortfolioHandler(portfolios *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios}
}

// Public обрабатывает GET /api/portfolio. Если документа нет, отвечает 200 с null.
func (h *PortfolioHandler) Public(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	doc, err := h.portfolios.ResolvePublicContent(c.Request.Context(), user.ID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": doc})
}

// Editor обрабатывает GET /api/portfolio/admin.
func (h *PortfolioHandler) Editor(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	state, err := h.portfolios.EditorState(c.Request.Context(), user.ID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": state})
}

// Default обрабатывает GET /api/portfolio/default.
func (h *PortfolioHandler) Default(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"portfolio": content.Default()})
}

// Save обрабатывает PUT /api/portfolio/admin, в теле документ целиком.
func (h *PortfolioHandler) Save(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	raw, ok := readBody(c)
	if !ok {
		return
	}

	state, err := h.portfolios.Save(c.Request.Context(), user, raw)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": state})
}

// Publish обрабатывает PATCH /api/portfolio/admin/publish.
func (h *PortfolioHandler) Publish(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	var req struct {
		IsPublished *bool `json:"is_published" binding:"required"`
	}
	if !common.BindJSON(c, &req) {
		return
	}

	state, err := h.portfolios.SetPublished(c.Request.Context(), user.ID, *req.IsPublished)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": state})
}

// UpdateSection обрабатывает PATCH /api/portfolio/admin/:section для meta, about и contact.
func (h *PortfolioHandler) UpdateSection(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	raw, ok := readBody(c)
	if !ok {
		return
	}

	state, err := h.portfolios.UpdateSection(c.Request.Context(), user, c.Param("section"), raw)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": state})
}

// AddItem обрабатывает POST /api/portfolio/admin/:list.
func (h *PortfolioHandler) AddItem(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	list, ok := listParam(c)
	if !ok {
		return
	}

	raw, ok := readBody(c)
	if !ok {
		return
	}

	state, id, err := h.portfolios.AddItem(c.Request.Context(), user, list, raw)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"portfolio": state, "id": id})
}

// RemoveItem обрабатывает DELETE /api/portfolio/admin/:list/:itemId.
func (h *PortfolioHandler) RemoveItem(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	list, ok := listParam(c)
	if !ok {
		return
	}

	state, err := h.portfolios.RemoveItem(c.Request.Context(), user, list, c.Param("itemId"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": state})
}

// Reorder обрабатывает PUT /api/portfolio/admin/:list/order.
func (h *PortfolioHandler) Reorder(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	list, ok := listParam(c)
	if !ok {
		return
	}

	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if !common.BindJSON(c, &req) {
		return
	}

	state, err := h.portfolios.ReorderItems(c.Request.Context(), user, list, req.IDs)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": state})
}

// Move обрабатывает POST /api/portfolio/admin/:list/move (перенос при drag-and-drop).
func (h *PortfolioHandler) Move(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	list, ok := listParam(c)
	if !ok {
		return
	}

	var req struct {
		From *int `json:"from" binding:"required"`
		To   *int `json:"to" binding:"required"`
	}
	if !common.BindJSON(c, &req) {
		return
	}

	state, err := h.portfolios.MoveItem(c.Request.Context(), user, list, *req.From, *req.To)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": state})
}

func listParam(c *gin.Context) (content.ListName, bool) {
	list, err := content.ParseListName(c.Param("list"))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "неизвестный список: "+c.Param("list"))
		return "", false
	}
	return list, true
}

func readBody(c *gin.Context) ([]byte, bool) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentBytes+1))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "не удалось прочитать тело запроса")
		return nil, false
	}
	if len(raw) > maxDocumentBytes {
		common.RespondError(c, http.StatusRequestEntityTooLarge, "документ слишком большой")
		return nil, false
	}
	return raw, true
}
