package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/workfolio-backend/internal/http/handlers/common"
	"github.com/ignatzorin/workfolio-backend/internal/service"
)

// UserHandler: профиль владельца и администрирование пользователей.
type UserHandler struct {
	accounts *service.AccountService
}

// NewUserHandler создаёт хэндлер.
func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// UpdateProfile обрабатывает PUT /api/user/profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	current, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	var req struct {
		FullName  string  `json:"full_name" binding:"required"`
		Bio       *string `json:"bio"`
		AvatarURL *string `json:"avatar_url"`
	}
	if !common.BindJSON(c, &req) {
		return
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), current, service.ProfileUpdate{
		DisplayName: req.FullName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteAccount обрабатывает DELETE /api/user/profile. Только для тарифа pro.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	current, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	if err := h.accounts.DeleteAccount(c.Request.Context(), current); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// List обрабатывает GET /api/users (администратор).
func (h *UserHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	users, err := h.accounts.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "limit": limit, "offset": offset})
}

// Update обрабатывает PATCH /api/users/:id {role?, plan?} (администратор).
func (h *UserHandler) Update(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req service.AdminUserUpdate
	if !common.BindJSON(c, &req) {
		return
	}

	user, err := h.accounts.AdminUpdate(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Delete обрабатывает DELETE /api/users/:id (администратор).
func (h *UserHandler) Delete(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.accounts.AdminDelete(c.Request.Context(), userID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
