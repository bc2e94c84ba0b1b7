package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/workfolio-backend/internal/http/handlers/common"
	"github.com/ignatzorin/workfolio-backend/internal/service"
)

const maxWebhookBytes = 64 << 10

// BillingHandler обслуживает оплату тарифа pro.
type BillingHandler struct {
	billing *service.BillingService
}

// NewBillingHandler создаёт хэндлер.
func NewBillingHandler(billing *service.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

// Checkout обрабатывает POST /api/billing/checkout.
func (h *BillingHandler) Checkout(c *gin.Context) {
	user, ok := common.CurrentUser(c)
	if !ok {
		return
	}

	url, err := h.billing.Checkout(c.Request.Context(), user)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Webhook обрабатывает POST /api/billing/webhook. Подпись проверяется по сырому телу.
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "не удалось прочитать тело запроса")
		return
	}

	if err := h.billing.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
