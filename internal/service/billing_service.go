package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/workfolio-backend/internal/logger"
	"github.com/ignatzorin/workfolio-backend/internal/models"
	"github.com/ignatzorin/workfolio-backend/internal/payment"
	"github.com/ignatzorin/workfolio-backend/internal/pkg/apperror"
)

// PlanUpgrader переводит пользователя на тариф pro после оплаты.
type PlanUpgrader interface {
	UpgradeToPro(ctx context.Context, id uuid.UUID) error
}

const proProductName = "Pro Plan"

// BillingService создаёт оплату тарифа и обрабатывает вебхуки провайдера.
type BillingService struct {
	gateway     payment.Gateway
	upgrader    PlanUpgrader
	siteURL     string
	amountCents int64
}

// NewBillingService создаёт сервис оплаты.
func NewBillingService(gateway payment.Gateway, upgrader PlanUpgrader, siteURL string, amountCents int64) *BillingService {
	return &BillingService{
		gateway:     gateway,
		upgrader:    upgrader,
		siteURL:     strings.TrimRight(siteURL, "/"),
		amountCents: amountCents,
	}
}

// Checkout создаёт сессию оплаты тарифа pro и возвращает адрес для редиректа.
func (s *BillingService) Checkout(ctx context.Context, owner models.CurrentUser) (string, error) {
	if owner.IsPro() {
		return "", apperror.New(apperror.ErrCodeConflict, "тариф pro уже подключён")
	}

	url, err := s.gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		OwnerID:     owner.ID.String(),
		Email:       owner.Email,
		ProductName: proProductName,
		AmountCents: s.amountCents,
		SuccessURL:  s.siteURL + "/admin?upgraded=1",
		CancelURL:   s.siteURL + "/admin?canceled=1",
	})
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			return "", apperror.Wrap(err, apperror.ErrCodeInternal, "оплата не настроена")
		}
		return "", apperror.Wrap(err, apperror.ErrCodeUpstream, "не удалось создать сессию оплаты")
	}
	return url, nil
}

// HandleWebhook проверяет подпись события и при завершённой оплате повышает тариф владельца.
// Прочие типы событий подтверждаются без действий.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return apperror.New(apperror.ErrCodeBadRequest, "отсутствует подпись вебхука")
	}

	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeBadRequest, "Webhook Error: "+err.Error())
	}

	if event.Type != payment.EventCheckoutCompleted {
		return nil
	}

	ownerID, err := uuid.Parse(event.OwnerID)
	if err != nil {
		return apperror.New(apperror.ErrCodeBadRequest, "в метаданных сессии нет user_id")
	}

	if err := s.upgrader.UpgradeToPro(ctx, ownerID); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить тариф")
	}

	logger.L().WithFields(logrus.Fields{
		"user_id":    ownerID,
		"event_id":   event.ID,
		"session_id": event.SessionID,
	}).Info("billing service: тариф pro подключён")
	return nil
}
