// Package payment создаёт сессии оплаты и проверяет вебхуки платёжного провайдера.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// EventCheckoutCompleted: событие успешной оплаты сессии.
const EventCheckoutCompleted = "checkout.session.completed"

// MetadataOwnerKey: ключ метаданных сессии с идентификатором владельца.
const MetadataOwnerKey = "user_id"

var (
	// ErrNotConfigured возвращается, когда не задан секретный ключ провайдера.
	ErrNotConfigured = errors.New("payment: провайдер не настроен")
	// ErrInvalidSignature возвращается при неверной подписи вебхука.
	ErrInvalidSignature = errors.New("payment: неверная подпись вебхука")
	// ErrMalformedEvent возвращается, когда тело события не разбирается.
	ErrMalformedEvent = errors.New("payment: некорректное событие")
)

// CheckoutRequest: параметры разовой оплаты тарифа.
type CheckoutRequest struct {
	OwnerID     string
	Email       string
	ProductName string
	AmountCents int64
	SuccessURL  string
	CancelURL   string
}

// Event: проверенное событие вебхука. OwnerID пуст, если в метаданных его нет.
type Event struct {
	ID        string
	Type      string
	SessionID string
	OwnerID   string
}

// Gateway: платёжный провайдер.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// StripeGateway реализует Gateway поверх Stripe Checkout.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway создаёт шлюз. Пустой secretKey допустим: оплата будет отвечать ErrNotConfigured.
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	g := &StripeGateway{webhookSecret: webhookSecret}
	if secretKey != "" {
		g.api = client.New(secretKey, nil)
	}
	return g
}

// CreateCheckout создаёт сессию оплаты и возвращает адрес для редиректа.
func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	if g.api == nil {
		return "", ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata(MetadataOwnerKey, req.OwnerID)
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("payment: не удалось создать сессию оплаты: %w", err)
	}

	return sess.URL, nil
}

// ParseWebhook проверяет подпись и извлекает владельца из метаданных сессии.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("%w: секрет вебхука не задан", ErrInvalidSignature)
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if out.Type != EventCheckoutCompleted {
		return out, nil
	}

	if evt.Data == nil {
		return nil, ErrMalformedEvent
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	out.SessionID = sess.ID
	out.OwnerID = sess.Metadata[MetadataOwnerKey]
	return out, nil
}
