package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/workfolio-backend/internal/payment"
	"github.com/ignatzorin/workfolio-backend/internal/pkg/apperror"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	args := m.Called(payload, signature)
	if ev := args.Get(0); ev != nil {
		return ev.(*payment.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUpgrader struct {
	mock.Mock
}

func (m *mockUpgrader) UpgradeToPro(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "ожидалась AppError, получено %v", err)
	return appErr.HTTPStatus
}

func TestBillingService_Checkout(t *testing.T) {
	gateway := &mockGateway{}
	svc := NewBillingService(gateway, &mockUpgrader{}, "https://site.example/", 1500)
	owner := freeUser()

	gateway.On("CreateCheckout", mock.Anything, payment.CheckoutRequest{
		OwnerID:     owner.ID.String(),
		Email:       owner.Email,
		ProductName: "Pro Plan",
		AmountCents: 1500,
		SuccessURL:  "https://site.example/admin?upgraded=1",
		CancelURL:   "https://site.example/admin?canceled=1",
	}).Return("https://checkout.example/s/1", nil)

	url, err := svc.Checkout(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/s/1", url)
	gateway.AssertExpectations(t)
}

func TestBillingService_CheckoutFailures(t *testing.T) {
	gateway := &mockGateway{}
	svc := NewBillingService(gateway, &mockUpgrader{}, "https://site.example", 1500)

	_, err := svc.Checkout(context.Background(), proUser())
	assert.Equal(t, http.StatusConflict, httpStatus(t, err))

	gateway.On("CreateCheckout", mock.Anything, mock.Anything).Return("", payment.ErrNotConfigured).Once()
	_, err = svc.Checkout(context.Background(), freeUser())
	assert.Equal(t, http.StatusInternalServerError, httpStatus(t, err))
}

func TestBillingService_WebhookMissingSignature(t *testing.T) {
	gateway := &mockGateway{}
	upgrader := &mockUpgrader{}
	svc := NewBillingService(gateway, upgrader, "", 1500)

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "")
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
	gateway.AssertNotCalled(t, "ParseWebhook", mock.Anything, mock.Anything)
	upgrader.AssertNotCalled(t, "UpgradeToPro", mock.Anything, mock.Anything)
}

func TestBillingService_WebhookInvalidSignature(t *testing.T) {
	gateway := &mockGateway{}
	upgrader := &mockUpgrader{}
	svc := NewBillingService(gateway, upgrader, "", 1500)

	gateway.On("ParseWebhook", mock.Anything, "t=1,v1=bad").Return(nil, payment.ErrInvalidSignature)

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "t=1,v1=bad")
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
	upgrader.AssertNotCalled(t, "UpgradeToPro", mock.Anything, mock.Anything)
}

func TestBillingService_WebhookMissingOwner(t *testing.T) {
	gateway := &mockGateway{}
	upgrader := &mockUpgrader{}
	svc := NewBillingService(gateway, upgrader, "", 1500)

	gateway.On("ParseWebhook", mock.Anything, "sig").
		Return(&payment.Event{ID: "evt_1", Type: payment.EventCheckoutCompleted}, nil)

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "sig")
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
	upgrader.AssertNotCalled(t, "UpgradeToPro", mock.Anything, mock.Anything)
}

func TestBillingService_WebhookUpgrades(t *testing.T) {
	gateway := &mockGateway{}
	upgrader := &mockUpgrader{}
	svc := NewBillingService(gateway, upgrader, "", 1500)
	ownerID := uuid.New()

	gateway.On("ParseWebhook", mock.Anything, "sig").
		Return(&payment.Event{ID: "evt_1", Type: payment.EventCheckoutCompleted, OwnerID: ownerID.String()}, nil)
	upgrader.On("UpgradeToPro", mock.Anything, ownerID).Return(nil).Once()

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))
	upgrader.AssertExpectations(t)
}

func TestBillingService_WebhookUpgradeFailure(t *testing.T) {
	gateway := &mockGateway{}
	upgrader := &mockUpgrader{}
	svc := NewBillingService(gateway, upgrader, "", 1500)
	ownerID := uuid.New()

	gateway.On("ParseWebhook", mock.Anything, "sig").
		Return(&payment.Event{Type: payment.EventCheckoutCompleted, OwnerID: ownerID.String()}, nil)
	upgrader.On("UpgradeToPro", mock.Anything, ownerID).Return(errors.New("connection reset"))

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "sig")
	assert.Equal(t, http.StatusInternalServerError, httpStatus(t, err))
}

func TestBillingService_WebhookIgnoresOtherEvents(t *testing.T) {
	gateway := &mockGateway{}
	upgrader := &mockUpgrader{}
	svc := NewBillingService(gateway, upgrader, "", 1500)

	gateway.On("ParseWebhook", mock.Anything, "sig").
		Return(&payment.Event{Type: "invoice.paid"}, nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))
	upgrader.AssertNotCalled(t, "UpgradeToPro", mock.Anything, mock.Anything)
}
