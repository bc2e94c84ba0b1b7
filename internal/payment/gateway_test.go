package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testSecret = "whsec_test_secret"

func signed(t *testing.T, payload string) string {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return sp.Header
}

func TestParseWebhook_CompletedCheckout(t *testing.T) {
	g := NewStripeGateway("", testSecret)
	payload := `{"id":"evt_1","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_1","object":"checkout.session","metadata":{"user_id":"owner-1"}}}}`

	evt, err := g.ParseWebhook([]byte(payload), signed(t, payload))
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, evt.Type)
	assert.Equal(t, "cs_1", evt.SessionID)
	assert.Equal(t, "owner-1", evt.OwnerID)
}

func TestParseWebhook_MissingOwner(t *testing.T) {
	g := NewStripeGateway("", testSecret)
	payload := `{"id":"evt_2","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_2","object":"checkout.session","metadata":{}}}}`

	evt, err := g.ParseWebhook([]byte(payload), signed(t, payload))
	require.NoError(t, err)
	assert.Empty(t, evt.OwnerID)
}

func TestParseWebhook_OtherEventType(t *testing.T) {
	g := NewStripeGateway("", testSecret)
	payload := `{"id":"evt_3","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}}}`

	evt, err := g.ParseWebhook([]byte(payload), signed(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "invoice.paid", evt.Type)
	assert.Empty(t, evt.OwnerID)
}

func TestParseWebhook_BadSignature(t *testing.T) {
	g := NewStripeGateway("", testSecret)
	payload := `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{}}}`

	_, err := g.ParseWebhook([]byte(payload), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseWebhook_NoSecret(t *testing.T) {
	g := NewStripeGateway("", "")
	_, err := g.ParseWebhook([]byte(`{}`), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCreateCheckout_NotConfigured(t *testing.T) {
	g := NewStripeGateway("", testSecret)
	_, err := g.CreateCheckout(context.Background(), CheckoutRequest{OwnerID: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
