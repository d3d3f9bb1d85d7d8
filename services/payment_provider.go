package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/webhook"
)

// Provider event types acted on by the payment service.
const (
	ProviderEventSucceeded = "payment_intent.succeeded"
	ProviderEventFailed    = "payment_intent.payment_failed"
	ProviderEventRefunded  = "charge.refunded"
)

// CheckoutIntent is a provider-side payment the browser widget completes.
type CheckoutIntent struct {
	ID           string
	ClientSecret string
}

// ProviderEvent is a verified, provider-neutral webhook notification.
type ProviderEvent struct {
	ID                string
	Type              string
	IntentID          string // matched against payments.provider_order_id
	ProviderPaymentID string
}

// PaymentProvider creates checkout intents and verifies webhook payloads.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*CheckoutIntent, error)
	ParseWebhook(payload []byte, signature string) (*ProviderEvent, error)
}

// StripeProvider implements PaymentProvider with Stripe PaymentIntents.
type StripeProvider struct {
	intents    paymentintent.Client
	webhookKey string
}

func NewStripeProvider(secretKey, webhookKey string) *StripeProvider {
	return &StripeProvider{
		intents:    paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		webhookKey: webhookKey,
	}
}

// MinorUnits converts an amount to the smallest currency unit (paise, cents).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (p *StripeProvider) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*CheckoutIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(amount)),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &CheckoutIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*ProviderEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookKey, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return providerEventFromStripe(event)
}

func providerEventFromStripe(event stripe.Event) (*ProviderEvent, error) {
	out := &ProviderEvent{ID: event.ID, Type: string(event.Type)}

	switch out.Type {
	case ProviderEventSucceeded, ProviderEventFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: payment intent payload: %v", ErrInvalidInput, err)
		}
		out.IntentID = pi.ID
		if pi.LatestCharge != nil {
			out.ProviderPaymentID = pi.LatestCharge.ID
		}
	case ProviderEventRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("%w: charge payload: %v", ErrInvalidInput, err)
		}
		if ch.PaymentIntent != nil {
			out.IntentID = ch.PaymentIntent.ID
		}
		out.ProviderPaymentID = ch.ID
	}
	return out, nil
}

var (
	paymentProviderInstance PaymentProvider
	paymentProviderMu       sync.RWMutex
)

// GetPaymentProvider returns the configured provider, or nil when checkout is disabled.
func GetPaymentProvider() PaymentProvider {
	paymentProviderMu.RLock()
	defer paymentProviderMu.RUnlock()
	return paymentProviderInstance
}

// SetPaymentProvider sets the provider instance (primarily for testing).
func SetPaymentProvider(p PaymentProvider) {
	paymentProviderMu.Lock()
	paymentProviderInstance = p
	paymentProviderMu.Unlock()
}
