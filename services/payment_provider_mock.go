package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// MockPaymentProvider is a mock implementation of PaymentProvider for testing.
type MockPaymentProvider struct {
	mu      sync.Mutex
	intents map[string]decimal.Decimal
	seq     int
	Err     error
}

// NewMockPaymentProvider creates a new mock payment provider.
func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{intents: make(map[string]decimal.Decimal)}
}

// SetAsMockForTesting sets this mock as the global payment provider for testing.
func (m *MockPaymentProvider) SetAsMockForTesting() {
	SetPaymentProvider(m)
}

// CreateIntent records the intent and returns deterministic identifiers.
func (m *MockPaymentProvider) CreateIntent(_ context.Context, amount decimal.Decimal, _ string, _ map[string]string) (*CheckoutIntent, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("pi_mock_%d", m.seq)
	m.intents[id] = amount
	return &CheckoutIntent{ID: id, ClientSecret: id + "_secret"}, nil
}

// ParseWebhook accepts an unsigned JSON ProviderEvent; the signature must be "valid".
func (m *MockPaymentProvider) ParseWebhook(payload []byte, signature string) (*ProviderEvent, error) {
	if signature != "valid" {
		return nil, fmt.Errorf("%w: bad signature", ErrInvalidInput)
	}
	var evt ProviderEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &evt, nil
}

// IntentAmount returns the amount an intent was created for.
func (m *MockPaymentProvider) IntentAmount(id string) (decimal.Decimal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amt, ok := m.intents[id]
	return amt, ok
}
