package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/kendall-kelly/tailorly-api/config"
	"github.com/kendall-kelly/tailorly-api/events"
	"github.com/kendall-kelly/tailorly-api/services"
	"github.com/kendall-kelly/tailorly-api/testutil"
	"github.com/stretchr/testify/suite"
)

// MarketplaceAcceptanceSuite drives a real HTTP server through the whole
// order lifecycle: sign up, order, chat, payment, tracking and dispute.
type MarketplaceAcceptanceSuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	published *events.RecordingPublisher
}

// staticUserInfo resolves access tokens from a fixed table.
type staticUserInfo map[string]*services.Auth0UserInfo

func (s staticUserInfo) GetUserInfo(_ context.Context, accessToken string) (*services.Auth0UserInfo, error) {
	info, ok := s[accessToken]
	if !ok {
		return nil, fmt.Errorf("unknown token %q", accessToken)
	}
	return info, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *MarketplaceAcceptanceSuite) SetupTest() {
	cfg := testConfig()
	router := setupTestApp(s.T(), cfg)

	services.SetUserInfoFetcher(staticUserInfo{
		"auth0|asha": {Sub: "auth0|asha", Email: "asha@example.com", Name: "Asha Rao"},
		"auth0|ravi": {Sub: "auth0|ravi", Email: "ravi@example.com", Name: "Ravi Kumar"},
	})
	s.published = &events.RecordingPublisher{}
	events.SetPublisher(s.published)

	s.server = httptest.NewServer(router)
	s.client = s.server.Client()
}

func (s *MarketplaceAcceptanceSuite) TearDownTest() {
	s.server.Close()
	services.SetUserInfoFetcher(nil)
	events.SetPublisher(events.NopPublisher{})
}

func (s *MarketplaceAcceptanceSuite) call(method, path, token string, body interface{}, out interface{}) (int, envelope) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	}
	if out != nil && env.Success {
		s.Require().NoError(json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode, env
}

type sessionView struct {
	Role     string `json:"role"`
	Customer *struct {
		ID uint `json:"id"`
	} `json:"customer_profile"`
	Tailor *struct {
		ID uint `json:"id"`
	} `json:"tailor_profile"`
}

type orderView struct {
	ID          uint   `json:"id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	TotalAmount string `json:"total_amount"`
}

func (s *MarketplaceAcceptanceSuite) signUp() (customerID, tailorID uint) {
	var cust sessionView
	status, env := s.call(http.MethodPost, "/api/v1/users", "auth0|asha", nil, &cust)
	s.Require().Equal(http.StatusCreated, status, env.Error.Message)
	s.Require().NotNil(cust.Customer)
	s.Equal("customer", cust.Role)

	var tailor sessionView
	status, env = s.call(http.MethodPost, "/api/v1/users", "auth0|ravi", map[string]string{
		"role":          "tailor",
		"business_name": "Ravi Stitch Works",
		"city":          "Pune",
	}, &tailor)
	s.Require().Equal(http.StatusCreated, status, env.Error.Message)
	s.Require().NotNil(tailor.Tailor)

	return cust.Customer.ID, tailor.Tailor.ID
}

func (s *MarketplaceAcceptanceSuite) TestSignUpTwiceConflicts() {
	s.signUp()

	status, env := s.call(http.MethodPost, "/api/v1/users", "auth0|asha", nil, nil)
	s.Equal(http.StatusConflict, status)
	s.Equal("USER_EXISTS", env.Error.Code)
}

func (s *MarketplaceAcceptanceSuite) TestOrderLifecycle() {
	_, tailorID := s.signUp()

	// customer places a two-item order totalling 1500
	var order orderView
	status, env := s.call(http.MethodPost, "/api/v1/orders", "auth0|asha", map[string]interface{}{
		"tailor_id": tailorID,
		"items": []map[string]interface{}{
			{"garment_type": "kurta", "quantity": 2, "unit_price": "500"},
			{"garment_type": "dupatta", "quantity": 1, "unit_price": "500"},
		},
	}, &order)
	s.Require().Equal(http.StatusCreated, status, env.Error.Message)
	s.Equal("pending", order.Status)
	s.Equal("1500", order.TotalAmount)

	// the tailor sees it as pending
	var tailorOrders []orderView
	status, _ = s.call(http.MethodGet, "/api/v1/orders?status=pending", "auth0|ravi", nil, &tailorOrders)
	s.Require().Equal(http.StatusOK, status)
	s.Require().Len(tailorOrders, 1)
	s.Equal(order.ID, tailorOrders[0].ID)

	orderPath := "/api/v1/orders/" + itoa(order.ID)

	// customers cannot accept their own order
	status, env = s.call(http.MethodPost, orderPath+"/accept", "auth0|asha", nil, nil)
	s.Equal(http.StatusForbidden, status)
	s.Equal("FORBIDDEN", env.Error.Code)

	status, _ = s.call(http.MethodPost, orderPath+"/accept", "auth0|ravi", nil, &order)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("accepted", order.Status)

	// tracking updates from the tailor
	status, env = s.call(http.MethodPost, orderPath+"/tracking", "auth0|ravi", map[string]interface{}{
		"latitude": 18.5204, "longitude": 73.8567, "status": "in_transit",
	}, nil)
	s.Require().Equal(http.StatusCreated, status, env.Error.Message)

	var latest struct {
		Status     string   `json:"status"`
		MapsURL    string   `json:"maps_url"`
		DistanceKm *float64 `json:"distance_km"`
	}
	status, _ = s.call(http.MethodGet, orderPath+"/tracking/latest?lat=19.0760&lon=72.8777", "auth0|asha", nil, &latest)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("in_transit", latest.Status)
	s.Contains(latest.MapsURL, "18.5204")
	s.Require().NotNil(latest.DistanceKm)
	s.InDelta(120, *latest.DistanceKm, 10)

	// advance payment without a provider is recorded as pending
	var payment struct {
		Payment struct {
			ID     uint   `json:"id"`
			Status string `json:"status"`
		} `json:"payment"`
	}
	status, env = s.call(http.MethodPost, orderPath+"/payments", "auth0|asha", map[string]interface{}{
		"amount": "500", "payment_type": "advance",
	}, &payment)
	s.Require().Equal(http.StatusCreated, status, env.Error.Message)
	s.Equal("pending", payment.Payment.Status)

	var captured struct {
		Status     string  `json:"status"`
		CapturedAt *string `json:"captured_at"`
	}
	status, _ = s.call(http.MethodPost, "/api/v1/payments/"+itoa(payment.Payment.ID)+"/capture", "auth0|asha", map[string]string{
		"provider_payment_id": "pay_offline_1",
	}, &captured)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("captured", captured.Status)
	s.NotNil(captured.CapturedAt)

	status, _ = s.call(http.MethodPost, orderPath+"/complete", "auth0|ravi", nil, &order)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("delivered", order.Status)

	var history []struct {
		Status string  `json:"status"`
		Notes  *string `json:"notes"`
	}
	status, _ = s.call(http.MethodGet, orderPath+"/history", "auth0|asha", nil, &history)
	s.Require().Equal(http.StatusOK, status)
	s.Require().Len(history, 3)

	var statuses []string
	for _, evt := range s.published.Events() {
		statuses = append(statuses, evt.Status)
	}
	s.Contains(statuses, "pending")
	s.Contains(statuses, "accepted")
	s.Contains(statuses, "delivered")
}

func (s *MarketplaceAcceptanceSuite) TestChatAndDispute() {
	customerID, tailorID := s.signUp()
	order := testutil.SeedOrder(s.T(), config.GetDB(), customerID, tailorID, "800")

	var conv struct {
		ID uint `json:"id"`
	}
	status, env := s.call(http.MethodPost, "/api/v1/conversations", "auth0|asha", map[string]interface{}{
		"tailor_id": tailorID,
		"order_id":  order.ID,
	}, &conv)
	s.Require().Equal(http.StatusOK, status, env.Error.Message)

	// the same pair gets the same conversation
	var again struct {
		ID uint `json:"id"`
	}
	status, _ = s.call(http.MethodPost, "/api/v1/conversations", "auth0|ravi", map[string]interface{}{
		"customer_id": customerID,
	}, &again)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(conv.ID, again.ID)

	convPath := "/api/v1/conversations/" + itoa(conv.ID)
	status, env = s.call(http.MethodPost, convPath+"/messages", "auth0|asha", map[string]string{
		"content": "Can the kurta be ready by Friday?",
	}, nil)
	s.Require().Equal(http.StatusCreated, status, env.Error.Message)

	var unread struct {
		Updated int64 `json:"updated"`
	}
	status, _ = s.call(http.MethodPost, convPath+"/read", "auth0|ravi", nil, &unread)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(int64(1), unread.Updated)

	var dispute struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	status, env = s.call(http.MethodPost, "/api/v1/disputes", "auth0|asha", map[string]interface{}{
		"order_id":    order.ID,
		"subject":     "Stitching defect",
		"description": "Left sleeve is shorter than measured",
		"priority":    "high",
	}, &dispute)
	s.Require().Equal(http.StatusCreated, status, env.Error.Message)
	s.Equal("open", dispute.Status)

	status, env = s.call(http.MethodPost, "/api/v1/disputes/"+itoa(dispute.ID)+"/messages", "auth0|ravi", map[string]string{
		"content": "I will fix it this week",
	}, nil)
	s.Equal(http.StatusCreated, status, env.Error.Message)

	// only admins move a dispute
	status, _ = s.call(http.MethodPatch, "/api/v1/disputes/"+itoa(dispute.ID)+"/status", "auth0|asha", map[string]string{
		"status": "resolved",
	}, nil)
	s.Equal(http.StatusForbidden, status)
}

func TestMarketplaceAcceptanceSuite(t *testing.T) {
	suite.Run(t, new(MarketplaceAcceptanceSuite))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
