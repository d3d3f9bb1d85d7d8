package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/realtime"
	"github.com/kendall-kelly/tailorly-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 19.0760, 72.8777, 19.0760, 72.8777, 0, 1e-9},
		{"mumbai to delhi", 19.0760, 72.8777, 28.7041, 77.1025, 1153, 5},
		{"quarter meridian", 0, 0, 90, 0, EarthRadiusKm * math.Pi / 2, 1e-6},
		{"antipodes", 0, 0, 0, 180, EarthRadiusKm * math.Pi, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestCalculateDistance_Symmetric(t *testing.T) {
	points := [][2]float64{{19.07, 72.87}, {-33.86, 151.2}, {51.5, -0.12}, {40.71, -74.0}}
	for _, a := range points {
		for _, b := range points {
			ab := CalculateDistance(a[0], a[1], b[0], b[1])
			ba := CalculateDistance(b[0], b[1], a[0], a[1])
			assert.InDelta(t, ab, ba, 1e-9)
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.LessOrEqual(t, ab, EarthRadiusKm*math.Pi+1e-6)
		}
	}
}

func TestMapsURL(t *testing.T) {
	assert.Equal(t, "https://www.google.com/maps?q=19.076000,72.877700", MapsURL(19.076, 72.8777))
	assert.Equal(t, "https://www.google.com/maps?q=-33.868800,151.209300", MapsURL(-33.8688, 151.2093))
}

func newTrackingFixture(t *testing.T) (*TrackingService, *realtime.MemoryBroker, *models.Order, *models.User) {
	t.Helper()
	db := testutil.NewTestDB(t)
	_, customer := testutil.SeedCustomer(t, db, "auth0|cust", "cust@example.com")
	tailorUser, tailor := testutil.SeedTailor(t, db, "auth0|tailor", "tailor@example.com", nil, nil)
	order := testutil.SeedOrder(t, db, customer.ID, tailor.ID, "800")

	broker := realtime.NewMemoryBroker(realtime.DefaultBuffer)
	t.Cleanup(func() { _ = broker.Close() })
	return NewTrackingService(db, broker), broker, order, tailorUser
}

func TestUpdateDeliveryLocation(t *testing.T) {
	ctx := context.Background()
	svc, _, order, tailorUser := newTrackingFixture(t)

	first, err := svc.UpdateDeliveryLocation(ctx, TrackingUpdateInput{
		OrderID: order.ID, Latitude: 19.07, Longitude: 72.87,
		Status: models.TrackingStatusInTransit, UpdatedBy: tailorUser.ID,
	})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	second, err := svc.UpdateDeliveryLocation(ctx, TrackingUpdateInput{
		OrderID: order.ID, Latitude: 19.10, Longitude: 72.90, Address: ptr("Bandra West"),
		Status: models.TrackingStatusOutForDelivery, UpdatedBy: tailorUser.ID,
	})
	require.NoError(t, err)

	rows, err := svc.GetDeliveryTracking(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, second.ID, rows[0].ID, "newest first")

	latest, err := svc.GetLatestTracking(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, models.TrackingStatusOutForDelivery, latest.Status)
	assert.Equal(t, "Bandra West", *latest.Address)
}

func TestUpdateDeliveryLocation_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, order, tailorUser := newTrackingFixture(t)

	tests := []struct {
		name    string
		input   TrackingUpdateInput
		wantErr error
	}{
		{"bad status", TrackingUpdateInput{OrderID: order.ID, Status: "lost", UpdatedBy: tailorUser.ID}, ErrInvalidStatus},
		{"latitude out of range", TrackingUpdateInput{OrderID: order.ID, Latitude: 91, Status: models.TrackingStatusPending}, ErrInvalidInput},
		{"longitude out of range", TrackingUpdateInput{OrderID: order.ID, Longitude: -181, Status: models.TrackingStatusPending}, ErrInvalidInput},
		{"nan", TrackingUpdateInput{OrderID: order.ID, Latitude: math.NaN(), Status: models.TrackingStatusPending}, ErrInvalidInput},
		{"unknown order", TrackingUpdateInput{OrderID: 999, Status: models.TrackingStatusPending}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateDeliveryLocation(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	rows, err := svc.GetDeliveryTracking(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = svc.GetLatestTracking(ctx, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscribeToTracking(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, broker, order, tailorUser := newTrackingFixture(t)

	sub, err := svc.SubscribeToTracking(ctx, order.ID)
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, 1, broker.Subscribers(realtime.TrackingTopic(order.ID)))

	row, err := svc.UpdateDeliveryLocation(ctx, TrackingUpdateInput{
		OrderID: order.ID, Latitude: 12.97, Longitude: 77.59,
		Status: models.TrackingStatusDelivered, UpdatedBy: tailorUser.ID,
	})
	require.NoError(t, err)

	select {
	case evt := <-sub.Events():
		assert.Equal(t, realtime.EventInsert, evt.Type)
		var got models.DeliveryTracking
		require.NoError(t, evt.Decode(&got))
		assert.Equal(t, row.ID, got.ID)
		assert.Equal(t, models.TrackingStatusDelivered, got.Status)
	case <-time.After(time.Second):
		t.Fatal("no tracking event received")
	}
}
