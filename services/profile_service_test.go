package services

import (
	"context"
	"testing"

	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindNearbyTailors(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)

	// Search point: Dadar, Mumbai
	const lat, lon = 19.0178, 72.8478

	_, near := testutil.SeedTailor(t, db, "auth0|near", "near@example.com", testutil.Float(19.0330), testutil.Float(72.8500))
	_, mid := testutil.SeedTailor(t, db, "auth0|mid", "mid@example.com", testutil.Float(19.0760), testutil.Float(72.8777))
	_, far := testutil.SeedTailor(t, db, "auth0|far", "far@example.com", testutil.Float(18.5204), testutil.Float(73.8567))
	testutil.SeedTailor(t, db, "auth0|nowhere", "nowhere@example.com", nil, nil)
	_, unverified := testutil.SeedTailor(t, db, "auth0|unverified", "u@example.com", testutil.Float(19.0180), testutil.Float(72.8480))
	require.NoError(t, db.Model(unverified).Update("is_verified", false).Error)

	got, err := NewProfileService(db).FindNearbyTailors(ctx, lat, lon)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, near.ID, got[0].ID)
	assert.Equal(t, mid.ID, got[1].ID)
	assert.Less(t, got[0].DistanceKm, got[1].DistanceKm)
	for _, n := range got {
		assert.LessOrEqual(t, n.DistanceKm, n.ServiceRadiusKm)
		assert.Contains(t, n.MapsURL, "https://www.google.com/maps?q=")
	}

	require.NoError(t, db.Model(far).Update("service_radius_km", 500).Error)
	got, err = NewProfileService(db).FindNearbyTailors(ctx, lat, lon)
	require.NoError(t, err)
	assert.Len(t, got, 3, "a wide service radius brings the Pune tailor in range")

	_, err = NewProfileService(db).FindNearbyTailors(ctx, 100, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListVerifiedTailors(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	_, low := testutil.SeedTailor(t, db, "auth0|low", "low@example.com", nil, nil)
	_, high := testutil.SeedTailor(t, db, "auth0|high", "high@example.com", nil, nil)
	_, hidden := testutil.SeedTailor(t, db, "auth0|hidden", "hidden@example.com", nil, nil)
	require.NoError(t, db.Model(low).Update("rating", 3.5).Error)
	require.NoError(t, db.Model(high).Update("rating", 4.8).Error)
	require.NoError(t, db.Model(hidden).Update("is_verified", false).Error)

	svc := NewProfileService(db)
	tailors, err := svc.ListVerifiedTailors(ctx, 0)
	require.NoError(t, err)
	require.Len(t, tailors, 2)
	assert.Equal(t, high.ID, tailors[0].ID)

	limited, err := svc.ListVerifiedTailors(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestCreateReview(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	_, customer := testutil.SeedCustomer(t, db, "auth0|cust", "cust@example.com")
	_, other := testutil.SeedCustomer(t, db, "auth0|other", "other@example.com")
	_, tailor := testutil.SeedTailor(t, db, "auth0|tailor", "tailor@example.com", nil, nil)
	order := testutil.SeedOrder(t, db, customer.ID, tailor.ID, "900")
	svc := NewProfileService(db)

	review, err := svc.CreateReview(ctx, CreateReviewInput{
		TailorID: tailor.ID, CustomerID: customer.ID, OrderID: &order.ID,
		Rating: 5, Comment: ptr("  Perfect fit  "),
	})
	require.NoError(t, err)
	assert.True(t, review.IsPublished)
	assert.Equal(t, "Perfect fit", *review.Comment)

	_, err = svc.CreateReview(ctx, CreateReviewInput{TailorID: tailor.ID, CustomerID: other.ID, OrderID: &order.ID, Rating: 4})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreateReview(ctx, CreateReviewInput{TailorID: tailor.ID, CustomerID: customer.ID, Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateReview(ctx, CreateReviewInput{TailorID: 404, CustomerID: customer.ID, Rating: 3})
	assert.ErrorIs(t, err, ErrNotFound)

	hidden, err := svc.CreateReview(ctx, CreateReviewInput{TailorID: tailor.ID, CustomerID: other.ID, Rating: 1})
	require.NoError(t, err)
	require.NoError(t, db.Model(hidden).Update("is_published", false).Error)

	detail, err := svc.GetTailor(ctx, tailor.ID)
	require.NoError(t, err)
	assert.Equal(t, tailor.ID, detail.Tailor.ID)
	require.Len(t, detail.Reviews, 1, "unpublished reviews are hidden")
	assert.Equal(t, review.ID, detail.Reviews[0].ID)

	_, err = svc.GetTailor(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetCustomerProfile(t *testing.T) {
	db := testutil.NewTestDB(t)
	_, customer := testutil.SeedCustomer(t, db, "auth0|cust", "cust@example.com")
	svc := NewProfileService(db)

	got, err := svc.GetCustomerProfile(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "cust@example.com", got.Email)

	_, err = svc.GetCustomerProfile(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMeasurements(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	_, customer := testutil.SeedCustomer(t, db, "auth0|cust", "cust@example.com")
	_, stranger := testutil.SeedCustomer(t, db, "auth0|stranger", "stranger@example.com")
	svc := NewMeasurementService(db)

	first, err := svc.Create(ctx, customer.ID, MeasurementInput{ChestCm: testutil.Float(96), WaistCm: testutil.Float(82)})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary, "first set is primary")

	second, err := svc.Create(ctx, customer.ID, MeasurementInput{ChestCm: testutil.Float(98)})
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)

	third, err := svc.Create(ctx, customer.ID, MeasurementInput{NeckCm: testutil.Float(40), IsPrimary: true})
	require.NoError(t, err)
	assert.True(t, third.IsPrimary)

	primaries := func() []uint {
		list, err := svc.List(ctx, customer.ID)
		require.NoError(t, err)
		var ids []uint
		for _, m := range list {
			if m.IsPrimary {
				ids = append(ids, m.ID)
			}
		}
		return ids
	}
	assert.Equal(t, []uint{third.ID}, primaries())

	_, err = svc.SetPrimary(ctx, customer.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID}, primaries())

	updated, err := svc.Update(ctx, customer.ID, first.ID, MeasurementInput{ChestCm: testutil.Float(97), Notes: ptr("after diet")})
	require.NoError(t, err)
	assert.InDelta(t, 97, *updated.ChestCm, 1e-9)
	assert.Nil(t, updated.WaistCm)

	_, err = svc.Create(ctx, customer.ID, MeasurementInput{HipCm: testutil.Float(-1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Get(ctx, stranger.ID, first.ID)
	assert.ErrorIs(t, err, ErrNotFound, "other customers cannot read the set")
	assert.ErrorIs(t, svc.Delete(ctx, stranger.ID, first.ID), ErrNotFound)
	_, err = svc.SetPrimary(ctx, stranger.ID, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, customer.ID, first.ID))
	list, err := svc.List(ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestAdminStats(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)

	empty, err := NewAdminService(db).Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalUsers)
	assert.True(t, empty.TotalRevenue.IsZero())

	_, c1 := testutil.SeedCustomer(t, db, "auth0|c1", "c1@example.com")
	_, c2 := testutil.SeedCustomer(t, db, "auth0|c2", "c2@example.com")
	_, tailor := testutil.SeedTailor(t, db, "auth0|t", "t@example.com", nil, nil)
	testutil.SeedAdmin(t, db, "auth0|a", "a@example.com")
	testutil.SeedOrder(t, db, c1.ID, tailor.ID, "1500")
	accepted := testutil.SeedOrder(t, db, c2.ID, tailor.ID, "500.50")
	require.NoError(t, db.Model(accepted).Update("status", models.OrderStatusAccepted).Error)
	require.NoError(t, db.Create(&models.Dispute{
		OrderID: accepted.ID, CustomerID: c2.ID, TailorID: tailor.ID,
		Subject: "s", Description: "d", Status: models.DisputeStatusOpen, RaisedBy: models.SenderCustomer,
	}).Error)

	stats, err := NewAdminService(db).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalCustomers)
	assert.Equal(t, int64(1), stats.TotalTailors)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.PendingOrders)
	assert.Equal(t, int64(1), stats.OpenDisputes)
	assert.Equal(t, "2000.50", stats.TotalRevenue.StringFixed(2))
}
