package services

import (
	"context"
	"testing"

	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisputeLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	customerUser, customer := testutil.SeedCustomer(t, db, "auth0|cust", "cust@example.com")
	_, tailor := testutil.SeedTailor(t, db, "auth0|tailor", "tailor@example.com", nil, nil)
	adminUser, _ := testutil.SeedAdmin(t, db, "auth0|admin", "admin@example.com")
	order := testutil.SeedOrder(t, db, customer.ID, tailor.ID, "2000")
	svc := NewDisputeService(db)

	dispute, err := svc.CreateDispute(ctx, CreateDisputeInput{
		OrderID:     order.ID,
		Subject:     " Wrong fit ",
		Description: "Sleeves are two inches short",
		RaisedBy:    models.SenderCustomer,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusOpen, dispute.Status)
	assert.Equal(t, DefaultDisputePriority, dispute.Priority)
	assert.Equal(t, "Wrong fit", dispute.Subject)
	assert.Equal(t, customer.ID, dispute.CustomerID)
	assert.Equal(t, tailor.ID, dispute.TailorID)
	assert.Nil(t, dispute.ResolvedAt)

	inProgress, err := svc.UpdateDisputeStatus(ctx, dispute.ID, models.DisputeStatusInProgress, nil, &adminUser.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusInProgress, inProgress.Status)
	assert.Nil(t, inProgress.ResolvedAt, "resolved_at is only written on resolve")
	assert.Nil(t, inProgress.ResolvedBy)

	_, err = svc.AddDisputeMessage(ctx, dispute.ID, customerUser.ID, models.SenderCustomer, "Photos attached in chat")
	require.NoError(t, err)
	_, err = svc.AddDisputeMessage(ctx, dispute.ID, adminUser.ID, models.SenderAdmin, "Tailor will redo the sleeves")
	require.NoError(t, err)

	msgs, err := svc.GetDisputeMessages(ctx, dispute.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.SenderCustomer, msgs[0].SenderType)
	assert.Equal(t, models.SenderAdmin, msgs[1].SenderType)

	resolved, err := svc.UpdateDisputeStatus(ctx, dispute.ID, models.DisputeStatusResolved, ptr("Alteration redone free"), &adminUser.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, adminUser.ID, *resolved.ResolvedBy)
	assert.Equal(t, "Alteration redone free", *resolved.ResolutionNotes)

	// reopening drops the resolution stamp
	reopened, err := svc.UpdateDisputeStatus(ctx, dispute.ID, models.DisputeStatusOpen, nil, &adminUser.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusOpen, reopened.Status)
	assert.Nil(t, reopened.ResolvedAt)
	assert.Nil(t, reopened.ResolvedBy)

	closed, err := svc.UpdateDisputeStatus(ctx, dispute.ID, models.DisputeStatusClosed, nil, &adminUser.ID)
	require.NoError(t, err)
	assert.Nil(t, closed.ResolvedAt)
}

func TestCreateDispute_Validation(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	_, customer := testutil.SeedCustomer(t, db, "auth0|cust", "cust@example.com")
	_, tailor := testutil.SeedTailor(t, db, "auth0|tailor", "tailor@example.com", nil, nil)
	order := testutil.SeedOrder(t, db, customer.ID, tailor.ID, "2000")
	svc := NewDisputeService(db)

	_, err := svc.CreateDispute(ctx, CreateDisputeInput{OrderID: order.ID, Subject: "", Description: "x", RaisedBy: models.SenderCustomer})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateDispute(ctx, CreateDisputeInput{OrderID: 404, Subject: "s", Description: "d", RaisedBy: models.SenderCustomer})
	assert.ErrorIs(t, err, ErrNotFound)

	high, err := svc.CreateDispute(ctx, CreateDisputeInput{OrderID: order.ID, Subject: "s", Description: "d", Priority: "high", RaisedBy: models.SenderTailor})
	require.NoError(t, err)
	assert.Equal(t, "high", high.Priority)

	_, err = svc.UpdateDisputeStatus(ctx, high.ID, "escalated", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateDisputeStatus(ctx, 404, models.DisputeStatusClosed, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddDisputeMessage(ctx, 404, 1, models.SenderAdmin, "hello")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddDisputeMessage(ctx, high.ID, 1, models.SenderAdmin, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetDisputes_ScopedByRole(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	_, alice := testutil.SeedCustomer(t, db, "auth0|alice", "alice@example.com")
	_, bob := testutil.SeedCustomer(t, db, "auth0|bob", "bob@example.com")
	_, tailor := testutil.SeedTailor(t, db, "auth0|tailor", "tailor@example.com", nil, nil)
	svc := NewDisputeService(db)

	for _, c := range []*models.CustomerProfile{alice, bob} {
		order := testutil.SeedOrder(t, db, c.ID, tailor.ID, "100")
		_, err := svc.CreateDispute(ctx, CreateDisputeInput{OrderID: order.ID, Subject: "late", Description: "late", RaisedBy: models.SenderCustomer})
		require.NoError(t, err)
	}

	mine, err := svc.GetDisputes(ctx, alice.ID, models.RoleCustomer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, alice.ID, mine[0].CustomerID)

	tailors, err := svc.GetDisputes(ctx, tailor.ID, models.RoleTailor)
	require.NoError(t, err)
	assert.Len(t, tailors, 2)

	all, err := svc.GetDisputes(ctx, 0, models.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.GetDisputes(ctx, alice.ID, "guest")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
