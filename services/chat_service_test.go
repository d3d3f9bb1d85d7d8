package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/realtime"
	"github.com/kendall-kelly/tailorly-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type chatFixture struct {
	db           *gorm.DB
	svc          *ChatService
	broker       *realtime.MemoryBroker
	customerUser *models.User
	customer     *models.CustomerProfile
	tailorUser   *models.User
	tailor       *models.TailorProfile
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	customerUser, customer := testutil.SeedCustomer(t, db, "auth0|cust", "cust@example.com")
	tailorUser, tailor := testutil.SeedTailor(t, db, "auth0|tailor", "tailor@example.com", nil, nil)
	broker := realtime.NewMemoryBroker(realtime.DefaultBuffer)
	t.Cleanup(func() { _ = broker.Close() })
	return &chatFixture{
		db:           db,
		svc:          NewChatService(db, broker),
		broker:       broker,
		customerUser: customerUser,
		customer:     customer,
		tailorUser:   tailorUser,
		tailor:       tailor,
	}
}

func TestGetOrCreateConversation_SamePair(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetOrCreateConversation(ctx, f.customer.ID, f.tailor.ID, nil)
	require.NoError(t, err)
	second, err := f.svc.GetOrCreateConversation(ctx, f.customer.ID, f.tailor.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsActive)

	convs, err := f.svc.GetConversations(ctx, f.customer.ID, models.RoleCustomer)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestGetOrCreateConversation_Concurrent(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]uint, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := f.svc.GetOrCreateConversation(ctx, f.customer.ID, f.tailor.ID, nil)
			if assert.NoError(t, err) {
				ids[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestGetOrCreateConversation_RequiresBothParties(t *testing.T) {
	f := newChatFixture(t)
	_, err := f.svc.GetOrCreateConversation(context.Background(), f.customer.ID, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetOrCreateConversation_UnknownParty(t *testing.T) {
	f := newChatFixture(t)
	_, err := f.svc.GetOrCreateConversation(context.Background(), f.customer.ID, 9999, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	var n int64
	require.NoError(t, f.db.Model(&models.Conversation{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestGetConversations_ByRole(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	conv, err := f.svc.GetOrCreateConversation(ctx, f.customer.ID, f.tailor.ID, nil)
	require.NoError(t, err)

	forTailor, err := f.svc.GetConversations(ctx, f.tailor.ID, models.RoleTailor)
	require.NoError(t, err)
	require.Len(t, forTailor, 1)
	assert.Equal(t, conv.ID, forTailor[0].ID)

	forAdmin, err := f.svc.GetConversations(ctx, 0, models.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, forAdmin, 1)

	_, err = f.svc.GetConversations(ctx, 1, models.Role("guest"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSendMessage(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	conv, err := f.svc.GetOrCreateConversation(ctx, f.customer.ID, f.tailor.ID, nil)
	require.NoError(t, err)

	msg, err := f.svc.SendMessage(ctx, SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       f.customerUser.ID,
		SenderType:     models.SenderCustomer,
		Content:        "  Can you hem the sleeves?  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Can you hem the sleeves?", msg.Content)
	assert.False(t, msg.IsRead)

	updated, err := f.svc.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.False(t, updated.LastMessageAt.Before(conv.LastMessageAt))

	msgs, err := f.svc.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, msg.ID, msgs[0].ID)
}

func TestSendMessage_Validation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	conv, err := f.svc.GetOrCreateConversation(ctx, f.customer.ID, f.tailor.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, SendMessageInput{ConversationID: conv.ID, SenderID: f.customerUser.ID, SenderType: models.SenderCustomer, Content: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.SendMessage(ctx, SendMessageInput{ConversationID: 999, SenderID: f.customerUser.ID, SenderType: models.SenderCustomer, Content: "hi"})
	assert.ErrorIs(t, err, ErrNotFound)

	withAttachment, err := f.svc.SendMessage(ctx, SendMessageInput{
		ConversationID: conv.ID, SenderID: f.customerUser.ID, SenderType: models.SenderCustomer,
		AttachmentKey: ptr("chat/1_fabric.png"),
	})
	require.NoError(t, err)
	assert.Empty(t, withAttachment.Content)
}

func TestSendMessage_ClosedConversation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	conv, err := f.svc.GetOrCreateConversation(ctx, f.customer.ID, f.tailor.ID, nil)
	require.NoError(t, err)

	closed, err := f.svc.CloseConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsActive)

	_, err = f.svc.SendMessage(ctx, SendMessageInput{ConversationID: conv.ID, SenderID: f.tailorUser.ID, SenderType: models.SenderTailor, Content: "hello?"})
	assert.ErrorIs(t, err, ErrForbidden)

	convs, err := f.svc.GetConversations(ctx, f.customer.ID, models.RoleCustomer)
	require.NoError(t, err)
	assert.Empty(t, convs, "closed conversations are not listed")

	_, err = f.svc.CloseConversation(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkMessagesAsRead(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	conv, err := f.svc.GetOrCreateConversation(ctx, f.customer.ID, f.tailor.ID, nil)
	require.NoError(t, err)

	send := func(senderID uint, kind models.SenderType, text string) {
		_, err := f.svc.SendMessage(ctx, SendMessageInput{ConversationID: conv.ID, SenderID: senderID, SenderType: kind, Content: text})
		require.NoError(t, err)
	}
	send(f.customerUser.ID, models.SenderCustomer, "one")
	send(f.customerUser.ID, models.SenderCustomer, "two")
	send(f.tailorUser.ID, models.SenderTailor, "three")

	n, err := f.svc.MarkMessagesAsRead(ctx, conv.ID, f.tailorUser.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = f.svc.MarkMessagesAsRead(ctx, conv.ID, f.tailorUser.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	msgs, err := f.svc.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.True(t, msgs[0].IsRead)
	assert.True(t, msgs[1].IsRead)
	assert.False(t, msgs[2].IsRead, "the reader's own message stays unread")
	assert.Equal(t, "one", msgs[0].Content)
}

func TestSubscribeToMessages(t *testing.T) {
	f := newChatFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conv, err := f.svc.GetOrCreateConversation(ctx, f.customer.ID, f.tailor.ID, nil)
	require.NoError(t, err)
	other, err := f.svc.GetOrCreateConversation(ctx, f.customer.ID+100, f.tailor.ID, nil)
	require.NoError(t, err)

	sub, err := f.svc.SubscribeToMessages(ctx, conv.ID)
	require.NoError(t, err)
	defer sub.Close()

	_, err = f.svc.SendMessage(ctx, SendMessageInput{ConversationID: other.ID, SenderID: f.customerUser.ID, SenderType: models.SenderCustomer, Content: "elsewhere"})
	require.NoError(t, err)
	sent, err := f.svc.SendMessage(ctx, SendMessageInput{ConversationID: conv.ID, SenderID: f.tailorUser.ID, SenderType: models.SenderTailor, Content: "ready on friday"})
	require.NoError(t, err)

	select {
	case evt := <-sub.Events():
		var got models.Message
		require.NoError(t, evt.Decode(&got))
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, "ready on friday", got.Content)
	case <-time.After(time.Second):
		t.Fatal("no message event received")
	}

	select {
	case evt := <-sub.Events():
		t.Fatalf("unexpected extra event on %s", evt.Topic)
	default:
	}
}
