package service

import (
	"context"
	"errors"
	"testing"

	"MediaHub/internal/modules/chat/domain/entity"
	notificationService "MediaHub/internal/modules/notification/application/service"
	notificationEntity "MediaHub/internal/modules/notification/domain/entity"
	"MediaHub/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	events []notificationService.NotifyEvent
	err    error
}

func (n *captureNotifier) Notify(ctx context.Context, ev notificationService.NotifyEvent) (*notificationService.NotifyResult, error) {
	n.events = append(n.events, ev)
	if n.err != nil {
		return nil, n.err
	}
	return &notificationService.NotifyResult{RecipientUserId: ev.RecipientUserId, Sent: true}, nil
}

// 艺人 3 归属账号 30，会话 3_7 的用户为 7
var testArtists = memArtists{3: {Id: 3, UserId: 30, Name: "Aurora", AvatarUrl: "https://cdn/a.png"}}

func TestSendMessage_UserToArtist(t *testing.T) {
	store := newMemHotStore()
	notifier := &captureNotifier{}
	svc := NewChatService(store, newMemArchive(), testArtists, notifier)

	item, err := svc.SendMessage(context.Background(), SendParams{SenderUserId: 7, SenderName: "fan", ChatDocId: "3_7", Text: "  hello  "})
	require.NoError(t, err)
	assert.Equal(t, "hello", item.Text)
	assert.Equal(t, entity.SenderUser, item.SenderType)
	assert.Equal(t, int64(7), item.SenderId)
	assert.Equal(t, int64(30), item.RecipientId)
	assert.NotEmpty(t, item.Id)
	assert.Equal(t, 1, store.total())

	require.Len(t, store.summaries, 1)
	assert.Equal(t, "fan", store.summaries[0].UserName)
	assert.Equal(t, "Aurora", store.summaries[0].ArtistName)
	assert.Equal(t, 1, store.threads["3_7"].UnreadArtist)

	require.Len(t, notifier.events, 1)
	ev := notifier.events[0]
	assert.Equal(t, int64(30), ev.RecipientUserId)
	assert.Equal(t, notificationEntity.KindMessage, ev.Kind)
	assert.Equal(t, "fan", ev.Title)
	assert.Equal(t, "3_7", ev.ChatDocId)
	assert.True(t, ev.CheckPresence)
	assert.False(t, ev.SenderIsArtist)
	require.NotNil(t, ev.SenderUserId)
	assert.Equal(t, int64(7), *ev.SenderUserId)
	assert.Equal(t, item.Id, ev.Data["message_id"])
}

func TestSendMessage_ArtistToUser(t *testing.T) {
	store := newMemHotStore()
	notifier := &captureNotifier{}
	svc := NewChatService(store, newMemArchive(), testArtists, notifier)

	item, err := svc.SendMessage(context.Background(), SendParams{SenderUserId: 30, ChatDocId: "3_7", Text: "hi", AsArtist: true})
	require.NoError(t, err)
	assert.Equal(t, entity.SenderArtist, item.SenderType)
	assert.Equal(t, int64(3), item.SenderId)
	assert.Equal(t, int64(7), item.RecipientId)
	assert.Equal(t, 1, store.threads["3_7"].UnreadUser)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, int64(7), notifier.events[0].RecipientUserId)
	assert.Equal(t, "Aurora", notifier.events[0].Title)
	assert.True(t, notifier.events[0].SenderIsArtist)
}

func TestSendMessage_Authorization(t *testing.T) {
	svc := NewChatService(newMemHotStore(), newMemArchive(), testArtists, nil)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, SendParams{SenderUserId: 8, ChatDocId: "3_7", Text: "x"})
	assert.True(t, xerr.IsCode(err, xerr.Forbidden))

	_, err = svc.SendMessage(ctx, SendParams{SenderUserId: 7, ChatDocId: "3_7", Text: "x", AsArtist: true})
	assert.True(t, xerr.IsCode(err, xerr.Forbidden))

	_, err = svc.SendMessage(ctx, SendParams{SenderUserId: 7, ChatDocId: "4_7", Text: "x"})
	assert.True(t, xerr.IsCode(err, xerr.NotFound))

	_, err = svc.SendMessage(ctx, SendParams{SenderUserId: 7, ChatDocId: "bad", Text: "x"})
	assert.True(t, xerr.IsCode(err, xerr.BadRequest))

	_, err = svc.SendMessage(ctx, SendParams{SenderUserId: 7, ChatDocId: "3_7", Text: "   "})
	assert.True(t, xerr.IsCode(err, xerr.BadRequest))
}

func TestSendMessage_NotifyFailureDoesNotFailSend(t *testing.T) {
	store := newMemHotStore()
	svc := NewChatService(store, newMemArchive(), testArtists, &captureNotifier{err: errors.New("kafka down")})

	item, err := svc.SendMessage(context.Background(), SendParams{SenderUserId: 7, ChatDocId: "3_7", Text: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, item.Id)
	assert.Equal(t, 1, store.total())
}

func TestListArchived_EitherPartyCanRead(t *testing.T) {
	archive := newMemArchive()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, archive.Insert(ctx, &entity.ChatMessage{ChatDocId: "3_7", FirebaseMessageId: string(rune('a' + i)), Text: "t"}))
	}
	svc := NewChatService(newMemHotStore(), archive, testArtists, nil)

	res, err := svc.ListArchived(ctx, 7, "3_7", 0, 2)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, int64(3), res.Items[0].Id)
	assert.Equal(t, int64(2), res.NextId)

	res, err = svc.ListArchived(ctx, 30, "3_7", res.NextId, 2)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Zero(t, res.NextId)

	_, err = svc.ListArchived(ctx, 99, "3_7", 0, 2)
	assert.True(t, xerr.IsCode(err, xerr.Forbidden))
}

func TestReadThread_ResetsOwnCounter(t *testing.T) {
	store := newMemHotStore()
	svc := NewChatService(store, newMemArchive(), testArtists, nil)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, SendParams{SenderUserId: 30, ChatDocId: "3_7", Text: "hi", AsArtist: true})
	require.NoError(t, err)
	require.Equal(t, 1, store.threads["3_7"].UnreadUser)

	require.NoError(t, svc.ReadThread(ctx, 7, "3_7", false))
	assert.Zero(t, store.threads["3_7"].UnreadUser)
}

func TestRecipientResolver(t *testing.T) {
	r := NewRecipientResolver(testArtists)
	ctx := context.Background()

	id, err := r.ResolveRecipient(ctx, "3_7", true)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	id, err = r.ResolveRecipient(ctx, "3_7", false)
	require.NoError(t, err)
	assert.Equal(t, int64(30), id)

	_, err = r.ResolveRecipient(ctx, "4_7", false)
	assert.ErrorIs(t, err, notificationService.ErrRecipientNotFound)

	_, err = r.ResolveRecipient(ctx, "garbage", true)
	assert.ErrorIs(t, err, notificationService.ErrRecipientNotFound)

	_, err = r.ResolveRecipient(ctx, "500_7", false)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, notificationService.ErrRecipientNotFound)
}
