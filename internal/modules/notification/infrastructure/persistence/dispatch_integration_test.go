package persistence

import (
	"context"
	"sort"
	"sync"
	"testing"

	deviceService "MediaHub/internal/modules/device/application/service"
	deviceEntity "MediaHub/internal/modules/device/domain/entity"
	devicePersistence "MediaHub/internal/modules/device/infrastructure/persistence"
	"MediaHub/internal/modules/notification/application/service"
	"MediaHub/internal/modules/notification/domain/entity"
	pushService "MediaHub/internal/modules/push/application/service"
	pushDomain "MediaHub/internal/modules/push/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMulticaster struct {
	mu     sync.Mutex
	tokens [][]string
}

func (m *countingMulticaster) SendMulticast(ctx context.Context, msg pushDomain.Message, tokens []string) (*pushDomain.BatchResponse, error) {
	m.mu.Lock()
	m.tokens = append(m.tokens, append([]string(nil), tokens...))
	m.mu.Unlock()
	resp := &pushDomain.BatchResponse{}
	for range tokens {
		resp.Responses = append(resp.Responses, pushDomain.TokenResponse{Success: true})
	}
	return resp, nil
}

func TestDispatch_ExcludesInactiveBindings(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, &deviceEntity.Device{}, &deviceEntity.UserDevice{})

	registry := deviceService.NewDeviceRegistry(devicePersistence.NewDeviceUnitOfWork(db), devicePersistence.NewUserDeviceRepository(db), 20)
	for _, d := range []struct{ device, token string }{
		{"phone", "tok-1"}, {"tablet", "tok-2"}, {"web", "tok-3"}, {"old-phone", "tok-4"},
	} {
		tok := d.token
		_, err := registry.Register(ctx, deviceService.RegisterParams{UserId: 1, DeviceId: d.device, Platform: "android", Token: &tok})
		require.NoError(t, err)
	}
	require.NoError(t, registry.Deactivate(ctx, 1, "old-phone"))

	mc := &countingMulticaster{}
	gateway := pushService.NewPushGateway(mc, pushService.GatewayConfig{})
	recorder := service.NewPushLogRecorder(NewPushLogRepository(db))
	defer recorder.Close()

	dispatcher := service.NewNotificationDispatcher(
		NewUserNotificationRepository(db), nil, nil, registry, gateway, recorder,
		service.RecordPolicy{PushOnlyKinds: []string{entity.KindMessage}}, nil,
	)

	res, err := dispatcher.Notify(ctx, service.NotifyEvent{
		RecipientUserId: 1, ChatDocId: "5_1", Kind: entity.KindMessage, Title: "Artist", Body: "hi", CheckPresence: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.False(t, res.Recorded)
	assert.Equal(t, 3, res.SuccessCount)

	require.Len(t, mc.tokens, 1)
	got := mc.tokens[0]
	sort.Strings(got)
	assert.Equal(t, []string{"tok-1", "tok-2", "tok-3"}, got)

	recorder.Flush()
	var logRow entity.PushNotificationLog
	require.NoError(t, db.First(&logRow).Error)
	assert.Equal(t, entity.PushStatusCompleted, logRow.Status)
	assert.Equal(t, 3, logRow.SuccessCount)

	var recorded int64
	require.NoError(t, db.Model(&entity.UserNotification{}).Count(&recorded).Error)
	assert.Zero(t, recorded)
}
