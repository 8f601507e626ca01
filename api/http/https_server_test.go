package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"MediaHub/internal/config"
	"MediaHub/internal/initial"
	chatEntity "MediaHub/internal/modules/chat/domain/entity"
	notificationEntity "MediaHub/internal/modules/notification/domain/entity"
	pushDomain "MediaHub/internal/modules/push/domain"
	"MediaHub/pkg/util/myjwt"
	"MediaHub/pkg/xerr"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingMulticaster struct {
	mu     sync.Mutex
	tokens []string
	msgs   []pushDomain.Message
}

func (m *recordingMulticaster) SendMulticast(ctx context.Context, msg pushDomain.Message, tokens []string) (*pushDomain.BatchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, tokens...)
	m.msgs = append(m.msgs, msg)
	resp := &pushDomain.BatchResponse{Responses: make([]pushDomain.TokenResponse, len(tokens))}
	for i := range tokens {
		resp.Responses[i] = pushDomain.TokenResponse{Success: true, MessageId: fmt.Sprintf("m-%d", i)}
	}
	return resp, nil
}

// appendOnlyStore 只记录写入的热存储
type appendOnlyStore struct {
	mu       sync.Mutex
	seq      int
	messages []chatEntity.HotMessage
}

func (s *appendOnlyStore) ListThreads(ctx context.Context) ([]chatEntity.ChatThread, error) {
	return nil, nil
}

func (s *appendOnlyStore) GetThread(ctx context.Context, chatDocID string) (*chatEntity.ChatThread, error) {
	return nil, nil
}

func (s *appendOnlyStore) ListMessagesBefore(ctx context.Context, chatDocID string, cutoff time.Time, afterID string, limit int) ([]chatEntity.HotMessage, error) {
	return nil, nil
}

func (s *appendOnlyStore) DeleteMessage(ctx context.Context, chatDocID string, messageID string) (bool, error) {
	return false, nil
}

func (s *appendOnlyStore) AppendMessage(ctx context.Context, msg *chatEntity.HotMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	msg.Id = fmt.Sprintf("hot-%d", s.seq)
	msg.CreatedAt = time.Now()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *appendOnlyStore) UpsertThreadSummary(ctx context.Context, sum chatEntity.ThreadSummary) error {
	return nil
}

func (s *appendOnlyStore) ResetUnread(ctx context.Context, chatDocID string, party string) error {
	return nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t     *testing.T
	srv   *Server
	db    *gorm.DB
	mc    *recordingMulticaster
	store *appendOnlyStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	conf := config.Default()
	conf.JwtConfig.Key = "test-key"
	conf.MainConfig.InternalKey = "internal-key"
	prev := config.GetConfig()
	config.SetConfig(conf)
	t.Cleanup(func() { config.SetConfig(prev) })

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(initial.Models()...))

	ts := &testServer{t: t, db: db, mc: &recordingMulticaster{}, store: &appendOnlyStore{}}
	ts.srv = Build(conf, Deps{DB: db, HotStore: ts.store, Multicaster: ts.mc})
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) do(path string, body interface{}, header map[string]string) envelope {
	ts.t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(ts.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.srv.Engine.ServeHTTP(w, req)
	require.Equal(ts.t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(ts.t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func (ts *testServer) as(userID int64, path string, body interface{}) envelope {
	ts.t.Helper()
	token, err := myjwt.GenerateToken(userID, fmt.Sprintf("user%d", userID))
	require.NoError(ts.t, err)
	return ts.do(path, body, map[string]string{"Authorization": "Bearer " + token})
}

func (ts *testServer) internal(path string, body interface{}) envelope {
	return ts.do(path, body, map[string]string{"X-Internal-Key": "internal-key"})
}

func TestServer_RequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	env := ts.do("/device/register", map[string]string{"device_id": "d1", "platform": "ios"}, nil)
	assert.Equal(t, xerr.Unauthorized, env.Code)

	env = ts.do("/internal/notification/notify", map[string]string{"type": "x", "title": "t", "body": "b"}, map[string]string{"X-Internal-Key": "wrong"})
	assert.Equal(t, xerr.Unauthorized, env.Code)
}

func TestServer_ChatSendPushesToArtistDevices(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.db.Create(&chatEntity.Artist{Id: 3, UserId: 30, Name: "Aurora"}).Error)

	env := ts.as(30, "/device/register", map[string]string{"device_id": "artist-phone", "platform": "ios", "fcm_token": "tok-30"})
	require.Equal(t, xerr.OK, env.Code, env.Message)
	env = ts.as(7, "/device/register", map[string]string{"device_id": "fan-phone", "platform": "android", "fcm_token": "tok-7"})
	require.Equal(t, xerr.OK, env.Code, env.Message)

	env = ts.as(7, "/chat/send", map[string]string{"chat_doc_id": "3_7", "text": "hello"})
	require.Equal(t, xerr.OK, env.Code, env.Message)
	ts.srv.Recorder.Flush()

	assert.Equal(t, []string{"tok-30"}, ts.mc.tokens)
	require.Len(t, ts.mc.msgs, 1)
	assert.Equal(t, "user7", ts.mc.msgs[0].Title)
	assert.Equal(t, "message", ts.mc.msgs[0].Data["type"])
	assert.Equal(t, "3_7", ts.mc.msgs[0].Data["chat_doc_id"])
	assert.Len(t, ts.store.messages, 1)

	// message 类通知只推送不入库
	env = ts.as(30, "/notification/unreadCount", map[string]string{})
	require.Equal(t, xerr.OK, env.Code)
	assert.JSONEq(t, `{"count":0}`, string(env.Data))
}

func TestServer_InternalNotifyRecordsHistory(t *testing.T) {
	ts := newTestServer(t)
	env := ts.as(7, "/device/register", map[string]string{"device_id": "fan-phone", "platform": "android", "fcm_token": "tok-7"})
	require.Equal(t, xerr.OK, env.Code, env.Message)

	env = ts.internal("/internal/notification/notify", map[string]interface{}{
		"recipient_user_id": 7,
		"type":              "liveStream",
		"title":             "Aurora is live",
		"body":              "tap to join",
		"live_stream_id":    99,
	})
	require.Equal(t, xerr.OK, env.Code, env.Message)
	var res struct {
		Recorded       bool  `json:"recorded"`
		NotificationId int64 `json:"notification_id"`
		Sent           bool  `json:"sent"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Recorded)
	assert.True(t, res.Sent)
	assert.NotZero(t, res.NotificationId)
	assert.Equal(t, []string{"tok-7"}, ts.mc.tokens)

	env = ts.as(7, "/notification/unreadCount", map[string]string{})
	assert.JSONEq(t, `{"count":1}`, string(env.Data))

	env = ts.as(7, "/notification/readAll", map[string]string{})
	require.Equal(t, xerr.OK, env.Code)
	env = ts.as(7, "/notification/unreadCount", map[string]string{})
	assert.JSONEq(t, `{"count":0}`, string(env.Data))
}

func TestServer_PresenceSuppressesChatPush(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.db.Create(&chatEntity.Artist{Id: 3, UserId: 30, Name: "Aurora"}).Error)
	env := ts.as(30, "/device/register", map[string]string{"device_id": "artist-phone", "platform": "ios", "fcm_token": "tok-30"})
	require.Equal(t, xerr.OK, env.Code, env.Message)

	env = ts.as(30, "/presence/update", map[string]string{"screen": "chat", "context_id": "3_7"})
	require.Equal(t, xerr.OK, env.Code, env.Message)

	env = ts.as(7, "/chat/send", map[string]string{"chat_doc_id": "3_7", "text": "hello"})
	require.Equal(t, xerr.OK, env.Code, env.Message)
	assert.Empty(t, ts.mc.tokens)
}

func TestServer_InternalTokensSkipDeactivatedDevices(t *testing.T) {
	ts := newTestServer(t)
	for _, d := range []string{"a", "b"} {
		env := ts.as(7, "/device/register", map[string]string{"device_id": "dev-" + d, "platform": "web", "fcm_token": "tok-" + d})
		require.Equal(t, xerr.OK, env.Code, env.Message)
	}
	env := ts.as(7, "/device/deregister", map[string]string{"device_id": "dev-a"})
	require.Equal(t, xerr.OK, env.Code, env.Message)

	env = ts.internal("/internal/device/tokens", map[string]interface{}{"user_ids": []int64{7, 8}})
	require.Equal(t, xerr.OK, env.Code, env.Message)
	assert.JSONEq(t, `{"tokens":{"7":["tok-b"],"8":[]}}`, string(env.Data))

	env = ts.internal("/internal/device/tokens", map[string]interface{}{"user_ids": []int64{}})
	assert.Equal(t, xerr.BadRequest, env.Code)
}

func TestServer_SendAfterCloseStillPushes(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.db.Create(&chatEntity.Artist{Id: 3, UserId: 30, Name: "Aurora"}).Error)
	env := ts.as(30, "/device/register", map[string]string{"device_id": "artist-phone", "platform": "ios", "fcm_token": "tok-30"})
	require.Equal(t, xerr.OK, env.Code, env.Message)

	ts.srv.Close()
	assert.Zero(t, ts.srv.Hub.OnlineCount())

	// 关闭后推送日志不再写入，但请求不能因此失败
	require.NotPanics(t, func() {
		env = ts.as(7, "/chat/send", map[string]string{"chat_doc_id": "3_7", "text": "late"})
	})
	require.Equal(t, xerr.OK, env.Code, env.Message)
	assert.Equal(t, []string{"tok-30"}, ts.mc.tokens)

	var logs int64
	require.NoError(t, ts.db.Model(&notificationEntity.PushNotificationLog{}).Count(&logs).Error)
	assert.Zero(t, logs)
}
